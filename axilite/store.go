package axilite

import "sync"

// Store is the backing memory of a slave.
type Store interface {
	// Get returns the data stored at an address and whether it was ever
	// written.
	Get(addr Address) (Data, bool)

	// Put stores data at an address.
	Put(addr Address, data Data)
}

// MapStore is a Store backed by a map. It has no capacity bound and never
// evicts.
type MapStore struct {
	lock sync.RWMutex
	mem  map[Address]Data
}

// NewMapStore creates an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{mem: make(map[Address]Data)}
}

// Get returns the data at the address.
func (s *MapStore) Get(addr Address) (Data, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	data, found := s.mem[addr]

	return data, found
}

// Put stores the data at the address.
func (s *MapStore) Put(addr Address, data Data) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.mem[addr] = data
}

// Len returns the number of addresses ever written.
func (s *MapStore) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.mem)
}

// Snapshot returns a copy of the content.
func (s *MapStore) Snapshot() map[Address]Data {
	s.lock.RLock()
	defer s.lock.RUnlock()

	snapshot := make(map[Address]Data, len(s.mem))
	for addr, data := range s.mem {
		snapshot[addr] = data
	}

	return snapshot
}
