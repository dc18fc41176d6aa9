package wiring

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sarchlab/axisim/axilite"
	"github.com/sarchlab/axisim/sim"
)

// HookPosWireChange is triggered for every wire whose value changes at a
// commit. The hook item is the *Wire and the detail is a WireChange.
var HookPosWireChange = &sim.HookPos{Name: "Wire Change"}

// WireChange describes a value change of a wire.
type WireChange struct {
	// Cycle is the first cycle at which the new value is observed.
	Cycle uint64
	Old   uint64
	New   uint64
}

// A WireSet owns all the wires of a clock domain and commits them together.
type WireSet struct {
	*sim.HookableBase

	lock   sync.Mutex
	wires  []*Wire
	byName map[string]*Wire
}

// NewWireSet creates an empty WireSet.
func NewWireSet() *WireSet {
	return &WireSet{
		HookableBase: sim.NewHookableBase(),
		byName:       make(map[string]*Wire),
	}
}

// NewWire creates a wire that is committed by the set. Wire names must be
// unique within a set.
func (s *WireSet) NewWire(name string, width int) *Wire {
	s.lock.Lock()
	defer s.lock.Unlock()

	if name == "" {
		panic("wire name must not be empty")
	}

	if _, found := s.byName[name]; found {
		panic("wire " + name + " already exists")
	}

	w := newWire(name, width, vcdCode(len(s.wires)))
	s.wires = append(s.wires, w)
	s.byName[name] = w

	return w
}

// SignalMaker returns a function that creates bus signals as wires of this
// set.
func (s *WireSet) SignalMaker() axilite.SignalMaker {
	return func(name string, width int) axilite.Signal {
		return s.NewWire(name, width)
	}
}

// GetWireByName returns the wire with the given name.
func (s *WireSet) GetWireByName(name string) *Wire {
	s.lock.Lock()
	defer s.lock.Unlock()

	w, found := s.byName[name]
	if !found {
		names := make([]string, 0, len(s.wires))
		for _, w := range s.wires {
			names = append(names, w.name)
		}

		panic(fmt.Sprintf("wire %s is not available, available wires are: %s",
			name, strings.Join(names, ", ")))
	}

	return w
}

// Wires returns the wires in creation order.
func (s *WireSet) Wires() []*Wire {
	s.lock.Lock()
	defer s.lock.Unlock()

	wires := make([]*Wire, len(s.wires))
	copy(wires, s.wires)

	return wires
}

// Commit latches every driven value. The new values are observed starting
// from the given cycle.
func (s *WireSet) Commit(cycle uint64) {
	for _, w := range s.Wires() {
		prev, cur, changed := w.commit()
		if !changed || s.NumHooks() == 0 {
			continue
		}

		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosWireChange,
			Item:   w,
			Detail: WireChange{Cycle: cycle, Old: prev, New: cur},
		})
	}
}

// Snapshot returns the observed value of every wire, keyed by name.
func (s *WireSet) Snapshot() map[string]uint64 {
	wires := s.Wires()

	values := make(map[string]uint64, len(wires))
	for _, w := range wires {
		values[w.name] = w.Get()
	}

	return values
}

// Names returns the sorted names of all the wires.
func (s *WireSet) Names() []string {
	wires := s.Wires()

	names := make([]string, 0, len(wires))
	for _, w := range wires {
		names = append(names, w.name)
	}

	sort.Strings(names)

	return names
}
