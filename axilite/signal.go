package axilite

// Signal is one line (or a group of lines) of the bus.
type Signal interface {
	// Get returns the value observed at the current edge.
	Get() uint64

	// Set drives a value that becomes visible at the next edge.
	Set(v uint64)
}

// Initializer is implemented by signals that can take a value before the
// first edge.
type Initializer interface {
	Init(v uint64)
}

// Clock provides the only suspension point of the protocol.
type Clock interface {
	// AwaitNextEdge suspends the caller until the next rising edge. An error
	// means the clock will never tick again and the caller must return.
	AwaitNextEdge() error
}

// InitSignal sets the pre-edge-0 value of a signal. Signals that cannot be
// initialized are driven instead.
func InitSignal(s Signal, v uint64) {
	if init, ok := s.(Initializer); ok {
		init.Init(v)
		return
	}

	s.Set(v)
}
