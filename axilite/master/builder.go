package master

import (
	"github.com/sarchlab/axisim/axilite"
	"github.com/sarchlab/axisim/sim"
)

// Builder can build masters.
type Builder struct {
	bus   *axilite.Bus
	clock axilite.Clock
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{}
}

// WithBus sets the bus the master drives.
func (b Builder) WithBus(bus *axilite.Bus) Builder {
	b.bus = bus
	return b
}

// WithClock sets the clock the master waits on.
func (b Builder) WithClock(clock axilite.Clock) Builder {
	b.clock = clock
	return b
}

// Build creates a master and drives its output lines low.
func (b Builder) Build(name string) *Comp {
	if b.bus == nil {
		panic("bus is not set")
	}

	if b.clock == nil {
		panic("clock is not set")
	}

	c := &Comp{
		ComponentBase: sim.NewComponentBase(name),
		bus:           b.bus,
		clock:         b.clock,
	}

	axilite.InitSignal(b.bus.AW.Valid, 0)
	axilite.InitSignal(b.bus.W.Valid, 0)
	axilite.InitSignal(b.bus.B.Ready, 0)
	axilite.InitSignal(b.bus.AR.Valid, 0)
	axilite.InitSignal(b.bus.R.Ready, 0)

	return c
}
