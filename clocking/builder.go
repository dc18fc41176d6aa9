package clocking

import (
	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/wiring"
)

// A Builder can build clocks.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
	wires  *wiring.WireSet
}

// MakeBuilder creates a builder with a 1 GHz clock.
func MakeBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
	}
}

// WithEngine sets the engine that schedules the edges.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the clock frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithWires sets the wires committed at every edge. A new wire set is
// created if none is given.
func (b Builder) WithWires(wires *wiring.WireSet) Builder {
	b.wires = wires
	return b
}

// Build creates a clock. The clock stops when the engine reports the end of
// the simulation.
func (b Builder) Build(name string) *Clock {
	if b.engine == nil {
		panic("engine is not set")
	}

	c := &Clock{
		wires: b.wires,
		yield: make(chan struct{}),
	}

	if c.wires == nil {
		c.wires = wiring.NewWireSet()
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	b.engine.RegisterSimulationEndHandler(endHandler{clock: c})

	return c
}
