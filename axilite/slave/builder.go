package slave

import (
	"github.com/sarchlab/axisim/axilite"
	"github.com/sarchlab/axisim/sim"
)

// Builder can build slaves.
type Builder struct {
	bus      *axilite.Bus
	store    axilite.Store
	missResp axilite.Resp
}

// MakeBuilder returns a Builder that answers reads of unwritten addresses
// with SLVERR.
func MakeBuilder() Builder {
	return Builder{
		missResp: axilite.RespSlvErr,
	}
}

// WithBus sets the bus the slave responds on.
func (b Builder) WithBus(bus *axilite.Bus) Builder {
	b.bus = bus
	return b
}

// WithStore sets the store that holds the written data. A new MapStore is
// used if no store is given.
func (b Builder) WithStore(store axilite.Store) Builder {
	b.store = store
	return b
}

// WithMissResp sets the response to reads of addresses never written.
func (b Builder) WithMissResp(resp axilite.Resp) Builder {
	b.missResp = resp
	return b
}

// Build creates a slave and drives its output lines low.
func (b Builder) Build(name string) *Comp {
	if b.bus == nil {
		panic("bus is not set")
	}

	if b.missResp.IsOkay() {
		panic("a read miss must not be answered with OKAY")
	}

	c := &Comp{
		ComponentBase: sim.NewComponentBase(name),
		bus:           b.bus,
		store:         b.store,
		missResp:      b.missResp,
	}

	if c.store == nil {
		c.store = axilite.NewMapStore()
	}

	axilite.InitSignal(b.bus.AW.Ready, 0)
	axilite.InitSignal(b.bus.W.Ready, 0)
	axilite.InitSignal(b.bus.B.Valid, 0)
	axilite.InitSignal(b.bus.AR.Ready, 0)
	axilite.InitSignal(b.bus.R.Valid, 0)

	return c
}
