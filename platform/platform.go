// Package platform assembles a complete AXI4-Lite system: an engine, the
// wires, a clock, a bus, a master, a slave and an observer.
package platform

import (
	"errors"
	"fmt"

	"github.com/sarchlab/axisim/axilite"
	"github.com/sarchlab/axisim/axilite/master"
	"github.com/sarchlab/axisim/axilite/observer"
	"github.com/sarchlab/axisim/axilite/slave"
	"github.com/sarchlab/axisim/clocking"
	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/wiring"
)

// Config describes the system to build.
type Config struct {
	Bus      axilite.BusConfig
	Freq     sim.Freq
	MissResp axilite.Resp
	Observe  bool
}

// DefaultConfig returns a 32/32 bus clocked at 1 GHz whose slave answers
// misses with SLVERR, observed.
func DefaultConfig() Config {
	return Config{
		Bus:      axilite.DefaultBusConfig(),
		Freq:     1 * sim.GHz,
		MissResp: axilite.RespSlvErr,
		Observe:  true,
	}
}

// Platform is a built system.
type Platform struct {
	Engine   *sim.SerialEngine
	Wires    *wiring.WireSet
	Clock    *clocking.Clock
	Bus      *axilite.Bus
	Store    *axilite.MapStore
	Master   *master.Comp
	Slave    *slave.Comp
	Observer *observer.Comp
}

// Components returns the named components of the platform.
func (p *Platform) Components() []sim.Named {
	comps := []sim.Named{p.Clock, p.Master, p.Slave}
	if p.Observer != nil {
		comps = append(comps, p.Observer)
	}

	return comps
}

// Run drives the master with fn in a foreground process and runs the
// simulation until fn returns. The errors of every process are joined.
func (p *Platform) Run(fn func(m *master.Comp) error) error {
	p.Clock.Go("Driver", func() error { return fn(p.Master) })

	if err := p.Engine.Run(); err != nil {
		return fmt.Errorf("platform: %w", err)
	}

	p.Engine.Finished()

	return errors.Join(p.Clock.Errors()...)
}

// Builder can build platforms.
type Builder struct {
	config Config
}

// MakeBuilder returns a Builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(config Config) Builder {
	b.config = config
	return b
}

// WithBusConfig sets the bus widths.
func (b Builder) WithBusConfig(config axilite.BusConfig) Builder {
	b.config.Bus = config
	return b
}

// WithFreq sets the clock frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.config.Freq = freq
	return b
}

// WithMissResp sets how the slave answers reads of unwritten addresses.
func (b Builder) WithMissResp(resp axilite.Resp) Builder {
	b.config.MissResp = resp
	return b
}

// WithoutObserver builds the system without a bus observer.
func (b Builder) WithoutObserver() Builder {
	b.config.Observe = false
	return b
}

// Build creates the platform. Component names are prefixed with name.
func (b Builder) Build(name string) *Platform {
	p := &Platform{
		Engine: sim.NewSerialEngine(),
		Wires:  wiring.NewWireSet(),
		Store:  axilite.NewMapStore(),
	}

	p.Clock = clocking.MakeBuilder().
		WithEngine(p.Engine).
		WithFreq(b.config.Freq).
		WithWires(p.Wires).
		Build(sim.BuildName(name, "Clock"))

	p.Bus = axilite.MakeBusBuilder().
		WithConfig(b.config.Bus).
		WithSignalMaker(p.Wires.SignalMaker()).
		Build("axil")

	p.Master = master.MakeBuilder().
		WithBus(p.Bus).
		WithClock(p.Clock).
		Build(sim.BuildName(name, "Master"))

	p.Slave = slave.MakeBuilder().
		WithBus(p.Bus).
		WithStore(p.Store).
		WithMissResp(b.config.MissResp).
		Build(sim.BuildName(name, "Slave"))
	p.Clock.GoDaemon("Slave", func() error { return p.Slave.Run(p.Clock) })

	if b.config.Observe {
		p.Observer = observer.MakeBuilder().
			WithBus(p.Bus).
			WithClock(p.Clock).
			Build(sim.BuildName(name, "Observer"))
		p.Clock.GoDaemon("Observer", p.Observer.Run)
	}

	return p
}
