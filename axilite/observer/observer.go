// Package observer provides a passive monitor of an AXI4-Lite bus. It never
// drives a line; it reports every handshake and every breach of the rule that
// valid and the payload must be held until ready.
package observer

import (
	"slices"
	"sync"

	"github.com/sarchlab/axisim/axilite"
	"github.com/sarchlab/axisim/sim"
)

var (
	// HookPosTransfer is triggered for every edge at which a channel sees
	// valid and ready together. The item is a Transfer.
	HookPosTransfer = &sim.HookPos{Name: "AXI Transfer"}

	// HookPosViolation is triggered when a channel breaks the stability
	// rule. The item is a Violation.
	HookPosViolation = &sim.HookPos{Name: "AXI Violation"}
)

// Violation reasons.
const (
	ReasonValidWithdrawn = "valid withdrawn before handshake"
	ReasonPayloadChanged = "payload changed while waiting for ready"
)

// Transfer is one handshake on a channel.
type Transfer struct {
	Cycle   uint64
	Channel string
	Payload []uint64
}

// Violation is one breach of the stability rule.
type Violation struct {
	Cycle   uint64
	Channel string
	Reason  string
}

// Clock is the clock an observer samples on.
type Clock interface {
	axilite.Clock
	CurrentCycle() uint64
}

// Stats counts what the observer has seen.
type Stats struct {
	Transfers  map[string]uint64
	Violations uint64
}

type channelState struct {
	valid   bool
	ready   bool
	payload []uint64
}

// Comp is a bus observer.
type Comp struct {
	*sim.ComponentBase

	bus   *axilite.Bus
	clock Clock
	last  map[*axilite.Channel]channelState

	statsLock  sync.Mutex
	transfers  map[string]uint64
	violations uint64
}

// Builder can build observers.
type Builder struct {
	bus   *axilite.Bus
	clock Clock
}

// MakeBuilder returns a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithBus sets the bus to observe.
func (b Builder) WithBus(bus *axilite.Bus) Builder {
	b.bus = bus
	return b
}

// WithClock sets the clock to sample on.
func (b Builder) WithClock(clock Clock) Builder {
	b.clock = clock
	return b
}

// Build creates an observer.
func (b Builder) Build(name string) *Comp {
	if b.bus == nil {
		panic("bus is not set")
	}

	if b.clock == nil {
		panic("clock is not set")
	}

	return &Comp{
		ComponentBase: sim.NewComponentBase(name),
		bus:           b.bus,
		clock:         b.clock,
		last:          make(map[*axilite.Channel]channelState),
		transfers:     make(map[string]uint64),
	}
}

// Run samples the bus at every edge until the clock stops.
func (c *Comp) Run() error {
	for {
		c.sample(c.clock.CurrentCycle())

		if err := c.clock.AwaitNextEdge(); err != nil {
			return err
		}
	}
}

func (c *Comp) sample(cycle uint64) {
	for _, ch := range c.bus.Channels() {
		now := channelState{
			valid:   ch.IsValid(),
			ready:   ch.IsReady(),
			payload: ch.Sample(),
		}

		c.check(cycle, ch, c.last[ch], now)
		c.last[ch] = now
	}
}

func (c *Comp) check(
	cycle uint64,
	ch *axilite.Channel,
	prev, now channelState,
) {
	if now.valid && now.ready {
		c.transfer(Transfer{
			Cycle:   cycle,
			Channel: ch.Name,
			Payload: now.payload,
		})
	}

	if !prev.valid || prev.ready {
		return
	}

	switch {
	case !now.valid:
		c.violation(Violation{
			Cycle:   cycle,
			Channel: ch.Name,
			Reason:  ReasonValidWithdrawn,
		})
	case !slices.Equal(prev.payload, now.payload):
		c.violation(Violation{
			Cycle:   cycle,
			Channel: ch.Name,
			Reason:  ReasonPayloadChanged,
		})
	}
}

func (c *Comp) transfer(t Transfer) {
	c.statsLock.Lock()
	c.transfers[t.Channel]++
	c.statsLock.Unlock()

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosTransfer,
		Item:   t,
	})
}

func (c *Comp) violation(v Violation) {
	c.statsLock.Lock()
	c.violations++
	c.statsLock.Unlock()

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosViolation,
		Item:   v,
	})
}

// Stats returns a copy of the counters.
func (c *Comp) Stats() Stats {
	c.statsLock.Lock()
	defer c.statsLock.Unlock()

	s := Stats{
		Transfers:  make(map[string]uint64, len(c.transfers)),
		Violations: c.violations,
	}

	for name, n := range c.transfers {
		s.Transfers[name] = n
	}

	return s
}
