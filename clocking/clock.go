// Package clocking drives cooperative processes from a simulated clock.
//
// A process is a function that runs on its own goroutine but only executes
// while the clock hands control to it. At every rising edge the clock resumes
// the parked processes one at a time, in the order they parked, and commits
// the wires after the last one parks again. A process gives control back by
// calling AwaitNextEdge or by returning.
package clocking

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/wiring"
)

// ErrClockStopped is returned by AwaitNextEdge once the clock has stopped.
var ErrClockStopped = errors.New("clocking: clock stopped")

var (
	// HookPosRisingEdge is triggered at the start of each edge, before any
	// process is resumed. The item is the cycle number.
	HookPosRisingEdge = &sim.HookPos{Name: "Rising Edge"}

	// HookPosEdgeSettled is triggered after the wires are committed. The item
	// is the cycle number of the edge that just finished.
	HookPosEdgeSettled = &sim.HookPos{Name: "Edge Settled"}
)

type process struct {
	name   string
	daemon bool
	wake   chan bool
}

// A Clock is a ticking component whose ticks are the rising edges of a
// synchronous design.
type Clock struct {
	*sim.TickingComponent

	wires *wiring.WireSet

	lock          sync.Mutex
	cycle         uint64
	parked        []*process
	running       *process
	ticking       bool
	stopped       bool
	numForeground int
	errs          []error

	yield chan struct{}
}

// Go starts a foreground process at the next edge. The simulation keeps
// ticking while any foreground process is alive.
func (c *Clock) Go(name string, fn func() error) {
	c.start(name, false, fn)
}

// GoDaemon starts a process that does not keep the simulation alive, such as
// a responder that loops forever.
func (c *Clock) GoDaemon(name string, fn func() error) {
	c.start(name, true, fn)
}

func (c *Clock) start(name string, daemon bool, fn func() error) {
	p := &process{
		name:   name,
		daemon: daemon,
		wake:   make(chan bool),
	}

	c.lock.Lock()
	if c.stopped {
		c.lock.Unlock()
		panic("cannot start process " + name + " on a stopped clock")
	}

	if !daemon {
		c.numForeground++
	}

	c.parked = append(c.parked, p)
	c.lock.Unlock()

	go c.run(p, fn)

	c.TickLater()
}

func (c *Clock) run(p *process, fn func() error) {
	var err error
	if <-p.wake {
		err = fn()
	}

	c.lock.Lock()
	if !p.daemon {
		c.numForeground--
	}

	if err != nil && !errors.Is(err, ErrClockStopped) {
		c.errs = append(c.errs, fmt.Errorf("process %s: %w", p.name, err))
	}
	c.lock.Unlock()

	c.yield <- struct{}{}
}

// AwaitNextEdge parks the calling process until the next rising edge. It must
// be called from a process started by Go or GoDaemon.
func (c *Clock) AwaitNextEdge() error {
	c.lock.Lock()
	if c.stopped {
		c.lock.Unlock()
		return ErrClockStopped
	}

	p := c.running
	if p == nil {
		c.lock.Unlock()
		panic("AwaitNextEdge must be called from a clock process")
	}

	c.parked = append(c.parked, p)
	c.lock.Unlock()

	c.yield <- struct{}{}

	if !<-p.wake {
		return ErrClockStopped
	}

	return nil
}

// Tick runs one rising edge.
func (c *Clock) Tick() bool {
	c.lock.Lock()
	if c.stopped {
		c.lock.Unlock()
		return false
	}

	cycle := c.cycle
	procs := c.parked
	c.parked = nil
	c.ticking = true
	c.lock.Unlock()

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosRisingEdge,
		Item:   cycle,
	})

	for _, p := range procs {
		c.resume(p)
	}

	c.wires.Commit(cycle + 1)

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosEdgeSettled,
		Item:   cycle,
	})

	c.lock.Lock()
	c.cycle++
	c.ticking = false
	stopped := c.stopped
	alive := c.numForeground > 0
	c.lock.Unlock()

	if stopped {
		c.releaseAll()
		return false
	}

	return alive
}

func (c *Clock) resume(p *process) {
	c.lock.Lock()
	c.running = p
	c.lock.Unlock()

	p.wake <- true
	<-c.yield

	c.lock.Lock()
	c.running = nil
	c.lock.Unlock()
}

// Stop stops the clock. Every parked process is released with
// ErrClockStopped and no more edges are produced. Calling Stop from within a
// process takes effect at the end of the current edge.
func (c *Clock) Stop() {
	c.lock.Lock()
	if c.stopped {
		c.lock.Unlock()
		return
	}

	c.stopped = true
	ticking := c.ticking
	c.lock.Unlock()

	if ticking {
		return
	}

	c.releaseAll()
}

func (c *Clock) releaseAll() {
	for {
		c.lock.Lock()
		if len(c.parked) == 0 {
			c.lock.Unlock()
			return
		}

		p := c.parked[0]
		c.parked = c.parked[1:]
		c.lock.Unlock()

		p.wake <- false
		<-c.yield
	}
}

// IsStopped returns true if the clock has been stopped.
func (c *Clock) IsStopped() bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.stopped
}

// CurrentCycle returns the number of the edge being processed, or of the next
// edge when called between edges.
func (c *Clock) CurrentCycle() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.cycle
}

// NumProcesses returns the number of parked processes and how many of them
// are in the foreground.
func (c *Clock) NumProcesses() (parked, foreground int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return len(c.parked), c.numForeground
}

// Errors returns the errors returned by processes, excluding
// ErrClockStopped.
func (c *Clock) Errors() []error {
	c.lock.Lock()
	defer c.lock.Unlock()

	errs := make([]error, len(c.errs))
	copy(errs, c.errs)

	return errs
}

// Wires returns the wire set committed by the clock.
func (c *Clock) Wires() *wiring.WireSet {
	return c.wires
}

type endHandler struct {
	clock *Clock
}

func (h endHandler) Handle(_ sim.VTimeInSec) {
	h.clock.Stop()
}
