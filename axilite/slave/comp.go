// Package slave provides an AXI4-Lite slave that serves transactions from a
// Store, one at a time.
package slave

import (
	"fmt"
	"sync"

	"github.com/sarchlab/axisim/axilite"
	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/tracing"
)

// Task steps reported by the slave.
const (
	StepAccepted = "accepted"
	StepExecuted = "executed"
)

// Stats counts the requests served by a slave.
type Stats struct {
	Writes    uint64
	Reads     uint64
	Misses    uint64
	Abandoned uint64
}

type request struct {
	kind   axilite.Kind
	addr   axilite.Address
	data   axilite.Data
	taskID string
}

// Comp is an AXI4-Lite slave backed by a Store.
type Comp struct {
	*sim.ComponentBase

	bus      *axilite.Bus
	store    axilite.Store
	missResp axilite.Resp

	statsLock sync.Mutex
	stats     Stats
}

// Bus returns the bus the slave responds on.
func (c *Comp) Bus() *axilite.Bus {
	return c.bus
}

// Store returns the backing store.
func (c *Comp) Store() axilite.Store {
	return c.store
}

// Stats returns the request counters.
func (c *Comp) Stats() Stats {
	c.statsLock.Lock()
	defer c.statsLock.Unlock()

	return c.stats
}

// Run serves requests until the clock stops, and then returns the error of
// the clock. A write offered in the same cycle as a read is served first.
func (c *Comp) Run(clk axilite.Clock) error {
	for {
		req, err := c.accept(clk)
		if err != nil {
			return c.stopped(err)
		}

		if err := clk.AwaitNextEdge(); err != nil {
			return c.stopped(err)
		}

		c.bus.AW.Close()
		c.bus.W.Close()
		c.bus.AR.Close()

		if !c.committed(req) {
			c.count(func(s *Stats) { s.Abandoned++ })
			continue
		}

		req.taskID = sim.GetIDGenerator().Generate()
		tracing.StartTask(req.taskID, "", c, "req_in", req.kind.String(), req.addr)
		tracing.AddTaskStep(req.taskID, c, StepAccepted)

		rsp := c.execute(req)
		tracing.AddTaskStep(req.taskID, c, StepExecuted)

		if err := clk.AwaitNextEdge(); err != nil {
			return c.stopped(err)
		}

		if err := rsp.AwaitHandshake(clk); err != nil {
			return c.stopped(err)
		}

		tracing.EndTask(req.taskID, c)
	}
}

// accept waits for a request and asserts the ready lines of its channels.
func (c *Comp) accept(clk axilite.Clock) (request, error) {
	for {
		if c.bus.AW.IsValid() && c.bus.W.IsValid() {
			c.bus.AW.Open()
			c.bus.W.Open()

			return request{
				kind: axilite.KindWrite,
				addr: axilite.Address(c.bus.AW.Sample()[0]),
				data: axilite.Data(c.bus.W.Sample()[0]),
			}, nil
		}

		if c.bus.AR.IsValid() {
			c.bus.AR.Open()

			return request{
				kind: axilite.KindRead,
				addr: axilite.Address(c.bus.AR.Sample()[0]),
			}, nil
		}

		if err := clk.AwaitNextEdge(); err != nil {
			return request{}, err
		}
	}
}

// committed tells if the request channels completed their handshake at this
// edge. A requester that gave up has withdrawn valid before the edge.
func (c *Comp) committed(req request) bool {
	if req.kind == axilite.KindWrite {
		return c.bus.AW.Fired() && c.bus.W.Fired()
	}

	return c.bus.AR.Fired()
}

// execute performs the request and offers the response.
func (c *Comp) execute(req request) *axilite.Channel {
	if req.kind == axilite.KindWrite {
		c.store.Put(req.addr, req.data)
		c.count(func(s *Stats) { s.Writes++ })

		c.bus.B.Offer(uint64(axilite.RespOkay))

		return c.bus.B
	}

	c.count(func(s *Stats) { s.Reads++ })

	data, found := c.store.Get(req.addr)
	if !found {
		c.count(func(s *Stats) { s.Misses++ })

		// RDATA keeps its last value.
		c.bus.R.OfferFrom(1, uint64(c.missResp))

		return c.bus.R
	}

	c.bus.R.Offer(uint64(data), uint64(axilite.RespOkay))

	return c.bus.R
}

func (c *Comp) stopped(err error) error {
	return fmt.Errorf("%s: %w", c.Name(), err)
}

func (c *Comp) count(f func(s *Stats)) {
	c.statsLock.Lock()
	f(&c.stats)
	c.statsLock.Unlock()
}
