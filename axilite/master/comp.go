// Package master provides the AXI4-Lite master transactor. A master turns a
// Write or Read call into the valid/ready handshakes of one transaction and
// returns the response of the slave.
package master

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/axisim/axilite"
	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/tracing"
)

// Task steps reported by the master.
const (
	StepReqAccepted = "req_accepted"
	StepRspReceived = "rsp_received"
	StepTimedOut    = "timed_out"
)

// Stats counts the transactions issued by a master.
type Stats struct {
	Writes   uint64
	Reads    uint64
	Timeouts uint64
}

// Comp is an AXI4-Lite master. A master runs one transaction at a time and
// its methods must be called from a process of the clock it waits on.
// Concurrent calls are not supported.
type Comp struct {
	*sim.ComponentBase

	bus   *axilite.Bus
	clock axilite.Clock

	statsLock sync.Mutex
	stats     Stats
}

// Bus returns the bus driven by the master.
func (c *Comp) Bus() *axilite.Bus {
	return c.bus
}

// Stats returns the transaction counters.
func (c *Comp) Stats() Stats {
	c.statsLock.Lock()
	defer c.statsLock.Unlock()

	return c.stats
}

// Write writes data to addr and returns the write response. The timeout
// bounds every phase separately. If a phase runs out of cycles, the master
// deasserts its own lines and returns ErrTimedOut without waiting for the
// rest of the transaction. A request that is never accepted returns one edge
// after its valid is withdrawn.
func (c *Comp) Write(
	addr axilite.Address,
	data axilite.Data,
	timeout axilite.Timeout,
) (axilite.Resp, error) {
	c.count(func(s *Stats) { s.Writes++ })

	taskID := c.startTask(axilite.KindWrite, addr)
	defer tracing.EndTask(taskID, c)

	c.bus.AW.Offer(uint64(addr))
	c.bus.W.Offer(uint64(data))

	payload, err := c.transact(taskID, timeout, c.bus.B, c.bus.AW, c.bus.W)
	if err != nil {
		return 0, fmt.Errorf("%s: write 0x%x: %w", c.Name(), addr, err)
	}

	return axilite.Resp(payload[0]), nil
}

// Read reads addr and returns the data and the read response. The data is
// only meaningful if the response is OKAY. Timeouts behave as in Write.
func (c *Comp) Read(
	addr axilite.Address,
	timeout axilite.Timeout,
) (axilite.Data, axilite.Resp, error) {
	c.count(func(s *Stats) { s.Reads++ })

	taskID := c.startTask(axilite.KindRead, addr)
	defer tracing.EndTask(taskID, c)

	c.bus.AR.Offer(uint64(addr))

	payload, err := c.transact(taskID, timeout, c.bus.R, c.bus.AR)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: read 0x%x: %w", c.Name(), addr, err)
	}

	return axilite.Data(payload[0]), axilite.Resp(payload[1]), nil
}

// transact runs the request phase on the already offered request channels
// and then the response phase on rsp.
func (c *Comp) transact(
	taskID string,
	timeout axilite.Timeout,
	rsp *axilite.Channel,
	reqs ...*axilite.Channel,
) ([]uint64, error) {
	if err := c.clock.AwaitNextEdge(); err != nil {
		return nil, err
	}

	err := axilite.AwaitAcceptance(c.clock, timeout, reqs...)
	if errors.Is(err, axilite.ErrTimedOut) {
		err = c.failed(taskID, err)

		// A ready raised for the withdrawn offer is still observed at the
		// next edge and must not be taken for the acceptance of a new one.
		if stopErr := c.clock.AwaitNextEdge(); stopErr != nil {
			return nil, stopErr
		}

		return nil, err
	}

	if err != nil {
		return nil, err
	}

	tracing.AddTaskStep(taskID, c, StepReqAccepted)

	rsp.Open()

	if err := c.clock.AwaitNextEdge(); err != nil {
		rsp.Close()
		return nil, err
	}

	payload, err := rsp.AwaitOffer(c.clock, timeout)
	if err != nil {
		return nil, c.failed(taskID, err)
	}

	tracing.AddTaskStep(taskID, c, StepRspReceived)

	return payload, nil
}

func (c *Comp) failed(taskID string, err error) error {
	if errors.Is(err, axilite.ErrTimedOut) {
		c.count(func(s *Stats) { s.Timeouts++ })
		tracing.AddTaskStep(taskID, c, StepTimedOut)
	}

	return err
}

func (c *Comp) startTask(kind axilite.Kind, addr axilite.Address) string {
	taskID := sim.GetIDGenerator().Generate()

	tracing.StartTask(taskID, "", c, "req_out", kind.String(), addr)

	return taskID
}

func (c *Comp) count(f func(s *Stats)) {
	c.statsLock.Lock()
	f(&c.stats)
	c.statsLock.Unlock()
}
