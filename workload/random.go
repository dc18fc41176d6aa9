// Package workload provides traffic generators that drive a master.
package workload

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sarchlab/axisim/axilite"
	"github.com/sarchlab/axisim/monitoring"
)

// Master is what a workload drives.
type Master interface {
	Bus() *axilite.Bus
	Write(addr axilite.Address, data axilite.Data,
		timeout axilite.Timeout) (axilite.Resp, error)
	Read(addr axilite.Address,
		timeout axilite.Timeout) (axilite.Data, axilite.Resp, error)
}

// A Mismatch is a read whose outcome disagrees with what was written.
type Mismatch struct {
	Addr axilite.Address
	Want axilite.Data
	Got  axilite.Data
	Resp axilite.Resp
}

func (m Mismatch) String() string {
	return fmt.Sprintf("0x%x: want 0x%x, got 0x%x (%s)",
		uint64(m.Addr), uint64(m.Want), uint64(m.Got), m.Resp)
}

// Report summarizes a workload run.
type Report struct {
	Writes     uint64
	Reads      uint64
	Hits       uint64
	Misses     uint64
	Timeouts   uint64
	Mismatches []Mismatch
}

// OK returns true if every read agreed with the writes before it.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}

func (r Report) String() string {
	return fmt.Sprintf(
		"writes=%d reads=%d hits=%d misses=%d timeouts=%d mismatches=%d",
		r.Writes, r.Reads, r.Hits, r.Misses, r.Timeouts, len(r.Mismatches))
}

// Random issues a fixed number of random writes and reads and checks every
// read against a shadow copy of the memory.
type Random struct {
	rng       *rand.Rand
	numOps    int
	addrSpace uint64
	readRatio float64
	timeout   axilite.Timeout
	bar       *monitoring.ProgressBar

	known     map[axilite.Address]axilite.Data
	uncertain map[axilite.Address]bool
	report    Report
}

// RandomBuilder can build Random workloads.
type RandomBuilder struct {
	seed      int64
	numOps    int
	addrSpace uint64
	readRatio float64
	timeout   axilite.Timeout
	bar       *monitoring.ProgressBar
}

// MakeRandomBuilder returns a builder for 1000 operations over a 4 KiB
// address space, half of them reads, without timeouts.
func MakeRandomBuilder() RandomBuilder {
	return RandomBuilder{
		seed:      1,
		numOps:    1000,
		addrSpace: 4096,
		readRatio: 0.5,
		timeout:   axilite.Unbounded,
	}
}

// WithSeed sets the random seed.
func (b RandomBuilder) WithSeed(seed int64) RandomBuilder {
	b.seed = seed
	return b
}

// WithNumOps sets the number of operations.
func (b RandomBuilder) WithNumOps(n int) RandomBuilder {
	b.numOps = n
	return b
}

// WithAddrSpace sets the size in bytes of the region accessed. Accesses are
// 4-byte aligned.
func (b RandomBuilder) WithAddrSpace(size uint64) RandomBuilder {
	b.addrSpace = size
	return b
}

// WithReadRatio sets the probability that an operation is a read.
func (b RandomBuilder) WithReadRatio(ratio float64) RandomBuilder {
	b.readRatio = ratio
	return b
}

// WithTimeout sets the timeout of every operation.
func (b RandomBuilder) WithTimeout(timeout axilite.Timeout) RandomBuilder {
	b.timeout = timeout
	return b
}

// WithProgressBar sets a bar that tracks the operations.
func (b RandomBuilder) WithProgressBar(bar *monitoring.ProgressBar) RandomBuilder {
	b.bar = bar
	return b
}

// Build creates the workload.
func (b RandomBuilder) Build() *Random {
	if b.numOps < 0 {
		panic("number of operations must not be negative")
	}

	if b.addrSpace < 4 {
		panic("address space must hold at least one word")
	}

	if b.readRatio < 0 || b.readRatio > 1 {
		panic("read ratio must be in [0, 1]")
	}

	return &Random{
		rng:       rand.New(rand.NewSource(b.seed)),
		numOps:    b.numOps,
		addrSpace: b.addrSpace,
		readRatio: b.readRatio,
		timeout:   b.timeout,
		bar:       b.bar,
		known:     make(map[axilite.Address]axilite.Data),
		uncertain: make(map[axilite.Address]bool),
	}
}

// Report returns what happened so far.
func (w *Random) Report() Report {
	r := w.report
	r.Mismatches = append([]Mismatch(nil), w.report.Mismatches...)

	return r
}

// Run issues the operations through m. It must be called from a clock
// process. Timeouts are counted; any other error stops the run.
func (w *Random) Run(m Master) error {
	config := m.Bus().Config()
	addrMask := widthMask(config.AddrWidth)
	dataMask := widthMask(config.DataWidth)

	for i := 0; i < w.numOps; i++ {
		w.startOp()

		addr := axilite.Address(uint64(w.rng.Int63n(int64(w.addrSpace/4)))*4) &
			axilite.Address(addrMask)

		var err error
		if w.shouldRead() {
			err = w.read(m, addr)
		} else {
			data := axilite.Data(w.rng.Uint64() & dataMask)
			err = w.write(m, addr, data)
		}

		w.finishOp()

		if err != nil {
			return err
		}
	}

	return nil
}

func (w *Random) shouldRead() bool {
	if len(w.known) == 0 && len(w.uncertain) == 0 {
		return false
	}

	return w.rng.Float64() < w.readRatio
}

func (w *Random) write(m Master, addr axilite.Address, data axilite.Data) error {
	w.report.Writes++

	resp, err := m.Write(addr, data, w.timeout)
	if errors.Is(err, axilite.ErrTimedOut) {
		w.report.Timeouts++
		w.forget(addr)

		return nil
	}

	if err != nil {
		return err
	}

	if !resp.IsOkay() {
		w.forget(addr)
		return nil
	}

	w.known[addr] = data
	delete(w.uncertain, addr)

	return nil
}

// forget marks an address whose content may or may not have been written.
func (w *Random) forget(addr axilite.Address) {
	delete(w.known, addr)
	w.uncertain[addr] = true
}

func (w *Random) read(m Master, addr axilite.Address) error {
	w.report.Reads++

	data, resp, err := m.Read(addr, w.timeout)
	if errors.Is(err, axilite.ErrTimedOut) {
		w.report.Timeouts++
		return nil
	}

	if err != nil {
		return err
	}

	if resp.IsOkay() {
		w.report.Hits++
	} else {
		w.report.Misses++
	}

	if w.uncertain[addr] {
		return nil
	}

	want, written := w.known[addr]

	switch {
	case written && (!resp.IsOkay() || data != want):
		w.mismatch(Mismatch{Addr: addr, Want: want, Got: data, Resp: resp})
	case !written && resp.IsOkay():
		w.mismatch(Mismatch{Addr: addr, Got: data, Resp: resp})
	}

	return nil
}

func (w *Random) mismatch(m Mismatch) {
	w.report.Mismatches = append(w.report.Mismatches, m)
}

func (w *Random) startOp() {
	if w.bar != nil {
		w.bar.IncrementInProgress(1)
	}
}

func (w *Random) finishOp() {
	if w.bar != nil {
		w.bar.MoveInProgressToFinished(1)
	}
}

func widthMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << width) - 1
}
