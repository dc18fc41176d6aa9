package axilite

import "fmt"

// Timeout is the cycle budget of one transaction phase. It is either
// Unbounded or a fixed number of cycles. The zero value is Unbounded.
type Timeout struct {
	bounded bool
	cycles  uint64
}

// Unbounded waits forever.
var Unbounded = Timeout{}

// Cycles returns a timeout that allows a phase to wait for n edges after its
// first check. Cycles(0) abandons the phase on its first check.
func Cycles(n uint64) Timeout {
	return Timeout{bounded: true, cycles: n}
}

// IsUnbounded returns true if the timeout never expires.
func (t Timeout) IsUnbounded() bool {
	return !t.bounded
}

// NumCycles returns the cycle budget and whether the timeout is bounded.
func (t Timeout) NumCycles() (uint64, bool) {
	return t.cycles, t.bounded
}

func (t Timeout) String() string {
	if !t.bounded {
		return "unbounded"
	}

	return fmt.Sprintf("%d cycles", t.cycles)
}

// Start returns a fresh countdown for one phase.
func (t Timeout) Start() *Countdown {
	return &Countdown{bounded: t.bounded, remaining: t.cycles}
}

// Countdown tracks the remaining budget of a phase.
type Countdown struct {
	bounded   bool
	remaining uint64
}

// Expired returns true if the phase must be abandoned.
func (c *Countdown) Expired() bool {
	return c.bounded && c.remaining == 0
}

// Tick consumes one cycle of the budget.
func (c *Countdown) Tick() {
	if c.bounded && c.remaining > 0 {
		c.remaining--
	}
}

// Remaining returns the cycles left and whether the countdown is bounded.
func (c *Countdown) Remaining() (uint64, bool) {
	return c.remaining, c.bounded
}
