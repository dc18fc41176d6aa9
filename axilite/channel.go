package axilite

import "fmt"

// A Channel is one valid/ready pair and the payload lines it qualifies. A
// transfer commits at the edge where both valid and ready are observed high.
//
// The offering side drives Valid and the payload; the consuming side drives
// Ready. Once offered, the payload and valid are held until accepted.
type Channel struct {
	Name    string
	Valid   Signal
	Ready   Signal
	Payload []Signal
}

// Offer drives the payload and asserts valid.
func (c *Channel) Offer(payload ...uint64) {
	c.OfferFrom(0, payload...)
}

// OfferFrom drives the payload lines from index first to the end and asserts
// valid. Lines before first keep the value they last carried.
func (c *Channel) OfferFrom(first int, payload ...uint64) {
	if first < 0 || first+len(payload) != len(c.Payload) {
		panic(fmt.Sprintf(
			"channel %s carries %d payload signals, got %d from index %d",
			c.Name, len(c.Payload), len(payload), first))
	}

	for i, v := range payload {
		c.Payload[first+i].Set(v)
	}

	c.Valid.Set(1)
}

// Withdraw deasserts valid.
func (c *Channel) Withdraw() {
	c.Valid.Set(0)
}

// Open asserts ready.
func (c *Channel) Open() {
	c.Ready.Set(1)
}

// Close deasserts ready.
func (c *Channel) Close() {
	c.Ready.Set(0)
}

// IsValid returns true if valid is observed high at this edge.
func (c *Channel) IsValid() bool {
	return c.Valid.Get() != 0
}

// IsReady returns true if ready is observed high at this edge.
func (c *Channel) IsReady() bool {
	return c.Ready.Get() != 0
}

// Fired returns true if a transfer commits at this edge.
func (c *Channel) Fired() bool {
	return c.IsValid() && c.IsReady()
}

// Sample returns the payload observed at this edge.
func (c *Channel) Sample() []uint64 {
	values := make([]uint64, len(c.Payload))
	for i, s := range c.Payload {
		values[i] = s.Get()
	}

	return values
}

// AwaitAcceptance waits, as the offering side, until every channel has been
// accepted. A channel is withdrawn at the edge its ready is observed, so the
// channels may be accepted at different edges. If the countdown of the phase
// expires first, the channels not yet accepted are withdrawn and ErrTimedOut
// is returned.
func AwaitAcceptance(clk Clock, timeout Timeout, chans ...*Channel) error {
	pending := make([]*Channel, len(chans))
	copy(pending, chans)

	countdown := timeout.Start()

	for {
		remaining := pending[:0]
		for _, c := range pending {
			if c.IsReady() {
				c.Withdraw()
				continue
			}

			remaining = append(remaining, c)
		}
		pending = remaining

		if len(pending) == 0 {
			return nil
		}

		if countdown.Expired() {
			for _, c := range pending {
				c.Withdraw()
			}

			return ErrTimedOut
		}

		countdown.Tick()

		if err := clk.AwaitNextEdge(); err != nil {
			return err
		}
	}
}

// AwaitOffer waits, as the consuming side with ready already asserted, until
// valid is observed. It returns the payload sampled at that edge and
// deasserts ready. If the countdown expires first, ready is deasserted and
// ErrTimedOut is returned.
func (c *Channel) AwaitOffer(clk Clock, timeout Timeout) ([]uint64, error) {
	countdown := timeout.Start()

	for {
		if c.IsValid() {
			payload := c.Sample()
			c.Close()

			return payload, nil
		}

		if countdown.Expired() {
			c.Close()
			return nil, ErrTimedOut
		}

		countdown.Tick()

		if err := clk.AwaitNextEdge(); err != nil {
			return nil, err
		}
	}
}

// AwaitHandshake waits, as the offering side of a response, until valid and
// ready are observed together and then withdraws valid. It never times out.
func (c *Channel) AwaitHandshake(clk Clock) error {
	for {
		if c.Fired() {
			c.Withdraw()
			return nil
		}

		if err := clk.AwaitNextEdge(); err != nil {
			return err
		}
	}
}
