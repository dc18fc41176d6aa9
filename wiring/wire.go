// Package wiring provides registered wires: a value driven during a cycle
// only becomes visible after the wire set commits at the end of that cycle.
package wiring

import (
	"fmt"
	"sync"

	"github.com/sarchlab/axisim/axilite"
)

// A Wire is a registered signal of up to 64 bits.
type Wire struct {
	lock sync.Mutex

	name  string
	width int
	mask  uint64
	code  string

	current uint64
	next    uint64
}

var (
	_ axilite.Signal      = (*Wire)(nil)
	_ axilite.Initializer = (*Wire)(nil)
)

func newWire(name string, width int, code string) *Wire {
	if width < 1 || width > 64 {
		panic(fmt.Sprintf("wire %s: width %d out of range", name, width))
	}

	w := &Wire{
		name:  name,
		width: width,
		code:  code,
		mask:  ^uint64(0),
	}

	if width < 64 {
		w.mask = (uint64(1) << width) - 1
	}

	return w
}

// Name returns the name of the wire.
func (w *Wire) Name() string {
	return w.name
}

// Width returns the number of bits the wire carries.
func (w *Wire) Width() int {
	return w.width
}

// Get returns the value latched at the last commit.
func (w *Wire) Get() uint64 {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.current
}

// Set drives the value the wire takes at the next commit. Bits beyond the
// width of the wire are dropped.
func (w *Wire) Set(v uint64) {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.next = v & w.mask
}

// Init gives the wire a value before the first edge.
func (w *Wire) Init(v uint64) {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.current = v & w.mask
	w.next = w.current
}

// Pending returns the value driven for the next commit.
func (w *Wire) Pending() uint64 {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.next
}

func (w *Wire) commit() (prev, cur uint64, changed bool) {
	w.lock.Lock()
	defer w.lock.Unlock()

	prev = w.current
	w.current = w.next

	return prev, w.current, prev != w.current
}
