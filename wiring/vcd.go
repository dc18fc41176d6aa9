package wiring

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/sarchlab/axisim/sim"
)

const (
	vcdFirstCode = '!'
	vcdNumCodes  = '~' - '!' + 1
)

func vcdCode(index int) string {
	code := []byte{}
	for {
		code = append(code, byte(vcdFirstCode+index%vcdNumCodes))
		index /= vcdNumCodes

		if index == 0 {
			break
		}

		index--
	}

	return string(code)
}

// A VCDWriter dumps wire changes in the value change dump format. One VCD
// time unit is one clock cycle.
type VCDWriter struct {
	lock sync.Mutex

	w         *bufio.Writer
	lastCycle uint64
	started   bool
	err       error
}

// VCD writes the header of a value change dump and registers a hook that
// dumps every subsequent wire change to w. All the wires must have been
// created before calling VCD.
func (s *WireSet) VCD(w io.Writer, scope string) *VCDWriter {
	writer := &VCDWriter{w: bufio.NewWriter(w)}

	writer.writeHeader(scope, s.Wires())
	s.AcceptHook(writer)

	return writer
}

func (v *VCDWriter) writeHeader(scope string, wires []*Wire) {
	v.printf("$timescale 1 ns $end\n")
	v.printf("$scope module %s $end\n", scope)

	for _, w := range wires {
		v.printf("$var wire %d %s %s $end\n", w.width, w.code, w.name)
	}

	v.printf("$upscope $end\n")
	v.printf("$enddefinitions $end\n")
	v.printf("#0\n")
	v.printf("$dumpvars\n")

	for _, w := range wires {
		v.writeValue(w, w.Get())
	}

	v.printf("$end\n")
}

// Func writes a wire change.
func (v *VCDWriter) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosWireChange {
		return
	}

	w := ctx.Item.(*Wire)
	change := ctx.Detail.(WireChange)

	v.lock.Lock()
	defer v.lock.Unlock()

	if !v.started || change.Cycle != v.lastCycle {
		v.printf("#%d\n", change.Cycle)
		v.lastCycle = change.Cycle
		v.started = true
	}

	v.writeValue(w, change.New)
}

func (v *VCDWriter) writeValue(w *Wire, value uint64) {
	if w.width == 1 {
		v.printf("%d%s\n", value, w.code)
		return
	}

	v.printf("b%s %s\n", strconv.FormatUint(value, 2), w.code)
}

func (v *VCDWriter) printf(format string, args ...any) {
	if v.err != nil {
		return
	}

	_, v.err = fmt.Fprintf(v.w, format, args...)
}

// Flush writes buffered output and returns the first error met while
// writing.
func (v *VCDWriter) Flush() error {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.err != nil {
		return v.err
	}

	return v.w.Flush()
}
