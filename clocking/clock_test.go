package clocking

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/wiring"
)

var _ = Describe("Clock", func() {
	var (
		engine *sim.SerialEngine
		wires  *wiring.WireSet
		clock  *Clock
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		wires = wiring.NewWireSet()
		clock = MakeBuilder().
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithWires(wires).
			Build("Clock")
	})

	run := func() {
		Expect(engine.Run()).To(Succeed())
		engine.Finished()
	}

	It("should resume processes in park order", func() {
		var trace []string

		for _, name := range []string{"A", "B"} {
			name := name
			clock.Go(name, func() error {
				for i := 0; i < 3; i++ {
					trace = append(trace,
						fmt.Sprintf("%s@%d", name, clock.CurrentCycle()))

					if err := clock.AwaitNextEdge(); err != nil {
						return err
					}
				}

				return nil
			})
		}

		run()

		Expect(trace).To(Equal([]string{
			"A@0", "B@0", "A@1", "B@1", "A@2", "B@2",
		}))
		Expect(clock.CurrentCycle()).To(Equal(uint64(4)))
	})

	It("should make driven values visible at the next edge only", func() {
		w := wires.NewWire("valid", 1)
		var seen []uint64

		clock.Go("Driver", func() error {
			w.Set(1)
			return clock.AwaitNextEdge()
		})

		clock.Go("Sampler", func() error {
			for i := 0; i < 2; i++ {
				seen = append(seen, w.Get())

				if err := clock.AwaitNextEdge(); err != nil {
					return err
				}
			}

			return nil
		})

		run()

		Expect(seen).To(Equal([]uint64{0, 1}))
	})

	It("should stop ticking when only daemons are left", func() {
		var daemonErr error
		daemonEdges := 0

		clock.GoDaemon("Daemon", func() error {
			for {
				if err := clock.AwaitNextEdge(); err != nil {
					daemonErr = err
					return err
				}

				daemonEdges++
			}
		})

		clock.Go("Main", func() error {
			for i := 0; i < 5; i++ {
				if err := clock.AwaitNextEdge(); err != nil {
					return err
				}
			}

			return nil
		})

		run()

		Expect(daemonEdges).To(Equal(5))
		Expect(daemonErr).To(MatchError(ErrClockStopped))
		Expect(clock.IsStopped()).To(BeTrue())
		Expect(clock.Errors()).To(BeEmpty())

		parked, foreground := clock.NumProcesses()
		Expect(parked).To(Equal(0))
		Expect(foreground).To(Equal(0))
	})

	It("should release every process when stopped from a process", func() {
		var waiterErr error

		clock.Go("Waiter", func() error {
			for {
				if err := clock.AwaitNextEdge(); err != nil {
					waiterErr = err
					return nil
				}
			}
		})

		clock.Go("Stopper", func() error {
			if err := clock.AwaitNextEdge(); err != nil {
				return err
			}

			clock.Stop()

			return clock.AwaitNextEdge()
		})

		run()

		Expect(waiterErr).To(MatchError(ErrClockStopped))
		Expect(clock.CurrentCycle()).To(Equal(uint64(2)))
		Expect(clock.Errors()).To(BeEmpty())
	})

	It("should collect process errors", func() {
		errBoom := errors.New("boom")

		clock.Go("Faulty", func() error {
			return errBoom
		})

		run()

		Expect(clock.Errors()).To(HaveLen(1))
		Expect(clock.Errors()[0]).To(MatchError(errBoom))
		Expect(clock.Errors()[0].Error()).To(Equal("process Faulty: boom"))
	})

	It("should invoke edge hooks around the processes", func() {
		var trace []string

		clock.AcceptHook(sim.NewHookFunc(func(ctx sim.HookCtx) {
			trace = append(trace,
				fmt.Sprintf("%s %d", ctx.Pos.Name, ctx.Item.(uint64)))
		}))

		clock.Go("Main", func() error {
			trace = append(trace, "process")
			return nil
		})

		run()

		Expect(trace).To(Equal([]string{
			"Rising Edge 0", "process", "Edge Settled 0",
		}))
	})

	It("should refuse to park a goroutine that is not a process", func() {
		Expect(func() { _ = clock.AwaitNextEdge() }).To(Panic())
	})

	It("should refuse new processes once stopped", func() {
		clock.Stop()

		Expect(func() { clock.Go("Late", func() error { return nil }) }).
			To(Panic())
	})
})
