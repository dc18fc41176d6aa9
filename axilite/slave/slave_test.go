package slave_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/axisim/axilite"
	"github.com/sarchlab/axisim/axilite/slave"
	"github.com/sarchlab/axisim/clocking"
	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/tracing"
	"github.com/sarchlab/axisim/wiring"
)

var _ = Describe("Slave", func() {
	var (
		engine *sim.SerialEngine
		clock  *clocking.Clock
		bus    *axilite.Bus
		store  *axilite.MapStore
		s      *slave.Comp
		runErr error
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		wires := wiring.NewWireSet()
		clock = clocking.MakeBuilder().
			WithEngine(engine).
			WithWires(wires).
			Build("Clock")
		bus = axilite.MakeBusBuilder().
			WithSignalMaker(wires.SignalMaker()).
			Build("axil")
		store = axilite.NewMapStore()
		s = slave.MakeBuilder().
			WithBus(bus).
			WithStore(store).
			Build("Slave")

		runErr = nil
		clock.GoDaemon("Slave", func() error {
			runErr = s.Run(clock)
			return runErr
		})
	})

	run := func(driver func() error) {
		clock.Go("Driver", driver)

		Expect(engine.Run()).To(Succeed())
		engine.Finished()
		Expect(clock.Errors()).To(BeEmpty())
	}

	write := func(addr axilite.Address, data axilite.Data) (axilite.Resp, error) {
		bus.AW.Offer(uint64(addr))
		bus.W.Offer(uint64(data))
		if err := clock.AwaitNextEdge(); err != nil {
			return 0, err
		}

		err := axilite.AwaitAcceptance(clock, axilite.Unbounded, bus.AW, bus.W)
		if err != nil {
			return 0, err
		}

		bus.B.Open()
		if err := clock.AwaitNextEdge(); err != nil {
			return 0, err
		}

		payload, err := bus.B.AwaitOffer(clock, axilite.Unbounded)
		if err != nil {
			return 0, err
		}

		return axilite.Resp(payload[0]), nil
	}

	read := func(addr axilite.Address) (axilite.Data, axilite.Resp, error) {
		bus.AR.Offer(uint64(addr))
		if err := clock.AwaitNextEdge(); err != nil {
			return 0, 0, err
		}

		err := axilite.AwaitAcceptance(clock, axilite.Unbounded, bus.AR)
		if err != nil {
			return 0, 0, err
		}

		bus.R.Open()
		if err := clock.AwaitNextEdge(); err != nil {
			return 0, 0, err
		}

		payload, err := bus.R.AwaitOffer(clock, axilite.Unbounded)
		if err != nil {
			return 0, 0, err
		}

		return axilite.Data(payload[0]), axilite.Resp(payload[1]), nil
	}

	It("should drive its lines low from the start", func() {
		for _, name := range []string{
			axilite.NameAWReady, axilite.NameWReady, axilite.NameBValid,
			axilite.NameARReady, axilite.NameRValid,
		} {
			Expect(bus.Signal(name).Get()).To(Equal(uint64(0)), name)
		}
	})

	It("should store a write and respond OKAY three edges later", func() {
		var (
			resp      axilite.Resp
			doneCycle uint64
		)

		run(func() error {
			var err error
			resp, err = write(0x10, 0xDEADBEEF)
			doneCycle = clock.CurrentCycle()
			return err
		})

		Expect(resp).To(Equal(axilite.RespOkay))
		Expect(doneCycle).To(Equal(uint64(3)))
		Expect(store.Snapshot()).To(Equal(
			map[axilite.Address]axilite.Data{0x10: 0xDEADBEEF}))
		Expect(s.Stats()).To(Equal(slave.Stats{Writes: 1}))
	})

	It("should answer reads from the store", func() {
		var (
			data      axilite.Data
			resp      axilite.Resp
			doneCycle uint64
		)

		store.Put(0x10, 0xCAFE)

		run(func() error {
			var err error
			start := clock.CurrentCycle()
			data, resp, err = read(0x10)
			doneCycle = clock.CurrentCycle() - start
			return err
		})

		Expect(data).To(Equal(axilite.Data(0xCAFE)))
		Expect(resp).To(Equal(axilite.RespOkay))
		Expect(doneCycle).To(Equal(uint64(3)))
	})

	It("should answer a miss with SLVERR and leave RDATA untouched", func() {
		var (
			missData axilite.Data
			missResp axilite.Resp
		)

		run(func() error {
			if _, err := write(0x10, 0xDEADBEEF); err != nil {
				return err
			}

			if _, _, err := read(0x10); err != nil {
				return err
			}

			var err error
			missData, missResp, err = read(0x20)
			return err
		})

		Expect(missResp).To(Equal(axilite.RespSlvErr))
		Expect(missData).To(Equal(axilite.Data(0xDEADBEEF)))
		Expect(s.Stats()).To(Equal(slave.Stats{Writes: 1, Reads: 2, Misses: 1}))
	})

	It("should keep the last of two writes to one address", func() {
		var data axilite.Data

		run(func() error {
			if _, err := write(0x10, 1); err != nil {
				return err
			}

			if _, err := write(0x10, 2); err != nil {
				return err
			}

			var err error
			data, _, err = read(0x10)
			return err
		})

		Expect(data).To(Equal(axilite.Data(2)))
	})

	It("should serve a write before a read offered in the same cycle", func() {
		var (
			order    []string
			readData uint64
		)

		run(func() error {
			bus.AW.Offer(0x10)
			bus.W.Offer(0xAB)
			bus.AR.Offer(0x10)
			bus.B.Open()
			bus.R.Open()

			for len(order) < 5 {
				if err := clock.AwaitNextEdge(); err != nil {
					return err
				}

				for _, c := range []*axilite.Channel{bus.AW, bus.W, bus.AR} {
					if c.IsValid() && c.IsReady() {
						c.Withdraw()
						order = append(order, c.Name)
					}
				}

				for _, c := range []*axilite.Channel{bus.B, bus.R} {
					if c.Fired() {
						c.Close()
						order = append(order, c.Name)

						if c == bus.R {
							readData = c.Sample()[0]
						}
					}
				}
			}

			return nil
		})

		Expect(order).To(Equal([]string{"AW", "W", "B", "AR", "R"}))
		Expect(readData).To(Equal(uint64(0xAB)))
	})

	It("should not execute a read withdrawn before the handshake", func() {
		var rvalid []bool

		run(func() error {
			bus.AR.Offer(0x10)
			if err := clock.AwaitNextEdge(); err != nil {
				return err
			}

			bus.AR.Withdraw()

			for i := 0; i < 4; i++ {
				if err := clock.AwaitNextEdge(); err != nil {
					return err
				}

				rvalid = append(rvalid, bus.R.IsValid())
			}

			return nil
		})

		Expect(rvalid).To(Equal([]bool{false, false, false, false}))
		Expect(s.Stats()).To(Equal(slave.Stats{Abandoned: 1}))
	})

	It("should not store a write withdrawn before the handshake", func() {
		run(func() error {
			bus.AW.Offer(0x10)
			bus.W.Offer(0x1)
			if err := clock.AwaitNextEdge(); err != nil {
				return err
			}

			bus.AW.Withdraw()
			bus.W.Withdraw()

			for i := 0; i < 4; i++ {
				if err := clock.AwaitNextEdge(); err != nil {
					return err
				}
			}

			return nil
		})

		Expect(store.Len()).To(Equal(0))
		Expect(bus.B.IsValid()).To(BeFalse())
		Expect(s.Stats().Abandoned).To(Equal(uint64(1)))
	})

	It("should trace served requests", func() {
		tracer := tracing.NewStepCountTracer(tracing.KindIs("req_in"))
		tracing.CollectTrace(s, tracer)

		run(func() error {
			if _, err := write(0x10, 1); err != nil {
				return err
			}

			_, _, err := read(0x10)
			return err
		})

		Expect(tracer.GetTaskCount(slave.StepAccepted)).To(Equal(uint64(2)))
		Expect(tracer.GetTaskCount(slave.StepExecuted)).To(Equal(uint64(2)))
	})

	It("should return when the clock stops", func() {
		run(func() error { return nil })

		Expect(runErr).To(MatchError(clocking.ErrClockStopped))
	})

	It("should refuse to answer misses with OKAY", func() {
		Expect(func() {
			slave.MakeBuilder().
				WithBus(bus).
				WithMissResp(axilite.RespOkay).
				Build("Other")
		}).To(Panic())
	})
})
