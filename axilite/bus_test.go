package axilite

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bus", func() {
	var (
		widths map[string]int
		maker  SignalMaker
	)

	BeforeEach(func() {
		widths = make(map[string]int)
		maker = func(name string, width int) Signal {
			widths[name] = width
			return &fakeSignal{name: name}
		}
	})

	It("should create every signal with its width", func() {
		bus := MakeBusBuilder().
			WithAddrWidth(16).
			WithDataWidth(64).
			WithSignalMaker(maker).
			Build("axil")

		Expect(widths).To(HaveLen(16))
		Expect(widths["axil_awaddr"]).To(Equal(16))
		Expect(widths["axil_araddr"]).To(Equal(16))
		Expect(widths["axil_wdata"]).To(Equal(64))
		Expect(widths["axil_rdata"]).To(Equal(64))
		Expect(widths["axil_bresp"]).To(Equal(RespWidth))
		Expect(widths["axil_awvalid"]).To(Equal(1))
		Expect(bus.Config()).To(Equal(BusConfig{AddrWidth: 16, DataWidth: 64}))
	})

	It("should group signals into channels", func() {
		bus := MakeBusBuilder().WithSignalMaker(maker).Build("axil")

		Expect(bus.AW.Valid).To(BeIdenticalTo(bus.Signal(NameAWValid)))
		Expect(bus.W.Ready).To(BeIdenticalTo(bus.Signal(NameWReady)))
		Expect(bus.B.Payload).To(Equal([]Signal{bus.Signal(NameBResp)}))
		Expect(bus.R.Payload).To(Equal([]Signal{
			bus.Signal(NameRData), bus.Signal(NameRResp),
		}))
		Expect(bus.Channels()).To(HaveLen(5))
	})

	It("should not prefix signals of an unnamed bus", func() {
		MakeBusBuilder().WithSignalMaker(maker).Build("")

		Expect(widths).To(HaveKey("awvalid"))
	})

	It("should panic on unknown signal names", func() {
		bus := MakeBusBuilder().WithSignalMaker(maker).Build("axil")

		Expect(func() { bus.Signal("awlen") }).To(Panic())
	})

	It("should panic on invalid widths", func() {
		Expect(func() {
			MakeBusBuilder().WithAddrWidth(0).WithSignalMaker(maker).Build("a")
		}).To(Panic())
		Expect(func() {
			MakeBusBuilder().WithDataWidth(65).WithSignalMaker(maker).Build("a")
		}).To(Panic())
	})

	It("should panic without a signal maker", func() {
		Expect(func() { MakeBusBuilder().Build("axil") }).To(Panic())
	})
})
