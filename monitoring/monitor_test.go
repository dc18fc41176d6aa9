package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/axisim/axilite"
	"github.com/sarchlab/axisim/sim"
	"github.com/sarchlab/axisim/wiring"
)

type fakeClock struct{ cycle uint64 }

func (c *fakeClock) CurrentCycle() uint64 { return c.cycle }

type fakeComp struct {
	name  string
	Count int
}

func (c *fakeComp) Name() string { return c.name }

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		engine *sim.SerialEngine
		wires  *wiring.WireSet
		store  *axilite.MapStore
		server *httptest.Server
	)

	get := func(path string) *http.Response {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())

		return rsp
	}

	decode := func(rsp *http.Response, v any) {
		defer rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		Expect(json.NewDecoder(rsp.Body).Decode(v)).To(Succeed())
	}

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		wires = wiring.NewWireSet()
		store = axilite.NewMapStore()

		m = NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterClock(&fakeClock{cycle: 42})
		m.RegisterComponent(&fakeComp{name: "Master", Count: 3})
		m.RegisterWires(wires)
		m.RegisterStore("Slave", store)

		server = httptest.NewServer(m.router())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should refuse privileged ports", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should report the cycle", func() {
		rsp := nowRsp{}
		decode(get("/api/now"), &rsp)

		Expect(rsp.Cycle).To(Equal(uint64(42)))
	})

	It("should pause and continue the engine", func() {
		Expect(get("/api/pause").StatusCode).To(Equal(http.StatusOK))
		Expect(get("/api/continue").StatusCode).To(Equal(http.StatusOK))
	})

	It("should list components", func() {
		names := []string{}
		decode(get("/api/list_components"), &names)

		Expect(names).To(Equal([]string{"Master"}))
	})

	It("should return 404 for unknown components", func() {
		rsp := get("/api/component/Nobody")
		rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		rsp := get("/api/field/notjson")
		rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("should list wire values", func() {
		w := wires.NewWire("AWADDR", 32)
		w.Set(0x10)
		wires.Commit(1)

		values := map[string]uint64{}
		decode(get("/api/wires"), &values)

		Expect(values).To(HaveKeyWithValue("AWADDR", uint64(0x10)))
	})

	It("should list store content in address order", func() {
		store.Put(0x20, 0x2)
		store.Put(0x10, 0xDEADBEEF)

		entries := []storeEntry{}
		decode(get("/api/store/Slave"), &entries)

		Expect(entries).To(Equal([]storeEntry{
			{Addr: "0x10", Data: "0xdeadbeef"},
			{Addr: "0x20", Data: "0x2"},
		}))
	})

	It("should return 404 for unknown stores", func() {
		rsp := get("/api/store/Other")
		rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should list and complete progress bars", func() {
		bar := m.CreateProgressBar("Workload", 10)
		bar.IncrementInProgress(3)
		bar.MoveInProgressToFinished(2)

		bars := []progressBarSnapshot{}
		decode(get("/api/progress"), &bars)

		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("Workload"))
		Expect(bars[0].Finished).To(Equal(uint64(2)))
		Expect(bars[0].InProgress).To(Equal(uint64(1)))

		m.CompleteProgressBar(bar)

		decode(get("/api/progress"), &bars)
		Expect(bars).To(BeEmpty())
	})

	It("should reject invalid profiling durations", func() {
		rsp := get("/api/profile?seconds=abc")
		rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusBadRequest))
	})
})
