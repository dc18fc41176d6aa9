package tracing

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/axisim/datarecording"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Tracers", func() {
	var (
		mockCtrl    *gomock.Controller
		cycleTeller *MockCycleTeller
		cycle       uint64
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		cycleTeller = NewMockCycleTeller(mockCtrl)
		cycle = 0
		cycleTeller.EXPECT().CurrentCycle().
			DoAndReturn(func() uint64 { return cycle }).
			AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	write := Task{ID: "1", Kind: "req_out", What: "write", Where: "Master"}
	read := Task{ID: "2", Kind: "req_in", What: "read", Where: "Slave"}
	step := func(id, what string) Task {
		return Task{ID: id, Steps: []TaskStep{{What: what}}}
	}

	It("should add up the cycles of the filtered tasks", func() {
		tracer := NewTotalTimeTracer(cycleTeller, KindIs("req_out"))

		tracer.StartTask(write)
		tracer.StartTask(read)
		cycle = 3
		tracer.EndTask(Task{ID: "1"})
		tracer.EndTask(Task{ID: "2"})

		Expect(tracer.TotalCycles()).To(Equal(uint64(3)))
		Expect(tracer.NumTasks()).To(Equal(uint64(1)))
		Expect(tracer.AverageCycles()).To(Equal(3.0))
	})

	It("should count overlapping tasks once", func() {
		tracer := NewBusyTimeTracer(cycleTeller, AllTasks)

		cycle = 2
		tracer.StartTask(write)
		cycle = 4
		tracer.StartTask(read)
		cycle = 6
		tracer.EndTask(Task{ID: "1"})
		cycle = 7
		tracer.EndTask(Task{ID: "2"})

		Expect(tracer.BusyCycles()).To(Equal(uint64(5)))

		cycle = 10
		tracer.StartTask(write)
		cycle = 12

		Expect(tracer.BusyCycles()).To(Equal(uint64(7)))
	})

	It("should ignore tasks the filter rejects", func() {
		tracer := NewBusyTimeTracer(cycleTeller, KindIs("req_in"))

		tracer.StartTask(write)
		cycle = 5
		tracer.EndTask(Task{ID: "1"})

		Expect(tracer.BusyCycles()).To(BeZero())
	})

	It("should count steps and the tasks reaching them", func() {
		tracer := NewStepCountTracer(AllTasks)

		tracer.StartTask(write)
		tracer.StartTask(read)
		tracer.StepTask(step("1", "timed_out"))
		tracer.StepTask(step("1", "timed_out"))
		tracer.StepTask(step("2", "accepted"))
		tracer.StepTask(step("3", "accepted"))

		Expect(tracer.GetStepNames()).To(Equal([]string{"timed_out", "accepted"}))
		Expect(tracer.GetStepCount("timed_out")).To(Equal(uint64(2)))
		Expect(tracer.GetTaskCount("timed_out")).To(Equal(uint64(1)))
		Expect(tracer.GetStepCount("accepted")).To(Equal(uint64(1)))
	})

	It("should log completed tasks", func() {
		logger, hook := logtest.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
		tracer := NewLogTracer(logger, cycleTeller, AllTasks)

		tracer.StartTask(write)
		cycle = 2
		tracer.StepTask(step("1", "addr_accepted"))
		cycle = 5
		tracer.EndTask(Task{ID: "1"})

		Expect(hook.AllEntries()).To(HaveLen(3))
		last := hook.LastEntry()
		Expect(last.Message).To(Equal("task completed"))
		Expect(last.Level).To(Equal(logrus.InfoLevel))
		Expect(last.Data["latency"]).To(Equal(uint64(5)))
		Expect(last.Data["where"]).To(Equal("Master"))
	})

	It("should store tasks in the recorder", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		recorder := datarecording.New(path)
		defer recorder.Close()

		tracer := NewDBTracer(cycleTeller, recorder)

		tracer.StartTask(write)
		tracer.StartTask(read)
		cycle = 1
		tracer.StepTask(step("1", "addr_accepted"))
		cycle = 4
		tracer.EndTask(Task{ID: "1"})
		cycle = 6
		tracer.Terminate()

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()
		reader.MapTable(TaskTableName, TaskEntry{})

		results, total, err := reader.Query(context.Background(),
			TaskTableName, datarecording.QueryParams{OrderBy: "ID"})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(2))
		Expect(results[0]).To(Equal(&TaskEntry{
			ID:         "1",
			Kind:       "req_out",
			What:       "write",
			Location:   "Master",
			StartCycle: 0,
			EndCycle:   4,
			Steps:      "addr_accepted@1",
		}))
		Expect(results[1].(*TaskEntry).EndCycle).To(Equal(uint64(6)))
	})

	It("should refuse tasks without a location", func() {
		recorder := datarecording.New(
			filepath.Join(GinkgoT().TempDir(), "trace"))
		defer recorder.Close()

		tracer := NewDBTracer(cycleTeller, recorder)

		Expect(func() {
			tracer.StartTask(Task{ID: "1", Kind: "k", What: "w"})
		}).To(Panic())
	})
})
