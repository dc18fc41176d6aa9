package tracing

import (
	"strconv"
	"strings"
	"sync"

	"github.com/sarchlab/axisim/datarecording"
	"github.com/tebeka/atexit"
)

// TaskTableName is the table the DBTracer writes to.
const TaskTableName = "axi_task"

// TaskEntry is one row of the task table.
type TaskEntry struct {
	ID         string
	ParentID   string
	Kind       string
	What       string
	Location   string
	StartCycle uint64
	EndCycle   uint64
	Steps      string
}

// DBTracer is a tracer that stores completed tasks through a DataRecorder.
type DBTracer struct {
	lock        sync.Mutex
	cycleTeller CycleTeller
	backend     datarecording.DataRecorder

	tracingTasks map[string]Task
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(
	cycleTeller CycleTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(TaskTableName, TaskEntry{})

	t := &DBTracer{
		cycleTeller:  cycleTeller,
		backend:      dataRecorder,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	startingTaskMustBeValid(task)

	task.StartCycle = t.cycleTeller.CurrentCycle()

	t.lock.Lock()
	defer t.lock.Unlock()

	t.tracingTasks[task.ID] = task
}

func startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Where == "" {
		panic("task location must be set")
	}
}

// StepTask records a step of a task.
func (t *DBTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	for _, step := range task.Steps {
		step.Cycle = t.cycleTeller.CurrentCycle()
		original.Steps = append(original.Steps, step)
	}

	t.tracingTasks[task.ID] = original
}

// EndTask writes the task.
func (t *DBTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	original.EndCycle = t.cycleTeller.CurrentCycle()
	t.write(original)

	delete(t.tracingTasks, task.ID)
}

// Terminate writes the tasks that never ended, with the current cycle as their
// end, and flushes the backend.
func (t *DBTracer) Terminate() {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.cycleTeller.CurrentCycle()
	for id, task := range t.tracingTasks {
		task.EndCycle = now
		t.write(task)
		delete(t.tracingTasks, id)
	}

	t.backend.Flush()
}

func (t *DBTracer) write(task Task) {
	steps := make([]string, 0, len(task.Steps))
	for _, s := range task.Steps {
		steps = append(steps, s.What+"@"+strconv.FormatUint(s.Cycle, 10))
	}

	t.backend.InsertData(TaskTableName, TaskEntry{
		ID:         task.ID,
		ParentID:   task.ParentID,
		Kind:       task.Kind,
		What:       task.What,
		Location:   task.Where,
		StartCycle: task.StartCycle,
		EndCycle:   task.EndCycle,
		Steps:      strings.Join(steps, ";"),
	})
}
