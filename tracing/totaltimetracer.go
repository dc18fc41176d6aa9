package tracing

import (
	"sync"
)

// TotalTimeTracer can collect the total number of cycles spent executing a
// certain type of task. If the execution of two tasks overlaps, this tracer
// will simply add the two task processing time together.
type TotalTimeTracer struct {
	cycleTeller   CycleTeller
	filter        TaskFilter
	lock          sync.Mutex
	totalCycles   uint64
	numTasks      uint64
	inflightTasks map[string]Task
}

// NewTotalTimeTracer creates a new TotalTimeTracer
func NewTotalTimeTracer(
	cycleTeller CycleTeller,
	filter TaskFilter,
) *TotalTimeTracer {
	t := &TotalTimeTracer{
		cycleTeller:   cycleTeller,
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}
	return t
}

// TotalCycles returns the total number of cycles spent on the tasks.
func (t *TotalTimeTracer) TotalCycles() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totalCycles
}

// NumTasks returns the number of completed tasks.
func (t *TotalTimeTracer) NumTasks() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.numTasks
}

// AverageCycles returns the average number of cycles of a completed task.
func (t *TotalTimeTracer) AverageCycles() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.numTasks == 0 {
		return 0
	}

	return float64(t.totalCycles) / float64(t.numTasks)
}

// StartTask records the task start time
func (t *TotalTimeTracer) StartTask(task Task) {
	task.StartCycle = t.cycleTeller.CurrentCycle()

	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// StepTask does nothing
func (t *TotalTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task
func (t *TotalTimeTracer) EndTask(task Task) {
	task.EndCycle = t.cycleTeller.CurrentCycle()

	t.lock.Lock()
	defer t.lock.Unlock()

	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	t.totalCycles += task.EndCycle - originalTask.StartCycle
	t.numTasks++
	delete(t.inflightTasks, task.ID)
}
