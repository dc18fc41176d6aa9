package tracing

import "sync"

// BusyTimeTracer counts the cycles during which at least one task of a kind
// is in flight. If the processing of two tasks overlaps, the overlapped
// cycles are only counted once.
type BusyTimeTracer struct {
	cycleTeller CycleTeller
	filter      TaskFilter

	lock       sync.Mutex
	inflight   map[string]bool
	busySince  uint64
	busyCycles uint64
}

// NewBusyTimeTracer creates a new BusyTimeTracer.
func NewBusyTimeTracer(
	cycleTeller CycleTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		cycleTeller: cycleTeller,
		filter:      filter,
		inflight:    make(map[string]bool),
	}
}

// BusyCycles returns the number of cycles spent on the tasks, including the
// tasks still in flight.
func (t *BusyTimeTracer) BusyCycles() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.inflight) == 0 {
		return t.busyCycles
	}

	return t.busyCycles + t.cycleTeller.CurrentCycle() - t.busySince
}

// StartTask records the start of a task.
func (t *BusyTimeTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.inflight) == 0 {
		t.busySince = t.cycleTeller.CurrentCycle()
	}

	t.inflight[task.ID] = true
}

// StepTask does nothing.
func (t *BusyTimeTracer) StepTask(_ Task) {}

// EndTask records the end of a task.
func (t *BusyTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.inflight[task.ID] {
		return
	}

	delete(t.inflight, task.ID)

	if len(t.inflight) == 0 {
		t.busyCycles += t.cycleTeller.CurrentCycle() - t.busySince
	}
}
