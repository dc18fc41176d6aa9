package tracing

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// LogTracer writes every task event to a logrus logger.
type LogTracer struct {
	lock        sync.Mutex
	logger      log.FieldLogger
	cycleTeller CycleTeller
	filter      TaskFilter
	tracing     map[string]Task
}

// NewLogTracer creates a LogTracer. Task events are logged at debug level,
// except for the end of a task, which is logged at info level.
func NewLogTracer(
	logger log.FieldLogger,
	cycleTeller CycleTeller,
	filter TaskFilter,
) *LogTracer {
	return &LogTracer{
		logger:      logger,
		cycleTeller: cycleTeller,
		filter:      filter,
		tracing:     make(map[string]Task),
	}
}

// StartTask logs the start of a task.
func (t *LogTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	task.StartCycle = t.cycleTeller.CurrentCycle()

	t.lock.Lock()
	t.tracing[task.ID] = task
	t.lock.Unlock()

	t.logger.WithFields(log.Fields{
		"cycle": task.StartCycle,
		"task":  task.ID,
		"kind":  task.Kind,
		"what":  task.What,
		"where": task.Where,
	}).Debug("task started")
}

// StepTask logs a step of a task.
func (t *LogTracer) StepTask(task Task) {
	t.lock.Lock()
	original, ok := t.tracing[task.ID]
	t.lock.Unlock()

	if !ok {
		return
	}

	t.logger.WithFields(log.Fields{
		"cycle": t.cycleTeller.CurrentCycle(),
		"task":  task.ID,
		"where": original.Where,
		"step":  task.Steps[0].What,
	}).Debug("task step")
}

// EndTask logs the end of a task with its latency in cycles.
func (t *LogTracer) EndTask(task Task) {
	t.lock.Lock()
	original, ok := t.tracing[task.ID]
	delete(t.tracing, task.ID)
	t.lock.Unlock()

	if !ok {
		return
	}

	now := t.cycleTeller.CurrentCycle()

	t.logger.WithFields(log.Fields{
		"cycle":   now,
		"task":    task.ID,
		"kind":    original.Kind,
		"what":    original.What,
		"where":   original.Where,
		"latency": now - original.StartCycle,
	}).Info("task completed")
}
