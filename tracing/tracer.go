package tracing

// A Tracer can collect task traces
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)
}

// A CycleTeller tells the cycle the simulation is at. Tracers stamp tasks
// with it.
type CycleTeller interface {
	CurrentCycle() uint64
}
