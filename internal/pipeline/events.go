package pipeline

import "github.com/pagelift/pagelift/internal/domain"

// The pipeline's entire telemetry surface is three event kinds. Sinks are
// invoked from the pipeline's single completion-handling goroutine, so a
// sink never sees two events concurrently.

// StartEvent announces a batch: the total item count and its split between
// embedded images and rendered pages.
type StartEvent struct {
	Batch    string
	Total    int
	Embedded int
	Pages    int
}

// StepEvent reports one processed item. A failed item still advances Done;
// its reason travels in Err. Usage is the per-item delta.
type StepEvent struct {
	Batch string
	Done  int
	Total int
	Image string
	Err   string
	Usage domain.Usage
}

// FinishEvent closes a batch. Stopped marks a run halted by the control
// gate before draining its input; Done may then be below Total.
type FinishEvent struct {
	Batch   string
	Done    int
	Total   int
	Usage   domain.Usage
	Stopped bool
}

// Sink consumes pipeline progress events.
type Sink interface {
	OnStart(StartEvent)
	OnStep(StepEvent)
	OnFinish(FinishEvent)
}
