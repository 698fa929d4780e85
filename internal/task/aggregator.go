package task

import "github.com/pagelift/pagelift/internal/pipeline"

// Aggregator applies pipeline progress events to a task. It is the single
// mutation path for counters during a run: the pipeline invokes it from
// its completion-handling goroutine, so events arrive in order and one at
// a time.
type Aggregator struct {
	task *Task
}

// NewAggregator binds an aggregator to a task.
func NewAggregator(t *Task) *Aggregator {
	return &Aggregator{task: t}
}

// OnStart seeds the totals and moves the task to running.
func (a *Aggregator) OnStart(ev pipeline.StartEvent) {
	t := a.task
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = ev.Total
	t.embedded = ev.Embedded
	t.pages = ev.Pages
	if t.status == StatusPending {
		t.status = StatusRunning
	}
}

// OnStep advances done and records any per-item failure. A failed item
// counts as processed, not pending; done never decreases.
func (a *Aggregator) OnStep(ev pipeline.StepEvent) {
	t := a.task
	t.mu.Lock()
	defer t.mu.Unlock()
	if ev.Done > t.done {
		t.done = ev.Done
	}
	t.usage.Add(ev.Usage)
	if ev.Err != "" {
		t.errors = append(t.errors, ItemError{Item: ev.Image, Reason: ev.Err})
	}
}

// OnFinish turns the task terminal: stopped when the run was cancelled
// before draining its input, completed otherwise, even when the error
// list is non-empty. The status boundary distinguishes "completed with
// errors" from "failed" by that error list.
func (a *Aggregator) OnFinish(ev pipeline.FinishEvent) {
	t := a.task
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusFailed {
		return
	}
	if ev.Done > t.done {
		t.done = ev.Done
	}
	if ev.Stopped {
		t.status = StatusStopped
	} else {
		t.status = StatusCompleted
	}
	t.finishedAt = nowFunc()
}
