// Package task tracks live, pollable batch state: one Task per pipeline
// run, aggregated from pipeline events and read by the status boundary.
package task

import (
	"sync"
	"time"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/pipeline"
)

var nowFunc = time.Now

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "in_progress"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	// StatusStopped marks a run cancelled by the user before its input
	// drained. Kept distinct from completed: partial output exists, but
	// the batch did not finish normally.
	StatusStopped Status = "stopped"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusStopped || s == StatusFailed
}

// ItemError records one failed work item.
type ItemError struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// Task is the live state of one batch run. It is created at submission,
// mutated only through its aggregator and control methods, and terminal
// once completed, stopped or failed. All mutation goes through a single
// mutex so counter updates are atomic with respect to each other; readers
// take snapshots and may observe a state mid-batch, which is fine.
type Task struct {
	ID   string
	Name string
	Mode domain.ExtractMode

	gate *pipeline.Gate

	mu          sync.Mutex
	status      Status
	total       int
	embedded    int
	pages       int
	done        int
	errors      []ItemError
	usage       domain.Usage
	failure     string
	artifact    string
	createdAt   time.Time
	finishedAt  time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
}

func newTask(id, name string, mode domain.ExtractMode, pollInterval time.Duration) *Task {
	return &Task{
		ID:        id,
		Name:      name,
		Mode:      mode,
		gate:      pipeline.NewGateWithInterval(pollInterval),
		status:    StatusPending,
		createdAt: nowFunc(),
	}
}

// Gate returns the control gate shared with the pipeline run.
func (t *Task) Gate() *pipeline.Gate { return t.gate }

// Pause requests that the run stop dispatching new items. Idempotent.
func (t *Task) Pause() {
	t.gate.Pause()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusRunning {
		t.status = StatusPaused
		t.pausedAt = nowFunc()
	}
}

// Resume clears a pause. Idempotent.
func (t *Task) Resume() {
	t.gate.Resume()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusPaused {
		t.status = StatusRunning
		t.pausedTotal += nowFunc().Sub(t.pausedAt)
		t.pausedAt = time.Time{}
	}
}

// Stop requests cancellation of future dispatch. In-flight items run to
// completion; the task turns terminal once the pipeline finishes.
func (t *Task) Stop() {
	t.gate.Stop()
	t.mu.Lock()
	defer t.mu.Unlock()
	// A paused run would otherwise never observe its own finish.
	if t.status == StatusPaused {
		t.pausedTotal += nowFunc().Sub(t.pausedAt)
		t.pausedAt = time.Time{}
		t.status = StatusRunning
	}
	t.gate.Resume()
}

// Fail marks the task failed with a pipeline-level reason. Only setup
// faults (unreachable input, unwritable output) land here; per-item
// failures stay in the error list of a completed task.
func (t *Task) Fail(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = StatusFailed
	t.failure = reason
	t.finishedAt = nowFunc()
}

// SetArtifact records the output file produced by the run.
func (t *Task) SetArtifact(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.artifact = path
}

// Snapshot is a point-in-time copy of task state for the polling boundary.
type Snapshot struct {
	ID       string       `json:"task_id"`
	Name     string       `json:"name"`
	Mode     string       `json:"mode"`
	Status   Status       `json:"status"`
	Total    int          `json:"total"`
	Embedded int          `json:"embedded"`
	Pages    int          `json:"pages"`
	Done     int          `json:"done"`
	Errors   []ItemError  `json:"errors"`
	Usage    domain.Usage `json:"usage"`
	Failure  string       `json:"failure,omitempty"`
	Artifact string       `json:"artifact,omitempty"`
	Paused   bool         `json:"paused"`
	// ElapsedSeconds excludes time spent paused.
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Snapshot returns a copy of the current state.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	end := t.finishedAt
	if end.IsZero() {
		end = nowFunc()
	}
	paused := t.pausedTotal
	if !t.pausedAt.IsZero() {
		paused += nowFunc().Sub(t.pausedAt)
	}

	errs := make([]ItemError, len(t.errors))
	copy(errs, t.errors)

	return Snapshot{
		ID:             t.ID,
		Name:           t.Name,
		Mode:           string(t.Mode),
		Status:         t.status,
		Total:          t.total,
		Embedded:       t.embedded,
		Pages:          t.pages,
		Done:           t.done,
		Errors:         errs,
		Usage:          t.usage,
		Failure:        t.failure,
		Artifact:       t.artifact,
		Paused:         t.gate.Paused(),
		ElapsedSeconds: (end.Sub(t.createdAt) - paused).Seconds(),
	}
}
