package task

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pagelift/pagelift/internal/domain"
)

// Registry is the process-wide map from task identifier to task state.
// It is an injected service with its own lifecycle: terminal tasks are
// evicted after a retention window so long-lived processes do not grow
// without bound.
type Registry struct {
	mu           sync.RWMutex
	tasks        map[string]*Task
	retention    time.Duration
	pollInterval time.Duration
	done         chan struct{}
	closeOnce    sync.Once
}

// NewRegistry creates a registry that evicts terminal tasks after
// retention. With retention <= 0 nothing is ever evicted. pollInterval
// is handed to each task's control gate.
func NewRegistry(retention, pollInterval time.Duration) *Registry {
	r := &Registry{
		tasks:        make(map[string]*Task),
		retention:    retention,
		pollInterval: pollInterval,
		done:         make(chan struct{}),
	}
	if retention > 0 {
		go r.janitor()
	}
	return r
}

// Create registers a new pending task and returns it.
func (r *Registry) Create(name string, mode domain.ExtractMode) *Task {
	t := newTask(uuid.New().String(), name, mode, r.pollInterval)
	r.mu.Lock()
	r.tasks[t.ID] = t
	r.mu.Unlock()
	return t
}

// Get returns the task with the given ID, or nil.
func (r *Registry) Get(id string) *Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tasks[id]
}

// Pause pauses the task with the given ID. Returns false if unknown.
func (r *Registry) Pause(id string) bool {
	t := r.Get(id)
	if t == nil {
		return false
	}
	t.Pause()
	return true
}

// Resume resumes the task with the given ID. Returns false if unknown.
func (r *Registry) Resume(id string) bool {
	t := r.Get(id)
	if t == nil {
		return false
	}
	t.Resume()
	return true
}

// Stop stops the task with the given ID. Returns false if unknown.
func (r *Registry) Stop(id string) bool {
	t := r.Get(id)
	if t == nil {
		return false
	}
	t.Stop()
	return true
}

// Sweep removes terminal tasks older than the retention window and
// returns how many were evicted.
func (r *Registry) Sweep() int {
	if r.retention <= 0 {
		return 0
	}
	cutoff := nowFunc().Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, t := range r.tasks {
		t.mu.Lock()
		expired := t.status.Terminal() && !t.finishedAt.IsZero() && t.finishedAt.Before(cutoff)
		t.mu.Unlock()
		if expired {
			delete(r.tasks, id)
			evicted++
		}
	}
	return evicted
}

// Close stops the background janitor.
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

func (r *Registry) janitor() {
	interval := r.retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
