// Package pipeline implements the controllable concurrent extraction
// pipeline: a bounded worker pool over an ordered work-item sequence with
// cooperative pause/stop, typed progress events and order-restoring output.
package pipeline

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is how often a paused pipeline re-checks the gate.
// The controller lives outside the pipeline's goroutines, so pause is
// observed by polling rather than notification.
const DefaultPollInterval = 500 * time.Millisecond

// Gate is the shared pause/stop signal between a running pipeline and an
// external controller. All methods are safe for concurrent use and
// idempotent: pausing a paused gate or stopping a stopped gate is a no-op.
type Gate struct {
	mu           sync.Mutex
	paused       bool
	stopped      bool
	pollInterval time.Duration
}

// NewGate creates a gate in the running (unpaused, unstopped) state.
func NewGate() *Gate {
	return &Gate{pollInterval: DefaultPollInterval}
}

// NewGateWithInterval creates a gate that re-checks a pause every d.
// A non-positive d falls back to the default interval.
func NewGateWithInterval(d time.Duration) *Gate {
	if d <= 0 {
		d = DefaultPollInterval
	}
	return &Gate{pollInterval: d}
}

// Pause blocks future dispatch. In-flight work is unaffected.
func (g *Gate) Pause() {
	g.mu.Lock()
	g.paused = true
	g.mu.Unlock()
}

// Resume clears a pause.
func (g *Gate) Resume() {
	g.mu.Lock()
	g.paused = false
	g.mu.Unlock()
}

// Stop permanently halts future dispatch. Stop wins over pause and cannot
// be undone.
func (g *Gate) Stop() {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()
}

// Paused reports whether the gate is paused.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Stopped reports whether the gate is stopped.
func (g *Gate) Stopped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopped
}

// WaitReady blocks while the gate is paused, polling until the pause
// clears, the gate stops, or ctx is cancelled. It returns true when
// dispatch must cease (stop or cancellation) and false when dispatch may
// proceed.
func (g *Gate) WaitReady(ctx context.Context) bool {
	for {
		g.mu.Lock()
		stopped, paused := g.stopped, g.paused
		g.mu.Unlock()

		if stopped {
			return true
		}
		if !paused {
			return false
		}

		select {
		case <-ctx.Done():
			return true
		case <-time.After(g.pollInterval):
		}
	}
}
