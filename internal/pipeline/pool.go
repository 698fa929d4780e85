package pipeline

import (
	"context"
	"sync"

	"github.com/pagelift/pagelift/internal/domain"
)

// ExtractFunc runs one work item through the extraction service. It must
// not panic; failures travel inside the returned outcome.
type ExtractFunc func(ctx context.Context, item domain.WorkItem) domain.Outcome

// Pool is a bounded-concurrency driver over an ordered work-item sequence.
// It dispatches items in submission order, keeps at most workers calls in
// flight, and yields results in completion order.
type Pool struct {
	workers int
	gate    *Gate
}

// NewPool creates a pool with the given concurrency limit. With workers=1
// the pool degrades to strictly sequential processing with identical
// control semantics.
func NewPool(workers int, gate *Gate) *Pool {
	if workers < 1 {
		workers = 1
	}
	if gate == nil {
		gate = NewGate()
	}
	return &Pool{workers: workers, gate: gate}
}

// Run processes items and returns a channel of results in completion
// order, closed once no more results will arrive. The gate is consulted
// before every dispatch: a pause blocks further dispatch without touching
// in-flight calls, a stop drops all undispatched items. In-flight calls
// always run to completion; cancellation of new dispatch is cooperative.
func (p *Pool) Run(ctx context.Context, items []domain.WorkItem, fn ExtractFunc) <-chan domain.ItemResult {
	results := make(chan domain.ItemResult)
	work := make(chan domain.WorkItem)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				results <- domain.ItemResult{Item: item, Outcome: fn(ctx, item)}
			}
		}()
	}

	// Dispatcher: walks the sequence with a cursor, consulting the gate
	// before handing each item to a free worker. The unbuffered work
	// channel is what bounds in-flight calls to the worker count.
	go func() {
		defer func() {
			close(work)
			wg.Wait()
			close(results)
		}()
		for _, item := range items {
			if p.gate.WaitReady(ctx) {
				return
			}
			work <- item
		}
	}()

	return results
}
