package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/domain"
)

func makeItems(n int) []domain.WorkItem {
	items := make([]domain.WorkItem, n)
	for i := range items {
		items[i] = domain.WorkItem{Index: i, Name: itemName(i), Path: "/tmp/" + itemName(i)}
	}
	return items
}

func itemName(i int) string {
	return "img_" + string(rune('a'+i)) + ".png"
}

func drain(results <-chan domain.ItemResult) []domain.ItemResult {
	var out []domain.ItemResult
	for r := range results {
		out = append(out, r)
	}
	return out
}

func TestPool_ProcessesEveryItem(t *testing.T) {
	pool := NewPool(3, NewGate())

	fn := func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		return domain.Outcome{Content: domain.ContentBatch{{Type: domain.NodeParagraph, Text: item.Name}}}
	}

	got := drain(pool.Run(context.Background(), makeItems(10), fn))
	require.Len(t, got, 10)

	seen := make(map[int]bool)
	for _, r := range got {
		assert.False(t, seen[r.Item.Index], "item %d delivered twice", r.Item.Index)
		seen[r.Item.Index] = true
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const workers = 3
	pool := NewPool(workers, NewGate())

	var inFlight, peak int64
	fn := func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return domain.Outcome{}
	}

	drain(pool.Run(context.Background(), makeItems(12), fn))
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(workers))
	assert.Greater(t, atomic.LoadInt64(&peak), int64(1), "expected concurrent dispatch")
}

func TestPool_SingleWorkerIsSequential(t *testing.T) {
	pool := NewPool(1, NewGate())

	var mu sync.Mutex
	var order []int
	fn := func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		mu.Lock()
		order = append(order, item.Index)
		mu.Unlock()
		return domain.Outcome{}
	}

	drain(pool.Run(context.Background(), makeItems(6), fn))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, order)
}

func TestPool_ZeroItems(t *testing.T) {
	pool := NewPool(4, NewGate())
	fn := func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		t.Fatal("extract must not run for an empty batch")
		return domain.Outcome{}
	}

	got := drain(pool.Run(context.Background(), nil, fn))
	assert.Empty(t, got)
}

func TestPool_PauseResumeDeliversEachItemOnce(t *testing.T) {
	gate := NewGateWithInterval(time.Millisecond)
	pool := NewPool(1, gate)

	const total = 5
	var paused sync.Once
	fn := func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		// Pause mid-batch; dispatch must hold and then pick up exactly
		// where it left off once resumed.
		paused.Do(func() {
			gate.Pause()
			go func() {
				time.Sleep(60 * time.Millisecond)
				gate.Resume()
			}()
		})
		return domain.Outcome{}
	}

	got := drain(pool.Run(context.Background(), makeItems(total), fn))
	require.Len(t, got, total)

	counts := make(map[int]int)
	for _, r := range got {
		counts[r.Item.Index]++
	}
	for i := 0; i < total; i++ {
		assert.Equal(t, 1, counts[i], "item %d delivery count", i)
	}
}

func TestPool_StopDropsUndispatched(t *testing.T) {
	gate := NewGateWithInterval(time.Millisecond)
	pool := NewPool(1, gate)

	const stopAfter = 3
	var processed int64
	fn := func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		if atomic.AddInt64(&processed, 1) == stopAfter {
			gate.Stop()
		}
		return domain.Outcome{}
	}

	got := drain(pool.Run(context.Background(), makeItems(10), fn))
	// The stop lands while one more item may already sit with a worker.
	assert.GreaterOrEqual(t, len(got), stopAfter)
	assert.Less(t, len(got), 10)
}

func TestPool_ContextCancelStopsDispatch(t *testing.T) {
	gate := NewGateWithInterval(time.Millisecond)
	pool := NewPool(1, gate)

	ctx, cancel := context.WithCancel(context.Background())
	var processed int64
	fn := func(c context.Context, item domain.WorkItem) domain.Outcome {
		if atomic.AddInt64(&processed, 1) == 2 {
			cancel()
			// Give the dispatcher time to observe the cancellation; a
			// paused gate re-checks ctx, an unpaused one checks before
			// the next send.
			gate.Pause()
		}
		return domain.Outcome{}
	}

	got := drain(pool.Run(ctx, makeItems(10), fn))
	assert.Less(t, len(got), 10)
}

func TestNewPool_ClampsWorkers(t *testing.T) {
	pool := NewPool(0, nil)
	assert.Equal(t, 1, pool.workers)
	assert.NotNil(t, pool.gate)
}
