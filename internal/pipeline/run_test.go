package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/domain"
)

// recordingSink captures every event for inspection after the run.
type recordingSink struct {
	starts   []StartEvent
	steps    []StepEvent
	finishes []FinishEvent
}

func (s *recordingSink) OnStart(ev StartEvent)   { s.starts = append(s.starts, ev) }
func (s *recordingSink) OnStep(ev StepEvent)     { s.steps = append(s.steps, ev) }
func (s *recordingSink) OnFinish(ev FinishEvent) { s.finishes = append(s.finishes, ev) }

func TestRun_SingleFailureDoesNotAbortBatch(t *testing.T) {
	items := makeItems(10)
	fn := func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		if item.Index == 5 {
			return domain.Failure("connection reset", domain.Usage{Total: 1})
		}
		return domain.Outcome{
			Content: domain.ContentBatch{{Type: domain.NodeParagraph, Text: item.Name}},
			Usage:   domain.Usage{Prompt: 10, Completion: 5, Total: 15},
		}
	}

	sink := &recordingSink{}
	res := Run(context.Background(), Batch{Name: "doc.pdf", Items: items}, fn, Options{Workers: 3}, sink)

	assert.Equal(t, 10, res.Done)
	assert.Equal(t, 10, res.Total)
	assert.False(t, res.Stopped)

	require.Len(t, res.Ordered, 9)
	prev := -1
	for _, r := range res.Ordered {
		assert.Greater(t, r.Item.Index, prev)
		assert.NotEqual(t, 5, r.Item.Index)
		prev = r.Item.Index
	}

	require.Len(t, sink.starts, 1)
	assert.Equal(t, 10, sink.starts[0].Total)

	require.Len(t, sink.steps, 10)
	failed := 0
	for _, ev := range sink.steps {
		if ev.Err != "" {
			failed++
			assert.Equal(t, "connection reset", ev.Err)
		}
	}
	assert.Equal(t, 1, failed)
	// Done in the last step event equals the total.
	assert.Equal(t, 10, sink.steps[9].Done)

	require.Len(t, sink.finishes, 1)
	fin := sink.finishes[0]
	assert.Equal(t, 10, fin.Done)
	assert.False(t, fin.Stopped)
	// 9 successes at 15 tokens plus the failure's single token.
	assert.Equal(t, 9*15+1, fin.Usage.Total)
}

func TestRun_StepDoneIsMonotonic(t *testing.T) {
	fn := func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		return domain.Outcome{}
	}

	sink := &recordingSink{}
	Run(context.Background(), Batch{Name: "b", Items: makeItems(8)}, fn, Options{Workers: 4}, sink)

	for i, ev := range sink.steps {
		assert.Equal(t, i+1, ev.Done)
		assert.Equal(t, 8, ev.Total)
	}
}

func TestRun_StoppedRunStillFinishes(t *testing.T) {
	gate := NewGateWithInterval(time.Millisecond)
	var processed int64
	fn := func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		if atomic.AddInt64(&processed, 1) == 2 {
			gate.Stop()
		}
		return domain.Outcome{}
	}

	sink := &recordingSink{}
	res := Run(context.Background(), Batch{Name: "b", Items: makeItems(10)}, fn, Options{Workers: 1, Gate: gate}, sink)

	assert.True(t, res.Stopped)
	assert.Less(t, res.Done, 10)
	require.Len(t, sink.finishes, 1)
	assert.True(t, sink.finishes[0].Stopped)
	assert.Equal(t, res.Done, sink.finishes[0].Done)
}

func TestRun_EmptyBatch(t *testing.T) {
	fn := func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		t.Fatal("extract must not run")
		return domain.Outcome{}
	}

	sink := &recordingSink{}
	res := Run(context.Background(), Batch{Name: "empty"}, fn, Options{Workers: 2}, sink)

	assert.Equal(t, 0, res.Done)
	assert.Equal(t, 0, res.Total)
	assert.False(t, res.Stopped)
	assert.Empty(t, res.Ordered)
	require.Len(t, sink.starts, 1)
	require.Len(t, sink.finishes, 1)
}

func TestRun_SourceBreakdownInStartEvent(t *testing.T) {
	fn := func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		return domain.Outcome{}
	}

	sink := &recordingSink{}
	Run(context.Background(), Batch{
		Name:     "b",
		Items:    makeItems(5),
		Embedded: 2,
		Pages:    3,
	}, fn, Options{Workers: 2}, sink)

	require.Len(t, sink.starts, 1)
	assert.Equal(t, 2, sink.starts[0].Embedded)
	assert.Equal(t, 3, sink.starts[0].Pages)
}
