package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/pipeline"
)

func TestAggregator_FullRun(t *testing.T) {
	tk := newTask("id", "doc.pdf", domain.ModeTable, time.Millisecond)
	agg := NewAggregator(tk)

	agg.OnStart(pipeline.StartEvent{Total: 3, Embedded: 1, Pages: 2})
	snap := tk.Snapshot()
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 1, snap.Embedded)
	assert.Equal(t, 2, snap.Pages)

	agg.OnStep(pipeline.StepEvent{Done: 1, Total: 3, Image: "a.png", Usage: domain.Usage{Total: 10}})
	agg.OnStep(pipeline.StepEvent{Done: 2, Total: 3, Image: "b.png", Err: "no_tables", Usage: domain.Usage{Total: 5}})
	agg.OnStep(pipeline.StepEvent{Done: 3, Total: 3, Image: "c.png", Usage: domain.Usage{Total: 10}})

	agg.OnFinish(pipeline.FinishEvent{Done: 3, Total: 3, Usage: domain.Usage{Total: 25}})

	snap = tk.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 3, snap.Done)
	assert.Equal(t, 25, snap.Usage.Total)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "b.png", snap.Errors[0].Item)
	assert.Equal(t, "no_tables", snap.Errors[0].Reason)
}

func TestAggregator_DoneNeverDecreases(t *testing.T) {
	tk := newTask("id", "doc.pdf", domain.ModeText, time.Millisecond)
	agg := NewAggregator(tk)

	agg.OnStart(pipeline.StartEvent{Total: 5})
	agg.OnStep(pipeline.StepEvent{Done: 3, Total: 5})
	agg.OnStep(pipeline.StepEvent{Done: 2, Total: 5})

	assert.Equal(t, 3, tk.Snapshot().Done)
}

func TestAggregator_StoppedFinish(t *testing.T) {
	tk := newTask("id", "doc.pdf", domain.ModeText, time.Millisecond)
	agg := NewAggregator(tk)

	agg.OnStart(pipeline.StartEvent{Total: 10})
	agg.OnStep(pipeline.StepEvent{Done: 4, Total: 10})
	agg.OnFinish(pipeline.FinishEvent{Done: 4, Total: 10, Stopped: true})

	snap := tk.Snapshot()
	assert.Equal(t, StatusStopped, snap.Status)
	assert.Equal(t, 4, snap.Done)
}

func TestAggregator_CompletedWithErrorsIsNotFailed(t *testing.T) {
	tk := newTask("id", "doc.pdf", domain.ModeTable, time.Millisecond)
	agg := NewAggregator(tk)

	agg.OnStart(pipeline.StartEvent{Total: 2})
	agg.OnStep(pipeline.StepEvent{Done: 1, Total: 2, Image: "a.png", Err: "connection reset"})
	agg.OnStep(pipeline.StepEvent{Done: 2, Total: 2, Image: "b.png", Err: "connection reset"})
	agg.OnFinish(pipeline.FinishEvent{Done: 2, Total: 2})

	snap := tk.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Len(t, snap.Errors, 2)
	assert.Empty(t, snap.Failure)
}
