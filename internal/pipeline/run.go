package pipeline

import (
	"context"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/observability"
)

// Batch is one ordered sequence of work items with its source breakdown.
type Batch struct {
	Name     string
	Items    []domain.WorkItem
	Embedded int
	Pages    int
}

// Options configures a pipeline run.
type Options struct {
	Workers int
	Gate    *Gate
	Logger  *observability.Logger
}

// Result is the aggregate of one pipeline run.
type Result struct {
	// Ordered holds the successful outcomes in ascending sequence order.
	Ordered []domain.ItemResult
	Done    int
	Total   int
	Usage   domain.Usage
	Stopped bool
}

// Run drives a batch through the worker pool and fans progress events out
// to the sinks. A single item's failure never aborts the batch; it is
// reported in its step event and skipped by the orderer. Run returns once
// every dispatched item has completed and the finish event was delivered.
func Run(ctx context.Context, batch Batch, fn ExtractFunc, opts Options, sinks ...Sink) Result {
	gate := opts.Gate
	if gate == nil {
		gate = NewGate()
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.Nop()
	}

	total := len(batch.Items)
	for _, s := range sinks {
		s.OnStart(StartEvent{
			Batch:    batch.Name,
			Total:    total,
			Embedded: batch.Embedded,
			Pages:    batch.Pages,
		})
	}

	orderer := NewOrderer()
	res := Result{Total: total}

	pool := NewPool(opts.Workers, gate)
	for ir := range pool.Run(ctx, batch.Items, fn) {
		res.Done++
		res.Usage.Add(ir.Outcome.Usage)
		orderer.Collect(ir)

		if ir.Outcome.Failed() {
			logger.Warn().
				Str("batch", batch.Name).
				Str("image", ir.Item.Name).
				Str("reason", ir.Outcome.Reason).
				Msg("Item failed")
		} else {
			logger.Debug().
				Str("batch", batch.Name).
				Str("image", ir.Item.Name).
				Msg("Item processed")
		}

		for _, s := range sinks {
			s.OnStep(StepEvent{
				Batch: batch.Name,
				Done:  res.Done,
				Total: total,
				Image: ir.Item.Name,
				Err:   ir.Outcome.Reason,
				Usage: ir.Outcome.Usage,
			})
		}
	}

	res.Stopped = res.Done < total && (gate.Stopped() || ctx.Err() != nil)
	res.Ordered = orderer.Ordered()

	for _, s := range sinks {
		s.OnFinish(FinishEvent{
			Batch:   batch.Name,
			Done:    res.Done,
			Total:   total,
			Usage:   res.Usage,
			Stopped: res.Stopped,
		})
	}

	logger.Info().
		Str("batch", batch.Name).
		Int("done", res.Done).
		Int("total", total).
		Bool("stopped", res.Stopped).
		Msg("Batch finished")

	return res
}
