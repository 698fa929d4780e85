package pipeline

import (
	"sort"

	"github.com/pagelift/pagelift/internal/domain"
)

// Orderer buffers completed results, which arrive in arbitrary completion
// order, and restores original submission order at batch end. Output order
// by sequence index is the pipeline's most important invariant: documents
// must read in source-page order no matter which extraction finished first.
type Orderer struct {
	results map[int]domain.ItemResult
}

// NewOrderer creates an empty orderer.
func NewOrderer() *Orderer {
	return &Orderer{results: make(map[int]domain.ItemResult)}
}

// Collect buffers one completed result, success or failure.
func (o *Orderer) Collect(res domain.ItemResult) {
	o.results[res.Item.Index] = res
}

// Ordered returns the successful outcomes sorted ascending by sequence
// index. Failed and never-completed items are dropped here; they remain
// visible through the task's error list.
func (o *Orderer) Ordered() []domain.ItemResult {
	out := make([]domain.ItemResult, 0, len(o.results))
	for _, res := range o.results {
		if res.Outcome.Failed() {
			continue
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Item.Index < out[j].Item.Index
	})
	return out
}
