// Package process drives complete extraction runs: image sourcing,
// the worker pipeline, result assembly and artifact export.
package process

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/export"
	"github.com/pagelift/pagelift/internal/llm"
	"github.com/pagelift/pagelift/internal/observability"
	"github.com/pagelift/pagelift/internal/parse"
	"github.com/pagelift/pagelift/internal/pdf"
	"github.com/pagelift/pagelift/internal/pipeline"
	"github.com/pagelift/pagelift/internal/task"
)

// Processor runs extraction batches end to end. It is safe for
// concurrent use; each run carries its own task and converter state.
type Processor struct {
	cfg    *config.Config
	client *llm.Client
	logger *observability.Logger
}

// NewProcessor wires a processor from configuration.
func NewProcessor(cfg *config.Config, client *llm.Client, logger *observability.Logger) *Processor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Processor{cfg: cfg, client: client, logger: logger}
}

// ProcessPDF runs a full extraction over one PDF: images are pulled
// from the file per the given source, pushed through the pipeline and
// assembled into an artifact. An empty source falls back to the
// configured one. Progress flows to the task's aggregator and to any
// extra sinks. Setup failures mark the task failed; per-item failures
// and empty batches do not.
func (p *Processor) ProcessPDF(ctx context.Context, t *task.Task, pdfPath string, source domain.SourceMode, extra ...pipeline.Sink) (pipeline.Result, error) {
	logger := p.logger.WithTask(t.ID)

	if source == "" {
		source = p.cfg.PDF.Source
	}

	conv := pdf.NewConverter(p.cfg.PDF.DPI)
	defer func() {
		if err := conv.Cleanup(); err != nil {
			logger.Warn().Err(err).Msg("Temp image cleanup failed")
		}
	}()

	embedded, pages, err := conv.Convert(ctx, pdfPath, source)
	if err != nil {
		t.Fail(err.Error())
		return pipeline.Result{}, err
	}

	// A readable PDF that yields no images (embedded source, no
	// embedded pictures) still runs: the pipeline finishes with total
	// zero and the export writes its placeholder.
	items := pdf.BuildItems(embedded, pages)

	logger.Info().
		Str("pdf", filepath.Base(pdfPath)).
		Int("embedded", len(embedded)).
		Int("pages", len(pages)).
		Msg("Image sourcing complete")

	batch := pipeline.Batch{
		Name:     t.Name,
		Items:    items,
		Embedded: len(embedded),
		Pages:    len(pages),
	}
	return p.run(ctx, t, batch, extra...)
}

// ProcessImages runs an extraction over standalone image files, sorted
// naturally so img2 precedes img10.
func (p *Processor) ProcessImages(ctx context.Context, t *task.Task, paths []string, extra ...pipeline.Sink) (pipeline.Result, error) {
	items := pdf.ItemsFromImages(paths)

	batch := pipeline.Batch{Name: t.Name, Items: items}
	return p.run(ctx, t, batch, extra...)
}

func (p *Processor) run(ctx context.Context, t *task.Task, batch pipeline.Batch, extra ...pipeline.Sink) (pipeline.Result, error) {
	sinks := append([]pipeline.Sink{task.NewAggregator(t)}, extra...)

	res := pipeline.Run(ctx, batch, p.extract(t.Mode), pipeline.Options{
		Workers: p.cfg.Pipeline.Workers,
		Gate:    t.Gate(),
		Logger:  p.logger.WithTask(t.ID),
	}, sinks...)

	artifact, err := p.writeArtifact(t, res)
	if err != nil {
		// The run itself finished; surface the export failure without
		// rewriting the terminal status counters.
		p.logger.WithTask(t.ID).Error().Err(err).Msg("Artifact export failed")
		return res, err
	}
	t.SetArtifact(artifact)

	return res, nil
}

// extract adapts the extraction client and parser into the pipeline's
// per-item function. A transport or service error becomes the item's
// failure reason; a response that parses to nothing becomes a sentinel
// reason so empty pages are visible but not fatal.
func (p *Processor) extract(mode domain.ExtractMode) pipeline.ExtractFunc {
	return func(ctx context.Context, item domain.WorkItem) domain.Outcome {
		raw, usage, err := p.client.Extract(ctx, item.Path, mode)
		if err != nil {
			return domain.Failure(err.Error(), usage)
		}

		if mode == domain.ModeTable {
			tables := parse.Tables(raw)
			if len(tables) == 0 {
				return domain.Failure(domain.ReasonNoTables, usage)
			}
			return domain.Outcome{Tables: tables, Usage: usage}
		}

		content := parse.Content(raw)
		if len(content) == 0 {
			return domain.Failure(domain.ReasonNoContent, usage)
		}
		return domain.Outcome{Content: content, Usage: usage}
	}
}

// writeArtifact assembles the ordered successful outcomes into the
// mode's output document and returns its path.
func (p *Processor) writeArtifact(t *task.Task, res pipeline.Result) (string, error) {
	if err := os.MkdirAll(p.cfg.Output.Dir, 0755); err != nil {
		return "", domain.IOError("failed to create output directory", err)
	}

	base := artifactBase(t.Name)
	switch t.Mode {
	case domain.ModeTable:
		images := make([]export.ImageTables, 0, len(res.Ordered))
		for _, ir := range res.Ordered {
			images = append(images, export.ImageTables{
				Image:  ir.Item.Name,
				Tables: ir.Outcome.Tables,
			})
		}
		outPath := filepath.Join(p.cfg.Output.Dir, base+"_tables.xlsx")
		if err := export.WriteExcel(images, outPath); err != nil {
			return "", domain.IOError("failed to write spreadsheet", err)
		}
		return outPath, nil
	default:
		images := make([]export.ImageContent, 0, len(res.Ordered))
		for _, ir := range res.Ordered {
			images = append(images, export.ImageContent{
				Image: ir.Item.Name,
				Nodes: ir.Outcome.Content,
			})
		}
		outPath := filepath.Join(p.cfg.Output.Dir, base+"_content.md")
		if err := export.WriteMarkdown(images, outPath); err != nil {
			return "", domain.IOError("failed to write document", err)
		}
		return outPath, nil
	}
}

// artifactBase derives a filesystem-safe artifact stem from the batch name.
func artifactBase(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, base)
	if base == "" {
		base = fmt.Sprintf("batch_%d", os.Getpid())
	}
	return base
}
