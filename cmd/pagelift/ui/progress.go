package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"

	"github.com/pagelift/pagelift/internal/pipeline"
)

// ProgressSink renders pipeline progress as a terminal progress bar.
// The pipeline delivers events one at a time, so no locking is needed.
type ProgressSink struct {
	spinner *Spinner
	bar     *progressbar.ProgressBar
	errors  int
}

// NewProgressSink creates a sink ready to receive a batch. A non-nil
// spinner covers the image-sourcing phase and is stopped when the
// first pipeline event arrives.
func NewProgressSink(spin *Spinner) *ProgressSink {
	return &ProgressSink{spinner: spin}
}

func (p *ProgressSink) OnStart(ev pipeline.StartEvent) {
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
	p.bar = progressbar.NewOptions64(
		int64(ev.Total),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription("Extracting"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (p *ProgressSink) OnStep(ev pipeline.StepEvent) {
	if ev.Err != "" {
		p.errors++
	}
	if p.bar != nil {
		_ = p.bar.Set64(int64(ev.Done))
	}
}

func (p *ProgressSink) OnFinish(ev pipeline.FinishEvent) {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
	Newline()
	if ev.Stopped {
		Warning("Stopped after %d of %d images", ev.Done, ev.Total)
	} else if p.errors > 0 {
		Warning("Processed %d images, %d with errors", ev.Done, p.errors)
	} else {
		Success("Processed %d images", ev.Done)
	}
	if ev.Usage.Total > 0 {
		Info("Tokens: %d prompt, %d completion, %d total",
			ev.Usage.Prompt, ev.Usage.Completion, ev.Usage.Total)
	}
}

// Spinner wraps a spinner instance for indeterminate progress display.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	s.spinner.Start()
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	s.spinner.Stop()
}

// UpdateMessage updates the spinner's message.
func (s *Spinner) UpdateMessage(message string) {
	s.spinner.Suffix = " " + message
}
