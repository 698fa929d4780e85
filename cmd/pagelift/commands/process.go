package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift/cmd/pagelift/ui"
	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/llm"
	"github.com/pagelift/pagelift/internal/observability"
	"github.com/pagelift/pagelift/internal/process"
	"github.com/pagelift/pagelift/internal/task"
)

var (
	processInput   string
	processOutput  string
	processMode    string
	processSource  string
	processWorkers int
	processDPI     int
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run extraction over a PDF or a directory of images",
	Long: `Process a PDF file or a directory of page images through the extraction
service. Text mode writes a Markdown document; table mode writes an XLSX
spreadsheet with all recognized tables.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processInput, "input", "i", "", "PDF file or image directory (required)")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "output directory (default from config)")
	processCmd.Flags().StringVarP(&processMode, "mode", "m", "text", "extraction mode: text or table")
	processCmd.Flags().StringVar(&processSource, "source", "", "PDF image source: both, embedded or page")
	processCmd.Flags().IntVarP(&processWorkers, "workers", "w", 0, "concurrent extraction workers")
	processCmd.Flags().IntVar(&processDPI, "dpi", 0, "page render resolution")
	processCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ui.InitUI(noColor, verbose)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyProcessFlags(cfg)
	if err := cfg.RequireExtraction(); err != nil {
		return err
	}

	mode, err := parseMode(processMode)
	if err != nil {
		return err
	}

	logLevel := cfg.Observability.LogLevel
	if !verbose {
		// Keep the terminal clean for the progress bar.
		logLevel = "error"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:   logLevel,
		Format:  cfg.Observability.LogFormat,
		Service: "pagelift",
	})

	client := llm.NewClient(llm.Config{
		BaseURL:        cfg.Extraction.BaseURL,
		APIKey:         cfg.Extraction.APIKey,
		Model:          cfg.Extraction.Model,
		ConnectTimeout: cfg.Extraction.ConnectTimeout,
		ReadTimeout:    cfg.Extraction.ReadTimeout,
		Retries:        cfg.Extraction.Retries,
		BackoffBase:    cfg.Extraction.BackoffBase,
	}, logger)

	reg := task.NewRegistry(0, cfg.Pipeline.PollInterval)
	defer reg.Close()
	t := reg.Create(filepath.Base(processInput), mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First interrupt stops dispatch gracefully; a second one aborts.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		ui.Newline()
		ui.Warning("Stopping: waiting for in-flight images to finish (interrupt again to abort)")
		t.Stop()
		<-sigCh
		cancel()
	}()

	ui.Section("Extraction")
	ui.Info("Input: %s", processInput)
	ui.Info("Mode: %s", mode)
	ui.Newline()

	proc := process.NewProcessor(cfg, client, logger)

	// The spinner covers image sourcing; the sink swaps it for the
	// progress bar once the batch starts.
	spin := ui.NewSpinner("Preparing images")
	spin.Start()
	defer spin.Stop()
	sink := ui.NewProgressSink(spin)

	info, err := os.Stat(processInput)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	if info.IsDir() {
		paths, err := collectImages(processInput)
		if err != nil {
			return err
		}
		if _, err := proc.ProcessImages(ctx, t, paths, sink); err != nil {
			return err
		}
	} else {
		if _, err := proc.ProcessPDF(ctx, t, processInput, cfg.PDF.Source, sink); err != nil {
			return err
		}
	}

	snap := t.Snapshot()
	if snap.Artifact != "" {
		ui.Success("Output written to %s", snap.Artifact)
	}
	return nil
}

func applyProcessFlags(cfg *config.Config) {
	if processOutput != "" {
		cfg.Output.Dir = processOutput
	}
	if processSource != "" {
		cfg.PDF.Source = domain.SourceMode(processSource)
	}
	if processWorkers > 0 {
		cfg.Pipeline.Workers = processWorkers
	}
	if processDPI > 0 {
		cfg.PDF.DPI = processDPI
	}
}

func parseMode(s string) (domain.ExtractMode, error) {
	switch domain.ExtractMode(strings.ToLower(s)) {
	case domain.ModeText:
		return domain.ModeText, nil
	case domain.ModeTable:
		return domain.ModeTable, nil
	}
	return "", fmt.Errorf("invalid mode %q: expected text or table", s)
}

func collectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg", ".webp", ".bmp", ".tif", ".tiff":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files found in %s", dir)
	}
	return paths, nil
}
