// Package main provides the pagelift API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/llm"
	"github.com/pagelift/pagelift/internal/observability"
	"github.com/pagelift/pagelift/internal/process"
	"github.com/pagelift/pagelift/internal/task"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.RequireExtraction(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:   cfg.Observability.LogLevel,
		Format:  cfg.Observability.LogFormat,
		Service: "pagelift-api",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("model", cfg.Extraction.Model).
		Int("workers", cfg.Pipeline.Workers).
		Msg("Starting pagelift API")

	client := llm.NewClient(llm.Config{
		BaseURL:        cfg.Extraction.BaseURL,
		APIKey:         cfg.Extraction.APIKey,
		Model:          cfg.Extraction.Model,
		ConnectTimeout: cfg.Extraction.ConnectTimeout,
		ReadTimeout:    cfg.Extraction.ReadTimeout,
		Retries:        cfg.Extraction.Retries,
		BackoffBase:    cfg.Extraction.BackoffBase,
	}, logger)

	registry := task.NewRegistry(cfg.Tasks.Retention, cfg.Pipeline.PollInterval)
	defer registry.Close()

	processor := process.NewProcessor(cfg, client, logger)

	router := NewRouter(logger, cfg, registry, processor)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
