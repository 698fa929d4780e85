// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pagelift/pagelift/cmd/pagelift-api/handlers"
	"github.com/pagelift/pagelift/cmd/pagelift-api/middleware"
	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/observability"
	"github.com/pagelift/pagelift/internal/process"
	"github.com/pagelift/pagelift/internal/task"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, registry *task.Registry, processor *process.Processor) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"pagelift"}`))
	})

	taskHandler := handlers.NewTaskHandler(logger, cfg, registry, processor)

	r.Post("/upload", taskHandler.Upload)
	r.Get("/status/{taskID}", taskHandler.Status)
	r.Route("/tasks/{taskID}", func(r chi.Router) {
		r.Post("/pause", taskHandler.Pause)
		r.Post("/resume", taskHandler.Resume)
		r.Post("/stop", taskHandler.Stop)
	})
	r.Get("/download/{name}", taskHandler.Download)

	return r
}
