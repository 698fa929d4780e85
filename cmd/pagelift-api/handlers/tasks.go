// Package handlers provides HTTP handlers for the pagelift API.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/observability"
	"github.com/pagelift/pagelift/internal/process"
	"github.com/pagelift/pagelift/internal/task"
)

// TaskHandler handles batch submission, polling and control requests.
type TaskHandler struct {
	logger    *observability.Logger
	cfg       *config.Config
	registry  *task.Registry
	processor *process.Processor
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(logger *observability.Logger, cfg *config.Config, registry *task.Registry, processor *process.Processor) *TaskHandler {
	if logger == nil {
		logger = observability.Nop()
	}
	return &TaskHandler{
		logger:    logger,
		cfg:       cfg,
		registry:  registry,
		processor: processor,
	}
}

// UploadResponseDTO is the API response for a submitted batch.
type UploadResponseDTO struct {
	TaskIDs []string `json:"task_ids"`
	Status  string   `json:"status"`
}

// upload is one stored multipart file awaiting processing.
type upload struct {
	name string
	path string
}

// Upload handles POST /upload: one or more multipart PDF or image
// files plus optional extraction mode and PDF source. Each PDF becomes
// its own task; all images form a single batch task. Runs start in the
// background; the response carries the task IDs to poll.
func (h *TaskHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.cfg.Server.MaxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		// Single-part form kept for older clients.
		parts = r.MultipartForm.File["file"]
	}
	if len(parts) == 0 {
		h.writeError(w, http.StatusBadRequest, "at least one file is required", "")
		return
	}

	mode := domain.ModeText
	switch strings.ToLower(r.FormValue("mode")) {
	case "", "text":
	case "table":
		mode = domain.ModeTable
	default:
		h.writeError(w, http.StatusBadRequest, "invalid mode", "expected text or table")
		return
	}

	source := h.cfg.PDF.Source
	switch s := domain.SourceMode(strings.ToLower(r.FormValue("source"))); s {
	case "":
	case domain.SourceBoth, domain.SourceEmbedded, domain.SourcePage:
		source = s
	default:
		h.writeError(w, http.StatusBadRequest, "invalid source", "expected both, embedded or page")
		return
	}

	var pdfs, images []upload
	cleanup := func() {
		for _, up := range append(pdfs, images...) {
			os.Remove(up.path)
		}
	}
	for _, header := range parts {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".pdf", ".png", ".jpg", ".jpeg", ".webp", ".bmp", ".tif", ".tiff":
		default:
			cleanup()
			h.writeError(w, http.StatusBadRequest, "unsupported file type", fmt.Sprintf("extension %s", ext))
			return
		}

		file, err := header.Open()
		if err != nil {
			cleanup()
			h.writeError(w, http.StatusBadRequest, "unreadable upload part", err.Error())
			return
		}
		path, err := h.saveUpload(file, header.Filename)
		file.Close()
		if err != nil {
			cleanup()
			h.writeError(w, http.StatusInternalServerError, "failed to store upload", err.Error())
			return
		}

		up := upload{name: header.Filename, path: path}
		if ext == ".pdf" {
			pdfs = append(pdfs, up)
		} else {
			images = append(images, up)
		}
	}

	var ids []string

	// The request context dies with the response; each run carries its own.
	for _, up := range pdfs {
		t := h.registry.Create(up.name, mode)
		h.logger.WithTask(t.ID).Info().
			Str("file", up.name).
			Str("mode", string(mode)).
			Str("source", string(source)).
			Msg("Batch submitted")
		go func(up upload, t *task.Task) {
			defer os.Remove(up.path)
			if _, err := h.processor.ProcessPDF(context.Background(), t, up.path, source); err != nil {
				h.logger.WithTask(t.ID).Error().Err(err).Msg("Batch failed")
			}
		}(up, t)
		ids = append(ids, t.ID)
	}

	if len(images) > 0 {
		name := images[0].name
		if len(images) > 1 {
			name = fmt.Sprintf("%s (+%d more)", name, len(images)-1)
		}
		t := h.registry.Create(name, mode)
		h.logger.WithTask(t.ID).Info().
			Int("images", len(images)).
			Str("mode", string(mode)).
			Msg("Batch submitted")
		paths := make([]string, 0, len(images))
		for _, up := range images {
			paths = append(paths, up.path)
		}
		go func(paths []string, t *task.Task) {
			defer func() {
				for _, p := range paths {
					os.Remove(p)
				}
			}()
			if _, err := h.processor.ProcessImages(context.Background(), t, paths); err != nil {
				h.logger.WithTask(t.ID).Error().Err(err).Msg("Batch failed")
			}
		}(paths, t)
		ids = append(ids, t.ID)
	}

	h.writeJSON(w, http.StatusAccepted, UploadResponseDTO{
		TaskIDs: ids,
		Status:  string(task.StatusPending),
	})
}

// Status handles GET /status/{taskID}.
func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	t := h.registry.Get(chi.URLParam(r, "taskID"))
	if t == nil {
		h.writeError(w, http.StatusNotFound, "task not found", "")
		return
	}
	h.writeJSON(w, http.StatusOK, t.Snapshot())
}

// Pause handles POST /tasks/{taskID}/pause.
func (h *TaskHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, "pause", h.registry.Pause)
}

// Resume handles POST /tasks/{taskID}/resume.
func (h *TaskHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, "resume", h.registry.Resume)
}

// Stop handles POST /tasks/{taskID}/stop.
func (h *TaskHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, "stop", h.registry.Stop)
}

func (h *TaskHandler) control(w http.ResponseWriter, r *http.Request, action string, apply func(string) bool) {
	id := chi.URLParam(r, "taskID")
	if !apply(id) {
		h.writeError(w, http.StatusNotFound, "task not found", "")
		return
	}
	h.logger.WithTask(id).Info().Str("action", action).Msg("Control request applied")
	h.writeJSON(w, http.StatusOK, map[string]string{"task_id": id, "action": action})
}

// Download handles GET /download/{name}: serves an artifact from the
// output directory. The name is stripped to its base so requests cannot
// escape the directory.
func (h *TaskHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	if name == "." || name == "/" {
		h.writeError(w, http.StatusBadRequest, "invalid artifact name", "")
		return
	}

	path := filepath.Join(h.cfg.Output.Dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		h.writeError(w, http.StatusNotFound, "artifact not found", "")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (h *TaskHandler) saveUpload(src io.Reader, filename string) (string, error) {
	dir := filepath.Join(os.TempDir(), "pagelift-uploads")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	dst, err := os.CreateTemp(dir, "*-"+filepath.Base(filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func (h *TaskHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *TaskHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	json.NewEncoder(w).Encode(resp)
}
