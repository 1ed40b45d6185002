package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/imthatgin/querylib/internal/graph"
	"github.com/imthatgin/querylib/internal/migration"
)

// Handler exposes the migration chain over HTTP.
type Handler struct {
	service *Service
	source  *migration.Source
	runner  *migration.Runner
}

// NewHTTPHandler wraps the history service and runner with HTTP endpoints.
func NewHTTPHandler(service *Service, source *migration.Source, runner *migration.Runner) http.Handler {
	return &Handler{service: service, source: source, runner: runner}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/lineage"):
		h.handleLineage(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/status"):
		h.handleStatus(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/apply"):
		h.handleApply(w, r)
	case r.Method == http.MethodGet:
		h.handleList(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if version := strings.TrimSpace(r.URL.Query().Get("version")); version != "" {
		record, err := h.service.GetByVersion(r.Context(), version)
		if err != nil {
			http.Error(w, fmt.Sprintf("get migration: %v", err), statusForError(err))
			return
		}
		writeJSON(w, http.StatusOK, record)
		return
	}

	records, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("list migrations: %v", err), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleLineage(w http.ResponseWriter, r *http.Request) {
	version := strings.TrimSpace(r.URL.Query().Get("version"))
	if version == "" {
		http.Error(w, "version is required", http.StatusBadRequest)
		return
	}

	lineage, err := h.service.Lineage(r.Context(), version)
	if err != nil {
		http.Error(w, fmt.Sprintf("lineage: %v", err), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, lineage)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	migrations, err := h.source.Load()
	if err != nil {
		http.Error(w, fmt.Sprintf("load migrations: %v", err), http.StatusInternalServerError)
		return
	}

	statuses, err := h.service.Status(r.Context(), migrations)
	if err != nil {
		http.Error(w, fmt.Sprintf("status: %v", err), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	migrations, err := h.source.Load()
	if err != nil {
		http.Error(w, fmt.Sprintf("load migrations: %v", err), http.StatusInternalServerError)
		return
	}

	summary, err := h.runner.Run(r.Context(), migrations)
	if err != nil {
		http.Error(w, fmt.Sprintf("apply migrations: %v", err), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, graph.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrWriteConflict), errors.Is(err, migration.ErrChecksumMismatch):
		return http.StatusConflict
	case errors.Is(err, graph.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
