package export

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/imthatgin/querylib/internal/graph"
)

type Handler struct {
	service *Service
}

func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet:
		h.handleExport(w, r)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Stage the document in memory so failures can still produce an error
	// response instead of a truncated download.
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), &buf, format); err != nil {
		if errors.Is(err, graph.ErrStorageUnavailable) {
			http.Error(w, fmt.Sprintf("failed to export migration history: %v", err), http.StatusServiceUnavailable)
			return
		}
		http.Error(w, fmt.Sprintf("failed to export migration history: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", FileName(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
