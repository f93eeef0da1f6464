package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/reports"
	"gala-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Service interface {
	Summary(ctx context.Context) (*reports.Summary, error)
	Export(ctx context.Context, name string, w io.Writer) error
}

type Handler struct {
	Service Service
	Logger  *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Summary: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	filename, ok := reports.Exports[name]
	if !ok {
		utils.WriteError(w, apperr.NotFoundf("Unknown export %q", name))
		return
	}

	// buffered so a failed query still yields a JSON error
	var buf bytes.Buffer
	if err := h.Service.Export(r.Context(), name, &buf); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Export %s: %v", name, err))
		utils.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
