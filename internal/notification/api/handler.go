package api

import (
	"context"
	"net/http"

	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type LogReader interface {
	ListByOrder(ctx context.Context, orderID string) ([]models.EmailLog, error)
}

type Handler struct {
	Logs   LogReader
	Logger *logger.Logger
}

func NewHandler(logs LogReader, log *logger.Logger) *Handler {
	return &Handler{Logs: logs, Logger: log}
}

// ListOrderEmails returns every email attempt recorded for an order.
func (h *Handler) ListOrderEmails(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Logs.ListByOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []models.EmailLog{}
	}
	utils.WriteJSON(w, http.StatusOK, entries)
}
