package api

import (
	"context"
	"fmt"
	"net/http"

	"gala-ticketing/internal/attendees"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Service interface {
	List(ctx context.Context) ([]models.AttendeeView, error)
	MissingNames(ctx context.Context) ([]models.AttendeeView, error)
	Update(ctx context.Context, id string, u attendees.AttendeeUpdate) (*models.AttendeeView, error)
	CheckIn(ctx context.Context, id string) error
	UndoCheckIn(ctx context.Context, id string) error
	Pass(ctx context.Context, id string) ([]byte, error)
	ScanCheckIn(ctx context.Context, token string) (*attendees.ScanResult, error)
}

type Handler struct {
	Service Service
	Logger  *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	var (
		list []models.AttendeeView
		err  error
	)
	if r.URL.Query().Get("missing") == "names" {
		list, err = h.Service.MissingNames(r.Context())
	} else {
		list, err = h.Service.List(r.Context())
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAttendees: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ListMissingNames(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.MissingNames(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMissingNames: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) UpdateAttendee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var u attendees.AttendeeUpdate
	if err := utils.DecodeJSON(r, &u); err != nil {
		utils.WriteError(w, err)
		return
	}
	a, err := h.Service.Update(r.Context(), id, u)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("UpdateAttendee %s: %v", id, err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CheckIn(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) UndoCheckIn(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.UndoCheckIn(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) Pass(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	png, err := h.Service.Pass(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=pass-%s.png", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, err)
		return
	}
	res, err := h.Service.ScanCheckIn(r.Context(), body.Token)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}
