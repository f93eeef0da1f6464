package api

import (
	"context"
	"fmt"
	"net/http"

	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/seating"
	"gala-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Service interface {
	List(ctx context.Context) ([]models.TableWithCount, error)
	Get(ctx context.Context, id string) (*seating.TableDetail, error)
	Create(ctx context.Context, in seating.TableInput) (*models.Table, error)
	BulkCreate(ctx context.Context, in seating.BulkInput) ([]models.Table, error)
	Update(ctx context.Context, id string, u seating.TableUpdate) (*models.Table, error)
	Delete(ctx context.Context, id string) error
	Unassigned(ctx context.Context) ([]models.AttendeeView, error)
	Assign(ctx context.Context, tableID string, attendeeIDs []string) error
	Unassign(ctx context.Context, tableID, attendeeID string) error
}

type Handler struct {
	Service Service
	Logger  *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTables: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, tables)
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, table)
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var in seating.TableInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, err)
		return
	}
	table, err := h.Service.Create(r.Context(), in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, table)
}

func (h *Handler) BulkCreateTables(w http.ResponseWriter, r *http.Request) {
	var in seating.BulkInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, err)
		return
	}
	tables, err := h.Service.BulkCreate(r.Context(), in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"created": len(tables),
		"tables":  tables,
	})
}

func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var u seating.TableUpdate
	if err := utils.DecodeJSON(r, &u); err != nil {
		utils.WriteError(w, err)
		return
	}
	table, err := h.Service.Update(r.Context(), id, u)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, table)
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("DeleteTable %s: %v", id, err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.Service.Unassigned(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, attendees)
}

func (h *Handler) AssignAttendees(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")

	var body struct {
		AttendeeIDs []string `json:"attendeeIds"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.Assign(r.Context(), tableID, body.AttendeeIDs); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("AssignAttendees %s: %v", tableID, err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "assigned": len(body.AttendeeIDs)})
}

func (h *Handler) UnassignAttendee(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Unassign(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "attendeeId")); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
