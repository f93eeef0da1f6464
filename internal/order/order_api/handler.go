package order_api

import (
	"context"
	"fmt"
	"net/http"

	"gala-ticketing/internal/fulfillment"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/order"
	"gala-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	Checkout(ctx context.Context, req order.CheckoutRequest) (*order.CheckoutResponse, error)
	PublicLookup(ctx context.Context, orderID string) (*order.PublicOrder, error)
	LookupBySession(ctx context.Context, sessionID string) (*order.PublicOrder, error)
	List(ctx context.Context, status models.OrderStatus) ([]models.OrderSummaryRow, error)
	Detail(ctx context.Context, orderID string) (*order.OrderDetail, error)
	UpdateNotes(ctx context.Context, orderID, notes string) error
	Cancel(ctx context.Context, orderID string) error
	Complete(ctx context.Context, orderID string) (*fulfillment.Result, error)
	Refund(ctx context.Context, orderID string) error
	EmailCustomer(ctx context.Context, orderID, subject, body string) error
}

type Handler struct {
	OrderService OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService OrderService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Logger: log}
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "Checkout: received request")

	var req order.CheckoutRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	resp, err := h.OrderService.Checkout(r.Context(), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Checkout failed: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	view, err := h.OrderService.LookupBySession(r.Context(), sessionID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) GetPublicOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.OrderService.PublicLookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	rows, err := h.OrderService.List(r.Context(), status)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	h.Logger.Debug("API", fmt.Sprintf("GetOrder: orderId=%s", orderID))

	detail, err := h.OrderService.Detail(r.Context(), orderID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var body struct {
		Notes string `json:"notes"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := h.OrderService.UpdateNotes(r.Context(), orderID, body.Notes); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("CancelOrder: orderId=%s", orderID))

	if err := h.OrderService.Cancel(r.Context(), orderID); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CancelOrder: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("CompleteOrder: orderId=%s", orderID))

	res, err := h.OrderService.Complete(r.Context(), orderID)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CompleteOrder: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"attendeeCount": res.AttendeesCreated,
		"raffleEntries": res.RaffleEntriesCreated,
	})
}

func (h *Handler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("RefundOrder: orderId=%s", orderID))

	if err := h.OrderService.Refund(r.Context(), orderID); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("RefundOrder: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) EmailOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var body struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := h.OrderService.EmailCustomer(r.Context(), orderID, body.Subject, body.Message); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("EmailOrder: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}
