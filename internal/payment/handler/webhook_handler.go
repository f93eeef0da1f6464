package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"gala-ticketing/internal/fulfillment"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/payment"
	"gala-ticketing/internal/utils"

	"github.com/stripe/stripe-go/v82"
)

const maxWebhookBody = 1 << 16

type Fulfiller interface {
	Fulfill(ctx context.Context, orderID, paymentIntent string) (*fulfillment.Result, error)
}

type EventParser interface {
	Parse(payload []byte, signature string) (*stripe.Event, error)
}

type WebhookHandler struct {
	Parser    EventParser
	Fulfiller Fulfiller
	Logger    *logger.Logger
}

func NewWebhookHandler(parser EventParser, fulfiller Fulfiller, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{Parser: parser, Fulfiller: fulfiller, Logger: log}
}

// HandleStripe acknowledges every verified event with 200; fulfillment
// outcomes are only logged.
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to read webhook payload: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Bad Request", "Invalid webhook payload"))
		return
	}

	event, err := h.Parser.Parse(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		var whErr *payment.WebhookError
		status, msg := http.StatusBadRequest, "Invalid webhook"
		if errors.As(err, &whErr) {
			status, msg = whErr.StatusCode, whErr.PublicError
		}
		h.Logger.LogSecurity("WEBHOOK_REJECTED", err.Error())
		utils.WriteJSON(w, status, utils.ErrorResponse(http.StatusText(status), msg))
		return
	}

	h.Logger.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event: %s (%s)", event.Type, event.ID))

	switch string(event.Type) {
	case payment.EventCheckoutSessionCompleted:
		h.handleCompleted(r.Context(), event)
	default:
		h.Logger.Info("WEBHOOK", fmt.Sprintf("Unhandled event type: %s", event.Type))
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandler) handleCompleted(ctx context.Context, event *stripe.Event) {
	checkout, err := payment.CheckoutFromEvent(event)
	if err != nil {
		h.Logger.Error("WEBHOOK", err.Error())
		return
	}

	res, err := h.Fulfiller.Fulfill(ctx, checkout.OrderID, checkout.PaymentIntent)
	if errors.Is(err, fulfillment.ErrAlreadyFulfilled) {
		h.Logger.Info("WEBHOOK", fmt.Sprintf("Order %s already fulfilled, redelivery ignored", checkout.OrderID))
		return
	}
	if err != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("Order %s not fulfilled from session %s: %v", checkout.OrderID, checkout.SessionID, err))
		return
	}
	h.Logger.Info("WEBHOOK", fmt.Sprintf("Order %s completed: %d attendees, %d raffle entries", checkout.OrderID, res.AttendeesCreated, res.RaffleEntriesCreated))
}
