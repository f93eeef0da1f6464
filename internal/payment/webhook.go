package payment

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

// WebhookError represents an error that occurred during webhook processing
type WebhookError struct {
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

// CompletedCheckout is what fulfillment needs from a completed session.
type CompletedCheckout struct {
	SessionID     string
	OrderID       string
	PaymentIntent string
}

// WebhookVerifier checks the processor signature. With an empty secret the
// payload is accepted unsigned, for local development.
type WebhookVerifier struct {
	Secret string
}

func (v WebhookVerifier) Parse(payload []byte, signature string) (*stripe.Event, error) {
	if v.Secret == "" {
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, &WebhookError{
				StatusCode:    http.StatusBadRequest,
				PublicError:   "Invalid webhook payload",
				InternalError: fmt.Sprintf("Failed to parse unsigned webhook: %v", err),
				OriginalErr:   err,
			}
		}
		return &event, nil
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, v.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, &WebhookError{
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Webhook signature verification failed",
			InternalError: fmt.Sprintf("Webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}
	return &event, nil
}

// CheckoutFromEvent extracts the order reference from a
// checkout.session.completed event.
func CheckoutFromEvent(event *stripe.Event) (*CompletedCheckout, error) {
	if event.Data == nil {
		return nil, fmt.Errorf("event %s has no data", event.ID)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	orderID := sess.Metadata["order_id"]
	if orderID == "" {
		return nil, fmt.Errorf("checkout session %s has no order_id in metadata", sess.ID)
	}

	out := &CompletedCheckout{SessionID: sess.ID, OrderID: orderID}
	if sess.PaymentIntent != nil {
		out.PaymentIntent = sess.PaymentIntent.ID
	}
	return out, nil
}
