package kafka

import (
	"time"

	"gala-ticketing/internal/models"
)

const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
	EventOrderRefunded  = "order.refunded"
)

// OrderEvent is the payload published for every order state change.
type OrderEvent struct {
	Type                 string               `json:"type"`
	OrderID              string               `json:"order_id"`
	Status               models.OrderStatus   `json:"status"`
	PaymentMethod        models.PaymentMethod `json:"payment_method"`
	CustomerEmail        string               `json:"customer_email"`
	TotalCents           int64                `json:"total_cents"`
	DonationCents        int64                `json:"donation_cents"`
	AttendeesCreated     int                  `json:"attendees_created,omitempty"`
	RaffleEntriesCreated int                  `json:"raffle_entries_created,omitempty"`
	OccurredAt           time.Time            `json:"occurred_at"`
}

func newOrderEvent(eventType string, order models.Order) OrderEvent {
	return OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		CustomerEmail: order.CustomerEmail,
		TotalCents:    order.TotalCents,
		DonationCents: order.DonationCents,
		OccurredAt:    time.Now().UTC(),
	}
}
