package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	StatusPending      OrderStatus = "pending"
	StatusPendingCheck OrderStatus = "pending_check"
	StatusPaid         OrderStatus = "paid"
	StatusCancelled    OrderStatus = "cancelled"
	StatusRefunded     OrderStatus = "refunded"
)

// Prepaid reports whether the order is still waiting for fulfillment.
func (s OrderStatus) Prepaid() bool {
	return s == StatusPending || s == StatusPendingCheck
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPendingCheck, StatusPaid, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCard  PaymentMethod = "card"
	PaymentCheck PaymentMethod = "check"
)

// AttendeeInfo is guest detail collected before the seats exist.
type AttendeeInfo struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Dietary string `json:"dietary,omitempty"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID                  string        `bun:"id,pk" json:"id"`
	StripeSessionID     string        `bun:"stripe_session_id,nullzero,unique" json:"stripe_session_id,omitempty"`
	StripePaymentIntent string        `bun:"stripe_payment_intent,nullzero" json:"stripe_payment_intent,omitempty"`
	PaymentMethod       PaymentMethod `bun:"payment_method,notnull,default:'card'" json:"payment_method"`
	Status              OrderStatus   `bun:"status,notnull,default:'pending'" json:"status"`
	CustomerEmail       string        `bun:"customer_email,notnull" json:"customer_email"`
	CustomerName        string        `bun:"customer_name,nullzero" json:"customer_name"`
	CustomerPhone       string        `bun:"customer_phone,nullzero" json:"customer_phone"`
	SubtotalCents       int64         `bun:"subtotal_cents,notnull,default:0" json:"subtotal_cents"`
	TotalCents          int64         `bun:"total_cents,notnull,default:0" json:"total_cents"`
	DonationCents       int64         `bun:"donation_cents,notnull,default:0" json:"donation_cents"`
	Notes               string        `bun:"notes,nullzero" json:"notes"`
	// AttendeePrefill maps an order item id to the guests entered for that line.
	AttendeePrefill map[string][]AttendeeInfo `bun:"attendee_prefill,type:jsonb" json:"attendee_prefill,omitempty"`
	CreatedAt       time.Time                 `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	PaidAt          *time.Time                `bun:"paid_at" json:"paid_at"`
}

// DisplayName is the customer name, or the email when no name was given.
func (o *Order) DisplayName() string {
	if o.CustomerName != "" {
		return o.CustomerName
	}
	return o.CustomerEmail
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID             string `bun:"id,pk" json:"id"`
	OrderID        string `bun:"order_id,notnull" json:"order_id"`
	ProductID      string `bun:"product_id,notnull" json:"product_id"`
	Quantity       int    `bun:"quantity,notnull" json:"quantity"`
	UnitPriceCents int64  `bun:"unit_price_cents,notnull" json:"unit_price_cents"`
	TotalCents     int64  `bun:"total_cents,notnull" json:"total_cents"`
}

// OrderLine is an order item joined with the product fields fulfillment needs.
type OrderLine struct {
	OrderItem `bun:",extend"`

	ProductName string   `bun:"product_name,scanonly" json:"product_name"`
	Category    Category `bun:"category,scanonly" json:"category"`
	TableSize   *int     `bun:"table_size,scanonly" json:"table_size,omitempty"`
}

// Seats is the number of attendees this line materializes.
func (l *OrderLine) Seats() int {
	if !l.Category.Seated() {
		return 0
	}
	return l.Quantity * SeatsPerUnit(l.TableSize)
}

// OrderSummaryRow is an order with its attendee progress counters.
type OrderSummaryRow struct {
	Order `bun:",extend"`

	AttendeeCount  int `bun:"attendee_count,scanonly" json:"attendee_count"`
	NamesCollected int `bun:"names_collected,scanonly" json:"names_collected"`
}
