// Package payment adapts the card processor: checkout sessions, refunds and
// webhook verification.
package payment

import "context"

type LineItem struct {
	Name           string
	Description    string
	UnitPriceCents int64
	Quantity       int64
}

type SessionRequest struct {
	OrderID       string
	CustomerEmail string
	Items         []LineItem
	DonationCents int64
	SuccessURL    string
	CancelURL     string
}

type Session struct {
	ID  string
	URL string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	// Refund returns the refund id.
	Refund(ctx context.Context, paymentIntent string) (string, error)
}
