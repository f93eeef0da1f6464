package fulfillment

import (
	"context"
	"time"

	"gala-ticketing/internal/models"
)

// Store runs fn inside one database transaction; an error from fn rolls it back.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of writes fulfillment makes, all bound to one transaction.
type Tx interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	// MarkPaid moves a pending or pending_check order to paid and reports
	// whether this call made the transition.
	MarkPaid(ctx context.Context, orderID, paymentIntent string, at time.Time) (bool, error)
	Lines(ctx context.Context, orderID string) ([]models.OrderLine, error)
	IncrementSold(ctx context.Context, productID string, quantity int) error
	InsertAttendees(ctx context.Context, attendees []models.Attendee) error
	// NextRaffleNumber returns max(entry_number)+1 and holds whatever lock
	// the backend needs until the transaction ends.
	NextRaffleNumber(ctx context.Context) (int, error)
	InsertRaffleEntries(ctx context.Context, entries []models.RaffleEntry) error
	UpsertDonor(ctx context.Context, order models.Order, at time.Time) error
}
