package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/fulfillment"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// raffleLockKey serializes raffle numbering across concurrent fulfillments on Postgres.
const raffleLockKey = 7142001

type DB struct {
	Bun *bun.DB
}

func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx fulfillment.Tx) error) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Tx{tx: tx})
	})
}

type Tx struct {
	tx bun.Tx
}

func (t *Tx) isPostgres() bool {
	return t.tx.Dialect().Name() == dialect.PG
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (t *Tx) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order := new(models.Order)
	q := t.tx.NewSelect().Model(order).Where("o.id = ?", orderID)
	if t.isPostgres() {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return order, nil
}

func (t *Tx) MarkPaid(ctx context.Context, orderID, paymentIntent string, at time.Time) (bool, error) {
	res, err := t.tx.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", models.StatusPaid).
		Set("paid_at = ?", at).
		Set("stripe_payment_intent = COALESCE(?, stripe_payment_intent)", nullable(paymentIntent)).
		Where("id = ?", orderID).
		Where("status IN (?)", bun.In([]models.OrderStatus{models.StatusPending, models.StatusPendingCheck})).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("mark order %s paid: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *Tx) Lines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := t.tx.NewSelect().
		Model(&lines).
		ColumnExpr("oi.*").
		ColumnExpr("p.name AS product_name").
		ColumnExpr("p.category AS category").
		ColumnExpr("p.table_size AS table_size").
		Join("JOIN products AS p ON p.id = oi.product_id").
		Where("oi.order_id = ?", orderID).
		OrderExpr("p.category, p.sort_order, oi.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lines of order %s: %w", orderID, err)
	}
	return lines, nil
}

func (t *Tx) IncrementSold(ctx context.Context, productID string, quantity int) error {
	_, err := t.tx.NewUpdate().
		Model((*models.Product)(nil)).
		Set("quantity_sold = quantity_sold + ?", quantity).
		Where("id = ?", productID).
		Exec(ctx)
	return err
}

func (t *Tx) InsertAttendees(ctx context.Context, attendees []models.Attendee) error {
	if len(attendees) == 0 {
		return nil
	}
	_, err := t.tx.NewInsert().Model(&attendees).Exec(ctx)
	return err
}

func (t *Tx) NextRaffleNumber(ctx context.Context) (int, error) {
	if t.isPostgres() {
		if _, err := t.tx.NewRaw("SELECT pg_advisory_xact_lock(?)", raffleLockKey).Exec(ctx); err != nil {
			return 0, fmt.Errorf("lock raffle numbering: %w", err)
		}
	}

	var current int
	err := t.tx.NewSelect().
		Model((*models.RaffleEntry)(nil)).
		ColumnExpr("COALESCE(MAX(entry_number), 0)").
		Scan(ctx, &current)
	if err != nil {
		return 0, fmt.Errorf("read raffle max: %w", err)
	}
	return current + 1, nil
}

func (t *Tx) InsertRaffleEntries(ctx context.Context, entries []models.RaffleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := t.tx.NewInsert().Model(&entries).Exec(ctx)
	return err
}

// UpsertDonor credits the order total to the donor row for the order email,
// creating it on first purchase. Name and phone only fill empty values.
func (t *Tx) UpsertDonor(ctx context.Context, order models.Order, at time.Time) error {
	email := strings.ToLower(strings.TrimSpace(order.CustomerEmail))

	updated, err := t.creditDonor(ctx, email, order, at)
	if err != nil || updated {
		return err
	}

	donor := &models.Donor{
		ID:                utils.GenerateID(),
		Email:             email,
		Name:              order.CustomerName,
		Phone:             order.CustomerPhone,
		TotalDonatedCents: order.TotalCents,
		OrderCount:        1,
		FirstOrderAt:      &at,
		LastOrderAt:       &at,
	}
	res, err := t.tx.NewInsert().Model(donor).On("CONFLICT (email) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert donor %s: %w", email, err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	// a concurrent transaction created the row first
	updated, err = t.creditDonor(ctx, email, order, at)
	if err == nil && !updated {
		err = fmt.Errorf("donor %s vanished during upsert", email)
	}
	return err
}

func (t *Tx) creditDonor(ctx context.Context, email string, order models.Order, at time.Time) (bool, error) {
	res, err := t.tx.NewUpdate().
		Model((*models.Donor)(nil)).
		Set("total_donated_cents = total_donated_cents + ?", order.TotalCents).
		Set("order_count = order_count + 1").
		Set("last_order_at = ?", at).
		Set("first_order_at = COALESCE(first_order_at, ?)", at).
		Set("name = COALESCE(name, ?)", nullable(order.CustomerName)).
		Set("phone = COALESCE(phone, ?)", nullable(order.CustomerPhone)).
		Where("email = ?", email).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("credit donor %s: %w", email, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
