package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := d.Bun.NewSelect().Model(&products).Where("id IN (?)", bun.In(ids)).Scan(ctx)
	return products, err
}

// CreateOrder writes the order and its items in one transaction, re-checking
// stock for every product inside it.
func (d *DB) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		wanted := map[string]int{}
		var ids []string
		for _, it := range items {
			if _, ok := wanted[it.ProductID]; !ok {
				ids = append(ids, it.ProductID)
			}
			wanted[it.ProductID] += it.Quantity
		}

		var products []models.Product
		if err := tx.NewSelect().Model(&products).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
			return fmt.Errorf("reload products: %w", err)
		}
		for i := range products {
			p := &products[i]
			if !p.IsActive {
				return apperr.NotFoundf("Product %s not found", p.ID)
			}
			if remaining, limited := p.Remaining(); limited && wanted[p.ID] > remaining {
				return apperr.Conflictf("Only %d %s available", max(remaining, 0), p.Name)
			}
		}
		if len(products) != len(ids) {
			return apperr.NotFoundf("Product not found")
		}

		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
}

func (d *DB) SetSession(ctx context.Context, orderID, sessionID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("stripe_session_id = ?", sessionID).
		Where("id = ?", orderID).
		Exec(ctx)
	return err
}

func (d *DB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order := new(models.Order)
	err := d.Bun.NewSelect().Model(order).Where("o.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

func (d *DB) GetOrderBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	order := new(models.Order)
	err := d.Bun.NewSelect().Model(order).Where("o.stripe_session_id = ?", sessionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get order by session %s: %w", sessionID, err)
	}
	return order, nil
}

// ListOrders returns orders newest first with attendee progress counts.
// An empty status lists everything.
func (d *DB) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.OrderSummaryRow, error) {
	var rows []models.OrderSummaryRow
	q := d.Bun.NewSelect().
		Model(&rows).
		ColumnExpr("o.*").
		ColumnExpr("(SELECT COUNT(*) FROM attendees AS a WHERE a.order_id = o.id) AS attendee_count").
		ColumnExpr("(SELECT COUNT(*) FROM attendees AS a WHERE a.order_id = o.id AND a.name IS NOT NULL AND a.name != '') AS names_collected").
		Order("o.created_at DESC")
	if status != "" {
		q = q.Where("o.status = ?", status)
	}
	err := q.Scan(ctx)
	return rows, err
}

func (d *DB) Lines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := d.Bun.NewSelect().
		Model(&lines).
		ColumnExpr("oi.*").
		ColumnExpr("p.name AS product_name").
		ColumnExpr("p.category AS category").
		ColumnExpr("p.table_size AS table_size").
		Join("JOIN products AS p ON p.id = oi.product_id").
		Where("oi.order_id = ?", orderID).
		OrderExpr("p.category, p.sort_order, oi.id").
		Scan(ctx)
	return lines, err
}

func (d *DB) Attendees(ctx context.Context, orderID string) ([]models.AttendeeView, error) {
	var attendees []models.AttendeeView
	err := d.Bun.NewSelect().
		Model(&attendees).
		ColumnExpr("a.*").
		ColumnExpr("t.name AS table_name").
		Join("LEFT JOIN tables AS t ON t.id = a.table_id").
		Where("a.order_id = ?", orderID).
		Order("a.created_at", "a.id").
		Scan(ctx)
	return attendees, err
}

func (d *DB) RaffleEntries(ctx context.Context, orderID string) ([]models.RaffleEntryView, error) {
	var entries []models.RaffleEntryView
	err := d.Bun.NewSelect().
		Model(&entries).
		ColumnExpr("re.*").
		ColumnExpr("p.name AS product_name").
		Join("JOIN products AS p ON p.id = re.product_id").
		Where("re.order_id = ?", orderID).
		Order("re.entry_number").
		Scan(ctx)
	return entries, err
}

func (d *DB) UpdateNotes(ctx context.Context, orderID, notes string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("notes = ?", nullable(notes)).
		Where("id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// TransitionStatus moves the order to `to` only while it is in one of `from`.
func (d *DB) TransitionStatus(ctx context.Context, orderID string, from []models.OrderStatus, to models.OrderStatus) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", to).
		Where("id = ?", orderID).
		Where("status IN (?)", bun.In(from)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("set order %s %s: %w", orderID, to, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
