package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) selectViews(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		ColumnExpr("a.*").
		ColumnExpr("o.customer_email AS order_email").
		ColumnExpr("o.customer_name AS order_name").
		ColumnExpr("t.name AS table_name").
		Join("JOIN orders AS o ON o.id = a.order_id").
		Join("LEFT JOIN tables AS t ON t.id = a.table_id")
}

// List returns attendees of paid orders.
func (d *DB) List(ctx context.Context) ([]models.AttendeeView, error) {
	var attendees []models.AttendeeView
	err := d.selectViews(d.Bun.NewSelect().Model(&attendees)).
		Where("o.status = ?", models.StatusPaid).
		OrderExpr("a.name IS NULL, a.name, a.id").
		Scan(ctx)
	return attendees, err
}

// MissingNames returns attendees of paid orders still waiting for a name.
func (d *DB) MissingNames(ctx context.Context) ([]models.AttendeeView, error) {
	var attendees []models.AttendeeView
	err := d.selectViews(d.Bun.NewSelect().Model(&attendees)).
		Where("o.status = ?", models.StatusPaid).
		Where("(a.name IS NULL OR a.name = '')").
		Order("o.created_at", "a.id").
		Scan(ctx)
	return attendees, err
}

func (d *DB) Get(ctx context.Context, id string) (*models.AttendeeView, error) {
	attendee := new(models.AttendeeView)
	err := d.selectViews(d.Bun.NewSelect().Model(attendee)).
		Where("a.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("Attendee not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get attendee %s: %w", id, err)
	}
	return attendee, nil
}

// Update writes the named columns. A new table_id is checked against the
// table's capacity in the same transaction.
func (d *DB) Update(ctx context.Context, attendee *models.Attendee, columns ...string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if slices.Contains(columns, "table_id") && attendee.TableID != "" {
			table := new(models.Table)
			q := tx.NewSelect().Model(table).Where("id = ?", attendee.TableID)
			if tx.Dialect().Name() == dialect.PG {
				q = q.For("UPDATE")
			}
			if err := q.Scan(ctx); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperr.NotFoundf("Table not found")
				}
				return err
			}

			seated, err := tx.NewSelect().
				Model((*models.Attendee)(nil)).
				Where("table_id = ?", table.ID).
				Where("id != ?", attendee.ID).
				Count(ctx)
			if err != nil {
				return err
			}
			if seated >= table.Capacity {
				return apperr.Conflictf("Table %s is full", table.Name)
			}
		}

		res, err := tx.NewUpdate().
			Model(attendee).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFoundf("Attendee not found")
		}
		return nil
	})
}

// SetCheckedIn flips the check-in flag. at is ignored when checkedIn is false.
func (d *DB) SetCheckedIn(ctx context.Context, id string, checkedIn bool, at time.Time) (bool, error) {
	q := d.Bun.NewUpdate().
		Model((*models.Attendee)(nil)).
		Set("checked_in = ?", checkedIn).
		Where("id = ?", id)
	if checkedIn {
		q = q.Set("checked_in_at = ?", at)
	} else {
		q = q.Set("checked_in_at = NULL")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
