package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type DB struct {
	Bun *bun.DB
}

var seatedStatuses = []models.OrderStatus{models.StatusPaid, models.StatusPendingCheck}

func (d *DB) List(ctx context.Context) ([]models.TableWithCount, error) {
	var tables []models.TableWithCount
	err := d.Bun.NewSelect().
		Model(&tables).
		ColumnExpr("t.*").
		ColumnExpr("(SELECT COUNT(*) FROM attendees AS a WHERE a.table_id = t.id) AS current_count").
		Order("t.name").
		Scan(ctx)
	return tables, err
}

func (d *DB) Get(ctx context.Context, id string) (*models.TableWithCount, error) {
	table := new(models.TableWithCount)
	err := d.Bun.NewSelect().
		Model(table).
		ColumnExpr("t.*").
		ColumnExpr("(SELECT COUNT(*) FROM attendees AS a WHERE a.table_id = t.id) AS current_count").
		Where("t.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("Table not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get table %s: %w", id, err)
	}
	return table, nil
}

// Seated lists the attendees of paid orders sitting at the table.
func (d *DB) Seated(ctx context.Context, tableID string) ([]models.AttendeeView, error) {
	var attendees []models.AttendeeView
	err := d.Bun.NewSelect().
		Model(&attendees).
		ColumnExpr("a.*").
		ColumnExpr("o.customer_email AS order_email").
		ColumnExpr("o.customer_name AS order_name").
		Join("JOIN orders AS o ON o.id = a.order_id").
		Where("a.table_id = ?", tableID).
		Where("o.status = ?", models.StatusPaid).
		Order("a.name", "a.id").
		Scan(ctx)
	return attendees, err
}

func (d *DB) Create(ctx context.Context, tables ...models.Table) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&tables).Exec(ctx)
	return err
}

func (d *DB) Update(ctx context.Context, table *models.Table, columns ...string) error {
	_, err := d.Bun.NewUpdate().
		Model(table).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return err
}

// Delete removes an empty table.
func (d *DB) Delete(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		seated, err := tx.NewSelect().Model((*models.Attendee)(nil)).Where("table_id = ?", id).Count(ctx)
		if err != nil {
			return err
		}
		if seated > 0 {
			return apperr.Conflictf("Cannot delete table with assigned attendees")
		}

		res, err := tx.NewDelete().Model((*models.Table)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFoundf("Table not found")
		}
		return nil
	})
}

// Unassigned lists attendees of paid or check orders that have no table yet.
func (d *DB) Unassigned(ctx context.Context) ([]models.AttendeeView, error) {
	var attendees []models.AttendeeView
	err := d.Bun.NewSelect().
		Model(&attendees).
		ColumnExpr("a.*").
		ColumnExpr("o.customer_email AS order_email").
		ColumnExpr("o.customer_name AS order_name").
		Join("JOIN orders AS o ON o.id = a.order_id").
		Where("a.table_id IS NULL").
		Where("o.status IN (?)", bun.In(seatedStatuses)).
		Order("o.created_at", "a.id").
		Scan(ctx)
	return attendees, err
}

// Assign seats the attendees at the table if it has room for all of them.
func (d *DB) Assign(ctx context.Context, tableID string, attendeeIDs []string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		table := new(models.Table)
		q := tx.NewSelect().Model(table).Where("id = ?", tableID)
		if tx.Dialect().Name() == dialect.PG {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFoundf("Table not found")
			}
			return err
		}

		// attendees already at this table do not take a new seat
		current, err := tx.NewSelect().
			Model((*models.Attendee)(nil)).
			Where("table_id = ?", tableID).
			Where("id NOT IN (?)", bun.In(attendeeIDs)).
			Count(ctx)
		if err != nil {
			return err
		}
		if available := table.Capacity - current; len(attendeeIDs) > available {
			return apperr.Conflictf("Only %d seats available at this table", max(available, 0))
		}

		res, err := tx.NewUpdate().
			Model((*models.Attendee)(nil)).
			Set("table_id = ?", tableID).
			Where("id IN (?)", bun.In(attendeeIDs)).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); int(n) != len(attendeeIDs) {
			return apperr.NotFoundf("Attendee not found")
		}
		return nil
	})
}

func (d *DB) Unassign(ctx context.Context, tableID, attendeeID string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Attendee)(nil)).
		Set("table_id = NULL").
		Where("id = ?", attendeeID).
		Where("table_id = ?", tableID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
