package db

import (
	"context"

	"gala-ticketing/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun bun.IDB
}

func (d *DB) InsertEmailLog(ctx context.Context, entry *models.EmailLog) error {
	_, err := d.Bun.NewInsert().Model(entry).Exec(ctx)
	return err
}

// ListByOrder returns the email history of one order, oldest first.
func (d *DB) ListByOrder(ctx context.Context, orderID string) ([]models.EmailLog, error) {
	var entries []models.EmailLog
	err := d.Bun.NewSelect().
		Model(&entries).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Scan(ctx)
	return entries, err
}
