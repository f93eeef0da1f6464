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
	Bun bun.IDB
}

// ListActive returns sellable products ordered for the storefront.
func (d *DB) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := d.Bun.NewSelect().
		Model(&products).
		Where("is_active = ?", true).
		Order("category", "sort_order", "price_cents").
		Scan(ctx)
	return products, err
}

func (d *DB) ListAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := d.Bun.NewSelect().
		Model(&products).
		Order("category", "sort_order", "price_cents").
		Scan(ctx)
	return products, err
}

func (d *DB) GetByID(ctx context.Context, id string) (*models.Product, error) {
	product := new(models.Product)
	err := d.Bun.NewSelect().Model(product).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return product, nil
}

// Update writes only the named columns.
func (d *DB) Update(ctx context.Context, product *models.Product, columns ...string) error {
	_, err := d.Bun.NewUpdate().
		Model(product).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return err
}

func (d *DB) Insert(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&products).Exec(ctx)
	return err
}

func (d *DB) Count(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().Model((*models.Product)(nil)).Count(ctx)
}

// DeleteUnsold removes products that no order references, for reseeding.
func (d *DB) DeleteUnsold(ctx context.Context) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Product)(nil)).
		Where("id NOT IN (?)", d.Bun.NewSelect().Model((*models.OrderItem)(nil)).Column("product_id")).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
