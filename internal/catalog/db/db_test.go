package db_test

import (
	"context"
	"testing"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/catalog"
	"gala-ticketing/internal/catalog/db"
	"gala-ticketing/internal/database/dbtest"
	"gala-ticketing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *db.DB {
	return &db.DB{Bun: dbtest.New(t)}
}

func TestSeedAndList(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	n, err := catalog.Seed(ctx, store, false)
	require.NoError(t, err)
	assert.Equal(t, len(catalog.DefaultProducts()), n)

	// a second run leaves the catalog alone
	n, err = catalog.Seed(ctx, store, false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(catalog.DefaultProducts()))
	assert.Equal(t, models.CategoryRaffle, all[0].Category)
	assert.Equal(t, "raffle-1", all[0].ID)
}

func TestListActiveSkipsInactive(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, []models.Product{
		{ID: "a", Name: "A", Category: models.CategoryTicket, PriceCents: 100, IsActive: true},
		{ID: "b", Name: "B", Category: models.CategoryTicket, PriceCents: 100, IsActive: false},
	}))

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].ID)

	retired, err := store.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.False(t, retired.IsActive)
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetByID(context.Background(), "missing")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestUpdateColumns(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, []models.Product{
		{ID: "t", Name: "Ticket", Category: models.CategoryTicket, PriceCents: 7500, IsActive: true},
	}))

	p, err := store.GetByID(ctx, "t")
	require.NoError(t, err)
	p.PriceCents = 8000
	p.Name = "ignored"
	require.NoError(t, store.Update(ctx, p, "price_cents"))

	got, err := store.GetByID(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, int64(8000), got.PriceCents)
	assert.Equal(t, "Ticket", got.Name)
}
