package catalog_test

import (
	"context"
	"testing"

	"gala-ticketing/internal/catalog"
	catalogdb "gala-ticketing/internal/catalog/db"
	"gala-ticketing/internal/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_LoadsDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	store := &catalogdb.DB{Bun: dbtest.New(t)}

	n, err := catalog.Seed(ctx, store, false)
	require.NoError(t, err)
	assert.Equal(t, len(catalog.DefaultProducts()), n)

	again, err := catalog.Seed(ctx, store, false)
	require.NoError(t, err)
	assert.Zero(t, again)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, n)
}

func TestSeed_ResetReplacesUnsoldProducts(t *testing.T) {
	ctx := context.Background()
	store := &catalogdb.DB{Bun: dbtest.New(t)}

	_, err := catalog.Seed(ctx, store, false)
	require.NoError(t, err)

	n, err := catalog.Seed(ctx, store, true)
	require.NoError(t, err)
	assert.Equal(t, len(catalog.DefaultProducts()), n)
}
