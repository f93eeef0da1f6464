// Package dbtest opens throwaway SQLite databases with the full schema.
package dbtest

import (
	"context"
	"testing"

	"gala-ticketing/internal/database"

	"github.com/uptrace/bun"
)

func New(t testing.TB) *bun.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
