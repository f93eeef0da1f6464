package database_test

import (
	"context"
	"testing"

	"gala-ticketing/internal/config"
	"gala-ticketing/internal/database"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestCreateSchema_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, database.CreateSchema(ctx, db))
	require.NoError(t, database.CreateSchema(ctx, db))

	order := &models.Order{
		ID:            "o1",
		CustomerEmail: "a@example.org",
		Status:        models.StatusPending,
		PaymentMethod: models.PaymentCard,
		AttendeePrefill: map[string][]models.AttendeeInfo{
			"item-1": {{Name: "Ada", Dietary: "vegan"}},
		},
	}
	_, err = db.NewInsert().Model(order).Exec(ctx)
	require.NoError(t, err)

	var loaded models.Order
	require.NoError(t, db.NewSelect().Model(&loaded).Where("id = ?", "o1").Scan(ctx))
	assert.Equal(t, "Ada", loaded.AttendeePrefill["item-1"][0].Name)
	assert.Empty(t, loaded.CustomerName)
	assert.Nil(t, loaded.PaidAt)
}

func TestRaffleEntryNumberIsUnique(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.CreateSchema(ctx, db))
	seedOrder(t, db)

	_, err = db.NewInsert().Model(&models.RaffleEntry{ID: "r1", OrderID: "o", ProductID: "p", EntryNumber: 1}).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&models.RaffleEntry{ID: "r2", OrderID: "o", ProductID: "p", EntryNumber: 1}).Exec(ctx)
	assert.Error(t, err)
}

func seedOrder(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()
	_, err := db.NewInsert().Model(&models.Product{ID: "p", Name: "Raffle", Category: models.CategoryRaffle, PriceCents: 2500, IsActive: true}).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&models.Order{ID: "o", CustomerEmail: "o@example.org", Status: models.StatusPaid, PaymentMethod: models.PaymentCard}).Exec(ctx)
	require.NoError(t, err)
}

func TestCreateSchema_EnforcesReferences(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.CreateSchema(ctx, db))
	seedOrder(t, db)

	_, err = db.NewInsert().Model(&models.Attendee{ID: "a1", OrderID: "ghost"}).Exec(ctx)
	assert.Error(t, err, "attendee for an unknown order")

	_, err = db.NewInsert().Model(&models.Attendee{ID: "a2", OrderID: "o", TableID: "ghost"}).Exec(ctx)
	assert.Error(t, err, "attendee at an unknown table")

	_, err = db.NewInsert().Model(&models.OrderItem{ID: "i1", OrderID: "o", ProductID: "ghost", Quantity: 1}).Exec(ctx)
	assert.Error(t, err, "order item for an unknown product")

	_, err = db.NewInsert().Model(&models.RaffleEntry{ID: "r1", OrderID: "ghost", ProductID: "p", EntryNumber: 1}).Exec(ctx)
	assert.Error(t, err, "raffle entry for an unknown order")

	_, err = db.NewInsert().Model(&models.Attendee{ID: "a3", OrderID: "o"}).Exec(ctx)
	assert.NoError(t, err)
}

func TestCreateSchema_EnforcesValues(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.CreateSchema(ctx, db))

	cases := map[string]interface{}{
		"category":       &models.Product{ID: "p1", Name: "X", Category: "merch", PriceCents: 100},
		"negative price": &models.Product{ID: "p2", Name: "X", Category: models.CategoryTicket, PriceCents: -1},
		"status":         &models.Order{ID: "o1", CustomerEmail: "a@example.org", Status: "lost", PaymentMethod: models.PaymentCard},
		"payment method": &models.Order{ID: "o2", CustomerEmail: "a@example.org", Status: models.StatusPending, PaymentMethod: "cash"},
		"capacity":       &models.Table{ID: "t1", Name: "Table 1", Capacity: -2},
		"role":           &models.AdminUser{ID: "u1", Email: "a@example.org", PasswordHash: "x", Role: "owner"},
	}
	for name, model := range cases {
		_, err := db.NewInsert().Model(model).Exec(ctx)
		assert.Error(t, err, name)
	}
}

func TestCreateSchema_StoresZeroValues(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.CreateSchema(ctx, db))

	_, err = db.NewInsert().Model(&models.Product{ID: "p", Name: "Retired", Category: models.CategoryTicket, PriceCents: 100, IsActive: false}).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&models.AdminUser{ID: "u", Email: "v@example.org", PasswordHash: "x", Role: models.RoleView}).Exec(ctx)
	require.NoError(t, err)

	var product models.Product
	require.NoError(t, db.NewSelect().Model(&product).Where("id = ?", "p").Scan(ctx))
	assert.False(t, product.IsActive)

	var user models.AdminUser
	require.NoError(t, db.NewSelect().Model(&user).Where("id = ?", "u").Scan(ctx))
	assert.Equal(t, models.RoleView, user.Role)
}

func TestDropSchema(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, database.CreateSchema(ctx, db))
	require.NoError(t, database.DropSchema(ctx, db))

	_, err = db.NewSelect().Model((*models.Product)(nil)).Count(ctx)
	assert.Error(t, err)
}

func TestMigrate_SQLiteBuildsSchema(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	err = database.Migrate(ctx, db,
		config.DatabaseConfig{Driver: database.DriverSQLite},
		config.MigrationsConfig{AutoMigrate: true},
		logger.Discard())
	require.NoError(t, err)

	n, err := db.NewSelect().Model((*models.AdminUser)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConnect_CreatesSQLiteDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested"
	cfg := config.DatabaseConfig{Driver: database.DriverSQLite, DSN: "file:" + dir + "/gala.db?cache=shared", ConnectRetry: 1}

	db, err := database.Connect(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	defer db.Close()

	assert.DirExists(t, dir)
}
