//go:build integration

package fulfillment_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gala-ticketing/internal/config"
	"gala-ticketing/internal/database"
	"gala-ticketing/internal/fulfillment"
	fulfillmentdb "gala-ticketing/internal/fulfillment/db"
	"gala-ticketing/internal/lock"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPostgresFulfillment runs fulfillment against the SQL migrations on a
// real Postgres container.
func TestPostgresFulfillment(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Postgres integration test in short mode")
	}

	ctx := context.Background()
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "gala",
				"POSTGRES_PASSWORD": "gala",
				"POSTGRES_DB":       "gala",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer pg.Terminate(ctx)

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	log := logger.Discard()
	dbCfg := config.DatabaseConfig{
		Driver:       database.DriverPostgres,
		DSN:          fmt.Sprintf("postgres://gala:gala@%s:%s/gala?sslmode=disable", host, port.Port()),
		MaxOpenConns: 10,
		MaxIdleConns: 10,
		ConnectRetry: 5,
	}
	bunDB, err := database.Connect(ctx, dbCfg, log)
	require.NoError(t, err)
	defer bunDB.Close()

	require.NoError(t, database.Migrate(ctx, bunDB, dbCfg, config.MigrationsConfig{
		Dir:         "../../migrations",
		AutoMigrate: true,
		SeedData:    true,
	}, log))

	svc := fulfillment.NewService(&fulfillmentdb.DB{Bun: bunDB}, lock.NewLocal(), &fakePublisher{}, &fakeNotifier{}, inlineDispatcher{}, log)

	// two orders for the 12-entry raffle fulfilled in parallel must not share numbers
	for _, id := range []string{"pg-a", "pg-b"} {
		order := models.Order{ID: id, CustomerEmail: "pg@example.org", Status: models.StatusPending, PaymentMethod: models.PaymentCard, SubtotalCents: 20000, TotalCents: 20000}
		_, err := bunDB.NewInsert().Model(&order).Exec(ctx)
		require.NoError(t, err)
		item := models.OrderItem{ID: id + "-1", OrderID: id, ProductID: "raffle-12", Quantity: 1, UnitPriceCents: 20000, TotalCents: 20000}
		_, err = bunDB.NewInsert().Model(&item).Exec(ctx)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make([]*fulfillment.Result, 2)
	for i, id := range []string{"pg-a", "pg-b"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			res, err := svc.Fulfill(ctx, id, "")
			assert.NoError(t, err)
			results[i] = res
		}(i, id)
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, res := range results {
		require.NotNil(t, res)
		require.Len(t, res.RaffleNumbers, 12)
		for _, n := range res.RaffleNumbers {
			assert.False(t, seen[n], "entry number %d assigned twice", n)
			seen[n] = true
		}
	}

	var donor models.Donor
	require.NoError(t, bunDB.NewSelect().Model(&donor).Where("email = ?", "pg@example.org").Scan(ctx))
	assert.Equal(t, 2, donor.OrderCount)
	assert.Equal(t, int64(40000), donor.TotalDonatedCents)

	_, err = svc.Fulfill(ctx, "pg-a", "")
	assert.True(t, errors.Is(err, fulfillment.ErrAlreadyFulfilled))
}
