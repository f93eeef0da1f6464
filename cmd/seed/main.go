// Command seed loads the default product catalog and, optionally, a block of
// empty tables.
package main

import (
	"context"
	"flag"
	"fmt"

	"gala-ticketing/internal/catalog"
	catalog_db "gala-ticketing/internal/catalog/db"
	"gala-ticketing/internal/config"
	"gala-ticketing/internal/database"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/seating"
	seating_db "gala-ticketing/internal/seating/db"

	"github.com/joho/godotenv"
)

func main() {
	reset := flag.Bool("reset", false, "remove unsold products before seeding")
	tables := flag.Int("tables", 0, "number of tables to create")
	capacity := flag.Int("capacity", 8, "seats per created table")
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	ctx := context.Background()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect: %v", err))
	}
	defer bunDB.Close()

	if err := database.Migrate(ctx, bunDB, cfg.Database, cfg.Migrations, log); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}

	n, err := catalog.Seed(ctx, &catalog_db.DB{Bun: bunDB}, *reset)
	if err != nil {
		log.Fatal("SEED", fmt.Sprintf("Failed to seed products: %v", err))
	}
	log.Info("SEED", fmt.Sprintf("Inserted %d products", n))

	if *tables > 0 {
		svc := seating.NewService(&seating_db.DB{Bun: bunDB}, log)
		created, err := svc.BulkCreate(ctx, seating.BulkInput{Count: *tables, Capacity: *capacity})
		if err != nil {
			log.Fatal("SEED", fmt.Sprintf("Failed to create tables: %v", err))
		}
		log.Info("SEED", fmt.Sprintf("Created %d tables", len(created)))
	}
}
