package database

import (
	"context"
	"fmt"

	"gala-ticketing/internal/config"
	"gala-ticketing/internal/database/migrations"
	"gala-ticketing/internal/logger"

	"github.com/uptrace/bun"
)

// Migrate brings the schema up to date. Postgres runs the SQL migrations,
// SQLite builds tables from the models.
func Migrate(ctx context.Context, db *bun.DB, dbCfg config.DatabaseConfig, cfg config.MigrationsConfig, log *logger.Logger) error {
	if !cfg.AutoMigrate {
		log.Info("MIGRATION", "AUTO_MIGRATE disabled, skipping")
		return nil
	}

	if dbCfg.Driver != DriverPostgres {
		if err := CreateSchema(ctx, db); err != nil {
			return err
		}
		log.Info("MIGRATION", "SQLite schema ensured from models")
		return nil
	}

	runner, err := migrations.Open(db, cfg.Dir, log)
	if err != nil {
		return err
	}
	defer runner.Close()

	if err := runner.Up(cfg.SeedData); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
