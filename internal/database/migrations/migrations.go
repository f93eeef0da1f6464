// Package migrations applies the SQL files under migrations/ to postgres.
package migrations

import (
	"errors"
	"fmt"
	"os"

	"gala-ticketing/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/uptrace/bun"
)

// SeedVersion is the first migration that loads catalog data rather than schema.
const SeedVersion uint = 2

type Runner struct {
	migrator *migrate.Migrate
	log      *logger.Logger
}

// Open binds a golang-migrate instance to the connection behind bunDB.
func Open(bunDB *bun.DB, dir string, log *logger.Logger) (*Runner, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("migrations directory does not exist: %s", dir)
	}

	driver, err := postgres.WithInstance(bunDB.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return &Runner{migrator: m, log: log}, nil
}

// Up applies the schema migrations, and with seed the catalog data as well.
// A dirty version left by a crashed run is forced clean first.
func (r *Runner) Up(seed bool) error {
	version, dirty, err := r.migrator.Version()
	fresh := errors.Is(err, migrate.ErrNilVersion)
	if err != nil && !fresh {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		r.log.Warn("MIGRATION", fmt.Sprintf("Version %d is dirty, forcing", version))
		if err := r.migrator.Force(int(version)); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
	}

	switch {
	case seed:
		r.log.Info("MIGRATION", "Applying schema and seed migrations")
		err = r.migrator.Up()
	case fresh || version < SeedVersion-1:
		r.log.Info("MIGRATION", "Applying schema migrations")
		err = r.migrator.Migrate(SeedVersion - 1)
	default:
		err = migrate.ErrNoChange
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	if version, _, err := r.migrator.Version(); err == nil {
		r.log.Info("MIGRATION", fmt.Sprintf("Schema at version %d", version))
	}
	return nil
}

func (r *Runner) Close() error {
	sourceErr, dbErr := r.migrator.Close()
	return errors.Join(sourceErr, dbErr)
}
