// Package database opens the configured persistence backend and builds
// the repositories on top of it.
package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/config"
	"github.com/prn-tf/gatekeeper/internal/repository"
	"github.com/prn-tf/gatekeeper/internal/repository/postgres"
	"github.com/prn-tf/gatekeeper/internal/repository/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Result contains the created repositories and database connection.
type Result struct {
	Repos    *repository.Repositories
	Database repository.Database
}

// Open connects to the configured backend. Migrations are not applied.
// Every repository call is bounded by cfg.QueryTimeout.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Result, error) {
	switch cfg.Driver {
	case DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Result{
			Repos: repository.WithTimeout(&repository.Repositories{
				User:   postgres.NewUserRepository(db.Pool),
				Config: postgres.NewConfigRepository(db.Pool),
				Audit:  postgres.NewAuditRepository(db.Pool),
			}, cfg.QueryTimeout),
			Database: db,
		}, nil

	case DriverSQLite, "":
		db, err := sqlite.NewDB(ctx, sqlite.ConfigFrom(cfg), logger)
		if err != nil {
			return nil, err
		}
		return &Result{
			Repos: repository.WithTimeout(&repository.Repositories{
				User:   sqlite.NewUserRepository(db),
				Config: sqlite.NewConfigRepository(db),
				Audit:  sqlite.NewAuditRepository(db),
			}, cfg.QueryTimeout),
			Database: db,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// OpenAndMigrate connects to the configured backend and applies pending migrations.
func OpenAndMigrate(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Result, error) {
	result, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := result.Database.Migrate(ctx); err != nil {
		result.Database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return result, nil
}
