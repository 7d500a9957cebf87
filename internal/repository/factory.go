package repository

import "context"

// Repositories holds all repository instances.
type Repositories struct {
	User   UserRepository
	Config ConfigRepository
	Audit  AuditRepository
}

// DatabaseHealth is an interface for database health checks.
// The handler health endpoint uses it.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// Database is a connected backend that owns its schema.
type Database interface {
	DatabaseHealth

	// Migrate applies pending schema migrations.
	Migrate(ctx context.Context) error

	// Version returns the applied schema version.
	Version(ctx context.Context) (int64, error)
}
