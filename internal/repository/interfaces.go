// Package repository defines data access interfaces for Gatekeeper.
// These interfaces abstract database operations, allowing for different implementations
// (PostgreSQL, SQLite, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"
	"time"

	"github.com/prn-tf/gatekeeper/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
// Implementations return domain.ErrUserNotFound for unknown users and
// domain.ErrUserAlreadyExists when a username is taken.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by its normalized username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// ListByRole returns every user holding the role, ordered by username.
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// UpdatePassword stores a rotated credential. It also clears the blocked
	// flag and the failed attempt counter.
	UpdatePassword(ctx context.Context, id string, update PasswordUpdate) error

	// IncrementFailedAttempts atomically adds one to the failed attempt counter
	// and sets blocked once the new count reaches maxAttempts.
	// Returns the new count and blocked flag.
	IncrementFailedAttempts(ctx context.Context, id string, maxAttempts int) (attempts int, blocked bool, err error)

	// SetTimeout sets the moment before which logins are rejected.
	SetTimeout(ctx context.Context, id string, until time.Time) error

	// ResetFailedAttempts sets the failed attempt counter to zero.
	ResetFailedAttempts(ctx context.Context, id string) error
}

// PasswordUpdate carries the fields written by a password change.
type PasswordUpdate struct {
	Hash               string
	Salt               string
	OldPasswords       []domain.PasswordRecord
	PasswordExpireTime time.Time
}

// =============================================================================
// Config Repository
// =============================================================================

// ConfigRepository stores named settings documents as JSON.
type ConfigRepository interface {
	// Get decodes the document stored under name into dst.
	// Returns domain.ErrSettingsNotFound if the document has not been saved.
	Get(ctx context.Context, name string, dst any) error

	// Save replaces the document stored under name.
	Save(ctx context.Context, name string, v any) error
}

// =============================================================================
// Audit Repository
// =============================================================================

// AuditRepository appends to and reads the security trail.
type AuditRepository interface {
	// Append stores a new entry and sets its ID.
	Append(ctx context.Context, entry *domain.AuditEntry) error

	// List returns the most recent entries, newest first.
	List(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}

// DefaultAuditListLimit is used when List is called with a non-positive limit.
const DefaultAuditListLimit = 100
