package sqlite

import (
	"context"
	"fmt"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// auditRepository implements repository.AuditRepository for SQLite.
type auditRepository struct {
	db *DB
}

// NewAuditRepository creates a new SQLite audit repository.
func NewAuditRepository(db *DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

// Append stores a new entry.
func (r *auditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO log (level, message, entry, created_at) VALUES (?, ?, ?, ?)`,
		string(entry.Level), entry.Message, entry.Entry(), formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	entry.ID = id

	return nil
}

// List returns the most recent entries, newest first.
func (r *auditRepository) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = repository.DefaultAuditListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, level, message, created_at FROM log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.AuditEntry{}
	for rows.Next() {
		entry := &domain.AuditEntry{}
		var level, createdAt string
		if err := rows.Scan(&entry.ID, &level, &entry.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Level = domain.AuditLevel(level)
		entry.CreatedAt = parseTime(createdAt)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// Ensure auditRepository implements repository.AuditRepository.
var _ repository.AuditRepository = (*auditRepository)(nil)
