package postgres

import (
	"context"
	"fmt"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// auditRepository implements repository.AuditRepository.
type auditRepository struct {
	q Querier
}

// NewAuditRepository creates a new PostgreSQL audit repository.
func NewAuditRepository(q Querier) repository.AuditRepository {
	return &auditRepository{q: q}
}

// Append stores a new entry.
func (r *auditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO log (level, message, entry, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		string(entry.Level), entry.Message, entry.Entry(), entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (r *auditRepository) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = repository.DefaultAuditListLimit
	}

	rows, err := r.q.Query(ctx,
		`SELECT id, level, message, created_at FROM log ORDER BY id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.AuditEntry{}
	for rows.Next() {
		entry := &domain.AuditEntry{}
		var level string
		if err := rows.Scan(&entry.ID, &level, &entry.Message, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Level = domain.AuditLevel(level)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// Ensure auditRepository implements repository.AuditRepository.
var _ repository.AuditRepository = (*auditRepository)(nil)
