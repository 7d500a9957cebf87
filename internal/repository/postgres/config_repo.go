package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// configRepository implements repository.ConfigRepository.
type configRepository struct {
	q Querier
}

// NewConfigRepository creates a new PostgreSQL config repository.
func NewConfigRepository(q Querier) repository.ConfigRepository {
	return &configRepository{q: q}
}

// Get decodes the named document into dst.
func (r *configRepository) Get(ctx context.Context, name string, dst any) error {
	var metadata []byte
	err := r.q.QueryRow(ctx, `SELECT metadata FROM config WHERE name = $1`, name).Scan(&metadata)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("%w: %s", domain.ErrSettingsNotFound, name)
		}
		return fmt.Errorf("failed to get config %s: %w", name, err)
	}

	if err := json.Unmarshal(metadata, dst); err != nil {
		return fmt.Errorf("failed to decode config %s: %w", name, err)
	}
	return nil
}

// Save replaces the named document.
func (r *configRepository) Save(ctx context.Context, name string, v any) error {
	metadata, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode config %s: %w", name, err)
	}

	query := `
		INSERT INTO config (name, metadata, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET metadata = EXCLUDED.metadata, updated_at = NOW()
	`
	if _, err := r.q.Exec(ctx, query, name, metadata); err != nil {
		return fmt.Errorf("failed to save config %s: %w", name, err)
	}
	return nil
}

// Ensure configRepository implements repository.ConfigRepository.
var _ repository.ConfigRepository = (*configRepository)(nil)
