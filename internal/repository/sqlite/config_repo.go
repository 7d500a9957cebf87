package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// configRepository implements repository.ConfigRepository for SQLite.
type configRepository struct {
	db *DB
}

// NewConfigRepository creates a new SQLite config repository.
func NewConfigRepository(db *DB) repository.ConfigRepository {
	return &configRepository{db: db}
}

// Get decodes the named document into dst.
func (r *configRepository) Get(ctx context.Context, name string, dst any) error {
	var metadata string
	err := r.db.QueryRowContext(ctx, `SELECT metadata FROM config WHERE name = ?`, name).Scan(&metadata)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("%w: %s", domain.ErrSettingsNotFound, name)
		}
		return fmt.Errorf("failed to get config %s: %w", name, err)
	}

	if err := json.Unmarshal([]byte(metadata), dst); err != nil {
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
		INSERT INTO config (name, metadata, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET metadata = excluded.metadata, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, name, string(metadata), formatTime(time.Now())); err != nil {
		return fmt.Errorf("failed to save config %s: %w", name, err)
	}
	return nil
}

// Ensure configRepository implements repository.ConfigRepository.
var _ repository.ConfigRepository = (*configRepository)(nil)
