package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/lock"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// SettingsProvider gives components access to the policy documents.
type SettingsProvider interface {
	// PasswordSettings returns the current password policy.
	PasswordSettings(ctx context.Context) (domain.PasswordSettings, error)

	// AuthSettings returns the current login throttling and expiry settings.
	AuthSettings(ctx context.Context) (domain.AuthSettings, error)

	// UpdatePasswordSettings merges the non-nil fields of upd and returns the result.
	UpdatePasswordSettings(ctx context.Context, upd domain.PasswordSettingsUpdate) (domain.PasswordSettings, error)

	// UpdateAuthSettings merges the non-nil fields of upd and returns the result.
	UpdateAuthSettings(ctx context.Context, upd domain.AuthSettingsUpdate) (domain.AuthSettings, error)

	// Seed stores the default documents that do not exist yet.
	Seed(ctx context.Context) error
}

// Settings bundles both documents for read endpoints.
type Settings struct {
	Password domain.PasswordSettings `json:"password"`
	Auth     domain.AuthSettings     `json:"auth"`
}

// Default settings service timings.
const (
	DefaultSettingsCacheTTL = time.Minute
	DefaultSettingsLockTTL  = 10 * time.Second
)

// SettingsService implements SettingsProvider on top of the config repository.
// Reads are cached; updates are serialized per document.
type SettingsService struct {
	repo     repository.ConfigRepository
	cache    repository.Cache
	locker   lock.Locker
	audit    *AuditService
	cacheTTL time.Duration
	lockTTL  time.Duration
	logger   zerolog.Logger
}

// SettingsServiceConfig contains the dependencies of a SettingsService.
type SettingsServiceConfig struct {
	Repo     repository.ConfigRepository
	Cache    repository.Cache
	Locker   lock.Locker
	Audit    *AuditService
	CacheTTL time.Duration
	LockTTL  time.Duration
	Logger   zerolog.Logger
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(cfg SettingsServiceConfig) *SettingsService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultSettingsCacheTTL
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultSettingsLockTTL
	}
	return &SettingsService{
		repo:     cfg.Repo,
		cache:    cfg.Cache,
		locker:   cfg.Locker,
		audit:    cfg.Audit,
		cacheTTL: cfg.CacheTTL,
		lockTTL:  cfg.LockTTL,
		logger:   cfg.Logger.With().Str("service", "settings").Logger(),
	}
}

// settingsDocument is implemented by domain.PasswordSettings and domain.AuthSettings.
type settingsDocument interface {
	comparable
	Validate() error
}

// PasswordSettings returns the current password policy.
func (s *SettingsService) PasswordSettings(ctx context.Context) (domain.PasswordSettings, error) {
	return loadSettings[domain.PasswordSettings](ctx, s, domain.PasswordSettingsName)
}

// AuthSettings returns the current login throttling and expiry settings.
func (s *SettingsService) AuthSettings(ctx context.Context) (domain.AuthSettings, error) {
	return loadSettings[domain.AuthSettings](ctx, s, domain.AuthSettingsName)
}

// All returns both documents.
func (s *SettingsService) All(ctx context.Context) (*Settings, error) {
	password, err := s.PasswordSettings(ctx)
	if err != nil {
		return nil, err
	}
	auth, err := s.AuthSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &Settings{Password: password, Auth: auth}, nil
}

// UpdatePasswordSettings merges the non-nil fields of upd into the stored password policy.
func (s *SettingsService) UpdatePasswordSettings(ctx context.Context, upd domain.PasswordSettingsUpdate) (domain.PasswordSettings, error) {
	return updateSettings(ctx, s, domain.PasswordSettingsName, upd.Apply)
}

// UpdateAuthSettings merges the non-nil fields of upd into the stored auth settings.
func (s *SettingsService) UpdateAuthSettings(ctx context.Context, upd domain.AuthSettingsUpdate) (domain.AuthSettings, error) {
	return updateSettings(ctx, s, domain.AuthSettingsName, upd.Apply)
}

// Seed stores the default documents that do not exist yet. Existing
// documents are left untouched.
func (s *SettingsService) Seed(ctx context.Context) error {
	if err := seedSettings(ctx, s, domain.PasswordSettingsName, domain.DefaultPasswordSettings()); err != nil {
		return err
	}
	return seedSettings(ctx, s, domain.AuthSettingsName, domain.DefaultAuthSettings())
}

func seedSettings[T settingsDocument](ctx context.Context, s *SettingsService, name string, defaults T) error {
	var existing T
	err := s.repo.Get(ctx, name, &existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrSettingsNotFound) {
		return fmt.Errorf("failed to read %s settings: %w", name, err)
	}

	if err := s.repo.Save(ctx, name, defaults); err != nil {
		return fmt.Errorf("failed to seed %s settings: %w", name, err)
	}
	s.invalidate(ctx, name)
	s.audit.Record(ctx, domain.AuditInfo, "%s settings seeded with defaults", name)
	return nil
}

func loadSettings[T settingsDocument](ctx context.Context, s *SettingsService, name string) (T, error) {
	var doc T
	key := repository.CacheKeys.Settings(name)

	cached, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		if err := json.Unmarshal(cached, &doc); err == nil {
			return doc, nil
		}
		s.logger.Warn().Str("name", name).Msg("discarding undecodable cached settings")
	case !errors.Is(err, repository.ErrCacheMiss):
		s.logger.Warn().Err(err).Str("name", name).Msg("settings cache read failed")
	}

	if err := s.repo.Get(ctx, name, &doc); err != nil {
		return doc, fmt.Errorf("failed to load %s settings: %w", name, err)
	}

	if encoded, err := json.Marshal(doc); err == nil {
		if err := s.cache.Set(ctx, key, encoded, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("name", name).Msg("settings cache write failed")
		}
	}

	return doc, nil
}

func updateSettings[T settingsDocument](ctx context.Context, s *SettingsService, name string, apply func(T) T) (T, error) {
	var result T

	err := lock.WithLock(ctx, s.locker, lock.Keys.SettingsUpdate(name), s.lockTTL, func(ctx context.Context) error {
		var current T
		if err := s.repo.Get(ctx, name, &current); err != nil {
			return fmt.Errorf("failed to load %s settings: %w", name, err)
		}

		merged := apply(current)
		if err := merged.Validate(); err != nil {
			return err
		}

		if merged == current {
			result = current
			s.audit.Record(ctx, domain.AuditInfo, "%s settings not changed", name)
			return nil
		}

		if err := s.repo.Save(ctx, name, merged); err != nil {
			return fmt.Errorf("failed to save %s settings: %w", name, err)
		}
		s.invalidate(ctx, name)

		result = merged
		s.audit.Record(ctx, domain.AuditInfo, "%s settings changed", name)
		return nil
	})

	return result, err
}

func (s *SettingsService) invalidate(ctx context.Context, name string) {
	if err := s.cache.Delete(ctx, repository.CacheKeys.Settings(name)); err != nil {
		s.logger.Warn().Err(err).Str("name", name).Msg("settings cache invalidation failed")
	}
}

// Ensure SettingsService implements SettingsProvider.
var _ SettingsProvider = (*SettingsService)(nil)
