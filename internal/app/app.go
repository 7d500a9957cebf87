// Package app wires configuration, persistence and services into a running
// Gatekeeper instance. The server and the admin CLI share it.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/auth"
	"github.com/prn-tf/gatekeeper/internal/cache/memory"
	"github.com/prn-tf/gatekeeper/internal/cache/redis"
	"github.com/prn-tf/gatekeeper/internal/config"
	"github.com/prn-tf/gatekeeper/internal/database"
	"github.com/prn-tf/gatekeeper/internal/handler"
	"github.com/prn-tf/gatekeeper/internal/lock"
	"github.com/prn-tf/gatekeeper/internal/metrics"
	"github.com/prn-tf/gatekeeper/internal/repository"
	"github.com/prn-tf/gatekeeper/internal/service"
)

// App holds the wired components.
type App struct {
	Config   *config.Config
	Database repository.Database
	Repos    *repository.Repositories
	Metrics  *metrics.Metrics
	Tokens   *auth.TokenIssuer
	Audit    *service.AuditService
	Settings *service.SettingsService
	Accounts *service.AccountService

	logger  zerolog.Logger
	closers []func()
}

// New opens the database, applies migrations and builds the services.
// Redis backs the settings cache and the locks when enabled; otherwise both
// are process-local.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Metrics: metrics.New(),
		logger:  logger,
	}

	db, err := database.OpenAndMigrate(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.Database = db.Database
	a.Repos = db.Repos
	a.closers = append(a.closers, func() { _ = db.Database.Close() })

	cache, locker, err := a.coordination(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}
	a.Tokens = tokens

	a.Audit = service.NewAuditService(db.Repos.Audit, cfg.Auth.AuditTimeout, logger)

	a.Settings = service.NewSettingsService(service.SettingsServiceConfig{
		Repo:     db.Repos.Config,
		Cache:    cache,
		Locker:   locker,
		Audit:    a.Audit,
		CacheTTL: cfg.Auth.SettingsCacheTTL,
		LockTTL:  cfg.Auth.LockTTL,
		Logger:   logger,
	})

	guard := service.NewAccountGuard(db.Repos.User, a.Settings, a.Audit, a.Metrics, logger)

	a.Accounts = service.NewAccountService(service.AccountServiceConfig{
		Users:   db.Repos.User,
		Guard:   guard,
		Policy:  service.NewPasswordPolicy(a.Settings),
		Tokens:  tokens,
		Locker:  locker,
		Audit:   a.Audit,
		Metrics: a.Metrics,
		LockTTL: cfg.Auth.LockTTL,
		Logger:  logger,
	})

	if err := a.Settings.Seed(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed settings: %w", err)
	}

	return a, nil
}

// coordination builds the settings cache and the locker.
func (a *App) coordination(ctx context.Context) (repository.Cache, lock.Locker, error) {
	if !a.Config.Redis.Enabled {
		cache := memory.NewCache(memory.DefaultCleanupInterval)
		locker := lock.NewMemoryLocker()
		a.closers = append(a.closers, cache.Stop, locker.Stop)
		a.logger.Info().Msg("using in-process cache and locks")
		return cache, locker, nil
	}

	client, err := redis.NewClient(ctx, a.Config.Redis, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })

	prefix := a.Config.Redis.KeyPrefix
	return redis.NewCache(client, prefix),
		redis.NewDistributedLock(client, prefix),
		nil
}

// Handler builds the HTTP API.
func (a *App) Handler() http.Handler {
	return handler.NewRouter(handler.RouterConfig{
		Accounts:       a.Accounts,
		Settings:       a.Settings,
		Tokens:         a.Tokens,
		Health:         a.Database,
		Metrics:        a.Metrics,
		RequestTimeout: a.Config.Server.RequestTimeout,
		MaxBodySize:    a.Config.Server.MaxBodySize,
		CookieSecure:   a.Config.Auth.CookieSecure,
		CookieTTL:      a.Config.Auth.TokenTTL,
		Logger:         a.logger,
	}).Handler()
}

// Close releases everything New opened, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

