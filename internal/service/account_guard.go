package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/metrics"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// AccountGuard owns the protection state of accounts: admission checks,
// failure counting, lockout windows and password expiry.
// Every transition is written to the repository immediately.
type AccountGuard struct {
	users    repository.UserRepository
	settings SettingsProvider
	audit    *AuditService
	metrics  *metrics.Metrics
	now      func() time.Time
	logger   zerolog.Logger
}

// NewAccountGuard creates a new AccountGuard. m may be nil.
func NewAccountGuard(users repository.UserRepository, settings SettingsProvider, audit *AuditService, m *metrics.Metrics, logger zerolog.Logger) *AccountGuard {
	return &AccountGuard{
		users:    users,
		settings: settings,
		audit:    audit,
		metrics:  m,
		now:      time.Now,
		logger:   logger.With().Str("service", "guard").Logger(),
	}
}

// Admit returns the error for the first state that forbids a credential
// check: expired, then timed out, then blocked. Nil means the account may
// try its password.
func (g *AccountGuard) Admit(user *domain.User, now time.Time) error {
	return user.Status(now).Err()
}

// RecordFailure adds one to the failed attempt counter and blocks the account
// once the count reaches the configured maximum. The increment happens in a
// single statement so concurrent failures are all counted.
func (g *AccountGuard) RecordFailure(ctx context.Context, user *domain.User) error {
	settings, err := g.settings.AuthSettings(ctx)
	if err != nil {
		return err
	}

	wasBlocked := user.Blocked
	attempts, blocked, err := g.users.IncrementFailedAttempts(ctx, user.ID, settings.MaxAttempts)
	if err != nil {
		return fmt.Errorf("failed to record failed attempt: %w", err)
	}
	user.FailedAttempts = attempts
	user.Blocked = blocked

	if blocked && !wasBlocked {
		g.metrics.RecordBlock()
		g.audit.Record(ctx, domain.AuditWarning,
			"user %s blocked after %d failed attempts", user.Username, attempts)
	}

	return nil
}

// RecordLockout starts a lockout window of LockoutSeconds from now.
func (g *AccountGuard) RecordLockout(ctx context.Context, user *domain.User) error {
	settings, err := g.settings.AuthSettings(ctx)
	if err != nil {
		return err
	}

	until := g.now().Add(settings.Lockout()).UTC()
	if err := g.users.SetTimeout(ctx, user.ID, until); err != nil {
		return fmt.Errorf("failed to record lockout: %w", err)
	}
	user.Timeout = &until

	g.metrics.RecordLockout()
	g.audit.Record(ctx, domain.AuditInfo,
		"user %s timed out until %s", user.Username, until.Format(time.RFC3339))

	return nil
}

// RecordSuccess resets the failed attempt counter.
func (g *AccountGuard) RecordSuccess(ctx context.Context, user *domain.User) error {
	if err := g.users.ResetFailedAttempts(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to reset failed attempts: %w", err)
	}
	user.FailedAttempts = 0
	return nil
}

// ComputePasswordExpiry returns the expiry for a password set now.
func (g *AccountGuard) ComputePasswordExpiry(ctx context.Context) (time.Time, error) {
	settings, err := g.settings.AuthSettings(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return g.now().Add(settings.PasswordLifetime()).UTC(), nil
}
