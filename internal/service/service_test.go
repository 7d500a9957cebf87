package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/gatekeeper/internal/auth"
	"github.com/prn-tf/gatekeeper/internal/cache/memory"
	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/lock"
	"github.com/prn-tf/gatekeeper/internal/metrics"
)

const testTokenSecret = "0123456789abcdef0123456789abcdef"

// testEnv wires the services over map-backed repositories.
type testEnv struct {
	users    *MockUserRepository
	configs  *MockConfigRepository
	audits   *MockAuditRepository
	metrics  *metrics.Metrics
	tokens   *auth.TokenIssuer
	settings *SettingsService
	guard    *AccountGuard
	accounts *AccountService
	now      *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cache := memory.NewCache(time.Hour)
	t.Cleanup(cache.Stop)
	locker := lock.NewMemoryLocker()
	t.Cleanup(locker.Stop)

	env := &testEnv{
		users:   NewMockUserRepository(),
		configs: NewMockConfigRepository(),
		audits:  NewMockAuditRepository(),
		metrics: metrics.New(),
	}

	logger := zerolog.Nop()
	audit := NewAuditService(env.audits, time.Second, logger)

	env.settings = NewSettingsService(SettingsServiceConfig{
		Repo:   env.configs,
		Cache:  cache,
		Locker: locker,
		Audit:  audit,
		Logger: logger,
	})
	require.NoError(t, env.settings.Seed(context.Background()))

	tokens, err := auth.NewTokenIssuer(testTokenSecret, time.Hour, "gatekeeper")
	require.NoError(t, err)
	env.tokens = tokens

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.now = &now

	env.guard = NewAccountGuard(env.users, env.settings, audit, env.metrics, logger)
	env.guard.now = func() time.Time { return *env.now }

	env.accounts = NewAccountService(AccountServiceConfig{
		Users:   env.users,
		Guard:   env.guard,
		Policy:  NewPasswordPolicy(env.settings),
		Tokens:  tokens,
		Locker:  locker,
		Audit:   audit,
		Metrics: env.metrics,
		Logger:  logger,
	})

	return env
}

// advance moves the test clock forward.
func (e *testEnv) advance(d time.Duration) {
	*e.now = e.now.Add(d)
}

func (e *testEnv) setPasswordSettings(t *testing.T, upd domain.PasswordSettingsUpdate) {
	t.Helper()
	_, err := e.settings.UpdatePasswordSettings(context.Background(), upd)
	require.NoError(t, err)
}

func (e *testEnv) setAuthSettings(t *testing.T, upd domain.AuthSettingsUpdate) {
	t.Helper()
	_, err := e.settings.UpdateAuthSettings(context.Background(), upd)
	require.NoError(t, err)
}

func (e *testEnv) createUser(t *testing.T, username, password string, role domain.Role) *domain.User {
	t.Helper()
	user, err := e.accounts.CreateAccount(context.Background(), username, password, role)
	require.NoError(t, err)
	return user
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }
