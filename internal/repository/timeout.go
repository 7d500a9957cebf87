package repository

import (
	"context"
	"time"

	"github.com/prn-tf/gatekeeper/internal/domain"
)

// WithTimeout bounds every repository call by timeout. Each call fully
// consumes its rows before returning, so the deadline covers the whole call.
// A non-positive timeout returns repos unchanged.
func WithTimeout(repos *Repositories, timeout time.Duration) *Repositories {
	if timeout <= 0 {
		return repos
	}
	return &Repositories{
		User:   &timeoutUserRepository{inner: repos.User, timeout: timeout},
		Config: &timeoutConfigRepository{inner: repos.Config, timeout: timeout},
		Audit:  &timeoutAuditRepository{inner: repos.Audit, timeout: timeout},
	}
}

type timeoutUserRepository struct {
	inner   UserRepository
	timeout time.Duration
}

func (r *timeoutUserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Create(ctx, user)
}

func (r *timeoutUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.GetByID(ctx, id)
}

func (r *timeoutUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.GetByUsername(ctx, username)
}

func (r *timeoutUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.ListByRole(ctx, role)
}

func (r *timeoutUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.ExistsByUsername(ctx, username)
}

func (r *timeoutUserRepository) UpdatePassword(ctx context.Context, id string, update PasswordUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.UpdatePassword(ctx, id, update)
}

func (r *timeoutUserRepository) IncrementFailedAttempts(ctx context.Context, id string, maxAttempts int) (int, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.IncrementFailedAttempts(ctx, id, maxAttempts)
}

func (r *timeoutUserRepository) SetTimeout(ctx context.Context, id string, until time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.SetTimeout(ctx, id, until)
}

func (r *timeoutUserRepository) ResetFailedAttempts(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.ResetFailedAttempts(ctx, id)
}

type timeoutConfigRepository struct {
	inner   ConfigRepository
	timeout time.Duration
}

func (r *timeoutConfigRepository) Get(ctx context.Context, name string, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Get(ctx, name, dst)
}

func (r *timeoutConfigRepository) Save(ctx context.Context, name string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Save(ctx, name, v)
}

type timeoutAuditRepository struct {
	inner   AuditRepository
	timeout time.Duration
}

func (r *timeoutAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Append(ctx, entry)
}

func (r *timeoutAuditRepository) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.List(ctx, limit)
}

var (
	_ UserRepository   = (*timeoutUserRepository)(nil)
	_ ConfigRepository = (*timeoutConfigRepository)(nil)
	_ AuditRepository  = (*timeoutAuditRepository)(nil)
)
