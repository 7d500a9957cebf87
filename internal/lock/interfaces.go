// Package lock serializes password changes and settings updates.
// A single instance uses MemoryLocker; instances sharing one database use the
// Redis lock from cache/redis, which satisfies Locker as is.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/prn-tf/gatekeeper/internal/repository"
)

// Locker defines the interface for distributed/local locking.
// This abstraction allows switching between in-memory locks (single-node)
// and Redis-based locks (distributed) without changing business logic.
type Locker interface {
	// Acquire attempts to acquire a lock.
	// Returns the owner token and true if the lock was acquired, false if
	// it's held by another owner. The lock will automatically expire after
	// the specified TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)

	// AcquireWithRetry attempts to acquire a lock with retries.
	// Will retry up to maxRetries times with retryDelay between attempts.
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (string, bool, error)

	// Release releases a lock.
	// Returns true if the lock was released, false if token no longer owns it.
	Release(ctx context.Context, key, token string) (bool, error)

	// Extend extends the TTL of a held lock.
	// Returns true if the lock was extended, false if token no longer owns it.
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// IsHeld checks if the lock is currently held by anyone.
	IsHeld(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Common Lock Keys
// =============================================================================

// Keys provides lock key generation for common scenarios.
var Keys = lockKeys{}

type lockKeys struct{}

// PasswordChange returns the lock key serializing password changes of one user.
// Two concurrent changes would otherwise both append to the old password list
// and one of them would be lost.
func (lockKeys) PasswordChange(userID string) string {
	return "lock:user:password:" + userID
}

// SettingsUpdate returns the lock key serializing read-merge-write updates
// of a settings document.
func (lockKeys) SettingsUpdate(name string) string {
	return "lock:settings:" + name
}

// Retry policy used by WithLock.
const (
	DefaultMaxRetries = 20
	DefaultRetryDelay = 50 * time.Millisecond
)

// WithLock runs fn while holding key. It returns repository.ErrLockNotAcquired
// when the lock stays taken through every retry.
func WithLock(ctx context.Context, locker Locker, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	token, acquired, err := locker.AcquireWithRetry(ctx, key, ttl, DefaultMaxRetries, DefaultRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", repository.ErrLockNotAcquired, key)
	}

	// Release on a fresh context so a cancelled request still frees the lock.
	// The token keeps a holder whose TTL lapsed from freeing its successor.
	defer locker.Release(context.WithoutCancel(ctx), key, token) //nolint:errcheck

	return fn(ctx)
}
