package lock

import (
	"context"
	"time"
)

// NoOpLocker grants every lock immediately; only a cancelled context fails it.
// It fits a single writer, such as tests over in-memory repositories.
type NoOpLocker struct{}

// NewNoOpLocker returns a NoOpLocker.
func NewNoOpLocker() NoOpLocker {
	return NoOpLocker{}
}

func (NoOpLocker) Acquire(ctx context.Context, _ string, _ time.Duration) (string, bool, error) {
	ok, err := granted(ctx)
	return "", ok, err
}

func (NoOpLocker) AcquireWithRetry(ctx context.Context, _ string, _ time.Duration, _ int, _ time.Duration) (string, bool, error) {
	ok, err := granted(ctx)
	return "", ok, err
}

func (NoOpLocker) Release(ctx context.Context, _, _ string) (bool, error) {
	return granted(ctx)
}

func (NoOpLocker) Extend(ctx context.Context, _, _ string, _ time.Duration) (bool, error) {
	return granted(ctx)
}

// IsHeld is always false: nothing is tracked.
func (NoOpLocker) IsHeld(ctx context.Context, _ string) (bool, error) {
	return false, ctx.Err()
}

func granted(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}

var _ Locker = NoOpLocker{}
