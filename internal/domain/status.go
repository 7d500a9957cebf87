package domain

import "time"

// AccountState is the admission state of an account, in priority order.
type AccountState int

const (
	// StateActive means the account may attempt a credential check.
	StateActive AccountState = iota

	// StateExpired means the password lifetime has elapsed.
	StateExpired

	// StateTimedOut means a lockout window is still running.
	StateTimedOut

	// StateBlocked means the account reached the failed-attempt maximum.
	StateBlocked
)

// String returns the state name.
func (s AccountState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateTimedOut:
		return "timed_out"
	case StateBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// AccountStatus is the protection state of an account at a point in time.
// The flags are independent: an account can be blocked and timed out at once.
// State carries the one that wins admission (Expired, then TimedOut, then Blocked).
type AccountStatus struct {
	State        AccountState
	Expired      bool
	TimedOut     bool
	Blocked      bool
	ExpiresAt    time.Time
	TimeoutUntil *time.Time
}

// Status computes the account status of u at now.
func (u *User) Status(now time.Time) AccountStatus {
	status := AccountStatus{
		Expired:      now.After(u.PasswordExpireTime),
		TimedOut:     u.Timeout != nil && now.Before(*u.Timeout),
		Blocked:      u.Blocked,
		ExpiresAt:    u.PasswordExpireTime,
		TimeoutUntil: u.Timeout,
	}

	switch {
	case status.Expired:
		status.State = StateExpired
	case status.TimedOut:
		status.State = StateTimedOut
	case status.Blocked:
		status.State = StateBlocked
	default:
		status.State = StateActive
	}

	return status
}

// Err returns the admission error for the winning state, or nil when active.
func (s AccountStatus) Err() error {
	switch s.State {
	case StateExpired:
		return ErrPasswordExpired
	case StateTimedOut:
		return ErrTimedOut
	case StateBlocked:
		return ErrBlocked
	default:
		return nil
	}
}
