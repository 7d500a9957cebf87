package domain

import (
	"testing"
	"time"
)

func TestUser_Status(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	tests := []struct {
		name      string
		user      User
		wantState AccountState
		wantErr   error
		timedOut  bool
		blocked   bool
		expired   bool
	}{
		{
			name:      "active",
			user:      User{PasswordExpireTime: now.Add(time.Hour)},
			wantState: StateActive,
		},
		{
			name:      "timeout in the past is active",
			user:      User{PasswordExpireTime: now.Add(time.Hour), Timeout: &past},
			wantState: StateActive,
		},
		{
			name:      "timed out",
			user:      User{PasswordExpireTime: now.Add(time.Hour), Timeout: &future},
			wantState: StateTimedOut,
			wantErr:   ErrTimedOut,
			timedOut:  true,
		},
		{
			name:      "blocked",
			user:      User{PasswordExpireTime: now.Add(time.Hour), Blocked: true},
			wantState: StateBlocked,
			wantErr:   ErrBlocked,
			blocked:   true,
		},
		{
			name:      "timed out wins over blocked",
			user:      User{PasswordExpireTime: now.Add(time.Hour), Blocked: true, Timeout: &future},
			wantState: StateTimedOut,
			wantErr:   ErrTimedOut,
			timedOut:  true,
			blocked:   true,
		},
		{
			name:      "expired wins over everything",
			user:      User{PasswordExpireTime: past, Blocked: true, Timeout: &future},
			wantState: StateExpired,
			wantErr:   ErrPasswordExpired,
			timedOut:  true,
			blocked:   true,
			expired:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.user.Status(now)

			if status.State != tt.wantState {
				t.Errorf("expected state %s, got %s", tt.wantState, status.State)
			}
			if status.Err() != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, status.Err())
			}
			if status.TimedOut != tt.timedOut || status.Blocked != tt.blocked || status.Expired != tt.expired {
				t.Errorf("unexpected flags: %+v", status)
			}
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	for _, role := range Roles {
		if !role.IsValid() {
			t.Errorf("expected %s to be valid", role)
		}
	}
	if Role("superuser").IsValid() {
		t.Error("expected superuser to be invalid")
	}
	if Role("").IsValid() {
		t.Error("expected empty role to be invalid")
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("  Alice "); got != "alice" {
		t.Errorf("expected alice, got %q", got)
	}
}
