package domain

import (
	"errors"
	"testing"
	"time"
)

func TestPasswordSettingsUpdate_Apply(t *testing.T) {
	base := DefaultPasswordSettings()

	off := false
	history := 0
	min := 12

	got := PasswordSettingsUpdate{
		Min:                    &min,
		EnforceCase:            &off,
		BlockedPasswordHistory: &history,
	}.Apply(base)

	if got.Min != 12 {
		t.Errorf("expected min 12, got %d", got.Min)
	}
	if got.EnforceCase {
		t.Error("expected enforceCase to be switched off")
	}
	if got.BlockedPasswordHistory != 0 {
		t.Errorf("expected history 0, got %d", got.BlockedPasswordHistory)
	}
	if got.Max != base.Max || got.EnforceDigit != base.EnforceDigit || got.EnforceSpChar != base.EnforceSpChar {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestAuthSettingsUpdate_Apply(t *testing.T) {
	base := DefaultAuthSettings()
	expiry := int64(60_000)

	got := AuthSettingsUpdate{ExpiryTimeMS: &expiry}.Apply(base)

	if got.ExpiryTimeMS != 60_000 {
		t.Errorf("expected expiry 60000, got %d", got.ExpiryTimeMS)
	}
	if got.LockoutSeconds != base.LockoutSeconds || got.MaxAttempts != base.MaxAttempts {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"default password settings", DefaultPasswordSettings().Validate(), false},
		{"default auth settings", DefaultAuthSettings().Validate(), false},
		{"max below min", PasswordSettings{Min: 10, Max: 5}.Validate(), true},
		{"zero min", PasswordSettings{Min: 0, Max: 5}.Validate(), true},
		{"negative history", PasswordSettings{Min: 1, Max: 5, BlockedPasswordHistory: -1}.Validate(), true},
		{"zero max attempts", AuthSettings{MaxAttempts: 0, ExpiryTimeMS: 1}.Validate(), true},
		{"negative lockout", AuthSettings{LockoutSeconds: -1, MaxAttempts: 1, ExpiryTimeMS: 1}.Validate(), true},
		{"zero expiry", AuthSettings{MaxAttempts: 1}.Validate(), true},
		{"expiry at cap", AuthSettings{MaxAttempts: 1, ExpiryTimeMS: MaxSettingsDuration.Milliseconds()}.Validate(), false},
		{"expiry over cap", AuthSettings{MaxAttempts: 1, ExpiryTimeMS: 1e13}.Validate(), true},
		{"lockout at cap", AuthSettings{LockoutSeconds: int(MaxSettingsDuration / time.Second), MaxAttempts: 1, ExpiryTimeMS: 1}.Validate(), false},
		{"lockout over cap", AuthSettings{LockoutSeconds: 1e10, MaxAttempts: 1, ExpiryTimeMS: 1}.Validate(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr {
				if !errors.Is(tt.err, ErrInvalidSettings) {
					t.Errorf("expected ErrInvalidSettings, got %v", tt.err)
				}
				return
			}
			if tt.err != nil {
				t.Errorf("unexpected error: %v", tt.err)
			}
		})
	}
}

func TestAuthSettings_DurationsNeverOverflow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	huge := AuthSettings{LockoutSeconds: 1e10, MaxAttempts: 1, ExpiryTimeMS: 1e13}

	if got := huge.Lockout(); got != MaxSettingsDuration {
		t.Errorf("expected lockout capped at %s, got %s", MaxSettingsDuration, got)
	}
	if got := huge.PasswordLifetime(); got != MaxSettingsDuration {
		t.Errorf("expected lifetime capped at %s, got %s", MaxSettingsDuration, got)
	}
	if !now.Add(huge.Lockout()).After(now) {
		t.Error("lockout window must end in the future")
	}
	if !now.Add(huge.PasswordLifetime()).After(now) {
		t.Error("password expiry must be in the future")
	}

	regular := DefaultAuthSettings()
	if regular.Lockout() != 30*time.Second {
		t.Errorf("expected 30s lockout, got %s", regular.Lockout())
	}
	if regular.PasswordLifetime() != DefaultPasswordExpiry {
		t.Errorf("expected default lifetime, got %s", regular.PasswordLifetime())
	}
}

func TestPasswordPolicyError(t *testing.T) {
	err := error(NewPasswordPolicyError(RejectDigit, "needs a digit"))

	if !errors.Is(err, ErrWeakPassword) {
		t.Error("expected policy error to match ErrWeakPassword")
	}
	reason, ok := RejectionReason(err)
	if !ok || reason != RejectDigit {
		t.Errorf("expected digit reason, got %q (%v)", reason, ok)
	}
}
