package domain

import (
	"fmt"
	"time"
)

// Settings document names in the config collection.
const (
	PasswordSettingsName = "password"
	AuthSettingsName     = "auth"
)

// DefaultPasswordExpiry is the password lifetime seeded into a fresh auth document.
const DefaultPasswordExpiry = 30 * 24 * time.Hour

// MaxSettingsDuration caps the lockout window and the password lifetime.
// Larger values would overflow time.Duration.
const MaxSettingsDuration = 10 * 365 * 24 * time.Hour

// PasswordSettings drives password strength and reuse rules.
type PasswordSettings struct {
	// Min and Max bound the password length in characters.
	Min int `json:"min"`
	Max int `json:"max"`

	// EnforceCase requires at least one lowercase and one uppercase letter.
	EnforceCase bool `json:"enforceCase"`

	// EnforceSpChar requires at least one character from SpecialCharacters.
	EnforceSpChar bool `json:"enforceSpChar"`

	// EnforceDigit requires at least one decimal digit.
	EnforceDigit bool `json:"enforceDigit"`

	// BlockedPasswordHistory is how many of the most recent old passwords
	// may not be reused. Zero disables the check.
	BlockedPasswordHistory int `json:"blockedPasswordHistory"`
}

// DefaultPasswordSettings returns the document seeded on first start.
func DefaultPasswordSettings() PasswordSettings {
	return PasswordSettings{
		Min:                    8,
		Max:                    64,
		EnforceCase:            true,
		EnforceSpChar:          true,
		EnforceDigit:           true,
		BlockedPasswordHistory: 3,
	}
}

// Validate checks the document for impossible values.
func (s PasswordSettings) Validate() error {
	if s.Min < 1 {
		return fmt.Errorf("%w: min must be at least 1", ErrInvalidSettings)
	}
	if s.Max < s.Min {
		return fmt.Errorf("%w: max must be greater than or equal to min", ErrInvalidSettings)
	}
	if s.BlockedPasswordHistory < 0 {
		return fmt.Errorf("%w: blockedPasswordHistory cannot be negative", ErrInvalidSettings)
	}
	return nil
}

// PasswordSettingsUpdate carries a partial update. Nil fields are left unchanged.
type PasswordSettingsUpdate struct {
	Min                    *int  `json:"min,omitempty"`
	Max                    *int  `json:"max,omitempty"`
	EnforceCase            *bool `json:"enforceCase,omitempty"`
	EnforceSpChar          *bool `json:"enforceSpChar,omitempty"`
	EnforceDigit           *bool `json:"enforceDigit,omitempty"`
	BlockedPasswordHistory *int  `json:"blockedPasswordHistory,omitempty"`
}

// Apply merges the provided fields into s and returns the result.
func (u PasswordSettingsUpdate) Apply(s PasswordSettings) PasswordSettings {
	if u.Min != nil {
		s.Min = *u.Min
	}
	if u.Max != nil {
		s.Max = *u.Max
	}
	if u.EnforceCase != nil {
		s.EnforceCase = *u.EnforceCase
	}
	if u.EnforceSpChar != nil {
		s.EnforceSpChar = *u.EnforceSpChar
	}
	if u.EnforceDigit != nil {
		s.EnforceDigit = *u.EnforceDigit
	}
	if u.BlockedPasswordHistory != nil {
		s.BlockedPasswordHistory = *u.BlockedPasswordHistory
	}
	return s
}

// AuthSettings drives login throttling and password lifetime.
type AuthSettings struct {
	// LockoutSeconds is added to the user's timeout after every failed login.
	LockoutSeconds int `json:"lockoutSeconds"`

	// MaxAttempts is the failed-attempt count at which the account is blocked.
	MaxAttempts int `json:"maxAttempts"`

	// ExpiryTimeMS is the password lifetime in milliseconds.
	ExpiryTimeMS int64 `json:"expiryTimeMS"`
}

// DefaultAuthSettings returns the document seeded on first start.
func DefaultAuthSettings() AuthSettings {
	return AuthSettings{
		LockoutSeconds: 30,
		MaxAttempts:    5,
		ExpiryTimeMS:   DefaultPasswordExpiry.Milliseconds(),
	}
}

// Validate checks the document for impossible values.
func (s AuthSettings) Validate() error {
	if s.LockoutSeconds < 0 {
		return fmt.Errorf("%w: lockoutSeconds cannot be negative", ErrInvalidSettings)
	}
	if int64(s.LockoutSeconds) > int64(MaxSettingsDuration/time.Second) {
		return fmt.Errorf("%w: lockoutSeconds cannot exceed %d", ErrInvalidSettings, int64(MaxSettingsDuration/time.Second))
	}
	if s.MaxAttempts < 1 {
		return fmt.Errorf("%w: maxAttempts must be at least 1", ErrInvalidSettings)
	}
	if s.ExpiryTimeMS <= 0 {
		return fmt.Errorf("%w: expiryTimeMS must be positive", ErrInvalidSettings)
	}
	if s.ExpiryTimeMS > MaxSettingsDuration.Milliseconds() {
		return fmt.Errorf("%w: expiryTimeMS cannot exceed %d", ErrInvalidSettings, MaxSettingsDuration.Milliseconds())
	}
	return nil
}

// Lockout returns the lockout window as a duration, capped at MaxSettingsDuration.
func (s AuthSettings) Lockout() time.Duration {
	if int64(s.LockoutSeconds) > int64(MaxSettingsDuration/time.Second) {
		return MaxSettingsDuration
	}
	return time.Duration(s.LockoutSeconds) * time.Second
}

// PasswordLifetime returns the password lifetime as a duration, capped at
// MaxSettingsDuration.
func (s AuthSettings) PasswordLifetime() time.Duration {
	if s.ExpiryTimeMS > MaxSettingsDuration.Milliseconds() {
		return MaxSettingsDuration
	}
	return time.Duration(s.ExpiryTimeMS) * time.Millisecond
}

// AuthSettingsUpdate carries a partial update. Nil fields are left unchanged.
type AuthSettingsUpdate struct {
	LockoutSeconds *int   `json:"lockoutSeconds,omitempty"`
	MaxAttempts    *int   `json:"maxAttempts,omitempty"`
	ExpiryTimeMS   *int64 `json:"expiryTimeMS,omitempty"`
}

// Apply merges the provided fields into s and returns the result.
func (u AuthSettingsUpdate) Apply(s AuthSettings) AuthSettings {
	if u.LockoutSeconds != nil {
		s.LockoutSeconds = *u.LockoutSeconds
	}
	if u.MaxAttempts != nil {
		s.MaxAttempts = *u.MaxAttempts
	}
	if u.ExpiryTimeMS != nil {
		s.ExpiryTimeMS = *u.ExpiryTimeMS
	}
	return s
}
