package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/pkg/crypto"
)

// SpecialCharacters is the set a password must draw from when
// PasswordSettings.EnforceSpChar is on.
const SpecialCharacters = "$&+,:;=?@#|'<>.^*()%!-"

// ValidatePassword checks password against settings and the most recent
// settings.BlockedPasswordHistory entries of history. It stops at the first
// rule that fails and returns a *domain.PasswordPolicyError naming it.
func ValidatePassword(settings domain.PasswordSettings, password string, history []domain.PasswordRecord) error {
	length := utf8.RuneCountInString(password)
	if length < settings.Min || length > settings.Max {
		return domain.NewPasswordPolicyError(domain.RejectLength,
			fmt.Sprintf("password length must be between %d and %d", settings.Min, settings.Max))
	}

	if settings.EnforceCase && !(containsRange(password, 'a', 'z') && containsRange(password, 'A', 'Z')) {
		return domain.NewPasswordPolicyError(domain.RejectCase,
			"password must contain a lowercase and an uppercase letter")
	}

	if settings.EnforceSpChar && !strings.ContainsAny(password, SpecialCharacters) {
		return domain.NewPasswordPolicyError(domain.RejectSpecial,
			"password must contain one of "+SpecialCharacters)
	}

	if settings.EnforceDigit && !containsRange(password, '0', '9') {
		return domain.NewPasswordPolicyError(domain.RejectDigit,
			"password must contain a digit")
	}

	if settings.BlockedPasswordHistory > 0 {
		oldest := len(history) - settings.BlockedPasswordHistory
		for i := len(history) - 1; i >= 0 && i >= oldest; i-- {
			if crypto.VerifyPassword(password, history[i].Salt, history[i].Hash) {
				return domain.NewPasswordPolicyError(domain.RejectReuse,
					"password was used recently")
			}
		}
	}

	return nil
}

func containsRange(s string, lo, hi rune) bool {
	for _, r := range s {
		if r >= lo && r <= hi {
			return true
		}
	}
	return false
}

// PasswordPolicy validates passwords against the current stored settings.
type PasswordPolicy struct {
	settings SettingsProvider
}

// NewPasswordPolicy creates a new PasswordPolicy.
func NewPasswordPolicy(settings SettingsProvider) *PasswordPolicy {
	return &PasswordPolicy{settings: settings}
}

// Check loads the password settings and validates password against them.
func (p *PasswordPolicy) Check(ctx context.Context, password string, history []domain.PasswordRecord) error {
	settings, err := p.settings.PasswordSettings(ctx)
	if err != nil {
		return err
	}
	return ValidatePassword(settings, password, history)
}
