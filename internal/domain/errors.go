// Package domain contains the core business entities for Gatekeeper.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.),
// which are wrapped and passed through untranslated.

var (
	// ===========================================
	// Account Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates the username is taken.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidUsername indicates the username is empty after normalization.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidRole indicates the role is not one of admin, poweruser, user.
	ErrInvalidRole = errors.New("invalid role")

	// ErrWeakPassword indicates the password was rejected by the password policy.
	ErrWeakPassword = errors.New("password does not satisfy the password policy")

	// ===========================================
	// Authentication Errors
	// ===========================================

	// ErrInvalidCredentials indicates the password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordExpired indicates the password lifetime has elapsed.
	ErrPasswordExpired = errors.New("password expired: please change your password")

	// ErrTimedOut indicates a lockout window is still running.
	ErrTimedOut = errors.New("timed out: try again later")

	// ErrBlocked indicates the account needs an administrator to unblock it.
	ErrBlocked = errors.New("locked: ask an administrator to unblock")

	// ErrInvalidToken indicates a bearer token failed signature or expiry checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrForbidden indicates the user's role does not grant access.
	ErrForbidden = errors.New("forbidden")

	// ===========================================
	// Settings Errors
	// ===========================================

	// ErrSettingsNotFound indicates a settings document has not been seeded.
	ErrSettingsNotFound = errors.New("settings not found")

	// ErrInvalidSettings indicates a settings document failed validation.
	ErrInvalidSettings = errors.New("invalid settings")
)

// PasswordRejection names the policy rule a password failed.
type PasswordRejection string

const (
	RejectLength  PasswordRejection = "length"
	RejectCase    PasswordRejection = "case"
	RejectSpecial PasswordRejection = "special"
	RejectDigit   PasswordRejection = "digit"
	RejectReuse   PasswordRejection = "reuse"
)

// PasswordPolicyError reports which rule rejected a password.
type PasswordPolicyError struct {
	// Reason is the rule that failed.
	Reason PasswordRejection

	// Message is a human readable explanation.
	Message string
}

// Error implements the error interface.
func (e *PasswordPolicyError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", ErrWeakPassword.Error(), e.Message)
	}
	return fmt.Sprintf("%s (%s)", ErrWeakPassword.Error(), e.Reason)
}

// Unwrap returns ErrWeakPassword for errors.Is.
func (e *PasswordPolicyError) Unwrap() error {
	return ErrWeakPassword
}

// NewPasswordPolicyError creates a PasswordPolicyError.
func NewPasswordPolicyError(reason PasswordRejection, message string) *PasswordPolicyError {
	return &PasswordPolicyError{
		Reason:  reason,
		Message: message,
	}
}

// RejectionReason extracts the policy rule from err, if any.
func RejectionReason(err error) (PasswordRejection, bool) {
	var policyErr *PasswordPolicyError
	if errors.As(err, &policyErr) {
		return policyErr.Reason, true
	}
	return "", false
}
