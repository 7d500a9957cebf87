// Package domain contains the core business entities for Gatekeeper.
// These are pure Go structs with no external dependencies, representing
// user accounts, their protection state and the policy documents that
// drive password and login rules.
package domain

import (
	"strings"
	"time"
)

// Role is the access level granted to a user.
type Role string

const (
	// RoleAdmin can access every resource, including user and config management.
	RoleAdmin Role = "admin"

	// RolePowerUser is an elevated non-admin role.
	RolePowerUser Role = "poweruser"

	// RoleUser is the default role.
	RoleUser Role = "user"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RolePowerUser, RoleUser}

// IsValid reports whether r is a member of the role enumeration.
func (r Role) IsValid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PasswordRecord is a previously used credential kept for reuse checks.
type PasswordRecord struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}

// User represents a registered account.
type User struct {
	// ID is the unique identifier for the user (UUID).
	ID string `json:"id"`

	// Username is the unique login name, always stored lowercase.
	Username string `json:"username"`

	// Hash is the derived password hash. Never exposed in API responses.
	Hash string `json:"-"`

	// Salt is the per-user random salt used to derive Hash.
	Salt string `json:"-"`

	// OldPasswords holds replaced credentials in chronological order.
	// It only grows; the password policy decides how many entries are checked.
	OldPasswords []PasswordRecord `json:"-"`

	// Role is the access level of the user.
	Role Role `json:"role"`

	// FailedAttempts counts consecutive failed logins.
	FailedAttempts int `json:"failed_attempts"`

	// Timeout is the moment before which logins are rejected. Nil when never set.
	Timeout *time.Time `json:"timeout,omitempty"`

	// Blocked is set once FailedAttempts reaches the configured maximum.
	// Only an administrative password reset clears it.
	Blocked bool `json:"blocked"`

	// PasswordExpireTime is the moment after which logins are rejected
	// until the password is changed.
	PasswordExpireTime time.Time `json:"password_expire_time"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with default protection state.
func NewUser(id, username string, role Role, hash, salt string, expiresAt time.Time) *User {
	now := time.Now().UTC()
	return &User{
		ID:                 id,
		Username:           NormalizeUsername(username),
		Hash:               hash,
		Salt:               salt,
		OldPasswords:       []PasswordRecord{},
		Role:               role,
		FailedAttempts:     0,
		PasswordExpireTime: expiresAt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// NormalizeUsername returns the canonical form used for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// CurrentPassword returns the active credential as a history record.
func (u *User) CurrentPassword() PasswordRecord {
	return PasswordRecord{Hash: u.Hash, Salt: u.Salt}
}

// UserSummary is the public view of a user returned after login.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Summary returns the public view of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}
