package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/lock"
	"github.com/prn-tf/gatekeeper/internal/metrics"
	"github.com/prn-tf/gatekeeper/internal/pkg/crypto"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// TokenIssuer mints session tokens. *auth.TokenIssuer implements it.
type TokenIssuer interface {
	Issue(userID, username string, ttl time.Duration) (string, error)
}

// AccountService handles account registration, login and password changes.
type AccountService struct {
	users   repository.UserRepository
	guard   *AccountGuard
	policy  *PasswordPolicy
	tokens  TokenIssuer
	locker  lock.Locker
	audit   *AuditService
	metrics *metrics.Metrics
	lockTTL time.Duration
	logger  zerolog.Logger
}

// AccountServiceConfig contains the dependencies of an AccountService.
type AccountServiceConfig struct {
	Users   repository.UserRepository
	Guard   *AccountGuard
	Policy  *PasswordPolicy
	Tokens  TokenIssuer
	Locker  lock.Locker
	Audit   *AuditService
	Metrics *metrics.Metrics
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(cfg AccountServiceConfig) *AccountService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultSettingsLockTTL
	}
	return &AccountService{
		users:   cfg.Users,
		guard:   cfg.Guard,
		policy:  cfg.Policy,
		tokens:  cfg.Tokens,
		locker:  cfg.Locker,
		audit:   cfg.Audit,
		metrics: cfg.Metrics,
		lockTTL: cfg.LockTTL,
		logger:  cfg.Logger.With().Str("service", "account").Logger(),
	}
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string             `json:"accessToken"`
	User  domain.UserSummary `json:"user"`
}

// CreateAccount registers a new user with an empty password history.
func (s *AccountService) CreateAccount(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	username = domain.NormalizeUsername(username)
	if username == "" {
		return nil, domain.ErrInvalidUsername
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, username)
	}

	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}

	if err := s.policy.Check(ctx, password, nil); err != nil {
		s.audit.Record(ctx, domain.AuditInfo, "user %s not created: %v", username, err)
		return nil, err
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, err
	}
	expiresAt, err := s.guard.ComputePasswordExpiry(ctx)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(uuid.NewString(), username, role, crypto.HashPassword(password, salt), salt, expiresAt)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.metrics.RecordAccountCreated(string(role))
	s.audit.Record(ctx, domain.AuditInfo, "user %s created with role %s", username, role)

	return user, nil
}

// Login checks the account state and password and issues a session token.
func (s *AccountService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = domain.NormalizeUsername(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.metrics.RecordLogin(metrics.OutcomeUnknownUser)
			s.audit.Record(ctx, domain.AuditWarning, "login attempt for unknown user %s", username)
		} else {
			s.metrics.RecordLogin(metrics.OutcomeError)
		}
		return nil, err
	}

	if err := s.guard.Admit(user, s.guard.now()); err != nil {
		s.metrics.RecordLogin(loginOutcome(err))
		s.audit.Record(ctx, domain.AuditWarning, "login rejected for user %s: %v", username, err)
		return nil, err
	}

	if !crypto.VerifyPassword(password, user.Salt, user.Hash) {
		if err := s.guard.RecordLockout(ctx, user); err != nil {
			return nil, err
		}
		if err := s.guard.RecordFailure(ctx, user); err != nil {
			return nil, err
		}
		s.metrics.RecordLogin(metrics.OutcomeBadPassword)
		s.audit.Record(ctx, domain.AuditWarning,
			"failed login for user %s (%d failed attempts)", username, user.FailedAttempts)
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.guard.RecordSuccess(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Username, 0)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, err
	}

	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	s.audit.Record(ctx, domain.AuditInfo, "user %s logged in", username)

	return &LoginResult{Token: token, User: user.Summary()}, nil
}

// ChangePassword rotates a user's password. Unless isAdmin is set the old
// password must match. The current credential joins the history before the
// new one is validated, so it cannot be reused while inside the history window.
// An administrative change also clears a blocked account.
func (s *AccountService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string, isAdmin bool) error {
	username = domain.NormalizeUsername(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	return lock.WithLock(ctx, s.locker, lock.Keys.PasswordChange(user.ID), s.lockTTL, func(ctx context.Context) error {
		// Re-read under the lock so the history includes any change that just finished.
		current, err := s.users.GetByID(ctx, user.ID)
		if err != nil {
			return err
		}

		if !isAdmin && !crypto.VerifyPassword(oldPassword, current.Salt, current.Hash) {
			s.metrics.RecordPasswordChange(metrics.OutcomeBadPassword)
			s.audit.Record(ctx, domain.AuditWarning, "password change for user %s refused: wrong current password", username)
			return domain.ErrInvalidCredentials
		}

		history := make([]domain.PasswordRecord, 0, len(current.OldPasswords)+1)
		history = append(history, current.OldPasswords...)
		history = append(history, current.CurrentPassword())

		if err := s.policy.Check(ctx, newPassword, history); err != nil {
			s.metrics.RecordPasswordChange(metrics.OutcomeRejected)
			s.audit.Record(ctx, domain.AuditInfo, "password change for user %s rejected: %v", username, err)
			return err
		}

		salt, err := crypto.GenerateSalt()
		if err != nil {
			return err
		}
		expiresAt, err := s.guard.ComputePasswordExpiry(ctx)
		if err != nil {
			return err
		}

		err = s.users.UpdatePassword(ctx, current.ID, repository.PasswordUpdate{
			Hash:               crypto.HashPassword(newPassword, salt),
			Salt:               salt,
			OldPasswords:       history,
			PasswordExpireTime: expiresAt,
		})
		if err != nil {
			s.metrics.RecordPasswordChange(metrics.OutcomeError)
			return err
		}

		s.metrics.RecordPasswordChange(metrics.OutcomeSuccess)
		if isAdmin {
			s.audit.Record(ctx, domain.AuditWarning, "password of user %s reset by an administrator", username)
		} else {
			s.audit.Record(ctx, domain.AuditInfo, "password of user %s changed", username)
		}
		return nil
	})
}

// GetUser retrieves a user by username.
func (s *AccountService) GetUser(ctx context.Context, username string) (*domain.User, error) {
	return s.users.GetByUsername(ctx, domain.NormalizeUsername(username))
}

// GetUserByID retrieves a user by ID.
func (s *AccountService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListByRole returns every user holding role.
func (s *AccountService) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}
	return s.users.ListByRole(ctx, role)
}

// Authorize checks that the user holds required. Admins pass every check.
func (s *AccountService) Authorize(ctx context.Context, userID string, required domain.Role) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.Role == domain.RoleAdmin || user.Role == required {
		return nil
	}

	s.audit.Record(ctx, domain.AuditWarning,
		"user %s with role %s denied access requiring role %s", user.Username, user.Role, required)
	return domain.ErrForbidden
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrPasswordExpired):
		return metrics.OutcomeExpired
	case errors.Is(err, domain.ErrTimedOut):
		return metrics.OutcomeTimedOut
	case errors.Is(err, domain.ErrBlocked):
		return metrics.OutcomeBlocked
	default:
		return metrics.OutcomeError
	}
}
