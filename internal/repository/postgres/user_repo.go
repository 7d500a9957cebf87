package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// userRepository implements repository.UserRepository.
type userRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(q Querier) repository.UserRepository {
	return &userRepository{q: q}
}

const userColumns = `id, username, hash, salt, old_passwords, role, failed_attempts,
	timeout_ms, blocked, password_expire_ms, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	var (
		history   []byte
		role      string
		timeoutMS *int64
		expireMS  int64
	)

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Hash,
		&user.Salt,
		&history,
		&role,
		&user.FailedAttempts,
		&timeoutMS,
		&user.Blocked,
		&expireMS,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(history, &user.OldPasswords); err != nil {
		return nil, fmt.Errorf("failed to decode password history: %w", err)
	}
	user.Role = domain.Role(role)
	if timeoutMS != nil {
		t := time.UnixMilli(*timeoutMS).UTC()
		user.Timeout = &t
	}
	user.PasswordExpireTime = time.UnixMilli(expireMS).UTC()

	return user, nil
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	history, err := json.Marshal(nonNilHistory(user.OldPasswords))
	if err != nil {
		return fmt.Errorf("failed to encode password history: %w", err)
	}

	var timeoutMS *int64
	if user.Timeout != nil {
		ms := user.Timeout.UnixMilli()
		timeoutMS = &ms
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.q.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Hash,
		user.Salt,
		history,
		string(user.Role),
		user.FailedAttempts,
		timeoutMS,
		user.Blocked,
		user.PasswordExpireTime.UnixMilli(),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, user.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// ListByRole returns every user holding the role.
func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY username`

	rows, err := r.q.Query(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// ExistsByUsername checks if a user with the given username exists.
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

// UpdatePassword stores a rotated credential and clears the protection state.
func (r *userRepository) UpdatePassword(ctx context.Context, id string, update repository.PasswordUpdate) error {
	history, err := json.Marshal(nonNilHistory(update.OldPasswords))
	if err != nil {
		return fmt.Errorf("failed to encode password history: %w", err)
	}

	query := `
		UPDATE users
		SET hash = $1, salt = $2, old_passwords = $3, password_expire_ms = $4,
		    blocked = FALSE, failed_attempts = 0, updated_at = NOW()
		WHERE id = $5
	`

	tag, err := r.q.Exec(ctx, query,
		update.Hash,
		update.Salt,
		history,
		update.PasswordExpireTime.UnixMilli(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// IncrementFailedAttempts bumps the counter in a single statement so
// concurrent failures are never lost.
func (r *userRepository) IncrementFailedAttempts(ctx context.Context, id string, maxAttempts int) (int, bool, error) {
	query := `
		UPDATE users
		SET failed_attempts = failed_attempts + 1,
		    blocked = blocked OR failed_attempts + 1 >= $1,
		    updated_at = NOW()
		WHERE id = $2
		RETURNING failed_attempts, blocked
	`

	var (
		attempts int
		blocked  bool
	)
	err := r.q.QueryRow(ctx, query, maxAttempts, id).Scan(&attempts, &blocked)
	if err != nil {
		if isNoRows(err) {
			return 0, false, domain.ErrUserNotFound
		}
		return 0, false, fmt.Errorf("failed to increment failed attempts: %w", err)
	}

	return attempts, blocked, nil
}

// SetTimeout sets the moment before which logins are rejected.
func (r *userRepository) SetTimeout(ctx context.Context, id string, until time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE users SET timeout_ms = $1, updated_at = NOW() WHERE id = $2`,
		until.UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set timeout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ResetFailedAttempts sets the failed attempt counter to zero.
func (r *userRepository) ResetFailedAttempts(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE users SET failed_attempts = 0, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to reset failed attempts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func nonNilHistory(h []domain.PasswordRecord) []domain.PasswordRecord {
	if h == nil {
		return []domain.PasswordRecord{}
	}
	return h
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
