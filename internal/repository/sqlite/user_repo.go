package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, hash, salt, old_passwords, role, failed_attempts,
	timeout_ms, blocked, password_expire_ms, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var (
		oldPasswords         string
		role                 string
		timeoutMS            sql.NullInt64
		blocked              int
		expireMS             int64
		createdAt, updatedAt string
	)

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Hash,
		&user.Salt,
		&oldPasswords,
		&role,
		&user.FailedAttempts,
		&timeoutMS,
		&blocked,
		&expireMS,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(oldPasswords), &user.OldPasswords); err != nil {
		return nil, fmt.Errorf("failed to decode password history: %w", err)
	}
	user.Role = domain.Role(role)
	if timeoutMS.Valid {
		t := fromMillis(timeoutMS.Int64)
		user.Timeout = &t
	}
	user.Blocked = blocked != 0
	user.PasswordExpireTime = fromMillis(expireMS)
	user.CreatedAt = parseTime(createdAt)
	user.UpdatedAt = parseTime(updatedAt)

	return user, nil
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	history, err := json.Marshal(nonNilHistory(user.OldPasswords))
	if err != nil {
		return fmt.Errorf("failed to encode password history: %w", err)
	}

	var timeoutMS sql.NullInt64
	if user.Timeout != nil {
		timeoutMS = sql.NullInt64{Int64: toMillis(*user.Timeout), Valid: true}
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Hash,
		user.Salt,
		string(history),
		string(user.Role),
		user.FailedAttempts,
		timeoutMS,
		boolToInt(user.Blocked),
		toMillis(user.PasswordExpireTime),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
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
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
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
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
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
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ? ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query, string(role))
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
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return count > 0, nil
}

// UpdatePassword stores a rotated credential and clears the protection state.
func (r *userRepository) UpdatePassword(ctx context.Context, id string, update repository.PasswordUpdate) error {
	history, err := json.Marshal(nonNilHistory(update.OldPasswords))
	if err != nil {
		return fmt.Errorf("failed to encode password history: %w", err)
	}

	query := `
		UPDATE users
		SET hash = ?, salt = ?, old_passwords = ?, password_expire_ms = ?,
		    blocked = 0, failed_attempts = 0, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		update.Hash,
		update.Salt,
		string(history),
		toMillis(update.PasswordExpireTime),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireAffected(result)
}

// IncrementFailedAttempts bumps the counter in a single statement so
// concurrent failures are never lost.
func (r *userRepository) IncrementFailedAttempts(ctx context.Context, id string, maxAttempts int) (int, bool, error) {
	query := `
		UPDATE users
		SET failed_attempts = failed_attempts + 1,
		    blocked = CASE WHEN failed_attempts + 1 >= ? THEN 1 ELSE blocked END,
		    updated_at = ?
		WHERE id = ?
		RETURNING failed_attempts, blocked
	`

	var attempts, blocked int
	err := r.db.QueryRowContext(ctx, query, maxAttempts, formatTime(time.Now()), id).Scan(&attempts, &blocked)
	if err != nil {
		if isNoRows(err) {
			return 0, false, domain.ErrUserNotFound
		}
		return 0, false, fmt.Errorf("failed to increment failed attempts: %w", err)
	}

	return attempts, blocked != 0, nil
}

// SetTimeout sets the moment before which logins are rejected.
func (r *userRepository) SetTimeout(ctx context.Context, id string, until time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET timeout_ms = ?, updated_at = ? WHERE id = ?`,
		toMillis(until), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set timeout: %w", err)
	}
	return requireAffected(result)
}

// ResetFailedAttempts sets the failed attempt counter to zero.
func (r *userRepository) ResetFailedAttempts(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = 0, updated_at = ? WHERE id = ?`,
		formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to reset failed attempts: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rowsAffected == 0 {
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
