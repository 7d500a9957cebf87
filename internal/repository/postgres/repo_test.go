package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

var userColumnNames = []string{
	"id", "username", "hash", "salt", "old_passwords", "role", "failed_attempts",
	"timeout_ms", "blocked", "password_expire_ms", "created_at", "updated_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	user := domain.NewUser("7d0c3f5e-0d7a-4f3c-9d83-2f0f7f5b8f11", "alice", domain.RoleUser, "hash", "salt", time.Now().Add(time.Hour))

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "success",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(user.ID, "alice", "hash", "salt", []byte("[]"), "user", 0,
						pgxmock.AnyArg(), false, user.PasswordExpireTime.UnixMilli(),
						pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate username",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: domain.ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			err := NewUserRepository(mock).Create(context.Background(), user)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	timeout := now.Add(30 * time.Second).UnixMilli()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		check     func(t *testing.T, user *domain.User)
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userColumnNames).AddRow(
					"id-1", "alice", "hash", "salt",
					[]byte(`[{"hash":"old","salt":"oldsalt"}]`),
					"poweruser", 2, &timeout, true, now.Add(time.Hour).UnixMilli(), now, now,
				)
				mock.ExpectQuery(`(?s)SELECT .+ FROM users WHERE username = \$1`).
					WithArgs("alice").
					WillReturnRows(rows)
			},
			check: func(t *testing.T, user *domain.User) {
				assert.Equal(t, "id-1", user.ID)
				assert.Equal(t, domain.RolePowerUser, user.Role)
				assert.Equal(t, 2, user.FailedAttempts)
				assert.True(t, user.Blocked)
				require.NotNil(t, user.Timeout)
				assert.Equal(t, timeout, user.Timeout.UnixMilli())
				assert.Equal(t, []domain.PasswordRecord{{Hash: "old", Salt: "oldsalt"}}, user.OldPasswords)
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`(?s)SELECT .+ FROM users WHERE username = \$1`).
					WithArgs("alice").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`(?s)SELECT .+ FROM users WHERE username = \$1`).
					WithArgs("alice").
					WillReturnError(errors.New("connection refused"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			user, err := NewUserRepository(mock).GetByUsername(context.Background(), "alice")

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.check != nil:
				require.NoError(t, err)
				tt.check(t, user)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection refused")
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_ListByRole(t *testing.T) {
	mock := newMock(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(userColumnNames).
		AddRow("id-1", "alice", "h", "s", []byte(`[]`), "user", 0, (*int64)(nil), false, now.UnixMilli(), now, now).
		AddRow("id-2", "bob", "h", "s", []byte(`[]`), "user", 1, (*int64)(nil), false, now.UnixMilli(), now, now)
	mock.ExpectQuery(`(?s)SELECT .+ FROM users WHERE role = \$1 ORDER BY username`).
		WithArgs("user").
		WillReturnRows(rows)

	users, err := NewUserRepository(mock).ListByRole(context.Background(), domain.RoleUser)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[1].Username)
	assert.Nil(t, users[0].Timeout)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_IncrementFailedAttempts(t *testing.T) {
	tests := []struct {
		name         string
		setupMock    func(mock pgxmock.PgxPoolIface)
		wantAttempts int
		wantBlocked  bool
		wantErr      error
	}{
		{
			name: "below threshold",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users\s+SET failed_attempts = failed_attempts \+ 1`).
					WithArgs(5, "id-1").
					WillReturnRows(pgxmock.NewRows([]string{"failed_attempts", "blocked"}).AddRow(4, false))
			},
			wantAttempts: 4,
		},
		{
			name: "reaches threshold",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users\s+SET failed_attempts = failed_attempts \+ 1`).
					WithArgs(5, "id-1").
					WillReturnRows(pgxmock.NewRows([]string{"failed_attempts", "blocked"}).AddRow(5, true))
			},
			wantAttempts: 5,
			wantBlocked:  true,
		},
		{
			name: "unknown user",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs(5, "id-1").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			attempts, blocked, err := NewUserRepository(mock).IncrementFailedAttempts(context.Background(), "id-1", 5)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantAttempts, attempts)
				assert.Equal(t, tt.wantBlocked, blocked)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Updates(t *testing.T) {
	ctx := context.Background()

	t.Run("update password", func(t *testing.T) {
		mock := newMock(t)
		expires := time.Now().Add(time.Hour)
		mock.ExpectExec(`UPDATE users\s+SET hash = \$1`).
			WithArgs("h2", "s2", []byte(`[{"hash":"h1","salt":"s1"}]`), expires.UnixMilli(), "id-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := NewUserRepository(mock).UpdatePassword(ctx, "id-1", repository.PasswordUpdate{
			Hash:               "h2",
			Salt:               "s2",
			OldPasswords:       []domain.PasswordRecord{{Hash: "h1", Salt: "s1"}},
			PasswordExpireTime: expires,
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set timeout on missing user", func(t *testing.T) {
		mock := newMock(t)
		until := time.Now().Add(time.Minute)
		mock.ExpectExec(`UPDATE users SET timeout_ms = \$1`).
			WithArgs(until.UnixMilli(), "missing").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := NewUserRepository(mock).SetTimeout(ctx, "missing", until)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reset failed attempts", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE users SET failed_attempts = 0`).
			WithArgs("id-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, NewUserRepository(mock).ResetFailedAttempts(ctx, "id-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConfigRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing document", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT metadata FROM config WHERE name = \$1`).
			WithArgs("auth").
			WillReturnError(pgx.ErrNoRows)

		var settings domain.AuthSettings
		err := NewConfigRepository(mock).Get(ctx, "auth", &settings)
		assert.ErrorIs(t, err, domain.ErrSettingsNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get document", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT metadata FROM config WHERE name = \$1`).
			WithArgs("auth").
			WillReturnRows(pgxmock.NewRows([]string{"metadata"}).
				AddRow([]byte(`{"lockoutSeconds":10,"maxAttempts":3,"expiryTimeMS":60000}`)))

		var settings domain.AuthSettings
		require.NoError(t, NewConfigRepository(mock).Get(ctx, "auth", &settings))
		assert.Equal(t, domain.AuthSettings{LockoutSeconds: 10, MaxAttempts: 3, ExpiryTimeMS: 60000}, settings)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("save document", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO config`).
			WithArgs("auth", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewConfigRepository(mock).Save(ctx, "auth", domain.DefaultAuthSettings()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuditRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("append", func(t *testing.T) {
		mock := newMock(t)
		entry := domain.NewAuditEntry(domain.AuditInfo, "user alice created")
		mock.ExpectQuery(`INSERT INTO log`).
			WithArgs("INFO", "user alice created", entry.Entry(), entry.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		require.NoError(t, NewAuditRepository(mock).Append(ctx, entry))
		assert.Equal(t, int64(42), entry.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list uses default limit", func(t *testing.T) {
		mock := newMock(t)
		now := time.Now().UTC()
		mock.ExpectQuery(`SELECT id, level, message, created_at FROM log`).
			WithArgs(repository.DefaultAuditListLimit).
			WillReturnRows(pgxmock.NewRows([]string{"id", "level", "message", "created_at"}).
				AddRow(int64(2), "WARNING", "user alice blocked", now).
				AddRow(int64(1), "INFO", "user alice created", now))

		entries, err := NewAuditRepository(mock).List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, domain.AuditWarning, entries[0].Level)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
