package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	db, err := NewDB(ctx, DefaultConfig(":memory:"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db
}

func newTestUser(username string, role domain.Role) *domain.User {
	return domain.NewUser(uuid.New().String(), username, role, "hash", "salt", time.Now().Add(time.Hour))
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))

	version, err := db.Version(ctx)
	require.NoError(t, err)

	latest, err := LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, latest, version)
	assert.GreaterOrEqual(t, version, int64(1))
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := newTestUser("Alice", domain.RoleUser)
	require.NoError(t, repo.Create(ctx, user))

	t.Run("by username", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, domain.RoleUser, got.Role)
		assert.Empty(t, got.OldPasswords)
		assert.Nil(t, got.Timeout)
		assert.Equal(t, user.PasswordExpireTime.UnixMilli(), got.PasswordExpireTime.UnixMilli())
	})

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.Create(ctx, newTestUser("alice", domain.RoleAdmin))
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.GetByUsername(ctx, "bob")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		_, err = repo.GetByID(ctx, uuid.New().String())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := repo.ExistsByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByUsername(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestUserRepository_ListByRole(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestUser("carol", domain.RoleAdmin)))
	require.NoError(t, repo.Create(ctx, newTestUser("bob", domain.RoleUser)))
	require.NoError(t, repo.Create(ctx, newTestUser("alice", domain.RoleUser)))

	users, err := repo.ListByRole(ctx, domain.RoleUser)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)

	users, err = repo.ListByRole(ctx, domain.RolePowerUser)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepository_IncrementFailedAttempts(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := newTestUser("alice", domain.RoleUser)
	require.NoError(t, repo.Create(ctx, user))

	for i := 1; i < 3; i++ {
		attempts, blocked, err := repo.IncrementFailedAttempts(ctx, user.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, i, attempts)
		assert.False(t, blocked)
	}

	attempts, blocked, err := repo.IncrementFailedAttempts(ctx, user.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.True(t, blocked)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Blocked)
	assert.Equal(t, 3, got.FailedAttempts)

	_, _, err = repo.IncrementFailedAttempts(ctx, uuid.New().String(), 3)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_IncrementFailedAttempts_Concurrent(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := newTestUser("alice", domain.RoleUser)
	require.NoError(t, repo.Create(ctx, user))

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := repo.IncrementFailedAttempts(ctx, user.ID, 100)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.FailedAttempts)
}

func TestUserRepository_TimeoutAndReset(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := newTestUser("alice", domain.RoleUser)
	require.NoError(t, repo.Create(ctx, user))

	until := time.Now().Add(30 * time.Second)
	require.NoError(t, repo.SetTimeout(ctx, user.ID, until))
	_, _, err := repo.IncrementFailedAttempts(ctx, user.ID, 5)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Timeout)
	assert.Equal(t, until.UnixMilli(), got.Timeout.UnixMilli())
	assert.Equal(t, 1, got.FailedAttempts)

	require.NoError(t, repo.ResetFailedAttempts(ctx, user.ID))
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedAttempts)

	assert.ErrorIs(t, repo.SetTimeout(ctx, "missing", until), domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.ResetFailedAttempts(ctx, "missing"), domain.ErrUserNotFound)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := newTestUser("alice", domain.RoleUser)
	require.NoError(t, repo.Create(ctx, user))
	_, _, err := repo.IncrementFailedAttempts(ctx, user.ID, 1)
	require.NoError(t, err)

	expires := time.Now().Add(48 * time.Hour)
	err = repo.UpdatePassword(ctx, user.ID, repository.PasswordUpdate{
		Hash:               "hash2",
		Salt:               "salt2",
		OldPasswords:       []domain.PasswordRecord{{Hash: "hash", Salt: "salt"}},
		PasswordExpireTime: expires,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash2", got.Hash)
	assert.Equal(t, "salt2", got.Salt)
	assert.Equal(t, []domain.PasswordRecord{{Hash: "hash", Salt: "salt"}}, got.OldPasswords)
	assert.False(t, got.Blocked)
	assert.Equal(t, 0, got.FailedAttempts)
	assert.Equal(t, expires.UnixMilli(), got.PasswordExpireTime.UnixMilli())

	err = repo.UpdatePassword(ctx, "missing", repository.PasswordUpdate{})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestConfigRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewConfigRepository(db)
	ctx := context.Background()

	var settings domain.PasswordSettings
	err := repo.Get(ctx, domain.PasswordSettingsName, &settings)
	assert.ErrorIs(t, err, domain.ErrSettingsNotFound)

	require.NoError(t, repo.Save(ctx, domain.PasswordSettingsName, domain.DefaultPasswordSettings()))
	require.NoError(t, repo.Get(ctx, domain.PasswordSettingsName, &settings))
	assert.Equal(t, domain.DefaultPasswordSettings(), settings)

	updated := domain.DefaultPasswordSettings()
	updated.EnforceDigit = false
	require.NoError(t, repo.Save(ctx, domain.PasswordSettingsName, updated))
	require.NoError(t, repo.Get(ctx, domain.PasswordSettingsName, &settings))
	assert.False(t, settings.EnforceDigit)
}

func TestAuditRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	first := domain.NewAuditEntry(domain.AuditInfo, "user alice created")
	second := domain.NewAuditEntry(domain.AuditWarning, "user alice timed out")
	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	entries, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, domain.AuditWarning, entries[0].Level)
	assert.Equal(t, "user alice timed out", entries[0].Message)

	entries, err = repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
