package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// MockUserRepository is a map-backed implementation of repository.UserRepository.
// It hands out copies so callers cannot mutate stored users.
type MockUserRepository struct {
	mu        sync.Mutex
	users     map[string]*domain.User // by ID
	createErr error
	getErr    error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.OldPasswords = append([]domain.PasswordRecord{}, u.OldPasswords...)
	if u.Timeout != nil {
		t := *u.Timeout
		c.Timeout = &t
	}
	return &c
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return domain.ErrUserAlreadyExists
		}
	}
	m.users[user.ID] = cloneUser(user)
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []*domain.User{}
	for _, u := range m.users {
		if u.Role == role {
			result = append(result, cloneUser(u))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id string, update repository.PasswordUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Hash = update.Hash
	u.Salt = update.Salt
	u.OldPasswords = append([]domain.PasswordRecord{}, update.OldPasswords...)
	u.PasswordExpireTime = update.PasswordExpireTime
	u.Blocked = false
	u.FailedAttempts = 0
	return nil
}

func (m *MockUserRepository) IncrementFailedAttempts(ctx context.Context, id string, maxAttempts int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return 0, false, domain.ErrUserNotFound
	}
	u.FailedAttempts++
	if u.FailedAttempts >= maxAttempts {
		u.Blocked = true
	}
	return u.FailedAttempts, u.Blocked, nil
}

func (m *MockUserRepository) SetTimeout(ctx context.Context, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Timeout = &until
	return nil
}

func (m *MockUserRepository) ResetFailedAttempts(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.FailedAttempts = 0
	return nil
}

// stored returns the stored copy of the named user for assertions.
func (m *MockUserRepository) stored(username string) *domain.User {
	u, err := m.GetByUsername(context.Background(), username)
	if err != nil {
		panic(fmt.Sprintf("user %s not stored: %v", username, err))
	}
	return u
}

// update mutates the stored user for test setup.
func (m *MockUserRepository) update(username string, fn func(u *domain.User)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			fn(u)
			return
		}
	}
	panic("user not stored: " + username)
}

// MockConfigRepository stores documents as JSON like the real backends.
type MockConfigRepository struct {
	mu      sync.Mutex
	docs    map[string][]byte
	gets    int
	saves   int
	saveErr error
}

func NewMockConfigRepository() *MockConfigRepository {
	return &MockConfigRepository{docs: make(map[string][]byte)}
}

func (m *MockConfigRepository) Get(ctx context.Context, name string, dst any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gets++
	raw, ok := m.docs[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSettingsNotFound, name)
	}
	return json.Unmarshal(raw, dst)
}

func (m *MockConfigRepository) Save(ctx context.Context, name string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.saves++
	m.docs[name] = raw
	return nil
}

func (m *MockConfigRepository) getCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

// MockAuditRepository records appended entries.
type MockAuditRepository struct {
	mu        sync.Mutex
	entries   []*domain.AuditEntry
	appendErr error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.appendErr != nil {
		return m.appendErr
	}
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = repository.DefaultAuditListLimit
	}
	result := []*domain.AuditEntry{}
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.entries[i])
	}
	return result, nil
}

// messages returns every recorded message in order.
func (m *MockAuditRepository) messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Message)
	}
	return out
}

// MockCache is a testify mock of repository.Cache.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockUserStore is a testify mock of repository.UserRepository used to
// inject persistence failures.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, id string, update repository.PasswordUpdate) error {
	return m.Called(ctx, id, update).Error(0)
}

func (m *MockUserStore) IncrementFailedAttempts(ctx context.Context, id string, maxAttempts int) (int, bool, error) {
	args := m.Called(ctx, id, maxAttempts)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockUserStore) SetTimeout(ctx context.Context, id string, until time.Time) error {
	return m.Called(ctx, id, until).Error(0)
}

func (m *MockUserStore) ResetFailedAttempts(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

var (
	_ repository.UserRepository   = (*MockUserRepository)(nil)
	_ repository.UserRepository   = (*MockUserStore)(nil)
	_ repository.ConfigRepository = (*MockConfigRepository)(nil)
	_ repository.AuditRepository  = (*MockAuditRepository)(nil)
	_ repository.Cache            = (*MockCache)(nil)
)
