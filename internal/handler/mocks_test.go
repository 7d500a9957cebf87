package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/service"
)

// MockAccounts is a mock implementation of AccountManager.
type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) CreateAccount(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	args := m.Called(ctx, username, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAccounts) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *MockAccounts) ChangePassword(ctx context.Context, username, oldPassword, newPassword string, isAdmin bool) error {
	args := m.Called(ctx, username, oldPassword, newPassword, isAdmin)
	return args.Error(0)
}

func (m *MockAccounts) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAccounts) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockAccounts) Authorize(ctx context.Context, userID string, required domain.Role) error {
	args := m.Called(ctx, userID, required)
	return args.Error(0)
}

// MockSettings is a mock implementation of SettingsManager.
type MockSettings struct {
	mock.Mock
}

func (m *MockSettings) All(ctx context.Context) (*service.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Settings), args.Error(1)
}

func (m *MockSettings) UpdatePasswordSettings(ctx context.Context, upd domain.PasswordSettingsUpdate) (domain.PasswordSettings, error) {
	args := m.Called(ctx, upd)
	return args.Get(0).(domain.PasswordSettings), args.Error(1)
}

func (m *MockSettings) UpdateAuthSettings(ctx context.Context, upd domain.AuthSettingsUpdate) (domain.AuthSettings, error) {
	args := m.Called(ctx, upd)
	return args.Get(0).(domain.AuthSettings), args.Error(1)
}

// stubHealth reports a fixed health result.
type stubHealth struct {
	err error
}

func (s stubHealth) Ping(context.Context) error   { return s.err }
func (s stubHealth) Health(context.Context) error { return s.err }
func (s stubHealth) Close() error                 { return nil }
