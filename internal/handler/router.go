// Package handler provides the HTTP API for Gatekeeper.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/auth"
	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/metrics"
	"github.com/prn-tf/gatekeeper/internal/repository"
	"github.com/prn-tf/gatekeeper/internal/service"
)

// AccountManager is the account surface used by the handlers.
// *service.AccountService implements it.
type AccountManager interface {
	CreateAccount(ctx context.Context, username, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string, isAdmin bool) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	Authorize(ctx context.Context, userID string, required domain.Role) error
}

// SettingsManager is the settings surface used by the handlers.
// *service.SettingsService implements it.
type SettingsManager interface {
	All(ctx context.Context) (*service.Settings, error)
	UpdatePasswordSettings(ctx context.Context, upd domain.PasswordSettingsUpdate) (domain.PasswordSettings, error)
	UpdateAuthSettings(ctx context.Context, upd domain.AuthSettingsUpdate) (domain.AuthSettings, error)
}

// Router builds the HTTP handler tree.
type Router struct {
	accounts       AccountManager
	settings       SettingsManager
	tokens         auth.TokenVerifier
	health         repository.DatabaseHealth
	metrics        *metrics.Metrics
	requestTimeout time.Duration
	maxBodySize    int64
	cookieSecure   bool
	cookieTTL      time.Duration
	logger         zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Accounts AccountManager
	Settings SettingsManager
	Tokens   auth.TokenVerifier
	Health   repository.DatabaseHealth
	Metrics  *metrics.Metrics

	// RequestTimeout cancels the request context after this long. Zero disables it.
	RequestTimeout time.Duration

	// MaxBodySize caps JSON request bodies. Zero means 1MB.
	MaxBodySize int64

	// CookieSecure sets the Secure attribute on the auth cookie.
	CookieSecure bool

	// CookieTTL is the auth cookie lifetime. Zero means auth.DefaultTokenTTL.
	CookieTTL time.Duration

	Logger zerolog.Logger
}

const defaultMaxBodySize = 1 << 20

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = auth.DefaultTokenTTL
	}

	return &Router{
		accounts:       cfg.Accounts,
		settings:       cfg.Settings,
		tokens:         cfg.Tokens,
		health:         cfg.Health,
		metrics:        cfg.Metrics,
		requestTimeout: cfg.RequestTimeout,
		maxBodySize:    cfg.MaxBodySize,
		cookieSecure:   cfg.CookieSecure,
		cookieTTL:      cfg.CookieTTL,
		logger:         cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(rt.logger))
	r.Use(middleware.Recoverer)
	if rt.requestTimeout > 0 {
		r.Use(middleware.Timeout(rt.requestTimeout))
	}
	r.Use(instrument(rt.metrics))

	// Health check (no auth)
	r.Get("/health", rt.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth", rt.handleLogin)
		r.Post("/auth2", rt.handleCookieLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(rt.tokens, rt.logger))

			r.Get("/me", rt.handleMe)
			r.Get("/isLogged", rt.handleProbe)
			r.Post("/users/{username}/password", rt.handleChangePassword)

			r.With(auth.RequireRole(rt.accounts, domain.RoleAdmin)).Get("/checkUserIsAdmin", rt.handleProbe)
			r.With(auth.RequireRole(rt.accounts, domain.RoleUser)).Get("/checkUserIsUser", rt.handleProbe)
			r.With(auth.RequireRole(rt.accounts, domain.RolePowerUser)).Get("/checkUserIsPoweruser", rt.handleProbe)

			// Administration
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(rt.accounts, domain.RoleAdmin))

				r.Get("/users", rt.handleListUsers)
				r.Post("/users", rt.handleCreateUser)
				r.Put("/users/{username}/password/reset", rt.handleResetPassword)

				r.Get("/config", rt.handleGetConfig)
				r.Put("/config/auth", rt.handleUpdateAuthConfig)
				r.Put("/config/password", rt.handleUpdatePasswordConfig)
			})
		})
	})

	return r
}

// handleHealth reports whether the database answers.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		if err := rt.health.Health(r.Context()); err != nil {
			rt.logger.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "healthy"})
}

func (rt *Router) handleProbe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}
