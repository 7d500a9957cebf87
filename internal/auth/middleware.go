package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/domain"
)

// TokenVerifier verifies a session token and returns a refreshed one.
// *TokenIssuer implements it.
type TokenVerifier interface {
	Verify(token string) (*Claims, string, error)
}

// Authorizer checks the role of an authenticated user.
type Authorizer interface {
	Authorize(ctx context.Context, userID string, required domain.Role) error
}

// TokenFromRequest extracts the session token. The Authorization header wins
// over the auth header, which wins over the auth cookie.
func TokenFromRequest(r *http.Request) (string, TokenSource) {
	if header := r.Header.Get(AuthorizationHeader); header != "" {
		if token, ok := strings.CutPrefix(header, BearerPrefix); ok && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), TokenSourceBearer
		}
	}

	if token := strings.TrimSpace(r.Header.Get(TokenHeader)); token != "" {
		return token, TokenSourceHeader
	}

	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, TokenSourceCookie
	}

	return "", TokenSourceNone
}

// Middleware creates an authentication middleware. Requests without a valid
// token get a 401. Authenticated responses carry a refreshed token in the
// RefreshedTokenHeader header.
func Middleware(verifier TokenVerifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, source := TokenFromRequest(r)
			if source == TokenSourceNone {
				WriteError(w, ErrMissingToken)
				return
			}

			claims, refreshed, err := verifier.Verify(token)
			if err != nil {
				logger.Debug().Err(err).
					Str("path", r.URL.Path).
					Str("source", source.String()).
					Msg("token authentication failed")
				WriteError(w, err)
				return
			}

			authCtx := &AuthContext{
				UserID:   claims.UserID,
				Username: claims.Username,
				Source:   source,
			}
			if claims.ExpiresAt != nil {
				authCtx.ExpiresAt = claims.ExpiresAt.Time
			}

			w.Header().Set(RefreshedTokenHeader, refreshed)
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

// RequireRole creates a middleware that lets the request through only when the
// authenticated user holds role or is an admin. It must run after Middleware.
func RequireRole(authorizer Authorizer, role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := RequireAuth(r.Context())
			if err != nil {
				WriteError(w, err)
				return
			}

			if err := authorizer.Authorize(r.Context(), authCtx.UserID, role); err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
