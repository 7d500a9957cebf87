package handler

import (
	"net/http"

	"github.com/prn-tf/gatekeeper/internal/auth"
	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/service"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	domain.UserSummary
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) (*service.LoginResult, bool) {
	var req credentialsRequest
	if err := rt.decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return nil, false
	}
	if req.Username == "" || req.Password == "" {
		rt.writeError(w, r, auth.BadRequest("username and password are required"))
		return nil, false
	}

	result, err := rt.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		rt.logger.Debug().Err(err).Str("username", req.Username).Msg("login failed")
		rt.writeError(w, r, err)
		return nil, false
	}
	return result, true
}

// handleLogin returns the session token in the response body.
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	result, ok := rt.login(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: result.Token, UserSummary: result.User})
}

// handleCookieLogin additionally stores the token in an HttpOnly cookie.
func (rt *Router) handleCookieLogin(w http.ResponseWriter, r *http.Request) {
	result, ok := rt.login(w, r)
	if !ok {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   rt.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(rt.cookieTTL.Seconds()),
	})
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: result.Token, UserSummary: result.User})
}

// handleMe returns the authenticated user.
func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	user, err := rt.accounts.GetUserByID(r.Context(), authCtx.UserID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Summary())
}
