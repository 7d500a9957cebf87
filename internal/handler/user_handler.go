package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prn-tf/gatekeeper/internal/auth"
	"github.com/prn-tf/gatekeeper/internal/domain"
)

type createUserRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type changePasswordRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type listUsersResponse struct {
	Users []domain.UserSummary `json:"users"`
}

func (rt *Router) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := rt.decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}

	user, err := rt.accounts.CreateAccount(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Summary())
}

// handleChangePassword is the self-service change. The old password is always
// checked; only the account owner or an administrator may call it.
func (rt *Router) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	username := domain.NormalizeUsername(chi.URLParam(r, "username"))
	if username != domain.NormalizeUsername(authCtx.Username) {
		if err := rt.accounts.Authorize(r.Context(), authCtx.UserID, domain.RoleAdmin); err != nil {
			rt.writeError(w, r, err)
			return
		}
	}

	var req changePasswordRequest
	if err := rt.decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if req.NewPassword == "" {
		rt.writeError(w, r, auth.BadRequest("newPassword is required"))
		return
	}

	if err := rt.accounts.ChangePassword(r.Context(), username, req.Password, req.NewPassword, false); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "password changed"})
}

// handleResetPassword sets a new password without the old one. This is also
// how a blocked account is unblocked.
func (rt *Router) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := rt.decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if req.NewPassword == "" {
		rt.writeError(w, r, auth.BadRequest("newPassword is required"))
		return
	}

	username := chi.URLParam(r, "username")
	if err := rt.accounts.ChangePassword(r.Context(), username, "", req.NewPassword, true); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "password reset"})
}

func (rt *Router) handleListUsers(w http.ResponseWriter, r *http.Request) {
	role := domain.Role(r.URL.Query().Get("role"))
	if role == "" {
		rt.writeError(w, r, auth.BadRequest("role query parameter is required"))
		return
	}

	users, err := rt.accounts.ListByRole(r.Context(), role)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	resp := listUsersResponse{Users: make([]domain.UserSummary, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, u.Summary())
	}
	writeJSON(w, http.StatusOK, resp)
}
