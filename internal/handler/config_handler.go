package handler

import (
	"net/http"

	"github.com/prn-tf/gatekeeper/internal/domain"
)

func (rt *Router) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	settings, err := rt.settings.All(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleUpdateAuthConfig merges the provided fields into the auth document.
func (rt *Router) handleUpdateAuthConfig(w http.ResponseWriter, r *http.Request) {
	var upd domain.AuthSettingsUpdate
	if err := rt.decodeJSON(w, r, &upd); err != nil {
		rt.writeError(w, r, err)
		return
	}

	settings, err := rt.settings.UpdateAuthSettings(r.Context(), upd)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleUpdatePasswordConfig merges the provided fields into the password document.
func (rt *Router) handleUpdatePasswordConfig(w http.ResponseWriter, r *http.Request) {
	var upd domain.PasswordSettingsUpdate
	if err := rt.decodeJSON(w, r, &upd); err != nil {
		rt.writeError(w, r, err)
		return
	}

	settings, err := rt.settings.UpdatePasswordSettings(r.Context(), upd)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
