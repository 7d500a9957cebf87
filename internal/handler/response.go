package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/prn-tf/gatekeeper/internal/auth"
)

type statusResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body of at most rt.maxBodySize bytes into dst.
// Errors are already API errors.
func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return auth.BadRequest("request body is empty")
		case errors.As(err, &tooLarge):
			return auth.BadRequest("request body too large")
		default:
			return auth.BadRequest("malformed JSON body")
		}
	}
	return nil
}

// writeError writes err as an API error. Server side failures are logged
// because the client only sees a generic message.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *auth.APIError
	if !errors.As(err, &apiErr) {
		apiErr = auth.NewAPIError(err)
	}

	if apiErr.HTTPStatus >= http.StatusInternalServerError {
		rt.logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	auth.WriteError(w, apiErr)
}
