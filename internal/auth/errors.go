package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prn-tf/gatekeeper/internal/domain"
)

// ErrMissingToken indicates the request carried no session token.
var ErrMissingToken = errors.New("missing session token")

// ErrorCode is the machine readable code in an error response.
type ErrorCode string

const (
	ErrorBadRequest      ErrorCode = "BadRequest"
	ErrorWeakPassword    ErrorCode = "WeakPassword"
	ErrorInvalidRole     ErrorCode = "InvalidRole"
	ErrorAlreadyExists   ErrorCode = "AlreadyExists"
	ErrorBadCredentials  ErrorCode = "BadCredentials"
	ErrorExpired         ErrorCode = "Expired"
	ErrorTimedOut        ErrorCode = "TimedOut"
	ErrorBlocked         ErrorCode = "Blocked"
	ErrorInvalidSettings ErrorCode = "InvalidSettings"
	ErrorInvalidToken    ErrorCode = "InvalidToken"
	ErrorForbidden       ErrorCode = "Forbidden"
	ErrorNoSuchUser      ErrorCode = "NoSuchUser"
	ErrorInternal        ErrorCode = "InternalError"
)

// APIError represents an error with its HTTP status and response code.
type APIError struct {
	// Code is the response error code.
	Code ErrorCode `json:"error"`

	// Message is the error message.
	Message string `json:"message"`

	// Reason names the failed password rule for WeakPassword errors.
	Reason domain.PasswordRejection `json:"reason,omitempty"`

	// HTTPStatus is the HTTP status code.
	HTTPStatus int `json:"-"`
}

func (e *APIError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewAPIError maps a service or domain error to its API representation.
// Unrecognized errors become a 500 with a generic message so persistence
// details never reach the client.
func NewAPIError(err error) *APIError {
	status := func(code ErrorCode, httpStatus int) *APIError {
		return &APIError{Code: code, Message: err.Error(), HTTPStatus: httpStatus}
	}

	switch {
	case errors.Is(err, domain.ErrWeakPassword):
		apiErr := status(ErrorWeakPassword, http.StatusBadRequest)
		if reason, ok := domain.RejectionReason(err); ok {
			apiErr.Reason = reason
		}
		return apiErr

	case errors.Is(err, domain.ErrInvalidRole):
		return status(ErrorInvalidRole, http.StatusBadRequest)

	case errors.Is(err, domain.ErrInvalidUsername):
		return status(ErrorBadRequest, http.StatusBadRequest)

	case errors.Is(err, domain.ErrUserAlreadyExists):
		return status(ErrorAlreadyExists, http.StatusBadRequest)

	case errors.Is(err, domain.ErrInvalidCredentials):
		return status(ErrorBadCredentials, http.StatusBadRequest)

	case errors.Is(err, domain.ErrPasswordExpired):
		return status(ErrorExpired, http.StatusBadRequest)

	case errors.Is(err, domain.ErrTimedOut):
		return status(ErrorTimedOut, http.StatusBadRequest)

	case errors.Is(err, domain.ErrBlocked):
		return status(ErrorBlocked, http.StatusBadRequest)

	case errors.Is(err, domain.ErrInvalidSettings):
		return status(ErrorInvalidSettings, http.StatusBadRequest)

	case errors.Is(err, ErrMissingToken), errors.Is(err, domain.ErrInvalidToken):
		apiErr := status(ErrorInvalidToken, http.StatusUnauthorized)
		if IsExpired(err) {
			apiErr.Message = "token expired"
		} else if errors.Is(err, domain.ErrInvalidToken) {
			apiErr.Message = domain.ErrInvalidToken.Error()
		}
		return apiErr

	case errors.Is(err, domain.ErrForbidden):
		return status(ErrorForbidden, http.StatusForbidden)

	case errors.Is(err, domain.ErrUserNotFound):
		return status(ErrorNoSuchUser, http.StatusNotFound)

	default:
		return &APIError{
			Code:       ErrorInternal,
			Message:    "internal server error",
			HTTPStatus: http.StatusInternalServerError,
		}
	}
}

// BadRequest builds a 400 for malformed input.
func BadRequest(message string) *APIError {
	return &APIError{Code: ErrorBadRequest, Message: message, HTTPStatus: http.StatusBadRequest}
}

// WriteError writes err as a JSON error response.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = NewAPIError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(apiErr)
}
