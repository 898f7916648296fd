package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/creaturegame/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeNotFound             = "NOT_FOUND"
	CodeProfileInconsistency = "PROFILE_INCONSISTENCY"
	CodeTransportFailure     = "TRANSPORT_FAILURE"
	CodeRateLimited          = "RATE_LIMITED"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the status WriteError would use for err
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Session lookups are authentication failures, not missing resources
	if errors.Is(err, model.ErrSessionNotFound) {
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	}

	switch model.KindOf(err) {
	case model.KindInvalidInput:
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidInput, model.Message(err, "Invalid input")}}
	case model.KindInvalidCredentials:
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case model.KindAlreadyExists:
		return &httpError{http.StatusConflict, APIError{CodeAlreadyExists, model.Message(err, "Already exists")}}
	case model.KindNotFound:
		return &httpError{http.StatusNotFound, APIError{CodeNotFound, model.Message(err, "Not found")}}
	case model.KindProfileInconsistency:
		return &httpError{http.StatusConflict, APIError{CodeProfileInconsistency, "Signed in but no profile exists"}}
	case model.KindUnauthenticated:
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Sign in required"}}
	case model.KindTransportFailure:
		return &httpError{http.StatusServiceUnavailable, APIError{CodeTransportFailure, "Backend unavailable, please retry"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewRateLimitedError creates a too-many-requests error
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Rate limit exceeded, please try again later"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
