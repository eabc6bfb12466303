// Package apierr maps service errors to HTTP statuses and writes them as a
// flat JSON body: {"code": ..., "message": ...}.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mcoot/lostfound/internal/model"
	"github.com/mcoot/lostfound/internal/services/auth"
	"github.com/mcoot/lostfound/internal/services/token"
)

// APIError is the body of every error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeDuplicateAccount   = "DUPLICATE_ACCOUNT"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeItemNotFound       = "ITEM_NOT_FOUND"
	CodeDuplicateItem      = "DUPLICATE_ITEM"
	CodeRateLimited        = "RATE_LIMITED"
	CodeTimeout            = "TIMEOUT"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(he.apiError)
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return &httpError{http.StatusBadRequest, APIError{CodeValidation, validationMessage(err)}}
	case errors.Is(err, model.ErrDuplicateAccount):
		return &httpError{http.StatusBadRequest, APIError{CodeDuplicateAccount, "User already exists"}}
	case errors.Is(err, model.ErrAccountNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeAccountNotFound, "User not found"}}
	case errors.Is(err, model.ErrItemNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeItemNotFound, "Item not found"}}
	case errors.Is(err, model.ErrDuplicateItem):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateItem, "Item already exists"}}

	// A valid token whose account is gone is treated like no token
	case errors.Is(err, model.ErrUnknownReporter):
		return &httpError{http.StatusForbidden, APIError{CodeUnauthorized, "unauthorized"}}

	// Unknown email and wrong password must look the same
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusForbidden, APIError{CodeInvalidCredentials, "Invalid credentials"}}
	case errors.Is(err, token.ErrInvalidToken):
		return &httpError{http.StatusForbidden, APIError{CodeUnauthorized, "unauthorized"}}

	// Timeout first: a store call that ran out of time is also unavailable
	case errors.Is(err, model.ErrTimeout):
		return &httpError{http.StatusGatewayTimeout, APIError{CodeTimeout, "Request timed out"}}
	case errors.Is(err, model.ErrStoreUnavailable):
		return &httpError{http.StatusInternalServerError, APIError{CodeStoreUnavailable, "Database connection error"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// validationMessage drops the sentinel prefix and keeps the field details
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), model.ErrInvalidInput.Error()+": ")
	if msg == "" || msg == model.ErrInvalidInput.Error() {
		return "Invalid input"
	}
	return msg
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError is the gate's rejection
func NewUnauthorizedError() error {
	return &httpError{http.StatusForbidden, APIError{CodeUnauthorized, "unauthorized"}}
}

// NewRateLimitedError is returned when a client exceeds its request budget
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many requests, try again later"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
