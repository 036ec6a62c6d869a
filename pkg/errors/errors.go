package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed error whose Message is safe to show to the card holder.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so clones compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrInvalidCredentials      = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "Incorrect credentials. Use your school password.")
	ErrLoginFailed             = New("LOGIN_FAILED", http.StatusUnauthorized, "Login failed: Unknown error")
	ErrUpstreamInvalidResponse = New("UPSTREAM_INVALID_RESPONSE", http.StatusBadGateway, "Server returned an invalid response. Please try again.")
	ErrUpstreamUnavailable     = New("UPSTREAM_UNAVAILABLE", http.StatusBadGateway, "An unexpected error occurred. Try again later.")
	ErrSessionNotFound         = New("SESSION_NOT_FOUND", http.StatusUnauthorized, "session expired, please log in again")
	ErrUnauthorized            = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrNotFound                = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation              = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrExportFailed            = New("EXPORT_FAILED", http.StatusInternalServerError, "Failed to download image. Please try again.")
	ErrAvatarUnavailable       = New("AVATAR_UNAVAILABLE", http.StatusServiceUnavailable, "avatar is not ready yet")
	ErrRateLimited             = New("RATE_LIMITED", http.StatusTooManyRequests, "too many login attempts, slow down")
	ErrInternal                = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss               = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
