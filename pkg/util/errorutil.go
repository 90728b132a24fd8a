package util

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthRequired signals that the backend rejected our credentials.
// It is fatal for the session: callers must not retry, and the session
// layer clears credentials and fires the login redirect exactly once.
var ErrAuthRequired = errors.New("authentication required")

// ErrRefreshInFlight is returned when a full refresh is requested while
// another one is still running. The request is skipped, never queued.
var ErrRefreshInFlight = errors.New("refresh already in flight")

// ErrMissingID marks a backend payload that carries no identifier.
var ErrMissingID = errors.New("payload has no identifier")

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return &DomainError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
		Err:        ErrAuthRequired,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewRecoverable wraps a failure the admin may retry manually, such as a
// backend fetch that exhausted its retries. Rendered as a dismissible
// banner by the UI.
func NewRecoverable(message string, err error) error {
	return &DomainError{
		Code:       "BACKEND_UNAVAILABLE",
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	switch {
	case errors.Is(err, ErrAuthRequired):
		de, _ := NewUnauthorized("session expired").(*DomainError)
		de.Err = err
		return de
	case errors.Is(err, ErrRefreshInFlight):
		de, _ := NewConflict("refresh already in flight", nil).(*DomainError)
		de.Err = err
		return de
	case errors.Is(err, ErrMissingID):
		de, _ := NewValidationError("malformed payload", nil).(*DomainError)
		de.Err = err
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
