// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// ── Domain error kinds ───────────────────────────────────────────────────────
// Services return *Error values whose Kind is one of these sentinels.
// Handlers map the kind to an HTTP status with StatusFor.

var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrSessionConflict        = errors.New("cash session conflict")

	ErrSessionAlreadyOpen   = fmt.Errorf("%w: session already open", ErrSessionConflict)
	ErrSessionClosed        = fmt.Errorf("%w: session closed", ErrSessionConflict)
	ErrSessionAlreadyClosed = fmt.Errorf("%w: session already closed", ErrSessionConflict)

	// ErrUpstream marks failures of external collaborators (document lookup).
	ErrUpstream = errors.New("upstream unavailable")
)

// Error is a domain error carrying a user-facing detail message.
type Error struct {
	Kind   error
	Detail string
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Kind }

// E builds a domain error of the given kind.
func E(kind error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Ef is E with fmt.Sprintf formatting.
func Ef(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Validation builds an ErrValidation error naming the offending fields.
func Validation(detail string, fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Detail: detail, Fields: fields}
}

// StatusFor maps an error to its HTTP status code. Unknown errors are 500.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidStateTransition),
		errors.Is(err, ErrSessionConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Body returns the JSON envelope for err. Internal errors never expose their
// message unless exposeInternal is set (development mode).
func Body(err error, exposeInternal bool) any {
	var de *Error
	if !errors.As(err, &de) {
		if exposeInternal {
			return New(err.Error())
		}
		return New("Error interno del servidor")
	}
	if errors.Is(de.Kind, ErrValidation) && len(de.Fields) > 0 {
		return &ValidationError{Detail: de.Error(), Fields: de.Fields}
	}
	return New(de.Error())
}
