// Package apperror defines the service error taxonomy with stable kinds
// and HTTP status mapping. Every failure is scoped to a single request;
// nothing here is fatal to the process.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an error for response formatting and metrics.
type Kind string

const (
	// KindValidation indicates missing or malformed input, rejected before storage (HTTP 400)
	KindValidation Kind = "validation"
	// KindDuplicate indicates the tenant or user already exists (HTTP 409)
	KindDuplicate Kind = "duplicate"
	// KindNotFound indicates an unknown tenant, user or application (HTTP 404)
	KindNotFound Kind = "not_found"
	// KindAuth indicates invalid credentials or an invalid/expired token (HTTP 401)
	KindAuth Kind = "auth"
	// KindConflict indicates a concurrent mutation was detected (HTTP 409)
	KindConflict Kind = "conflict"
	// KindUpstream indicates the metrics/log backend is unreachable or slow (HTTP 503).
	// Upstream errors are retryable by the caller; the service never retries internally.
	KindUpstream Kind = "upstream_unavailable"
	// KindInternal indicates a server-side error (HTTP 500)
	KindInternal Kind = "internal"
)

// Error is a structured error with a stable kind and human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindDuplicate, KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may usefully retry the request.
func (e *Error) Retryable() bool {
	return e.Kind == KindUpstream
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Duplicate(message string) *Error {
	return &Error{Kind: KindDuplicate, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Cause: cause}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// KindOf extracts the kind from any error, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
