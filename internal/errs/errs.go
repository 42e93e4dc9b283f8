// Package errs provides the unified error taxonomy used across every
// service layer. Services never return driver- or store-specific errors
// to their callers; they translate at the boundary into one of these
// kinds, and the HTTP surface maps Kind to a status code in exactly one
// place (HTTPStatus below).
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the taxonomy from spec §7. It is language-neutral by design:
// every service speaks in terms of these ten values only.
type Kind string

const (
	Invalid         Kind = "invalid"
	Unauthenticated Kind = "unauthenticated"
	Forbidden       Kind = "forbidden"
	NotFound        Kind = "not_found"
	Conflict        Kind = "conflict"
	AlreadyExists   Kind = "already_exists"
	Expired         Kind = "expired"
	Revoked         Kind = "revoked"
	Timeout         Kind = "timeout"
	Internal        Kind = "internal"
)

// Error is a typed, wrapped error carrying a taxonomy Kind plus an
// optional field name (for Invalid errors that name a missing/bad
// field) and an underlying cause that is never surfaced to clients.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an underlying cause.
// Error() appends the cause's message, for server-side logs; the
// client-facing text is Message alone. The cause is also reachable via
// errors.Unwrap.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithField annotates an Invalid error with the offending field name,
// used by the SMS renderer and request validators to name what failed.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

func Invalidf(format string, args ...interface{}) *Error {
	return New(Invalid, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...interface{}) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...interface{}) *Error {
	return New(Conflict, fmt.Sprintf(format, args...))
}

func Unauthenticatedf(format string, args ...interface{}) *Error {
	return New(Unauthenticated, fmt.Sprintf(format, args...))
}

func Forbiddenf(format string, args ...interface{}) *Error {
	return New(Forbidden, fmt.Sprintf(format, args...))
}

// KindOf extracts the Kind of err, defaulting to Internal when err is
// not one of ours. A nil err also reports Internal, so callers check
// err == nil first.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err (or something it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a taxonomy Kind to the HTTP status spec §7 requires.
// This is the single place that mapping lives.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Invalid:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict, AlreadyExists:
		return http.StatusConflict
	case Expired, Revoked:
		return http.StatusUnauthorized
	case Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
