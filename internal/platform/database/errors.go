package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// ConstraintError carries the name of the violated database constraint so
// service-layer callers can translate it into the taxonomy (e.g. the
// "users_email_key" unique constraint becomes errs.AlreadyExists).
type ConstraintError struct {
	Constraint string
	Code       string
	Err        error
}

func (e *ConstraintError) Error() string { return e.Err.Error() }
func (e *ConstraintError) Unwrap() error { return e.Err }

// Postgres error class codes (https://www.postgresql.org/docs/current/errcodes-appendix.html).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// Translate converts a raw driver/sql error into a typed storage error.
// Unique/foreign-key/check violations become *ConstraintError; a missing
// row from QueryRowContext/Get becomes ErrNoRows (re-exported below);
// anything else (including context cancellation) passes through
// unchanged so callers can distinguish retryable connection failures.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class().String() {
		case "23": // integrity constraint violation
			return &ConstraintError{Constraint: pqErr.Constraint, Code: string(pqErr.Code), Err: err}
		}
	}
	return err
}

// ErrNoRows is returned (wrapped) when a query expected exactly one row
// and found none. It is a synonym for sql.ErrNoRows kept here so callers
// depend only on this package, not database/sql directly.
var ErrNoRows = sql.ErrNoRows

// IsNoRows reports whether err is (or wraps) ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, ErrNoRows)
}

// IsUniqueViolation reports whether err is a unique-constraint violation,
// optionally narrowed to a specific constraint name (pass "" to match any).
func IsUniqueViolation(err error, constraint string) bool {
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		return false
	}
	if ce.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || ce.Constraint == constraint
}

// IsRetryable reports whether err looks like a transient connection
// failure worth retrying at a higher layer (spec §4.1).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class().String() {
		case "08": // connection exception
			return true
		}
	}
	return false
}
