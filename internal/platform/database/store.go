package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Queryer is implemented by both *sqlx.DB and *sqlx.Tx, so a caller
// written against Queryer works unmodified whether or not it runs
// inside a transaction, per spec §4.1 ("a handle indistinguishable from
// the pool handle").
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var (
	_ Queryer = (*sqlx.DB)(nil)
	_ Queryer = (*sqlx.Tx)(nil)
)

// Store is the C1 data-access surface. All service-layer stores embed or
// wrap it rather than reaching for *sql.DB directly.
type Store struct {
	db *sqlx.DB
}

// New wraps an open connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying pool handle, e.g. for migrations.
func (s *Store) DB() *sqlx.DB { return s.db }

// Exec runs a statement against the pool (not inside any transaction).
// Parameterization is mandatory; callers must never interpolate user
// input into query.
func (s *Store) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	return res, Translate(err)
}

// Query runs a multi-row query against the pool and scans into dest
// (a pointer to a slice of structs/values).
func (s *Store) Query(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return Translate(s.db.SelectContext(ctx, dest, query, args...))
}

// QueryOne runs a single-row query against the pool and scans into dest.
// Returns ErrNoRows (via Translate) when no row matches.
func (s *Store) QueryOne(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return Translate(s.db.GetContext(ctx, dest, query, args...))
}

// WithTx runs fn inside a database transaction. fn receives a Queryer
// that is call-compatible with the pool handle. The transaction commits
// if fn returns nil and rolls back (discarding the rollback error, since
// the original error is what matters to the caller) otherwise. Panics
// inside fn are recovered, rolled back, and re-panicked so a bug never
// leaves an open transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, q Queryer) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Translate(err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return Translate(err)
	}
	if err = tx.Commit(); err != nil {
		return Translate(err)
	}
	return nil
}

// HealthCheck verifies connectivity with the underlying database.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Now returns the database server's current time, used by the health
// endpoint to report connectivity plus clock.
func (s *Store) Now(ctx context.Context) (sql.NullTime, error) {
	var t sql.NullTime
	err := s.db.GetContext(ctx, &t, `SELECT now()`)
	return t, Translate(err)
}
