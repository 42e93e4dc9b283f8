package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/models"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/database"
)

// Store is the C1 data-access surface for users and sessions. It is
// constructed over the shared database.Store and accepts an explicit
// database.Queryer on every call so it works identically inside or
// outside a transaction.
type Store struct {
	db *database.Store
}

// NewStore wraps the shared connection pool.
func NewStore(db *database.Store) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a transaction, delegating to the shared Store.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, q database.Queryer) error) error {
	return s.db.WithTx(ctx, fn)
}

// Pool returns a Queryer bound to the connection pool, for callers that
// don't need an explicit transaction.
func (s *Store) Pool() database.Queryer { return s.db.DB() }

// CreateUser inserts a new user row. Translates a unique-email
// violation into errs.AlreadyExists.
func (s *Store) CreateUser(ctx context.Context, q database.Queryer, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, shop_id, email, password_hash, full_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.ShopID, strings.ToLower(u.Email), u.PasswordHash, u.FullName, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		translated := database.Translate(err)
		if database.IsUniqueViolation(translated, "users_email_key") {
			return errs.New(errs.AlreadyExists, "email already registered")
		}
		return translated
	}
	return nil
}

// GetUserByEmail looks up a user by case-insensitive email. Returns
// errs.NotFound when no row matches.
func (s *Store) GetUserByEmail(ctx context.Context, q database.Queryer, email string) (*models.User, error) {
	var u models.User
	err := q.GetContext(ctx, &u, `SELECT * FROM users WHERE lower(email) = lower($1)`, email)
	if database.IsNoRows(err) {
		return nil, errs.New(errs.NotFound, "user not found")
	}
	if err != nil {
		return nil, database.Translate(err)
	}
	return &u, nil
}

// GetUserByID looks up a user by id.
func (s *Store) GetUserByID(ctx context.Context, q database.Queryer, id string) (*models.User, error) {
	var u models.User
	err := q.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, errs.New(errs.NotFound, "user not found")
	}
	if err != nil {
		return nil, database.Translate(err)
	}
	return &u, nil
}

// UpdatePasswordHash rewrites a user's password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, q database.Queryer, userID, hash string) error {
	_, err := q.ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		hash, time.Now().UTC(), userID)
	return database.Translate(err)
}

// CreateSession inserts a new refresh-token session row.
func (s *Store) CreateSession(ctx context.Context, q database.Queryer, sess *models.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.CreatedAt = time.Now().UTC()
	_, err := q.ExecContext(ctx, `
		INSERT INTO user_sessions (id, user_id, refresh_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, sess.UserID, sess.RefreshToken, sess.ExpiresAt, sess.CreatedAt)
	return database.Translate(err)
}

// GetSessionByToken looks up a session row by its refresh token string.
func (s *Store) GetSessionByToken(ctx context.Context, q database.Queryer, token string) (*models.Session, error) {
	var sess models.Session
	err := q.GetContext(ctx, &sess, `SELECT * FROM user_sessions WHERE refresh_token = $1`, token)
	if database.IsNoRows(err) {
		return nil, errs.New(errs.NotFound, "session not found")
	}
	if err != nil {
		return nil, database.Translate(err)
	}
	return &sess, nil
}

// DeleteSessionByToken removes a single session row by token. Never
// errors on "no such row": deleting a token that has no session
// returns nil, so Logout is best-effort.
func (s *Store) DeleteSessionByToken(ctx context.Context, q database.Queryer, token string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, token)
	return database.Translate(err)
}

// DeleteSessionsByUser removes every session row for a user, used by
// ChangePassword to invalidate all previously issued refresh tokens.
func (s *Store) DeleteSessionsByUser(ctx context.Context, q database.Queryer, userID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID)
	return database.Translate(err)
}
