package auth

import (
	"context"
	"regexp"
	"strings"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/models"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/database"
)

// minPasswordLength is the weak-password floor from spec §6: any
// shorter password fails Register/ChangePassword with errs.Invalid.
const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var hasLetter = regexp.MustCompile(`[A-Za-z]`)
var hasDigit = regexp.MustCompile(`[0-9]`)

// rejectedPasswords are the common weak passwords spec §6.2 names
// outright, checked case-insensitively.
var rejectedPasswords = map[string]bool{
	"password": true,
	"123456":   true,
	"qwerty":   true,
}

// validatePassword enforces spec §6.2's policy: at least 8 characters,
// at least one letter and one digit, not a common weak password, and
// not a simple variant of the account's own email local-part (the
// local-part itself, or the local-part with trailing digits, matched
// case-insensitively).
func validatePassword(password, emailLocalPart string) error {
	if len(password) < minPasswordLength {
		return errs.Invalidf("password must be at least %d characters", minPasswordLength).WithField("password")
	}
	if !hasLetter.MatchString(password) || !hasDigit.MatchString(password) {
		return errs.Invalidf("password must contain at least one letter and one digit").WithField("password")
	}
	lower := strings.ToLower(password)
	trimmed := strings.TrimRight(lower, "0123456789")
	if rejectedPasswords[lower] || rejectedPasswords[trimmed] {
		return errs.Invalidf("password is too common").WithField("password")
	}
	if emailLocalPart != "" {
		local := strings.ToLower(emailLocalPart)
		if lower == local || trimmed == local {
			return errs.Invalidf("password must not be based on your email address").WithField("password")
		}
	}
	return nil
}

// emailLocalPart returns the portion of an already-normalized email
// address before the '@', used to reject password variants of it.
func emailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

// Tokens is the pair returned by Login and Refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Service is the C4 component: orchestrates the PasswordHasher (C2),
// TokenService (C3), and Store (C1) behind Register/Login/Refresh/
// Logout/ChangePassword.
type Service struct {
	store  *Store
	hasher *PasswordHasher
	tokens *TokenService
}

// NewService builds the auth service.
func NewService(store *Store, hasher *PasswordHasher, tokens *TokenService) *Service {
	return &Service{store: store, hasher: hasher, tokens: tokens}
}

// Register creates a new user. Fails AlreadyExists if the email is
// taken, Invalid if the email is malformed or the password too weak.
func (s *Service) Register(ctx context.Context, email, password, fullName string, role models.Role, shopID string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailPattern.MatchString(email) {
		return nil, errs.Invalidf("invalid email address").WithField("email")
	}
	if err := validatePassword(password, emailLocalPart(email)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, errs.Invalidf("full name is required").WithField("full_name")
	}
	switch role {
	case models.RoleAdmin, models.RoleShopManager, models.RoleMechanic:
	default:
		return nil, errs.Invalidf("unknown role %q", role).WithField("role")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to hash password", err)
	}

	user := &models.User{
		ShopID:       shopID,
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, s.store.Pool(), user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and issues a token pair. Unknown email and
// mismatched password are both reported as the same Unauthenticated
// error with the same message, making the two cases indistinguishable
// to the caller per spec §4.4. The password comparison always runs
// (against a fixed dummy hash when the user doesn't exist) so the two
// paths take equivalent time.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, *Tokens, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.store.GetUserByEmail(ctx, s.store.Pool(), email)
	if err != nil && errs.KindOf(err) != errs.NotFound {
		return nil, nil, err
	}

	hash := dummyHash
	valid := user != nil && user.IsActive
	if user != nil {
		hash = user.PasswordHash
	}
	passwordOK := s.hasher.Verify(password, hash)

	if !valid || !passwordOK {
		return nil, nil, errs.New(errs.Unauthenticated, "invalid email or password")
	}

	access, _, err := s.tokens.IssueAccess(user.ID, user.Email, string(user.Role), user.ShopID)
	if err != nil {
		return nil, nil, errs.Wrap(errs.Internal, "failed to issue access token", err)
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, nil, errs.Wrap(errs.Internal, "failed to issue refresh token", err)
	}

	if err := s.store.CreateSession(ctx, s.store.Pool(), &models.Session{
		UserID:       user.ID,
		RefreshToken: refresh,
		ExpiresAt:    refreshExp,
	}); err != nil {
		return nil, nil, err
	}

	cleaned := *user
	cleaned.PasswordHash = ""
	return &cleaned, &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// dummyHash is a fixed bcrypt hash checked when no user exists, so
// Login's failure path always pays the same bcrypt cost regardless of
// whether the email was registered.
const dummyHash = "$2a$10$C6UzMDM.H6dfI/f/IKcEeO8WS1gP2tT2RHTJ0I3zQ8z9v0y5yq6Sm"

// Refresh verifies a refresh token cryptographically and against the
// persisted session, then rotates it atomically: the old session row is
// deleted and a new one inserted in the same transaction per spec §4.3.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := s.tokens.VerifyRefreshSignature(refreshToken)
	if err != nil {
		return nil, errs.New(errs.Unauthenticated, "invalid refresh token")
	}

	var out *Tokens
	err = s.store.WithTx(ctx, func(ctx context.Context, q database.Queryer) error {
		sess, err := s.store.GetSessionByToken(ctx, q, refreshToken)
		if err != nil {
			return errs.New(errs.Unauthenticated, "invalid refresh token")
		}
		if sess.UserID != claims.UserID {
			return errs.New(errs.Unauthenticated, "invalid refresh token")
		}

		user, err := s.store.GetUserByID(ctx, q, sess.UserID)
		if err != nil {
			return errs.New(errs.Unauthenticated, "invalid refresh token")
		}

		if err := s.store.DeleteSessionByToken(ctx, q, refreshToken); err != nil {
			return err
		}

		access, _, err := s.tokens.IssueAccess(user.ID, user.Email, string(user.Role), user.ShopID)
		if err != nil {
			return errs.Wrap(errs.Internal, "failed to issue access token", err)
		}
		newRefresh, newExp, err := s.tokens.IssueRefresh(user.ID)
		if err != nil {
			return errs.Wrap(errs.Internal, "failed to issue refresh token", err)
		}
		if err := s.store.CreateSession(ctx, q, &models.Session{
			UserID:       user.ID,
			RefreshToken: newRefresh,
			ExpiresAt:    newExp,
		}); err != nil {
			return err
		}

		out = &Tokens{AccessToken: access, RefreshToken: newRefresh}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Logout deletes the matching session row. It never fails visibly: a
// missing or already-expired token is treated as already logged out.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	_ = s.store.DeleteSessionByToken(ctx, s.store.Pool(), refreshToken)
}

// ChangePassword verifies the current password, rewrites the hash, and
// invalidates every session belonging to the user, all atomically.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	// Checked before touching the store: length/charset/common-word
	// rules don't depend on the account, so a malformed new password
	// never needs a round trip. The email-variant rule (which does need
	// the account's own address) is re-checked once the user is loaded.
	if err := validatePassword(newPassword, ""); err != nil {
		return err
	}

	return s.store.WithTx(ctx, func(ctx context.Context, q database.Queryer) error {
		user, err := s.store.GetUserByID(ctx, q, userID)
		if err != nil {
			return errs.New(errs.Unauthenticated, "invalid credentials")
		}
		if !s.hasher.Verify(current, user.PasswordHash) {
			return errs.New(errs.Unauthenticated, "invalid credentials")
		}
		if err := validatePassword(newPassword, emailLocalPart(user.Email)); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return errs.Wrap(errs.Internal, "failed to hash password", err)
		}
		if err := s.store.UpdatePasswordHash(ctx, q, userID, hash); err != nil {
			return err
		}
		return s.store.DeleteSessionsByUser(ctx, q, userID)
	})
}
