package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
)

// AccessClaims is the payload of an access token: {user_id, email, role,
// shop_id, exp}, per spec §4.3.
type AccessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	ShopID string `json:"shop_id"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token: {user_id, exp}.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Signer mints and validates HS256 JWTs against a single process-wide
// secret, with a configurable clock-skew tolerance on verification. It
// underlies both the access/refresh token service (C3) and the portal
// token core (C8), which signs a distinct claims type with the same
// secret and machinery.
type Signer struct {
	secret    []byte
	clockSkew time.Duration
}

// NewSigner builds a Signer. clockSkew <= 0 defaults to 60s per spec §4.3.
func NewSigner(secret []byte, clockSkew time.Duration) *Signer {
	if clockSkew <= 0 {
		clockSkew = 60 * time.Second
	}
	return &Signer{secret: secret, clockSkew: clockSkew}
}

// Sign returns a compact JWT string for claims.
func (s *Signer) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse parses tokenString into claims (a pointer to a jwt.Claims
// implementation), verifying the HS256 signature and expiry within the
// configured clock skew. It returns a taxonomy error: Expired when the
// token's exp has passed beyond the skew tolerance, Invalid otherwise.
func (s *Signer) Parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithLeeway(s.clockSkew))
	if err != nil {
		if isExpired(err) {
			return errs.New(errs.Expired, "token expired")
		}
		return errs.Wrap(errs.Invalid, "invalid token", err)
	}
	if !token.Valid {
		return errs.New(errs.Invalid, "invalid token")
	}
	return nil
}

func isExpired(err error) bool {
	return errIsKind(err, jwt.ErrTokenExpired)
}

func errIsKind(err error, target error) bool {
	for err != nil {
		if err == target {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// TokenService is the C3 component: issues and verifies access and
// refresh tokens. Refresh issuance/rotation against persisted sessions
// lives in Service (C4), which calls IssueRefresh/VerifyRefreshSignature
// here and then reconciles against the Store.
type TokenService struct {
	signer     *Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService builds a TokenService with the given TTLs (spec
// defaults: 15m access, 7d refresh).
func NewTokenService(secret []byte, accessTTL, refreshTTL, clockSkew time.Duration) *TokenService {
	return &TokenService{
		signer:     NewSigner(secret, clockSkew),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess mints a signed access token for the given identity.
func (t *TokenService) IssueAccess(userID, email, role, shopID string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(t.accessTTL)
	claims := AccessClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		ShopID: shopID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   userID,
		},
	}
	signed, err := t.signer.Sign(claims)
	return signed, exp, err
}

// IssueRefresh mints a signed refresh token for userID. The caller (C4)
// is responsible for persisting the returned string as a Session row.
func (t *TokenService) IssueRefresh(userID string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(t.refreshTTL)
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   userID,
		},
	}
	signed, err := t.signer.Sign(claims)
	return signed, exp, err
}

// VerifyAccess validates an access token cryptographically and returns
// its claims.
func (t *TokenService) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.signer.Parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshSignature validates a refresh token's signature and
// expiry only; it does not consult the Session store (the caller, C4,
// does that as a separate step per spec §4.3).
func (t *TokenService) VerifyRefreshSignature(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := t.signer.Parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// AccessTTL and RefreshTTL expose configured lifetimes, e.g. for the
// portal token core to derive its own TTL from a shared clock-skew but
// independent expiry window.
func (t *TokenService) AccessTTL() time.Duration  { return t.accessTTL }
func (t *TokenService) RefreshTTL() time.Duration { return t.refreshTTL }
