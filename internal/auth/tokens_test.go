package auth

import (
	"testing"
	"time"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
)

func testTokenService() *TokenService {
	return NewTokenService([]byte("test-secret"), 15*time.Minute, 7*24*time.Hour, 60*time.Second)
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	ts := testTokenService()

	token, exp, err := ts.IssueAccess("user-1", "mechanic@shop.com", "mechanic", "shop-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if time.Until(exp) > 16*time.Minute {
		t.Errorf("expiry too far in the future: %v", exp)
	}

	claims, err := ts.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "mechanic@shop.com" || claims.Role != "mechanic" || claims.ShopID != "shop-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenService_RefreshRoundTrip(t *testing.T) {
	ts := testTokenService()

	token, _, err := ts.IssueRefresh("user-2")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	claims, err := ts.VerifyRefreshSignature(token)
	if err != nil {
		t.Fatalf("VerifyRefreshSignature: %v", err)
	}
	if claims.UserID != "user-2" {
		t.Errorf("expected user-2, got %s", claims.UserID)
	}
}

func TestTokenService_ExpiredTokenIsRejected(t *testing.T) {
	ts := NewTokenService([]byte("test-secret"), -1*time.Minute, 7*24*time.Hour, 0)

	token, _, err := ts.IssueAccess("user-3", "a@b.com", "admin", "shop-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	_, err = ts.VerifyAccess(token)
	if err == nil {
		t.Fatal("expected an error for an already-expired token")
	}
	if errs.KindOf(err) != errs.Expired {
		t.Errorf("expected Kind Expired, got %s", errs.KindOf(err))
	}
}

func TestTokenService_WrongSecretIsRejected(t *testing.T) {
	issuer := NewTokenService([]byte("secret-a"), 15*time.Minute, time.Hour, 60*time.Second)
	verifier := NewTokenService([]byte("secret-b"), 15*time.Minute, time.Hour, 60*time.Second)

	token, _, err := issuer.IssueAccess("user-4", "a@b.com", "admin", "shop-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := verifier.VerifyAccess(token); err == nil {
		t.Fatal("expected verification to fail against a different secret")
	}
}

func TestTokenService_ClockSkewTolerance(t *testing.T) {
	// A token whose exp is 30s in the past still verifies under a 60s skew.
	ts := NewTokenService([]byte("test-secret"), -30*time.Second, time.Hour, 60*time.Second)

	token, _, err := ts.IssueAccess("user-5", "a@b.com", "mechanic", "shop-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := ts.VerifyAccess(token); err != nil {
		t.Errorf("expected token within clock skew to verify, got %v", err)
	}
}
