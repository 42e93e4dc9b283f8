package auth

import (
	"context"
	"testing"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/models"
)

// These validation paths return before the service touches the store,
// so a nil *Store is safe here; anything that reaches the database is
// covered by internal/httpapi's build-tagged Postgres integration
// suite (go test -tags="integration postgres"), run against a real
// instance with DATABASE_URL set.
func registerService() *Service {
	return NewService(nil, NewPasswordHasher(4), testTokenService())
}

func TestService_Register_RejectsMalformedEmail(t *testing.T) {
	s := registerService()
	_, err := s.Register(context.Background(), "not-an-email", "longenoughpw1", "Jane Mechanic", models.RoleMechanic, "shop-1")
	if errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid, got %v (%v)", errs.KindOf(err), err)
	}
}

func TestService_Register_RejectsWeakPassword(t *testing.T) {
	s := registerService()
	_, err := s.Register(context.Background(), "jane@shop.com", "short", "Jane Mechanic", models.RoleMechanic, "shop-1")
	if errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid, got %v (%v)", errs.KindOf(err), err)
	}
}

func TestService_Register_RejectsMissingFullName(t *testing.T) {
	s := registerService()
	_, err := s.Register(context.Background(), "jane@shop.com", "longenoughpw1", "   ", models.RoleMechanic, "shop-1")
	if errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid, got %v (%v)", errs.KindOf(err), err)
	}
}

func TestService_Register_RejectsUnknownRole(t *testing.T) {
	s := registerService()
	_, err := s.Register(context.Background(), "jane@shop.com", "longenoughpw1", "Jane Mechanic", models.Role("owner"), "shop-1")
	if errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid, got %v (%v)", errs.KindOf(err), err)
	}
}

func TestService_ChangePassword_RejectsWeakNewPassword(t *testing.T) {
	s := registerService()
	err := s.ChangePassword(context.Background(), "user-1", "whatever", "short")
	if errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid, got %v (%v)", errs.KindOf(err), err)
	}
}

func TestService_Register_RejectsPasswordWithoutDigit(t *testing.T) {
	s := registerService()
	_, err := s.Register(context.Background(), "jane@shop.com", "nodigitshere", "Jane Mechanic", models.RoleMechanic, "shop-1")
	if errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid, got %v (%v)", errs.KindOf(err), err)
	}
}

func TestService_Register_RejectsPasswordWithoutLetter(t *testing.T) {
	s := registerService()
	_, err := s.Register(context.Background(), "jane@shop.com", "13579246", "Jane Mechanic", models.RoleMechanic, "shop-1")
	if errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid, got %v (%v)", errs.KindOf(err), err)
	}
}

func TestService_Register_RejectsCommonWeakPassword(t *testing.T) {
	s := registerService()
	_, err := s.Register(context.Background(), "jane@shop.com", "password1", "Jane Mechanic", models.RoleMechanic, "shop-1")
	if errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid for 'password1', got %v (%v)", errs.KindOf(err), err)
	}
}

func TestValidatePassword_RejectsDigitSuffixedCommonPassword(t *testing.T) {
	if err := validatePassword("qwerty123", ""); errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid for digit-suffixed common password, got %v", err)
	}
}

func TestValidatePassword_RejectsEmailLocalPartVariant(t *testing.T) {
	if err := validatePassword("janesmith1", "janesmith1"); errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid for exact local-part match, got %v", err)
	}
	if err := validatePassword("janesmith12", "janesmith"); errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid for local-part plus trailing digits, got %v", err)
	}
	if err := validatePassword("unrelated99", "janesmith"); err != nil {
		t.Fatalf("expected nil for unrelated password, got %v", err)
	}
}
