package sms

import (
	"strings"
	"testing"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
)

func TestRender_SubstitutesAllPlaceholders(t *testing.T) {
	r, err := Render("inspection_complete", map[string]string{
		"customer_name": "Jane",
		"vehicle":       "2019 Honda Civic",
		"shop_name":     "Joe's Garage",
		"link":          "https://portal.example.com/abc",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(r.Message, "{") {
		t.Errorf("expected all placeholders substituted, got %q", r.Message)
	}
	if r.TemplateName != "inspection_complete" {
		t.Errorf("unexpected template name %q", r.TemplateName)
	}
}

func TestRender_LengthMatchesMessageLength(t *testing.T) {
	r, err := Render("thank_you", map[string]string{
		"customer_name": "Jane",
		"shop_name":     "Joe's Garage",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r.Length != len([]rune(r.Message)) {
		t.Errorf("Length %d does not match code-point count %d", r.Length, len([]rune(r.Message)))
	}
	if r.Valid != (r.Length <= 160) {
		t.Errorf("Valid %v inconsistent with length %d", r.Valid, r.Length)
	}
}

func TestRender_MissingPlaceholderFailsInvalid(t *testing.T) {
	_, err := Render("inspection_complete", map[string]string{
		"customer_name": "Jane",
	})
	if errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid, got %v (%v)", errs.KindOf(err), err)
	}
}

func TestRender_UnknownTemplateFailsInvalid(t *testing.T) {
	_, err := Render("does_not_exist", map[string]string{})
	if errs.KindOf(err) != errs.Invalid {
		t.Fatalf("expected Invalid, got %v (%v)", errs.KindOf(err), err)
	}
}

func TestRender_LongMessageIsInvalid(t *testing.T) {
	r, err := Render("follow_up", map[string]string{
		"customer_name": strings.Repeat("Jane ", 40),
		"shop_name":     "Joe's Garage",
		"shop_phone":    "555-0100",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r.Valid {
		t.Errorf("expected a >160 code point message to be invalid, got length %d", r.Length)
	}
}

func TestNames_IncludesAllEnumeratedTemplates(t *testing.T) {
	want := []string{"inspection_complete", "service_recommended", "appointment_reminder", "thank_you", "follow_up"}
	got := Names()
	for _, w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected Names() to include %q, got %v", w, got)
		}
	}
}
