package portal

import (
	"testing"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/inspection"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/models"
)

func TestDigest_DeterministicAndDistinct(t *testing.T) {
	a := digest("token-a")
	b := digest("token-a")
	c := digest("token-b")
	if a != b {
		t.Error("expected digest to be deterministic for the same input")
	}
	if a == c {
		t.Error("expected distinct inputs to produce distinct digests")
	}
}

func TestAuthorizeShop_SameShopAllowed(t *testing.T) {
	caller := inspection.Caller{UserID: "u1", Role: models.RoleMechanic, ShopID: "shop-1"}
	if err := authorizeShop(caller, "shop-1"); err != nil {
		t.Errorf("expected same-shop access to be allowed, got %v", err)
	}
}

func TestAuthorizeShop_CrossShopForbidden(t *testing.T) {
	caller := inspection.Caller{UserID: "u1", Role: models.RoleMechanic, ShopID: "shop-1"}
	err := authorizeShop(caller, "shop-2")
	if errs.KindOf(err) != errs.Forbidden {
		t.Fatalf("expected Forbidden, got %v (%v)", errs.KindOf(err), err)
	}
}

func TestAuthorizeShop_AdminBypassesTenancy(t *testing.T) {
	caller := inspection.Caller{UserID: "admin", Role: models.RoleAdmin, ShopID: "shop-1"}
	if err := authorizeShop(caller, "shop-2"); err != nil {
		t.Errorf("expected admin to bypass tenancy, got %v", err)
	}
}

func TestSummary_OkIssueUrgentClassification(t *testing.T) {
	green := "green"
	red := "red"
	itemRows := []ProjectionItemRow{
		{Status: "checked", Condition: &green},
		{Status: "checked", Condition: &red, RequiresImmediateAttention: true},
		{Status: "pending", Condition: nil},
	}
	summary := ProjectedSummary{}
	for _, r := range itemRows {
		summary.TotalItems++
		ok := r.Condition != nil && *r.Condition == "green"
		if ok {
			summary.OkItems++
		} else {
			summary.IssueItems++
		}
		if r.RequiresImmediateAttention {
			summary.UrgentItems++
		}
	}
	if summary.TotalItems != 3 || summary.OkItems != 1 || summary.IssueItems != 2 || summary.UrgentItems != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}
