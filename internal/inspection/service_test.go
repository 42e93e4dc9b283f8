package inspection

import (
	"testing"
	"time"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/models"
)

func strPtr(s string) *string         { return &s }
func statusPtr(s models.ItemStatus) *models.ItemStatus { return &s }

func TestAuthorizeShop_SameShopAllowed(t *testing.T) {
	caller := Caller{UserID: "u1", Role: models.RoleMechanic, ShopID: "shop-1"}
	if err := authorizeShop(caller, "shop-1"); err != nil {
		t.Errorf("expected same-shop access to be allowed, got %v", err)
	}
}

func TestAuthorizeShop_CrossShopForbidden(t *testing.T) {
	caller := Caller{UserID: "u1", Role: models.RoleMechanic, ShopID: "shop-1"}
	err := authorizeShop(caller, "shop-2")
	if errs.KindOf(err) != errs.Forbidden {
		t.Fatalf("expected Forbidden, got %v (%v)", errs.KindOf(err), err)
	}
}

func TestAuthorizeShop_AdminBypassesTenancy(t *testing.T) {
	caller := Caller{UserID: "admin", Role: models.RoleAdmin, ShopID: "shop-1"}
	if err := authorizeShop(caller, "shop-2"); err != nil {
		t.Errorf("expected admin to bypass tenancy, got %v", err)
	}
}

func TestApplyPatch_EnteringCheckedStampsCallerAndTime(t *testing.T) {
	item := &models.InspectionItem{Status: models.ItemPending}
	before := time.Now().UTC()

	applyPatch(item, ItemPatch{Status: statusPtr(models.ItemChecked), Notes: strPtr("glazed")}, "mechanic-1")

	if item.CheckedBy == nil || *item.CheckedBy != "mechanic-1" {
		t.Errorf("expected CheckedBy to be stamped, got %v", item.CheckedBy)
	}
	if item.CheckedAt == nil || item.CheckedAt.Before(before) {
		t.Errorf("expected CheckedAt to be stamped to now, got %v", item.CheckedAt)
	}
	if item.Notes == nil || *item.Notes != "glazed" {
		t.Errorf("expected notes to pass through, got %v", item.Notes)
	}
}

func TestApplyPatch_LeavingCheckedClearsStamp(t *testing.T) {
	checkedAt := time.Now().UTC()
	checkedBy := "mechanic-1"
	item := &models.InspectionItem{
		Status:    models.ItemChecked,
		CheckedBy: &checkedBy,
		CheckedAt: &checkedAt,
	}

	applyPatch(item, ItemPatch{Status: statusPtr(models.ItemPending)}, "mechanic-1")

	if item.CheckedBy != nil {
		t.Errorf("expected CheckedBy to be cleared, got %v", *item.CheckedBy)
	}
	if item.CheckedAt != nil {
		t.Errorf("expected CheckedAt to be cleared, got %v", *item.CheckedAt)
	}
}

func TestApplyPatch_StayingCheckedDoesNotRestamp(t *testing.T) {
	checkedAt := time.Now().UTC().Add(-time.Hour)
	checkedBy := "mechanic-1"
	item := &models.InspectionItem{
		Status:    models.ItemChecked,
		CheckedBy: &checkedBy,
		CheckedAt: &checkedAt,
	}

	applyPatch(item, ItemPatch{Notes: strPtr("still glazed")}, "mechanic-2")

	if item.CheckedBy == nil || *item.CheckedBy != "mechanic-1" {
		t.Errorf("expected CheckedBy to remain unchanged, got %v", item.CheckedBy)
	}
	if item.CheckedAt == nil || !item.CheckedAt.Equal(checkedAt) {
		t.Errorf("expected CheckedAt to remain unchanged, got %v", item.CheckedAt)
	}
}

func TestComputeSummary_EmptyIsZeroPercent(t *testing.T) {
	sum := computeSummary(nil)
	if sum.Total != 0 || sum.CompletionPercentage != 0 {
		t.Errorf("expected zero total and percentage, got %+v", sum)
	}
}

func TestComputeSummary_CountsAndPercentage(t *testing.T) {
	yellow := models.ConditionYellow
	items := []models.InspectionItem{
		{Status: models.ItemChecked, Condition: &yellow},
		{Status: models.ItemChecked, Condition: nil},
		{Status: models.ItemPending, Condition: nil, RequiresImmediateAttention: true},
		{Status: models.ItemNotApplicable, Condition: nil},
	}
	sum := computeSummary(items)

	if sum.Total != 4 {
		t.Errorf("expected total 4, got %d", sum.Total)
	}
	if sum.ByStatus["checked"] != 2 || sum.ByStatus["pending"] != 1 || sum.ByStatus["not_applicable"] != 1 {
		t.Errorf("unexpected status counts: %+v", sum.ByStatus)
	}
	if sum.ByCondition["yellow"] != 1 || sum.ByCondition["null"] != 3 {
		t.Errorf("unexpected condition counts: %+v", sum.ByCondition)
	}
	if sum.RequiresImmediateAttention != 1 {
		t.Errorf("expected 1 item requiring immediate attention, got %d", sum.RequiresImmediateAttention)
	}
	// 3 of 4 items are not pending -> 75.00%
	if sum.CompletionPercentage != 75 {
		t.Errorf("expected 75%% completion, got %v", sum.CompletionPercentage)
	}
}

func TestIsTerminal(t *testing.T) {
	cases := map[models.InspectionStatus]bool{
		models.InspectionDraft:      false,
		models.InspectionInProgress: false,
		models.InspectionCompleted:  false,
		models.InspectionSent:       true,
		models.InspectionArchived:   true,
	}
	for status, want := range cases {
		if got := isTerminal(status); got != want {
			t.Errorf("isTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestAllowedTransitions_OnlyLinearPath(t *testing.T) {
	cases := []struct {
		from models.InspectionStatus
		to   models.InspectionStatus
		ok   bool
	}{
		{models.InspectionDraft, models.InspectionInProgress, true},
		{models.InspectionInProgress, models.InspectionCompleted, true},
		{models.InspectionCompleted, models.InspectionSent, true},
		{models.InspectionSent, models.InspectionArchived, true},
		{models.InspectionDraft, models.InspectionCompleted, false},
		{models.InspectionArchived, models.InspectionDraft, false},
		{models.InspectionInProgress, models.InspectionDraft, false},
	}
	for _, c := range cases {
		got := allowedTransitions[c.from] == c.to
		if got != c.ok {
			t.Errorf("%s -> %s: got allowed=%v, want %v", c.from, c.to, got, c.ok)
		}
	}
}
