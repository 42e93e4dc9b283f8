// Package inspection implements the inspection lifecycle core (C5):
// number generation, item template instantiation, per-item and bulk
// updates, status transitions, aggregate summaries, and shop-scoped
// listing, all under mandatory service-layer tenancy enforcement.
package inspection

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/models"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/database"
)

// maxNumberRetries bounds the number-generation retry loop on
// unique-constraint conflict, per spec §4.5.1.
const maxNumberRetries = 3

// Caller identifies the authenticated actor behind a request, carried
// by every service method so tenancy can be enforced here rather than
// only at the HTTP layer, per spec §4.5.9.
type Caller struct {
	UserID string
	Role   models.Role
	ShopID string
}

func (c Caller) isAdmin() bool { return c.Role == models.RoleAdmin }

// Service is the C5 component.
type Service struct {
	store *Store
}

// NewService builds the inspection service.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// authorizeShop enforces that caller may act on resources in shopID:
// admins may act on any shop, everyone else only their own.
func authorizeShop(caller Caller, shopID string) error {
	if caller.isAdmin() {
		return nil
	}
	if caller.ShopID != shopID {
		return errs.New(errs.Forbidden, "not authorized for this shop")
	}
	return nil
}

// CreateInput is the set of fields accepted by Create.
type CreateInput struct {
	VehicleID      string
	ShopID         string
	InspectionType *string
	Notes          *string
	Items          []CreateItemInput
}

// Create derives customer_id from the vehicle, generates a unique
// inspection number, and writes the inspection in status in_progress
// with started_at = now() and technician_id = caller, per spec §4.5.2.
func (s *Service) Create(ctx context.Context, caller Caller, in CreateInput) (*models.Inspection, error) {
	if err := authorizeShop(caller, in.ShopID); err != nil {
		return nil, err
	}

	vehicle, err := s.store.GetVehicle(ctx, s.store.Pool(), in.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.ShopID != in.ShopID {
		return nil, errs.Invalidf("vehicle does not belong to shop %q", in.ShopID).WithField("vehicle_id")
	}

	var created *models.Inspection
	now := time.Now().UTC()

	for attempt := 0; attempt <= maxNumberRetries; attempt++ {
		err = s.store.WithTx(ctx, func(ctx context.Context, q database.Queryer) error {
			serial, err := s.store.NextSerial(ctx, q, in.ShopID, now.Year())
			if err != nil {
				return err
			}
			insp := &models.Inspection{
				ShopID:           in.ShopID,
				CustomerID:       vehicle.CustomerID,
				VehicleID:        in.VehicleID,
				TechnicianID:     caller.UserID,
				InspectionNumber: fmt.Sprintf("CI-%04d-%06d", now.Year(), serial),
				InspectionType:   in.InspectionType,
				Status:           models.InspectionInProgress,
				Notes:            in.Notes,
				StartedAt:        &now,
			}
			if err := s.store.InsertInspection(ctx, q, insp); err != nil {
				return err
			}
			for _, itemIn := range in.Items {
				item := &models.InspectionItem{
					ID:           uuid.NewString(),
					InspectionID: insp.ID,
					Category:     itemIn.Category,
					Component:    itemIn.Component,
					Status:       models.ItemPending,
					Priority:     itemIn.Priority,
				}
				if err := s.store.InsertItem(ctx, q, item); err != nil {
					return err
				}
			}
			created = insp
			return nil
		})
		if err == nil {
			return created, nil
		}
		if errs.KindOf(err) != errs.Conflict {
			return nil, err
		}
		// Another concurrent Create in the same shop/year won the
		// serial race; retry with a freshly computed serial.
	}
	return nil, errs.Wrap(errs.Conflict, "could not allocate a unique inspection number", err)
}

// InitializeItems instantiates one item per active template visible to
// the inspection's shop. Refuses (Conflict) if any items already exist.
func (s *Service) InitializeItems(ctx context.Context, caller Caller, inspectionID string) (int, []models.InspectionItem, error) {
	var items []models.InspectionItem
	var count int

	err := s.store.WithTx(ctx, func(ctx context.Context, q database.Queryer) error {
		insp, err := s.store.GetInspection(ctx, q, inspectionID)
		if err != nil {
			return err
		}
		if err := authorizeShop(caller, insp.ShopID); err != nil {
			return err
		}

		existing, err := s.store.CountItems(ctx, q, inspectionID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return errs.New(errs.Conflict, "items already initialized for this inspection")
		}

		templates, err := s.store.ListActiveTemplates(ctx, q, insp.ShopID)
		if err != nil {
			return err
		}

		for _, tpl := range templates {
			item := &models.InspectionItem{
				ID:           uuid.NewString(),
				InspectionID: inspectionID,
				Category:     tpl.Category,
				Component:    tpl.Component,
				Status:       models.ItemPending,
				Priority:     tpl.DefaultPriority,
			}
			if err := s.store.InsertItem(ctx, q, item); err != nil {
				return err
			}
			items = append(items, *item)
		}
		count = len(items)
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return count, items, nil
}

// CreateItemInput is the set of fields accepted by CreateItem for
// adding a single ad-hoc item outside template initialization.
type CreateItemInput struct {
	Category  string
	Component string
	Priority  int
}

// CreateItem appends one item to an inspection's checklist, enforcing
// tenancy and the terminal-state rule. Unlike InitializeItems this
// never refuses on a nonempty checklist; it's for adding a single
// item a template didn't anticipate.
func (s *Service) CreateItem(ctx context.Context, caller Caller, inspectionID string, in CreateItemInput) (*models.InspectionItem, error) {
	var created *models.InspectionItem

	err := s.store.WithTx(ctx, func(ctx context.Context, q database.Queryer) error {
		insp, err := s.store.GetInspection(ctx, q, inspectionID)
		if err != nil {
			return err
		}
		if err := authorizeShop(caller, insp.ShopID); err != nil {
			return err
		}
		if isTerminal(insp.Status) {
			return errs.New(errs.Conflict, "inspection is in a terminal state")
		}

		item := &models.InspectionItem{
			ID:           uuid.NewString(),
			InspectionID: inspectionID,
			Category:     in.Category,
			Component:    in.Component,
			Status:       models.ItemPending,
			Priority:     in.Priority,
		}
		if err := s.store.InsertItem(ctx, q, item); err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteItem removes a single item from an inspection, enforcing
// tenancy, item membership, and the terminal-state rule.
func (s *Service) DeleteItem(ctx context.Context, caller Caller, inspectionID, itemID string) error {
	return s.store.WithTx(ctx, func(ctx context.Context, q database.Queryer) error {
		insp, err := s.store.GetInspection(ctx, q, inspectionID)
		if err != nil {
			return err
		}
		if err := authorizeShop(caller, insp.ShopID); err != nil {
			return err
		}
		if isTerminal(insp.Status) {
			return errs.New(errs.Conflict, "inspection is in a terminal state")
		}

		item, err := s.store.GetItem(ctx, q, itemID)
		if err != nil {
			return err
		}
		if item.InspectionID != inspectionID {
			return errs.New(errs.NotFound, "item not found on this inspection")
		}
		return s.store.DeleteItem(ctx, q, itemID)
	})
}

// ItemPatch is the subset of mutable item fields accepted by
// UpdateItem/BulkUpdateItems. A nil pointer leaves the field unchanged.
type ItemPatch struct {
	ItemID                     string
	Status                     *models.ItemStatus
	Condition                  *models.ItemCondition
	MeasurementValue           *float64
	MeasurementUnit            *string
	Notes                      *string
	Recommendations            *string
	EstimatedCost              *float64
	Priority                   *int
	RequiresImmediateAttention *bool
}

// applyPatch mutates item in place per the checked-transition stamping
// rule: entering "checked" stamps checked_by/checked_at; leaving it
// clears both. Other fields pass through verbatim.
func applyPatch(item *models.InspectionItem, patch ItemPatch, callerID string) {
	wasChecked := item.Status == models.ItemChecked
	if patch.Status != nil {
		item.Status = *patch.Status
	}
	nowChecked := item.Status == models.ItemChecked

	if !wasChecked && nowChecked {
		now := time.Now().UTC()
		item.CheckedBy = &callerID
		item.CheckedAt = &now
	} else if wasChecked && !nowChecked {
		item.CheckedBy = nil
		item.CheckedAt = nil
	}

	if patch.Condition != nil {
		item.Condition = patch.Condition
	}
	if patch.MeasurementValue != nil {
		item.MeasurementValue = patch.MeasurementValue
	}
	if patch.MeasurementUnit != nil {
		item.MeasurementUnit = patch.MeasurementUnit
	}
	if patch.Notes != nil {
		item.Notes = patch.Notes
	}
	if patch.Recommendations != nil {
		item.Recommendations = patch.Recommendations
	}
	if patch.EstimatedCost != nil {
		item.EstimatedCost = patch.EstimatedCost
	}
	if patch.Priority != nil {
		item.Priority = *patch.Priority
	}
	if patch.RequiresImmediateAttention != nil {
		item.RequiresImmediateAttention = *patch.RequiresImmediateAttention
	}
}

// isTerminal reports whether an inspection accepts no further item
// edits, per spec §4.5.4 ("Conflict if inspection is in a terminal
// state"). sent and archived are terminal; draft/in_progress/completed
// still accept edits (a completed inspection can still be corrected
// before it is sent).
func isTerminal(status models.InspectionStatus) bool {
	return status == models.InspectionSent || status == models.InspectionArchived
}

// UpdateItem applies a single patch, enforcing tenancy, item membership,
// and the terminal-state rule.
func (s *Service) UpdateItem(ctx context.Context, caller Caller, inspectionID string, patch ItemPatch) (*models.InspectionItem, error) {
	var updated *models.InspectionItem

	err := s.store.WithTx(ctx, func(ctx context.Context, q database.Queryer) error {
		insp, err := s.store.GetInspection(ctx, q, inspectionID)
		if err != nil {
			return err
		}
		if err := authorizeShop(caller, insp.ShopID); err != nil {
			return err
		}
		if isTerminal(insp.Status) {
			return errs.New(errs.Conflict, "inspection is in a terminal state")
		}

		item, err := s.store.GetItem(ctx, q, patch.ItemID)
		if err != nil {
			return err
		}
		if item.InspectionID != inspectionID {
			return errs.New(errs.NotFound, "item not found on this inspection")
		}

		applyPatch(item, patch, caller.UserID)
		if err := s.store.UpdateItem(ctx, q, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BulkUpdateItems validates that every patch targets an item belonging
// to the inspection before applying any of them, then applies all or
// none, per spec §4.5.5.
func (s *Service) BulkUpdateItems(ctx context.Context, caller Caller, inspectionID string, patches []ItemPatch) ([]models.InspectionItem, *Summary, error) {
	var updated []models.InspectionItem
	var summary *Summary

	err := s.store.WithTx(ctx, func(ctx context.Context, q database.Queryer) error {
		insp, err := s.store.GetInspection(ctx, q, inspectionID)
		if err != nil {
			return err
		}
		if err := authorizeShop(caller, insp.ShopID); err != nil {
			return err
		}
		if isTerminal(insp.Status) {
			return errs.New(errs.Conflict, "inspection is in a terminal state")
		}

		items := make([]*models.InspectionItem, 0, len(patches))
		for _, patch := range patches {
			item, err := s.store.GetItem(ctx, q, patch.ItemID)
			if err != nil || item.InspectionID != inspectionID {
				return errs.Invalidf("item %q does not belong to this inspection", patch.ItemID).WithField("item_id")
			}
			items = append(items, item)
		}

		for i, patch := range patches {
			applyPatch(items[i], patch, caller.UserID)
			if err := s.store.UpdateItem(ctx, q, items[i]); err != nil {
				return err
			}
			updated = append(updated, *items[i])
		}

		all, err := s.store.ListItems(ctx, q, inspectionID)
		if err != nil {
			return err
		}
		computed := computeSummary(all)
		summary = &computed
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, summary, nil
}

// Summary is the aggregate spec §4.5.6 describes.
type Summary struct {
	Total                     int            `json:"total"`
	ByStatus                  map[string]int `json:"byStatus"`
	ByCondition               map[string]int `json:"byCondition"`
	RequiresImmediateAttention int           `json:"requiresImmediateAttention"`
	CompletionPercentage      float64        `json:"completionPercentage"`
}

func computeSummary(items []models.InspectionItem) Summary {
	sum := Summary{
		ByStatus:    make(map[string]int),
		ByCondition: make(map[string]int),
	}
	sum.Total = len(items)
	var completed int
	for _, item := range items {
		sum.ByStatus[string(item.Status)]++
		if item.Condition != nil {
			sum.ByCondition[string(*item.Condition)]++
		} else {
			sum.ByCondition["null"]++
		}
		if item.RequiresImmediateAttention {
			sum.RequiresImmediateAttention++
		}
		if item.Status != models.ItemPending {
			completed++
		}
	}
	if sum.Total == 0 {
		sum.CompletionPercentage = 0
	} else {
		pct := float64(completed) / float64(sum.Total) * 100
		sum.CompletionPercentage = math.Round(pct*100) / 100
	}
	return sum
}

// Get returns a single inspection, enforcing tenancy.
func (s *Service) Get(ctx context.Context, caller Caller, inspectionID string) (*models.Inspection, error) {
	insp, err := s.store.GetInspection(ctx, s.store.Pool(), inspectionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeShop(caller, insp.ShopID); err != nil {
		return nil, err
	}
	return insp, nil
}

// ItemFilters narrows Items to a subset of an inspection's checklist,
// per the query parameters GET /inspections/:id/items documents.
type ItemFilters struct {
	Category  *string
	Status    *models.ItemStatus
	Condition *models.ItemCondition
	Priority  *int
}

// Items returns the checklist items belonging to an inspection matching
// f (all fields optional; a nil field imposes no constraint).
func (s *Service) Items(ctx context.Context, caller Caller, inspectionID string, f ItemFilters) ([]models.InspectionItem, error) {
	insp, err := s.store.GetInspection(ctx, s.store.Pool(), inspectionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeShop(caller, insp.ShopID); err != nil {
		return nil, err
	}
	return s.store.ListItemsFiltered(ctx, s.store.Pool(), inspectionID, f)
}

// Summary computes the aggregate for a single inspection.
func (s *Service) Summary(ctx context.Context, caller Caller, inspectionID string) (*Summary, error) {
	insp, err := s.store.GetInspection(ctx, s.store.Pool(), inspectionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeShop(caller, insp.ShopID); err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(ctx, s.store.Pool(), inspectionID)
	if err != nil {
		return nil, err
	}
	sum := computeSummary(items)
	return &sum, nil
}

// allowedTransitions enumerates the single linear path spec §4.5.8
// permits. Any pair not listed here fails Conflict.
var allowedTransitions = map[models.InspectionStatus]models.InspectionStatus{
	models.InspectionDraft:      models.InspectionInProgress,
	models.InspectionInProgress: models.InspectionCompleted,
	models.InspectionCompleted:  models.InspectionSent,
	models.InspectionSent:       models.InspectionArchived,
}

// Transition moves an inspection to newStatus, stamping the
// corresponding entry timestamp exactly once.
func (s *Service) Transition(ctx context.Context, caller Caller, inspectionID string, newStatus models.InspectionStatus) (*models.Inspection, error) {
	var updated *models.Inspection

	err := s.store.WithTx(ctx, func(ctx context.Context, q database.Queryer) error {
		insp, err := s.store.GetInspection(ctx, q, inspectionID)
		if err != nil {
			return err
		}
		if err := authorizeShop(caller, insp.ShopID); err != nil {
			return err
		}
		if allowedTransitions[insp.Status] != newStatus {
			return errs.New(errs.Conflict, fmt.Sprintf("cannot transition from %s to %s", insp.Status, newStatus))
		}

		now := time.Now().UTC()
		var started, completed, sent *time.Time
		switch newStatus {
		case models.InspectionInProgress:
			started = &now
		case models.InspectionCompleted:
			completed = &now
		case models.InspectionSent:
			sent = &now
		}
		if err := s.store.UpdateInspectionStatus(ctx, q, inspectionID, newStatus, started, completed, sent); err != nil {
			return err
		}

		insp.Status = newStatus
		if started != nil {
			insp.StartedAt = started
		}
		if completed != nil {
			insp.CompletedAt = completed
		}
		if sent != nil {
			insp.SentAt = sent
		}
		updated = insp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateNotes rewrites an inspection's free-text notes field, enforcing
// tenancy and the terminal-state rule. Status transitions are handled
// separately by Transition, since notes may change independently of
// status per the PUT /inspections/:id contract.
func (s *Service) UpdateNotes(ctx context.Context, caller Caller, inspectionID string, notes *string) (*models.Inspection, error) {
	var updated *models.Inspection

	err := s.store.WithTx(ctx, func(ctx context.Context, q database.Queryer) error {
		insp, err := s.store.GetInspection(ctx, q, inspectionID)
		if err != nil {
			return err
		}
		if err := authorizeShop(caller, insp.ShopID); err != nil {
			return err
		}
		if isTerminal(insp.Status) {
			return errs.New(errs.Conflict, "inspection is in a terminal state")
		}
		if err := s.store.UpdateNotes(ctx, q, inspectionID, notes); err != nil {
			return err
		}
		insp.Notes = notes
		updated = insp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Page is the paginated result shape spec §4.5.7 describes.
type Page struct {
	Rows  []models.Inspection `json:"rows"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Total int                 `json:"total"`
	Pages int                 `json:"pages"`
}

// ListFilters narrows a listing request; an empty ShopID defaults to the
// caller's own shop, and a non-admin naming another shop gets Forbidden.
type ListFilters struct {
	ShopID        string
	Status        *models.InspectionStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// List returns a shop-scoped, paginated, filtered set of inspections,
// per spec §4.5.7. limit is clamped to [1,100]; page is clamped to >= 1.
func (s *Service) List(ctx context.Context, caller Caller, f ListFilters, page, limit int) (*Page, error) {
	shopID := f.ShopID
	if shopID == "" {
		shopID = caller.ShopID
	}
	if err := authorizeShop(caller, shopID); err != nil {
		return nil, err
	}

	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}

	rows, total, err := s.store.List(ctx, s.store.Pool(), ListFilters{
		ShopID:        shopID,
		Status:        f.Status,
		CreatedAfter:  f.CreatedAfter,
		CreatedBefore: f.CreatedBefore,
	}, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	pages := 1
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}

	return &Page{Rows: rows, Page: page, Limit: limit, Total: total, Pages: pages}, nil
}
