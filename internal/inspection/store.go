package inspection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/models"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/database"
)

// Store is the C1 data-access surface for inspections, items, templates,
// and the vehicles they reference.
type Store struct {
	db *database.Store
}

// NewStore wraps the shared connection pool.
func NewStore(db *database.Store) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, q database.Queryer) error) error {
	return s.db.WithTx(ctx, fn)
}

// Pool returns a Queryer bound to the connection pool.
func (s *Store) Pool() database.Queryer { return s.db.DB() }

// GetVehicle looks up a vehicle by id.
func (s *Store) GetVehicle(ctx context.Context, q database.Queryer, id string) (*models.Vehicle, error) {
	var v models.Vehicle
	err := q.GetContext(ctx, &v, `SELECT * FROM vehicles WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, errs.New(errs.NotFound, "vehicle not found")
	}
	if err != nil {
		return nil, database.Translate(err)
	}
	return &v, nil
}

// NextSerial computes one more than the maximum serial previously
// issued for shop_id in the given UTC year, per spec §4.5.1. The
// caller must run this inside the same transaction as the subsequent
// insert so the retry-on-conflict policy at the service layer applies
// consistently.
func (s *Store) NextSerial(ctx context.Context, q database.Queryer, shopID string, year int) (int, error) {
	prefix := fmt.Sprintf("CI-%04d-", year)
	var max int
	err := q.GetContext(ctx, &max, `
		SELECT COALESCE(MAX(CAST(substring(inspection_number from 9) AS INTEGER)), 0)
		FROM inspections
		WHERE shop_id = $1 AND inspection_number LIKE $2`,
		shopID, prefix+"%")
	if err != nil {
		return 0, database.Translate(err)
	}
	return max + 1, nil
}

// InsertInspection writes a new inspection row. Translates a unique
// (shop_id, inspection_number) violation into errs.Conflict so the
// service layer's retry loop can distinguish it from other failures.
func (s *Store) InsertInspection(ctx context.Context, q database.Queryer, insp *models.Inspection) error {
	if insp.ID == "" {
		insp.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	insp.CreatedAt, insp.UpdatedAt = now, now

	_, err := q.ExecContext(ctx, `
		INSERT INTO inspections (
			id, shop_id, customer_id, vehicle_id, technician_id, inspection_number,
			inspection_type, status, notes, started_at, completed_at, sent_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		insp.ID, insp.ShopID, insp.CustomerID, insp.VehicleID, insp.TechnicianID, insp.InspectionNumber,
		insp.InspectionType, insp.Status, insp.Notes, insp.StartedAt, insp.CompletedAt, insp.SentAt,
		insp.CreatedAt, insp.UpdatedAt)
	if err != nil {
		translated := database.Translate(err)
		if database.IsUniqueViolation(translated, "inspections_shop_number_key") {
			return errs.New(errs.Conflict, "inspection number collision")
		}
		return translated
	}
	return nil
}

// GetInspection looks up an inspection by id.
func (s *Store) GetInspection(ctx context.Context, q database.Queryer, id string) (*models.Inspection, error) {
	var insp models.Inspection
	err := q.GetContext(ctx, &insp, `SELECT * FROM inspections WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, errs.New(errs.NotFound, "inspection not found")
	}
	if err != nil {
		return nil, database.Translate(err)
	}
	return &insp, nil
}

// UpdateInspectionStatus writes a new status and, when non-nil, one of
// the entry timestamps (started_at/completed_at/sent_at). Timestamps
// already set are never passed again by the service layer, so this
// never overwrites one.
func (s *Store) UpdateInspectionStatus(ctx context.Context, q database.Queryer, id string, status models.InspectionStatus, startedAt, completedAt, sentAt *time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE inspections
		SET status = $1,
		    started_at = COALESCE($2, started_at),
		    completed_at = COALESCE($3, completed_at),
		    sent_at = COALESCE($4, sent_at),
		    updated_at = $5
		WHERE id = $6`,
		status, startedAt, completedAt, sentAt, time.Now().UTC(), id)
	return database.Translate(err)
}

// UpdateNotes writes the free-text notes field on an inspection.
func (s *Store) UpdateNotes(ctx context.Context, q database.Queryer, id string, notes *string) error {
	_, err := q.ExecContext(ctx, `UPDATE inspections SET notes = $1, updated_at = $2 WHERE id = $3`,
		notes, time.Now().UTC(), id)
	return database.Translate(err)
}

// ListActiveTemplates returns every active template visible to shopID:
// global templates (shop_id IS NULL) plus the shop's own.
func (s *Store) ListActiveTemplates(ctx context.Context, q database.Queryer, shopID string) ([]models.InspectionItemTemplate, error) {
	var templates []models.InspectionItemTemplate
	err := q.SelectContext(ctx, &templates, `
		SELECT * FROM inspection_item_templates
		WHERE is_active = true AND (shop_id IS NULL OR shop_id = $1)
		ORDER BY category, component`, shopID)
	if err != nil {
		return nil, database.Translate(err)
	}
	return templates, nil
}

// CountItems reports how many items already exist for an inspection,
// used by InitializeItems to enforce its refuse-if-nonempty rule.
func (s *Store) CountItems(ctx context.Context, q database.Queryer, inspectionID string) (int, error) {
	var count int
	err := q.GetContext(ctx, &count, `SELECT count(*) FROM inspection_items WHERE inspection_id = $1`, inspectionID)
	if err != nil {
		return 0, database.Translate(err)
	}
	return count, nil
}

// InsertItem writes a new inspection item row.
func (s *Store) InsertItem(ctx context.Context, q database.Queryer, item *models.InspectionItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now

	_, err := q.ExecContext(ctx, `
		INSERT INTO inspection_items (
			id, inspection_id, category, component, status, condition,
			measurement_value, measurement_unit, notes, recommendations,
			estimated_cost, priority, requires_immediate_attention,
			checked_by, checked_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		item.ID, item.InspectionID, item.Category, item.Component, item.Status, item.Condition,
		item.MeasurementValue, item.MeasurementUnit, item.Notes, item.Recommendations,
		item.EstimatedCost, item.Priority, item.RequiresImmediateAttention,
		item.CheckedBy, item.CheckedAt, item.CreatedAt, item.UpdatedAt)
	return database.Translate(err)
}

// ListItems returns every item belonging to an inspection.
func (s *Store) ListItems(ctx context.Context, q database.Queryer, inspectionID string) ([]models.InspectionItem, error) {
	var items []models.InspectionItem
	err := q.SelectContext(ctx, &items, `
		SELECT * FROM inspection_items WHERE inspection_id = $1 ORDER BY category, component`, inspectionID)
	if err != nil {
		return nil, database.Translate(err)
	}
	return items, nil
}

// ListItemsFiltered returns the items belonging to an inspection that
// match f, narrowing ListItems' unconditional result to the subset the
// GET /inspections/:id/items query parameters request.
func (s *Store) ListItemsFiltered(ctx context.Context, q database.Queryer, inspectionID string, f ItemFilters) ([]models.InspectionItem, error) {
	where := `WHERE inspection_id = $1`
	args := []interface{}{inspectionID}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Category != nil {
		where += fmt.Sprintf(" AND category = %s", arg(*f.Category))
	}
	if f.Status != nil {
		where += fmt.Sprintf(" AND status = %s", arg(*f.Status))
	}
	if f.Condition != nil {
		where += fmt.Sprintf(" AND condition = %s", arg(*f.Condition))
	}
	if f.Priority != nil {
		where += fmt.Sprintf(" AND priority = %s", arg(*f.Priority))
	}

	var items []models.InspectionItem
	query := fmt.Sprintf(`SELECT * FROM inspection_items %s ORDER BY category, component`, where)
	if err := q.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, database.Translate(err)
	}
	return items, nil
}

// GetItem looks up a single item by id.
func (s *Store) GetItem(ctx context.Context, q database.Queryer, id string) (*models.InspectionItem, error) {
	var item models.InspectionItem
	err := q.GetContext(ctx, &item, `SELECT * FROM inspection_items WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, errs.New(errs.NotFound, "item not found")
	}
	if err != nil {
		return nil, database.Translate(err)
	}
	return &item, nil
}

// UpdateItem writes the full mutable portion of an item row back.
func (s *Store) UpdateItem(ctx context.Context, q database.Queryer, item *models.InspectionItem) error {
	item.UpdatedAt = time.Now().UTC()
	_, err := q.ExecContext(ctx, `
		UPDATE inspection_items
		SET status = $1, condition = $2, measurement_value = $3, measurement_unit = $4,
		    notes = $5, recommendations = $6, estimated_cost = $7, priority = $8,
		    requires_immediate_attention = $9, checked_by = $10, checked_at = $11, updated_at = $12
		WHERE id = $13`,
		item.Status, item.Condition, item.MeasurementValue, item.MeasurementUnit,
		item.Notes, item.Recommendations, item.EstimatedCost, item.Priority,
		item.RequiresImmediateAttention, item.CheckedBy, item.CheckedAt, item.UpdatedAt,
		item.ID)
	return database.Translate(err)
}

// DeleteItem removes a single item row by id.
func (s *Store) DeleteItem(ctx context.Context, q database.Queryer, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM inspection_items WHERE id = $1`, id)
	if err != nil {
		return database.Translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return database.Translate(err)
	}
	if n == 0 {
		return errs.New(errs.NotFound, "item not found")
	}
	return nil
}

// List returns a page of inspections matching filters plus the total
// matching row count (ignoring pagination), sorted by created_at DESC.
func (s *Store) List(ctx context.Context, q database.Queryer, f ListFilters, limit, offset int) ([]models.Inspection, int, error) {
	where := `WHERE shop_id = $1`
	args := []interface{}{f.ShopID}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != nil {
		where += fmt.Sprintf(" AND status = %s", arg(*f.Status))
	}
	if f.CreatedAfter != nil {
		where += fmt.Sprintf(" AND created_at >= %s", arg(*f.CreatedAfter))
	}
	if f.CreatedBefore != nil {
		where += fmt.Sprintf(" AND created_at <= %s", arg(*f.CreatedBefore))
	}

	var total int
	countArgs := append([]interface{}{}, args...)
	if err := q.GetContext(ctx, &total, `SELECT count(*) FROM inspections `+where, countArgs...); err != nil {
		return nil, 0, database.Translate(err)
	}

	limitPlaceholder := arg(limit)
	offsetPlaceholder := arg(offset)
	var rows []models.Inspection
	query := fmt.Sprintf(`SELECT * FROM inspections %s ORDER BY created_at DESC LIMIT %s OFFSET %s`,
		where, limitPlaceholder, offsetPlaceholder)
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, database.Translate(err)
	}
	return rows, total, nil
}
