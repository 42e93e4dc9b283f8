package portal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/models"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/database"
)

// Store is the C1 data-access surface for minted portal tokens and the
// joined read model ReadProjection needs.
type Store struct {
	db *database.Store
}

// NewStore wraps the shared connection pool.
func NewStore(db *database.Store) *Store {
	return &Store{db: db}
}

// Pool returns a Queryer bound to the connection pool.
func (s *Store) Pool() database.Queryer { return s.db.DB() }

// InsertToken persists a minted token's digest, inspection binding, and
// expiry.
func (s *Store) InsertToken(ctx context.Context, q database.Queryer, t *models.PortalToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()
	_, err := q.ExecContext(ctx, `
		INSERT INTO portal_tokens (id, inspection_id, token_digest, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.InspectionID, t.TokenDigest, t.ExpiresAt, t.Revoked, t.CreatedAt)
	return database.Translate(err)
}

// GetByDigest looks up a token record by its digest.
func (s *Store) GetByDigest(ctx context.Context, q database.Queryer, digest string) (*models.PortalToken, error) {
	var t models.PortalToken
	err := q.GetContext(ctx, &t, `SELECT * FROM portal_tokens WHERE token_digest = $1`, digest)
	if database.IsNoRows(err) {
		return nil, errs.New(errs.Invalid, "invalid portal token")
	}
	if err != nil {
		return nil, database.Translate(err)
	}
	return &t, nil
}

// Revoke marks every non-revoked token bound to inspectionID as
// revoked.
func (s *Store) Revoke(ctx context.Context, q database.Queryer, inspectionID string) error {
	_, err := q.ExecContext(ctx, `UPDATE portal_tokens SET revoked = true WHERE inspection_id = $1`, inspectionID)
	return database.Translate(err)
}

// ProjectionRow is the flat join result backing ReadProjection. Split
// across the inspection, vehicle, customer, shop, and technician
// tables, carrying only the fields spec §4.8 allows through.
type ProjectionRow struct {
	InspectionNumber string     `db:"inspection_number"`
	Status           string     `db:"status"`
	StartedAt        *time.Time `db:"started_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	SentAt           *time.Time `db:"sent_at"`
	VehicleYear      int        `db:"vehicle_year"`
	VehicleMake      string     `db:"vehicle_make"`
	VehicleModel     string     `db:"vehicle_model"`
	VehiclePlate     *string    `db:"vehicle_plate"`
	CustomerName     string     `db:"customer_name"`
	CustomerPhone    string     `db:"customer_phone"`
	ShopName         string     `db:"shop_name"`
	ShopPhone        *string    `db:"shop_phone"`
	TechnicianName   string     `db:"technician_name"`
}

// GetProjectionRow loads the joined, redacted-by-construction fields
// for one inspection (no shop_id, no internal user ids are selected).
func (s *Store) GetProjectionRow(ctx context.Context, q database.Queryer, inspectionID string) (*ProjectionRow, error) {
	var row ProjectionRow
	err := q.GetContext(ctx, &row, `
		SELECT
			i.inspection_number  AS inspection_number,
			i.status             AS status,
			i.started_at         AS started_at,
			i.completed_at       AS completed_at,
			i.sent_at            AS sent_at,
			v.year               AS vehicle_year,
			v.make               AS vehicle_make,
			v.model              AS vehicle_model,
			v.license_plate      AS vehicle_plate,
			(c.first_name || ' ' || c.last_name) AS customer_name,
			c.phone              AS customer_phone,
			s.name               AS shop_name,
			s.phone              AS shop_phone,
			u.full_name          AS technician_name
		FROM inspections i
		JOIN vehicles v ON v.id = i.vehicle_id
		JOIN customers c ON c.id = i.customer_id
		JOIN shops s ON s.id = i.shop_id
		JOIN users u ON u.id = i.technician_id
		WHERE i.id = $1`, inspectionID)
	if database.IsNoRows(err) {
		return nil, errs.New(errs.NotFound, "inspection not found")
	}
	if err != nil {
		return nil, database.Translate(err)
	}
	return &row, nil
}

// ProjectionItemRow is one item row projected for the public view.
type ProjectionItemRow struct {
	Category                   string   `db:"category"`
	Component                  string   `db:"component"`
	Status                     string   `db:"status"`
	Condition                  *string  `db:"condition"`
	Notes                      *string  `db:"notes"`
	Recommendations            *string  `db:"recommendations"`
	EstimatedCost              *float64 `db:"estimated_cost"`
	RequiresImmediateAttention bool     `db:"requires_immediate_attention"`
}

// ListProjectionItems returns every item for inspectionID projected to
// only the public fields, plus requires_immediate_attention for the
// summary's urgentItems count (never serialized to the client per item).
func (s *Store) ListProjectionItems(ctx context.Context, q database.Queryer, inspectionID string) ([]ProjectionItemRow, error) {
	var rows []ProjectionItemRow
	err := q.SelectContext(ctx, &rows, `
		SELECT category, component, status, condition, notes, recommendations, estimated_cost, requires_immediate_attention
		FROM inspection_items
		WHERE inspection_id = $1
		ORDER BY category, component`, inspectionID)
	if err != nil {
		return nil, database.Translate(err)
	}
	return rows, nil
}
