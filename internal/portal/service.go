// Package portal implements the portal token core (C8): minting and
// verifying capability tokens that grant read-only access to one
// inspection's redacted projection, and serving that projection.
//
// Tokens are signed, URL-safe JWTs (never unsigned base64), resolving
// the open question flagged against the source's "portal:<id>" scheme.
package portal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/auth"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/inspection"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/models"
)

// DefaultTTL is the 30-day default from spec §4.8.
const DefaultTTL = 30 * 24 * time.Hour

// Claims is the payload of a portal token: {inspection_id, exp}. A
// fixed "typ":"portal" custom claim keeps it from being confused
// with an access or refresh token signed by the same secret.
type Claims struct {
	InspectionID string `json:"inspection_id"`
	Typ          string `json:"typ"`
	jwt.RegisteredClaims
}

// Service is the C8 component.
type Service struct {
	store       *Store
	inspections *inspection.Store
	signer      *auth.Signer
	ttl         time.Duration
}

// NewService builds the portal service. ttl <= 0 defaults to DefaultTTL.
func NewService(store *Store, inspections *inspection.Store, secret []byte, ttl time.Duration, clockSkew time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:       store,
		inspections: inspections,
		signer:      auth.NewSigner(secret, clockSkew),
		ttl:         ttl,
	}
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// authorizeShop duplicates the tenancy check inspection.Service applies
// internally; portal lives in a separate package so it can't reuse the
// unexported helper, but the rule is the same one from spec §4.5.9.
func authorizeShop(caller inspection.Caller, shopID string) error {
	if caller.Role == models.RoleAdmin {
		return nil
	}
	if caller.ShopID != shopID {
		return errs.New(errs.Forbidden, "not authorized for this shop")
	}
	return nil
}

// Mint issues a portal token bound to inspectionID, provided it exists
// and belongs to the caller's shop (or caller is admin).
func (s *Service) Mint(ctx context.Context, caller inspection.Caller, inspectionID string) (string, time.Time, error) {
	insp, err := s.inspections.GetInspection(ctx, s.inspections.Pool(), inspectionID)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := authorizeShop(caller, insp.ShopID); err != nil {
		return "", time.Time{}, err
	}

	now := time.Now().UTC()
	exp := now.Add(s.ttl)
	claims := Claims{
		InspectionID: inspectionID,
		Typ:          "portal",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   inspectionID,
		},
	}
	token, err := s.signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, errs.Wrap(errs.Internal, "failed to sign portal token", err)
	}

	if err := s.store.InsertToken(ctx, s.store.Pool(), &models.PortalToken{
		InspectionID: inspectionID,
		TokenDigest:  digest(token),
		ExpiresAt:    exp,
	}); err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Verify validates a portal token cryptographically and against the
// persisted revocation record, returning the bound inspection id.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	claims := &Claims{}
	if err := s.signer.Parse(token, claims); err != nil {
		return "", err
	}
	if claims.Typ != "portal" {
		return "", errs.New(errs.Invalid, "invalid portal token")
	}

	rec, err := s.store.GetByDigest(ctx, s.store.Pool(), digest(token))
	if err != nil {
		return "", err
	}
	if rec.Revoked {
		return "", errs.New(errs.Revoked, "portal token revoked")
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		return "", errs.New(errs.Expired, "portal token expired")
	}
	return claims.InspectionID, nil
}

// Revoke marks every token minted for inspectionID as revoked.
func (s *Service) Revoke(ctx context.Context, inspectionID string) error {
	return s.store.Revoke(ctx, s.store.Pool(), inspectionID)
}

// ProjectedItem is one item row in the public projection.
type ProjectedItem struct {
	Category        string   `json:"category"`
	Component       string   `json:"component"`
	Status          string   `json:"status"`
	Condition       *string  `json:"condition,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
	Recommendation  *string  `json:"recommendation,omitempty"`
	EstimatedCost   *float64 `json:"estimatedCost,omitempty"`
}

// ProjectedSummary is the counts block spec §4.8 describes.
type ProjectedSummary struct {
	TotalItems  int `json:"totalItems"`
	OkItems     int `json:"okItems"`
	IssueItems  int `json:"issueItems"`
	UrgentItems int `json:"urgentItems"`
}

// Projection is the redacted public view of one inspection.
type Projection struct {
	InspectionNumber string           `json:"inspectionNumber"`
	Status           string           `json:"status"`
	StartedAt        *time.Time       `json:"startedAt,omitempty"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty"`
	SentAt           *time.Time       `json:"sentAt,omitempty"`
	VehicleYear      int              `json:"vehicleYear"`
	VehicleMake      string           `json:"vehicleMake"`
	VehicleModel     string           `json:"vehicleModel"`
	VehiclePlate     *string          `json:"vehiclePlate,omitempty"`
	CustomerName     string           `json:"customerName"`
	CustomerPhone    string           `json:"customerPhone"`
	ShopName         string           `json:"shopName"`
	ShopPhone        *string          `json:"shopPhone,omitempty"`
	TechnicianName   string           `json:"technicianName"`
	Items            []ProjectedItem  `json:"items"`
	Summary          ProjectedSummary `json:"summary"`
}

// ReadProjection assembles the redacted public view of an inspection.
// It never reads or returns shop_id, checked_by, or any internal user
// id other than the technician's name.
func (s *Service) ReadProjection(ctx context.Context, inspectionID string) (*Projection, error) {
	q := s.store.Pool()

	row, err := s.store.GetProjectionRow(ctx, q, inspectionID)
	if err != nil {
		return nil, err
	}
	itemRows, err := s.store.ListProjectionItems(ctx, q, inspectionID)
	if err != nil {
		return nil, err
	}

	items := make([]ProjectedItem, 0, len(itemRows))
	summary := ProjectedSummary{}
	for _, r := range itemRows {
		items = append(items, ProjectedItem{
			Category:       r.Category,
			Component:      r.Component,
			Status:         r.Status,
			Condition:      r.Condition,
			Notes:          r.Notes,
			Recommendation: r.Recommendations,
			EstimatedCost:  r.EstimatedCost,
		})
		summary.TotalItems++
		ok := r.Condition != nil && *r.Condition == "green"
		switch {
		case ok:
			summary.OkItems++
		default:
			summary.IssueItems++
		}
		if r.RequiresImmediateAttention {
			summary.UrgentItems++
		}
	}

	return &Projection{
		InspectionNumber: row.InspectionNumber,
		Status:           row.Status,
		StartedAt:        row.StartedAt,
		CompletedAt:      row.CompletedAt,
		SentAt:           row.SentAt,
		VehicleYear:      row.VehicleYear,
		VehicleMake:      row.VehicleMake,
		VehicleModel:     row.VehicleModel,
		VehiclePlate:     row.VehiclePlate,
		CustomerName:     row.CustomerName,
		CustomerPhone:    row.CustomerPhone,
		ShopName:         row.ShopName,
		ShopPhone:        row.ShopPhone,
		TechnicianName:   row.TechnicianName,
		Items:            items,
		Summary:          summary,
	}, nil
}
