// Package models holds the entity structs shared across stores and
// services: Shop, User, Session, Customer, Vehicle, Inspection,
// InspectionItem, and InspectionItemTemplate, per spec §3.
package models

import "time"

// Role enumerates the three user roles spec §3 defines.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleShopManager Role = "shop_manager"
	RoleMechanic    Role = "mechanic"
)

// Shop is the tenancy boundary. Created out-of-band; never deleted by
// the core.
type Shop struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Timezone  string    `db:"timezone" json:"timezone"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// User is an authenticated actor belonging to exactly one shop.
// PasswordHash is never serialized to JSON.
type User struct {
	ID           string    `db:"id" json:"id"`
	ShopID       string    `db:"shop_id" json:"shopId"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"fullName"`
	Role         Role      `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Session is a persisted refresh credential. Valid iff the stored token
// matches and now() < ExpiresAt.
type Session struct {
	ID           string    `db:"id" json:"-"`
	UserID       string    `db:"user_id" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	ExpiresAt    time.Time `db:"expires_at" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}

// Customer is the end user of a shop.
type Customer struct {
	ID        string    `db:"id" json:"id"`
	ShopID    string    `db:"shop_id" json:"shopId"`
	FirstName string    `db:"first_name" json:"firstName"`
	LastName  string    `db:"last_name" json:"lastName"`
	Phone     string    `db:"phone" json:"phone"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Vehicle is owned by a Customer.
type Vehicle struct {
	ID            string    `db:"id" json:"id"`
	CustomerID    string    `db:"customer_id" json:"customerId"`
	ShopID        string    `db:"shop_id" json:"shopId"`
	Year          int       `db:"year" json:"year"`
	Make          string    `db:"make" json:"make"`
	Model         string    `db:"model" json:"model"`
	VIN           *string   `db:"vin" json:"vin,omitempty"`
	LicensePlate  *string   `db:"license_plate" json:"licensePlate,omitempty"`
	Color         *string   `db:"color" json:"color,omitempty"`
	Mileage       *int      `db:"mileage" json:"mileage,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// InspectionStatus enumerates the lifecycle states from spec §4.5.
type InspectionStatus string

const (
	InspectionDraft      InspectionStatus = "draft"
	InspectionInProgress InspectionStatus = "in_progress"
	InspectionCompleted  InspectionStatus = "completed"
	InspectionSent       InspectionStatus = "sent"
	InspectionArchived   InspectionStatus = "archived"
)

// Inspection is a dated record of one mechanic's check of one vehicle.
type Inspection struct {
	ID                string           `db:"id" json:"id"`
	ShopID            string           `db:"shop_id" json:"shopId"`
	CustomerID        string           `db:"customer_id" json:"customerId"`
	VehicleID         string           `db:"vehicle_id" json:"vehicleId"`
	TechnicianID      string           `db:"technician_id" json:"technicianId"`
	InspectionNumber  string           `db:"inspection_number" json:"inspectionNumber"`
	InspectionType    *string          `db:"inspection_type" json:"inspectionType,omitempty"`
	Status            InspectionStatus `db:"status" json:"status"`
	Notes             *string          `db:"notes" json:"notes,omitempty"`
	StartedAt         *time.Time       `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt       *time.Time       `db:"completed_at" json:"completedAt,omitempty"`
	SentAt            *time.Time       `db:"sent_at" json:"sentAt,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updatedAt"`
}

// ItemStatus enumerates inspection item status.
type ItemStatus string

const (
	ItemPending        ItemStatus = "pending"
	ItemChecked        ItemStatus = "checked"
	ItemNotApplicable  ItemStatus = "not_applicable"
)

// ItemCondition enumerates the traffic-light condition rating.
type ItemCondition string

const (
	ConditionGreen  ItemCondition = "green"
	ConditionYellow ItemCondition = "yellow"
	ConditionRed    ItemCondition = "red"
)

// InspectionItem is one checklist row within an inspection.
type InspectionItem struct {
	ID                         string         `db:"id" json:"id"`
	InspectionID               string         `db:"inspection_id" json:"inspectionId"`
	Category                   string         `db:"category" json:"category"`
	Component                  string         `db:"component" json:"component"`
	Status                     ItemStatus     `db:"status" json:"status"`
	Condition                  *ItemCondition `db:"condition" json:"condition,omitempty"`
	MeasurementValue           *float64       `db:"measurement_value" json:"measurementValue,omitempty"`
	MeasurementUnit            *string        `db:"measurement_unit" json:"measurementUnit,omitempty"`
	Notes                      *string        `db:"notes" json:"notes,omitempty"`
	Recommendations            *string        `db:"recommendations" json:"recommendations,omitempty"`
	EstimatedCost              *float64       `db:"estimated_cost" json:"estimatedCost,omitempty"`
	Priority                   int            `db:"priority" json:"priority"`
	RequiresImmediateAttention bool           `db:"requires_immediate_attention" json:"requiresImmediateAttention"`
	CheckedBy                  *string        `db:"checked_by" json:"checkedBy,omitempty"`
	CheckedAt                  *time.Time     `db:"checked_at" json:"checkedAt,omitempty"`
	CreatedAt                  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt                  time.Time      `db:"updated_at" json:"updatedAt"`
}

// PortalToken is a persisted record of a minted portal capability. The
// token string itself is never stored, only a digest, so a leaked
// database backup cannot be used to mint working portal links.
type PortalToken struct {
	ID           string    `db:"id" json:"-"`
	InspectionID string    `db:"inspection_id" json:"-"`
	TokenDigest  string    `db:"token_digest" json:"-"`
	ExpiresAt    time.Time `db:"expires_at" json:"-"`
	Revoked      bool      `db:"revoked" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}

// InspectionItemTemplate is a prototype for items; initialization
// instantiates one item per active template for the inspection's shop.
type InspectionItemTemplate struct {
	ID                  string    `db:"id" json:"id"`
	ShopID              *string   `db:"shop_id" json:"shopId,omitempty"`
	Category            string    `db:"category" json:"category"`
	Component           string    `db:"component" json:"component"`
	DefaultPriority     int       `db:"default_priority" json:"defaultPriority"`
	MeasurementRequired bool      `db:"measurement_required" json:"measurementRequired"`
	MeasurementUnit     *string   `db:"measurement_unit" json:"measurementUnit,omitempty"`
	IsActive            bool      `db:"is_active" json:"isActive"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}
