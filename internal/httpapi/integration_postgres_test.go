//go:build integration && postgres

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/auth"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/inspection"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/database"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/logger"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/metrics"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/migrations"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/portal"
)

// integrationMetrics is shared by every integration server: metrics.New
// registers on the default Prometheus registry and may run only once.
var integrationMetrics = metrics.New()

// newIntegrationServer wires every store and service onto a real
// Postgres connection, applies migrations, and returns an httptest
// server plus the raw store for direct fixture setup. Skips the test
// when DATABASE_URL is unset, the same convention the teacher's own
// Postgres integration suite uses.
func newIntegrationServer(t *testing.T) (*httptest.Server, *database.Store) {
	t.Helper()
	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, dsn, database.PoolConfig{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Apply(ctx, db.DB); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	store := database.New(db)

	authStore := auth.NewStore(store)
	hasher := auth.NewPasswordHasher(4)
	tokens := auth.NewTokenService([]byte("integration-test-secret"), 15*time.Minute, 24*time.Hour, 2*time.Second)
	authService := auth.NewService(authStore, hasher, tokens)

	inspectionStore := inspection.NewStore(store)
	inspectionService := inspection.NewService(inspectionStore)

	portalStore := portal.NewStore(store)
	portalService := portal.NewService(portalStore, inspectionStore, []byte("integration-test-secret"), 0, 2*time.Second)

	srv := &Server{
		Auth:           authService,
		Tokens:         tokens,
		Inspections:    inspectionService,
		Portal:         portalService,
		Store:          store,
		Log:            logger.New(logger.Config{Level: "error", Format: "json"}),
		Metrics:        integrationMetrics,
		CORSOrigins:    []string{"*"},
		BodyLimit:      1 << 20,
		RequestTimeout: 10 * time.Second,
		RateRPS:        1000,
		RateBurst:      1000,
		PortalBaseURL:  "http://localhost/api/portal",
	}

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

// seedShopAndVehicle inserts the rows a register call and an inspection
// create call both depend on via foreign keys; there's no HTTP surface
// for shop/customer/vehicle creation, so the fixture goes in directly.
func seedShopAndVehicle(t *testing.T, store *database.Store) (shopID, vehicleID string) {
	t.Helper()
	ctx := context.Background()

	shopID = uuid.NewString()
	if _, err := store.Exec(ctx,
		`INSERT INTO shops (id, name) VALUES ($1, $2)`, shopID, "Integration Shop"); err != nil {
		t.Fatalf("seed shop: %v", err)
	}

	customerID := uuid.NewString()
	if _, err := store.Exec(ctx,
		`INSERT INTO customers (id, shop_id, first_name, last_name, phone) VALUES ($1, $2, $3, $4, $5)`,
		customerID, shopID, "Pat", "Customer", fmt.Sprintf("555-%07d", time.Now().UnixNano()%1e7)); err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	vehicleID = uuid.NewString()
	if _, err := store.Exec(ctx,
		`INSERT INTO vehicles (id, customer_id, shop_id, year, make, model) VALUES ($1, $2, $3, $4, $5, $6)`,
		vehicleID, customerID, shopID, 2020, "Honda", "Civic"); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return shopID, vehicleID
}

func registerAndLogin(t *testing.T, client *http.Client, baseURL, shopID, email string) string {
	t.Helper()
	body := marshalBody(t, map[string]any{
		"email":     email,
		"password":  "correcthorse1",
		"full_name": "Integration Tech",
		"role":      "mechanic",
		"shop_id":   shopID,
	})
	resp := doRequest(t, client, http.MethodPost, baseURL+"/api/auth/register", body, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: %d", resp.StatusCode)
	}

	login := decodeEnvelope(t, doRequest(t, client, http.MethodPost, baseURL+"/api/auth/login", marshalBody(t, map[string]any{
		"email":    email,
		"password": "correcthorse1",
	}), ""))
	access, _ := login["access"].(string)
	if access == "" {
		t.Fatalf("login returned no access token: %+v", login)
	}
	return access
}

func marshalBody(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return b
}

func doRequest(t *testing.T, client *http.Client, method, url string, body []byte, bearer string) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var env struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
		Error   string         `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.Success {
		t.Fatalf("request failed: %s", env.Error)
	}
	return env.Data
}

// TestIntegration_BulkUpdateItems_AtomicAcrossInspections drives the
// S4 bulk-update-or-nothing guarantee through the real HTTP surface and
// a real store: a bulk-update call naming one item from a different
// inspection must fail the whole batch, leaving every item untouched.
func TestIntegration_BulkUpdateItems_AtomicAcrossInspections(t *testing.T) {
	ts, store := newIntegrationServer(t)
	client := ts.Client()

	shopID, vehicleID := seedShopAndVehicle(t, store)
	access := registerAndLogin(t, client, ts.URL, shopID, fmt.Sprintf("mech-%d@shop.test", time.Now().UnixNano()))

	inspA := decodeEnvelope(t, doRequest(t, client, http.MethodPost, ts.URL+"/api/inspections", marshalBody(t, map[string]any{
		"vehicle_id": vehicleID,
		"shop_id":    shopID,
		"items": []map[string]any{
			{"category": "brakes", "component": "front brake pads", "priority": 5},
			{"category": "tires", "component": "front tire tread", "priority": 5},
		},
	}), access))
	inspAID, _ := inspA["id"].(string)

	inspB := decodeEnvelope(t, doRequest(t, client, http.MethodPost, ts.URL+"/api/inspections", marshalBody(t, map[string]any{
		"vehicle_id": vehicleID,
		"shop_id":    shopID,
		"items": []map[string]any{
			{"category": "fluids", "component": "coolant level", "priority": 5},
		},
	}), access))

	itemsA := decodeEnvelope(t, doRequest(t, client, http.MethodGet, ts.URL+"/api/inspections/"+inspAID+"/items", nil, access))
	rows, _ := itemsA["items"].([]any)
	if len(rows) != 2 {
		t.Fatalf("expected 2 seeded items on inspection A, got %d", len(rows))
	}
	itemA1ID, _ := rows[0].(map[string]any)["id"].(string)
	itemA2ID, _ := rows[1].(map[string]any)["id"].(string)

	itemsB := decodeEnvelope(t, doRequest(t, client, http.MethodGet, ts.URL+"/api/inspections/"+inspB["id"].(string)+"/items", nil, access))
	rowsB, _ := itemsB["items"].([]any)
	itemBID, _ := rowsB[0].(map[string]any)["id"].(string)

	resp := doRequest(t, client, http.MethodPatch, ts.URL+"/api/inspections/"+inspAID+"/items/bulk-update", marshalBody(t, map[string]any{
		"updates": []map[string]any{
			{"id": itemA1ID, "status": "checked", "condition": "green"},
			{"id": itemA2ID, "status": "checked", "condition": "yellow"},
			{"id": itemBID, "status": "checked", "condition": "green"},
		},
	}), access)
	if resp.StatusCode == http.StatusOK {
		resp.Body.Close()
		t.Fatalf("expected bulk update naming a foreign item to fail, got 200")
	}
	resp.Body.Close()

	afterA := decodeEnvelope(t, doRequest(t, client, http.MethodGet, ts.URL+"/api/inspections/"+inspAID+"/items", nil, access))
	afterRows, _ := afterA["items"].([]any)
	for _, row := range afterRows {
		item, _ := row.(map[string]any)
		if item["status"] != "pending" {
			t.Fatalf("expected item %v to remain pending after failed bulk update, got %v", item["id"], item["status"])
		}
	}
}

// TestIntegration_UpdateItem_StampsCheckedByAndCheckedAt verifies the
// checked-transition stamping rule (applyPatch) against a real store:
// moving an item to "checked" records the caller and a timestamp, and
// both persist across a fresh read.
func TestIntegration_UpdateItem_StampsCheckedByAndCheckedAt(t *testing.T) {
	ts, store := newIntegrationServer(t)
	client := ts.Client()

	shopID, vehicleID := seedShopAndVehicle(t, store)
	access := registerAndLogin(t, client, ts.URL, shopID, fmt.Sprintf("mech-%d@shop.test", time.Now().UnixNano()))

	insp := decodeEnvelope(t, doRequest(t, client, http.MethodPost, ts.URL+"/api/inspections", marshalBody(t, map[string]any{
		"vehicle_id": vehicleID,
		"shop_id":    shopID,
		"items": []map[string]any{
			{"category": "brakes", "component": "front brake pads", "priority": 5},
		},
	}), access))
	inspID, _ := insp["id"].(string)

	items := decodeEnvelope(t, doRequest(t, client, http.MethodGet, ts.URL+"/api/inspections/"+inspID+"/items", nil, access))
	rows, _ := items["items"].([]any)
	itemID, _ := rows[0].(map[string]any)["id"].(string)

	updated := decodeEnvelope(t, doRequest(t, client, http.MethodPut, ts.URL+"/api/inspections/"+inspID+"/items/"+itemID, marshalBody(t, map[string]any{
		"status":    "checked",
		"condition": "green",
	}), access))
	if updated["checkedAt"] == nil || updated["checkedAt"] == "" {
		t.Fatalf("expected checkedAt to be stamped, got %+v", updated)
	}
	if updated["checkedBy"] == nil || updated["checkedBy"] == "" {
		t.Fatalf("expected checkedBy to be stamped, got %+v", updated)
	}

	reread := decodeEnvelope(t, doRequest(t, client, http.MethodGet, ts.URL+"/api/inspections/"+inspID+"/items", nil, access))
	rereadRows, _ := reread["items"].([]any)
	item, _ := rereadRows[0].(map[string]any)
	if item["checkedAt"] != updated["checkedAt"] || item["checkedBy"] != updated["checkedBy"] {
		t.Fatalf("expected stamping to persist across a fresh read, got %+v", item)
	}
}

// TestIntegration_CrossShopAccess_Forbidden drives tenancy enforcement
// through a real HTTP request: a mechanic from one shop must not be
// able to read an inspection that belongs to another shop, even with a
// well-formed request naming that inspection's real id.
func TestIntegration_CrossShopAccess_Forbidden(t *testing.T) {
	ts, store := newIntegrationServer(t)
	client := ts.Client()

	shopA, vehicleA := seedShopAndVehicle(t, store)
	shopB, _ := seedShopAndVehicle(t, store)

	accessA := registerAndLogin(t, client, ts.URL, shopA, fmt.Sprintf("mech-a-%d@shop.test", time.Now().UnixNano()))
	accessB := registerAndLogin(t, client, ts.URL, shopB, fmt.Sprintf("mech-b-%d@shop.test", time.Now().UnixNano()))

	insp := decodeEnvelope(t, doRequest(t, client, http.MethodPost, ts.URL+"/api/inspections", marshalBody(t, map[string]any{
		"vehicle_id": vehicleA,
		"shop_id":    shopA,
	}), accessA))
	inspID, _ := insp["id"].(string)

	resp := doRequest(t, client, http.MethodGet, ts.URL+"/api/inspections/"+inspID, nil, accessB)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected cross-shop read to be forbidden, got %d", resp.StatusCode)
	}
}
