package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/inspection"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/models"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/httpresponse"
)

func (s *Server) createInspection(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	var payload struct {
		VehicleID      string  `json:"vehicle_id"`
		ShopID         string  `json:"shop_id"`
		InspectionType *string `json:"inspection_type"`
		Notes          *string `json:"notes"`
		Items          []struct {
			Category  string `json:"category"`
			Component string `json:"component"`
			Priority  int    `json:"priority"`
		} `json:"items"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}

	items := make([]inspection.CreateItemInput, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, inspection.CreateItemInput{
			Category:  it.Category,
			Component: it.Component,
			Priority:  it.Priority,
		})
	}

	insp, err := s.Inspections.Create(r.Context(), id.caller(), inspection.CreateInput{
		VehicleID:      payload.VehicleID,
		ShopID:         payload.ShopID,
		InspectionType: payload.InspectionType,
		Notes:          payload.Notes,
		Items:          items,
	})
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.Created(w, insp)
}

func (s *Server) listInspections(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	s.listInspectionsForShop(w, r, id, id.ShopID)
}

func (s *Server) listInspectionsByShop(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	shopID := mux.Vars(r)["shopId"]
	s.listInspectionsForShop(w, r, id, shopID)
}

func (s *Server) listInspectionsForShop(w http.ResponseWriter, r *http.Request, id identity, shopID string) {
	var status *models.InspectionStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := models.InspectionStatus(raw)
		status = &st
	}

	page, err := s.Inspections.List(r.Context(), id.caller(), inspection.ListFilters{
		ShopID:        shopID,
		Status:        status,
		CreatedAfter:  queryTime(r, "start_date"),
		CreatedBefore: queryTime(r, "end_date"),
	}, queryInt(r, "page", 1), queryInt(r, "limit", 10))
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.Paginated(w, page.Rows, httpresponse.Pagination{
		Page: page.Page, Limit: page.Limit, Total: page.Total, Pages: page.Pages,
	})
}

func (s *Server) getInspection(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	inspectionID := mux.Vars(r)["id"]

	insp, err := s.Inspections.Get(r.Context(), id.caller(), inspectionID)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	summary, err := s.Inspections.Summary(r.Context(), id.caller(), inspectionID)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	items, err := s.Inspections.Items(r.Context(), id.caller(), inspectionID, inspection.ItemFilters{})
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.OK(w, map[string]interface{}{
		"inspection": insp,
		"summary":    summary,
		"items":      items,
	})
}

// updateInspection applies an optional status transition (along the
// single allowed path) and an optional notes update, then returns the
// inspection.
func (s *Server) updateInspection(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	inspectionID := mux.Vars(r)["id"]

	var payload struct {
		Status *string `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}

	var insp *models.Inspection
	var err error
	if payload.Status != nil {
		insp, err = s.Inspections.Transition(r.Context(), id.caller(), inspectionID, models.InspectionStatus(*payload.Status))
		if err != nil {
			httpresponse.Error(w, r, err)
			return
		}
	}
	if payload.Notes != nil {
		insp, err = s.Inspections.UpdateNotes(r.Context(), id.caller(), inspectionID, payload.Notes)
		if err != nil {
			httpresponse.Error(w, r, err)
			return
		}
	}
	if insp == nil {
		insp, err = s.Inspections.Get(r.Context(), id.caller(), inspectionID)
		if err != nil {
			httpresponse.Error(w, r, err)
			return
		}
	}
	httpresponse.OK(w, insp)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	inspectionID := mux.Vars(r)["id"]

	filters := inspection.ItemFilters{}
	if v := r.URL.Query().Get("category"); v != "" {
		filters.Category = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st := models.ItemStatus(v)
		filters.Status = &st
	}
	if v := r.URL.Query().Get("condition"); v != "" {
		cond := models.ItemCondition(v)
		filters.Condition = &cond
	}
	if r.URL.Query().Get("priority") != "" {
		p := queryInt(r, "priority", 0)
		filters.Priority = &p
	}

	items, err := s.Inspections.Items(r.Context(), id.caller(), inspectionID, filters)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	summary, err := s.Inspections.Summary(r.Context(), id.caller(), inspectionID)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.OK(w, map[string]interface{}{
		"items":   items,
		"summary": summary,
		"total":   len(items),
	})
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	inspectionID := mux.Vars(r)["id"]

	var payload struct {
		Category  string `json:"category"`
		Component string `json:"component"`
		Priority  int    `json:"priority"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}

	item, err := s.Inspections.CreateItem(r.Context(), id.caller(), inspectionID, inspection.CreateItemInput{
		Category:  payload.Category,
		Component: payload.Component,
		Priority:  payload.Priority,
	})
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.Created(w, item)
}

func (s *Server) initializeItems(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	inspectionID := mux.Vars(r)["id"]

	count, items, err := s.Inspections.InitializeItems(r.Context(), id.caller(), inspectionID)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.Created(w, map[string]interface{}{
		"items_created": count,
		"items":         items,
	})
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	vars := mux.Vars(r)
	inspectionID, itemID := vars["id"], vars["itemId"]

	patch, err := decodeItemPatch(r, itemID)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}

	item, err := s.Inspections.UpdateItem(r.Context(), id.caller(), inspectionID, patch)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.OK(w, item)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	vars := mux.Vars(r)
	inspectionID, itemID := vars["id"], vars["itemId"]

	if err := s.Inspections.DeleteItem(r.Context(), id.caller(), inspectionID, itemID); err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.OK(w, map[string]bool{"success": true})
}

func (s *Server) bulkUpdateItems(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	inspectionID := mux.Vars(r)["id"]

	var payload struct {
		Updates []itemPatchPayload `json:"updates"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}

	patches := make([]inspection.ItemPatch, 0, len(payload.Updates))
	for _, p := range payload.Updates {
		if p.ItemID == "" {
			httpresponse.Error(w, r, errs.Invalidf("id is required").WithField("id"))
			return
		}
		patches = append(patches, p.toPatch())
	}

	items, summary, err := s.Inspections.BulkUpdateItems(r.Context(), id.caller(), inspectionID, patches)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.OK(w, map[string]interface{}{
		"updated_items": items,
		"summary":       summary,
	})
}

// itemPatchPayload mirrors ItemPatch for JSON decoding; ItemID is read
// from the URL for single-item updates and from the body for bulk ones.
type itemPatchPayload struct {
	ItemID                     string                `json:"id"`
	Status                     *models.ItemStatus    `json:"status"`
	Condition                  *models.ItemCondition `json:"condition"`
	MeasurementValue           *float64              `json:"measurement_value"`
	MeasurementUnit            *string               `json:"measurement_unit"`
	Notes                      *string               `json:"notes"`
	Recommendations            *string               `json:"recommendations"`
	EstimatedCost              *float64              `json:"estimated_cost"`
	Priority                   *int                  `json:"priority"`
	RequiresImmediateAttention *bool                 `json:"requires_immediate_attention"`
}

func (p itemPatchPayload) toPatch() inspection.ItemPatch {
	return inspection.ItemPatch{
		ItemID:                     p.ItemID,
		Status:                     p.Status,
		Condition:                  p.Condition,
		MeasurementValue:           p.MeasurementValue,
		MeasurementUnit:            p.MeasurementUnit,
		Notes:                      p.Notes,
		Recommendations:            p.Recommendations,
		EstimatedCost:              p.EstimatedCost,
		Priority:                   p.Priority,
		RequiresImmediateAttention: p.RequiresImmediateAttention,
	}
}

func decodeItemPatch(r *http.Request, itemID string) (inspection.ItemPatch, error) {
	var payload itemPatchPayload
	if err := decodeJSON(r, &payload); err != nil {
		return inspection.ItemPatch{}, err
	}
	payload.ItemID = itemID
	return payload.toPatch(), nil
}
