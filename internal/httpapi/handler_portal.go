package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/httpresponse"
)

func (s *Server) generatePortalLink(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		httpresponse.Error(w, r, errs.New(errs.Unauthenticated, "missing identity"))
		return
	}
	var payload struct {
		InspectionID string `json:"inspection_id"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		httpresponse.Error(w, r, err)
		return
	}

	token, expiresAt, err := s.Portal.Mint(r.Context(), id.caller(), payload.InspectionID)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.Created(w, map[string]interface{}{
		"token":     token,
		"url":       strings.TrimRight(s.PortalBaseURL, "/") + "/" + token,
		"expiresAt": expiresAt,
	})
}

// readPortal is the single unauthenticated route: anyone holding a
// valid, unexpired, unrevoked portal token can read the redacted
// customer-facing projection of an inspection.
func (s *Server) readPortal(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	inspectionID, err := s.Portal.Verify(r.Context(), token)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	projection, err := s.Portal.ReadProjection(r.Context(), inspectionID)
	if err != nil {
		httpresponse.Error(w, r, err)
		return
	}
	httpresponse.OK(w, projection)
}
