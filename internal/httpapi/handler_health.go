package httpapi

import (
	"net/http"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/httpresponse"
)

// health reports database connectivity and server time for
// GET /api/health, per spec §6.1.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	type databaseStatus struct {
		Connected bool   `json:"connected"`
		Time      string `json:"time,omitempty"`
	}
	dbStatus := databaseStatus{}

	t, err := s.Store.Now(r.Context())
	if err == nil && t.Valid {
		dbStatus.Connected = true
		dbStatus.Time = t.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	httpresponse.OK(w, map[string]interface{}{
		"status":   "ok",
		"database": dbStatus,
		"services": map[string]bool{
			"auth":       true,
			"inspection": true,
			"voice":      true,
			"sms":        true,
			"portal":     true,
		},
	})
}
