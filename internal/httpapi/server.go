// Package httpapi is the HTTP surface (C9): a gorilla/mux router
// binding the REST endpoints of spec §6.1 to the auth, inspection,
// voice, sms, and portal services, wrapped in the ambient middleware
// chain from internal/platform/httpmw.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/auth"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/inspection"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/database"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/httpmw"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/logger"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/metrics"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/portal"
)

// Server bundles every service the HTTP surface binds to.
type Server struct {
	Auth        *auth.Service
	Tokens      *auth.TokenService
	Inspections *inspection.Service
	Portal      *portal.Service
	Store       *database.Store
	Log         *logger.Logger
	Metrics     *metrics.Metrics

	CORSOrigins    []string
	BodyLimit      int64
	RequestTimeout time.Duration
	RateRPS        float64
	RateBurst      int
	PortalBaseURL  string
}

// Router builds the fully wired http.Handler: middleware chain plus
// every route in spec §6.1.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.StrictSlash(true)

	r.HandleFunc("/api/health", s.health).Methods(http.MethodGet)
	if s.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/api/auth/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/refresh", s.refresh).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", s.logout).Methods(http.MethodPost)
	r.Handle("/api/auth/me", s.requireAccess(http.HandlerFunc(s.me))).Methods(http.MethodGet)
	r.Handle("/api/auth/change-password", s.requireAccess(http.HandlerFunc(s.changePassword))).Methods(http.MethodPost)

	r.Handle("/api/inspections", s.requireAccess(http.HandlerFunc(s.createInspection))).Methods(http.MethodPost)
	r.Handle("/api/inspections", s.requireAccess(http.HandlerFunc(s.listInspections))).Methods(http.MethodGet)
	r.Handle("/api/inspections/shop/{shopId}", s.requireAccess(http.HandlerFunc(s.listInspectionsByShop))).Methods(http.MethodGet)
	r.Handle("/api/inspections/{id}", s.requireAccess(http.HandlerFunc(s.getInspection))).Methods(http.MethodGet)
	r.Handle("/api/inspections/{id}", s.requireAccess(http.HandlerFunc(s.updateInspection))).Methods(http.MethodPut)
	r.Handle("/api/inspections/{id}/items", s.requireAccess(http.HandlerFunc(s.listItems))).Methods(http.MethodGet)
	r.Handle("/api/inspections/{id}/items", s.requireAccess(http.HandlerFunc(s.createItem))).Methods(http.MethodPost)
	r.Handle("/api/inspections/{id}/items/initialize", s.requireAccess(http.HandlerFunc(s.initializeItems))).Methods(http.MethodPost)
	r.Handle("/api/inspections/{id}/items/bulk-update", s.requireAccess(http.HandlerFunc(s.bulkUpdateItems))).Methods(http.MethodPatch)
	r.Handle("/api/inspections/{id}/items/{itemId}", s.requireAccess(http.HandlerFunc(s.updateItem))).Methods(http.MethodPut)
	r.Handle("/api/inspections/{id}/items/{itemId}", s.requireAccess(http.HandlerFunc(s.deleteItem))).Methods(http.MethodDelete)

	r.Handle("/api/voice/parse", s.requireAccess(http.HandlerFunc(s.parseVoice))).Methods(http.MethodPost)
	r.Handle("/api/sms/preview", s.requireAccess(http.HandlerFunc(s.previewSMS))).Methods(http.MethodPost)

	r.Handle("/api/portal/generate", s.requireAccess(http.HandlerFunc(s.generatePortalLink))).Methods(http.MethodPost)
	r.HandleFunc("/api/portal/{token}", s.readPortal).Methods(http.MethodGet)

	limiter := httpmw.NewRateLimiter(s.RateRPS, s.RateBurst)
	chain := []func(http.Handler) http.Handler{
		httpmw.Recovery(s.Log),
		httpmw.Logging(s.Log),
	}
	if s.Metrics != nil {
		chain = append(chain, httpmw.Metrics(s.Metrics))
	}
	chain = append(chain,
		httpmw.CORS(s.CORSOrigins),
		httpmw.BodyLimit(s.BodyLimit),
		httpmw.Timeout(s.RequestTimeout),
		limiter.Middleware,
	)
	return httpmw.Chain(r, chain...)
}
