package adminapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ldapcore/ldapd/internal/ldap/mappingtree"
	"github.com/ldapcore/ldapd/internal/ldap/sync"
	"github.com/ldapcore/ldapd/internal/logger"
)

// NewRouter builds the admin API's chi router.
//
// Routes:
//   - GET /healthz  - unauthenticated liveness probe
//   - GET /readyz   - unauthenticated readiness probe
//   - GET /metrics  - Prometheus scrape endpoint (nil reg disables it)
//   - GET /v1/mapping-tree  - admin-only mapping tree inspection
//   - GET /v1/sync/sessions - admin-only sync-session inspection
func NewRouter(tree *mappingtree.Tree, syncMgr *sync.Manager, jwtService *JWTService, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := NewHealthHandler(tree)
	r.Get("/healthz", healthHandler.Liveness)
	r.Get("/readyz", healthHandler.Readiness)

	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	mappingTreeHandler := NewMappingTreeHandler(tree)
	syncHandler := NewSyncHandler(syncMgr)

	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuth(jwtService))
		r.Use(RequireAdmin())

		r.Get("/mapping-tree", mappingTreeHandler.List)
		r.Get("/sync/sessions", syncHandler.Sessions)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("admin API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("admin API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
