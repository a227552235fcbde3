package adminapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ldapcore/ldapd/internal/ldap/mappingtree"
	ldapsync "github.com/ldapcore/ldapd/internal/ldap/sync"
	"github.com/ldapcore/ldapd/internal/logger"
)

// Server is the admin/metrics HTTP server (SPEC_FULL.md §3).
//
// Endpoints:
//   - GET /healthz, /readyz: unauthenticated probes
//   - GET /metrics: Prometheus scrape endpoint
//   - GET /v1/mapping-tree, /v1/sync/sessions: admin-only, bearer-token
//     protected inspection endpoints
type Server struct {
	server       *http.Server
	addr         string
	shutdownOnce sync.Once
}

// NewServer builds an admin API server bound to addr. jwtService guards
// every /v1 route; reg may be nil to disable the /metrics endpoint.
func NewServer(addr string, tree *mappingtree.Tree, syncMgr *ldapsync.Manager, jwtService *JWTService, reg *prometheus.Registry) *Server {
	router := NewRouter(tree, syncMgr, jwtService, reg)

	return &Server{
		addr: addr,
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start serves the admin API until ctx is cancelled, then gracefully
// shuts down.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("admin API listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("admin API shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("admin API failed: %w", err)
	}
}

// Stop gracefully shuts down the admin API server. Safe to call more than
// once or concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("admin API shutdown error: %w", err)
			logger.Error("admin API shutdown error", "error", err)
		} else {
			logger.Info("admin API stopped gracefully")
		}
	})
	return shutdownErr
}
