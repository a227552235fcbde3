// Package server wires the directory core's components — mapping tree,
// backends, content-sync manager, metrics, and the admin HTTP API — into
// one runnable process (SPEC_FULL.md §2.3, §4).
package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ldapcore/ldapd/internal/ldap/backend"
	ldapbadger "github.com/ldapcore/ldapd/internal/ldap/backend/badger"
	"github.com/ldapcore/ldapd/internal/ldap/mappingtree"
	ldapsync "github.com/ldapcore/ldapd/internal/ldap/sync"
	"github.com/ldapcore/ldapd/internal/logger"
	"github.com/ldapcore/ldapd/pkg/config"
	"github.com/ldapcore/ldapd/pkg/metrics"
	metricsprom "github.com/ldapcore/ldapd/pkg/metrics/prometheus"
	"github.com/ldapcore/ldapd/pkg/server/adminapi"
)

// Server owns the process-lifetime collaborators described by
// SPEC_FULL.md: the mapping tree (C5), the backends it routes to, the
// content-sync session manager (C7/C8), metrics, and the admin API.
type Server struct {
	cfg *config.Config

	Tree        *mappingtree.Tree
	SyncManager *ldapsync.Manager

	backendsMu sync.Mutex
	backends   map[string]backend.Backend

	OperationMetrics metrics.OperationMetrics
	BackendMetrics   metrics.BackendMetrics
	SyncMetrics      metrics.SyncMetrics

	admin *adminapi.Server
}

// New constructs a Server from cfg. It does not open backends or start
// any listener; call LoadMappingTree then Start.
func New(cfg *config.Config) *Server {
	return &Server{
		cfg:         cfg,
		Tree:        mappingtree.New(),
		SyncManager: ldapsync.NewManager(cfg.Sync.MaxSessions),
		backends:    make(map[string]backend.Backend),
	}
}

// InitMetrics wires up the Prometheus-backed collectors when metrics are
// enabled, otherwise leaves every collector field nil — every Record*
// call on a nil collector is a no-op (pkg/metrics's contract).
func (s *Server) InitMetrics() *prometheus.Registry {
	if !s.cfg.Metrics.Enabled {
		return nil
	}
	reg := metrics.InitRegistry()
	s.OperationMetrics = metricsprom.NewOperationMetrics()
	s.BackendMetrics = metricsprom.NewBackendMetrics()
	s.SyncMetrics = metricsprom.NewSyncMetrics()
	return reg
}

// LoadMappingTree opens one badger backend per configured mount and
// attaches it to the mapping tree at its suffix (SPEC_FULL.md §4).
func (s *Server) LoadMappingTree(cfg config.BackendConfig) error {
	s.backendsMu.Lock()
	defer s.backendsMu.Unlock()

	for _, nb := range cfg.Backends {
		store, err := ldapbadger.Open(nb.Name, nb.DataDir)
		if err != nil {
			return fmt.Errorf("server: opening backend %q: %w", nb.Name, err)
		}

		node, err := s.Tree.AddSuffix(nb.Suffix, mappingtree.StateBackend)
		if err != nil {
			store.Close()
			return fmt.Errorf("server: mounting backend %q at suffix %q: %w", nb.Name, nb.Suffix, err)
		}
		node.AddBackend(nb.Name, store)
		s.backends[nb.Name] = store

		if s.BackendMetrics != nil {
			s.BackendMetrics.RecordBackendStateChange(nb.Name, mappingtree.BackendOn.String())
		}

		logger.Info("backend mounted", "name", nb.Name, "suffix", nb.Suffix)
	}
	return nil
}

// Backend returns the named backend, or nil if no such backend was
// loaded.
func (s *Server) Backend(name string) backend.Backend {
	s.backendsMu.Lock()
	defer s.backendsMu.Unlock()
	return s.backends[name]
}

// StartAdminAPI starts the admin/metrics HTTP server if enabled in
// config, blocking until ctx is cancelled. Returns immediately with nil
// if the admin API is disabled.
func (s *Server) StartAdminAPI(ctx context.Context, reg *prometheus.Registry) error {
	if !s.cfg.Admin.Enabled {
		return nil
	}
	if s.cfg.Admin.JWTSigningKey == "" {
		return fmt.Errorf("server: admin API enabled but jwt_signing_key is not set")
	}

	jwtService := adminapi.NewJWTService(s.cfg.Admin.JWTSigningKey, 0)
	s.admin = adminapi.NewServer(s.cfg.Admin.Addr, s.Tree, s.SyncManager, jwtService, reg)
	return s.admin.Start(ctx)
}

// Close closes every loaded backend. Safe to call once, after all
// in-flight operations and sync sessions have drained.
func (s *Server) Close() error {
	s.backendsMu.Lock()
	defer s.backendsMu.Unlock()

	s.SyncManager.TerminateAll()

	var firstErr error
	for name, b := range s.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("server: closing backend %q: %w", name, err)
		}
	}
	return firstErr
}
