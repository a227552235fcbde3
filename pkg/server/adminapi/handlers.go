package adminapi

import (
	"net/http"

	"github.com/ldapcore/ldapd/internal/ldap/mappingtree"
	"github.com/ldapcore/ldapd/internal/ldap/sync"
)

// HealthHandler serves the unauthenticated liveness/readiness probes.
type HealthHandler struct {
	tree *mappingtree.Tree
}

func NewHealthHandler(tree *mappingtree.Tree) *HealthHandler {
	return &HealthHandler{tree: tree}
}

// Liveness handles GET /healthz — is the process running?
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse(map[string]string{"service": "ldapd"}))
}

// Readiness handles GET /readyz — is the mapping tree populated?
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.tree == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("mapping tree not initialized"))
		return
	}
	nodes := h.tree.Snapshot()
	if len(nodes) <= 1 {
		// Only the empty-suffix root exists; no suffix has been mounted.
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("no suffixes mounted"))
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]int{"nodes": len(nodes)}))
}

// MappingTreeHandler serves read-only mapping-tree inspection for
// ldapdctl (SPEC_FULL.md §3: "/v1/mapping-tree").
type MappingTreeHandler struct {
	tree *mappingtree.Tree
}

func NewMappingTreeHandler(tree *mappingtree.Tree) *MappingTreeHandler {
	return &MappingTreeHandler{tree: tree}
}

// backendSlotView and nodeView give the snapshot JSON-friendly string
// states instead of the internal integer enums.
type backendSlotView struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type nodeView struct {
	SuffixDN string            `json:"suffix_dn"`
	State    string            `json:"state"`
	Backends []backendSlotView `json:"backends,omitempty"`
}

// List handles GET /v1/mapping-tree.
func (h *MappingTreeHandler) List(w http.ResponseWriter, r *http.Request) {
	nodes := h.tree.Snapshot()
	views := make([]nodeView, 0, len(nodes))
	for _, n := range nodes {
		v := nodeView{SuffixDN: n.SuffixDN, State: n.State.String()}
		for _, b := range n.Backends {
			v.Backends = append(v.Backends, backendSlotView{Name: b.Name, State: b.State.String()})
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, okResponse(views))
}

// SyncHandler serves read-only content-sync session inspection
// (SPEC_FULL.md §3: "/v1/sync/sessions").
type SyncHandler struct {
	manager *sync.Manager
}

func NewSyncHandler(manager *sync.Manager) *SyncHandler {
	return &SyncHandler{manager: manager}
}

// Sessions handles GET /v1/sync/sessions.
func (h *SyncHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		writeJSON(w, http.StatusOK, okResponse(map[string]int{"active_sessions": 0}))
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]int{"active_sessions": h.manager.Count()}))
}
