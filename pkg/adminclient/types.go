package adminclient

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// envelope mirrors adminapi.Response, the standard reply shape for every
// admin API endpoint.
type envelope struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// BackendSlotView mirrors one backend slot in a mapping-tree node.
type BackendSlotView struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// NodeView mirrors one mapping-tree node, as returned by GET /v1/mapping-tree.
type NodeView struct {
	SuffixDN string            `json:"suffix_dn"`
	State    string            `json:"state"`
	Backends []BackendSlotView `json:"backends,omitempty"`
}

// NodeViews is a slice of NodeView that renders as a table.
type NodeViews []NodeView

// Headers implements output.TableRenderer.
func (NodeViews) Headers() []string {
	return []string{"Suffix", "State", "Backends"}
}

// Rows implements output.TableRenderer.
func (nv NodeViews) Rows() [][]string {
	rows := make([][]string, 0, len(nv))
	for _, n := range nv {
		names := make([]string, 0, len(n.Backends))
		for _, b := range n.Backends {
			names = append(names, fmt.Sprintf("%s(%s)", b.Name, b.State))
		}
		rows = append(rows, []string{n.SuffixDN, n.State, strings.Join(names, ", ")})
	}
	return rows
}

// SessionsView mirrors GET /v1/sync/sessions.
type SessionsView struct {
	ActiveSessions int `json:"active_sessions"`
}
