// Package mappingtree implements the suffix-routing mapping tree (spec
// §4.5, C5): the rooted n-ary tree that resolves a target DN to the
// backend responsible for it, with per-backend drain locking for
// administrative state transitions.
package mappingtree

import (
	"fmt"
	"sync"

	"github.com/ldapcore/ldapd/internal/ldap/entry"
)

// NodeState is the administrative state of a mapping-tree node (spec §4.5).
type NodeState int

const (
	StateBackend NodeState = iota
	StateContainer
	StateDisabled
	StateReferral
	StateReferralOnUpdate
)

// String returns the DSE-style name for a node's administrative state.
func (s NodeState) String() string {
	switch s {
	case StateBackend:
		return "backend"
	case StateContainer:
		return "container"
	case StateDisabled:
		return "disabled"
	case StateReferral:
		return "referral"
	case StateReferralOnUpdate:
		return "referral on update"
	default:
		return "unknown"
	}
}

// BackendState is the state of one backend slot beneath a node (spec
// §4.5, "state transitions for a backend slot").
type BackendState int

const (
	BackendOn BackendState = iota
	BackendOffline
	BackendDeleted
)

func (s BackendState) String() string {
	switch s {
	case BackendOn:
		return "on"
	case BackendOffline:
		return "offline"
	case BackendDeleted:
		return "delete"
	default:
		return "unknown"
	}
}

// Backend is the operation-executing object a slot wraps. Concrete
// storage engines (e.g. the badger-backed implementation) satisfy this
// from another package; mappingtree only needs identity and a name.
type Backend interface {
	Name() string
}

// DistributionFunc selects which backend slot (by index) should handle
// target among a node's named slots, given their current states, or
// reports the "all backends" sentinel for subtree/one-level scans that
// must fan out (spec §4.5: "distribution_plugin(target, names, states)").
type DistributionFunc func(target string, names []string, states []BackendState) (index int, all bool)

// backendSlot is one named backend beneath a node, with its own
// reader-writer lock used to drain in-flight operations on state
// transitions (spec §4.5).
type backendSlot struct {
	mu      sync.RWMutex
	name    string
	backend Backend
	state   BackendState
}

// Node is one mapping-tree node, rooted at the empty-suffix root (spec
// §4.5).
type Node struct {
	// SuffixDN is this node's normalized, case-folded subtree DN. The root
	// node's SuffixDN is "".
	SuffixDN string

	State        NodeState
	Referral     *entry.Entry
	Distribution DistributionFunc

	slots    []*backendSlot
	children []*Node
	parent   *Node
}

func newNode(suffixDN string) *Node {
	return &Node{SuffixDN: suffixDN}
}

// AddBackend registers a named backend slot on the node, in the On state.
func (n *Node) AddBackend(name string, b Backend) {
	n.slots = append(n.slots, &backendSlot{name: name, backend: b, state: BackendOn})
}

// BackendNames returns the node's slot names in registration order.
func (n *Node) BackendNames() []string {
	names := make([]string, len(n.slots))
	for i, s := range n.slots {
		names[i] = s.name
	}
	return names
}

// StateChangeListener is invoked after a backend slot's state transitions,
// with the slot's name, old state, and new state (spec §4.5).
type StateChangeListener func(name string, old, new BackendState)

type listenerEntry struct {
	handle uint64
	fn     StateChangeListener
}

// Tree is the mapping tree root plus the single global structural lock
// (mt_lock) and the backend-state-change listener registry (spec §4.5).
type Tree struct {
	mu   sync.RWMutex // mt_lock: serializes structural mutations and best-match walks
	root *Node

	listenersMu sync.Mutex
	listeners   []listenerEntry
	nextHandle  uint64
}

// New returns a tree with an empty root node (the "" suffix, matching
// every DN).
func New() *Tree {
	return &Tree{root: newNode("")}
}

// AddSuffix inserts a new child node for suffixDN under the tree,
// attaching it at whichever existing node is currently its best match
// (spec §4.5). suffixDN must already be normalized/case-folded.
func (t *Tree) AddSuffix(suffixDN string, state NodeState) (*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent := bestMatch(t.root, suffixDN)
	for _, c := range parent.children {
		if c.SuffixDN == suffixDN {
			return nil, fmt.Errorf("mappingtree: suffix %q already registered", suffixDN)
		}
	}
	n := newNode(suffixDN)
	n.State = state
	n.parent = parent
	parent.children = append(parent.children, n)
	return n, nil
}

// ErrNodeHasChildren reports that a DeleteSuffix call was refused because
// the target node still has children (spec §4.5 invariant (iii), §6, §8:
// "Deletion of a mapping-tree node with any child ⇒ UnwillingToPerform
// with message \"this node has some children\"").
var ErrNodeHasChildren = fmt.Errorf("mappingtree: this node has some children")

// DeleteSuffix removes the node registered for suffixDN from the tree
// (spec §4.5, §6). It is refused with ErrNodeHasChildren if the node has
// any children; otherwise the node is detached from its parent. The root
// node cannot be deleted.
func (t *Tree) DeleteSuffix(suffixDN string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if suffixDN == "" {
		return fmt.Errorf("mappingtree: cannot delete root node")
	}

	node := bestMatch(t.root, suffixDN)
	if node.SuffixDN != suffixDN {
		return fmt.Errorf("mappingtree: suffix %q not registered", suffixDN)
	}
	if len(node.children) > 0 {
		return ErrNodeHasChildren
	}

	parent := node.parent
	for i, c := range parent.children {
		if c == node {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	node.parent = nil
	return nil
}

// bestMatch walks from node, at each level picking the child whose
// SuffixDN is a suffix of target with the longest normalized length among
// matching siblings, descending until no child matches (spec §4.5).
func bestMatch(node *Node, target string) *Node {
	for {
		var next *Node
		for _, c := range node.children {
			if !entry.IsNormalizedSuffix(c.SuffixDN, target) {
				continue
			}
			if next == nil || len(c.SuffixDN) > len(next.SuffixDN) {
				next = c
			}
		}
		if next == nil {
			return node
		}
		node = next
	}
}

// ErrOperationsError reports that the best-match node is Disabled.
var ErrOperationsError = fmt.Errorf("mappingtree: node disabled (OperationsError)")

// Resolution is the outcome of Resolve: either a held backend slot to
// operate against, or a referral entry to return to the client.
type Resolution struct {
	Node     *Node
	Backend  Backend
	Referral *entry.Entry

	slot *backendSlot
}

// Release releases the backend slot's read lock acquired by Resolve. It
// must be called exactly once when the caller is done executing against
// the resolved backend; a Resolution carrying only a referral has nothing
// to release.
func (r *Resolution) Release() {
	if r.slot != nil {
		r.slot.mu.RUnlock()
	}
}

// Resolve implements the per-operation resolution protocol of spec §4.5:
// read-lock mt_lock, find the best-match node, consult its state, select
// a backend slot (consulting distribution when there's more than one),
// acquire that slot's read lock, then release mt_lock before the caller
// executes the operation. isWrite distinguishes update ops, which a
// ReferralOnUpdate node redirects unless override is set.
func (t *Tree) Resolve(target string, isWrite, override bool) (*Resolution, error) {
	t.mu.RLock()

	node := bestMatch(t.root, target)

	switch node.State {
	case StateDisabled:
		t.mu.RUnlock()
		return nil, ErrOperationsError

	case StateReferral:
		if !override {
			ref := node.Referral
			t.mu.RUnlock()
			return &Resolution{Node: node, Referral: ref}, nil
		}

	case StateReferralOnUpdate:
		if isWrite && !override {
			ref := node.Referral
			t.mu.RUnlock()
			return &Resolution{Node: node, Referral: ref}, nil
		}
	}

	if len(node.slots) == 0 {
		t.mu.RUnlock()
		return nil, fmt.Errorf("mappingtree: node %q has no backend slots", node.SuffixDN)
	}

	idx := 0
	if len(node.slots) > 1 && node.Distribution != nil {
		names := node.BackendNames()
		states := make([]BackendState, len(node.slots))
		for i, s := range node.slots {
			states[i] = s.state
		}
		chosen, all := node.Distribution(target, names, states)
		if all {
			chosen = 0 // sentinel: caller iterates via EnumerateSubtree instead
		}
		idx = chosen
	}

	slot := node.slots[idx]
	slot.mu.RLock()
	t.mu.RUnlock()

	return &Resolution{Node: node, Backend: slot.backend, slot: slot}, nil
}

// SetBackendState transitions the named slot beneath node to newState,
// acquiring mt_lock in write mode only to flip the slot's recorded state.
// It then drains the slot itself by taking and releasing the slot's write
// lock after mt_lock is released, and notifies listeners once that returns
// (spec §4.5).
func (t *Tree) SetBackendState(node *Node, name string, newState BackendState) error {
	t.mu.Lock()
	var slot *backendSlot
	for _, s := range node.slots {
		if s.name == name {
			slot = s
			break
		}
	}
	if slot == nil {
		t.mu.Unlock()
		return fmt.Errorf("mappingtree: no backend slot %q on node %q", name, node.SuffixDN)
	}
	old := slot.state
	slot.state = newState
	t.mu.Unlock()

	// Drain: block until every in-progress read-locked operation on this
	// slot releases, then notify listeners.
	slot.mu.Lock()
	slot.mu.Unlock()

	t.notifyListeners(name, old, newState)
	return nil
}

// RegisterListener adds fn to the backend-state-change listener registry
// and returns a handle for later Unregister calls.
func (t *Tree) RegisterListener(fn StateChangeListener) uint64 {
	t.listenersMu.Lock()
	defer t.listenersMu.Unlock()
	t.nextHandle++
	handle := t.nextHandle
	t.listeners = append(t.listeners, listenerEntry{handle: handle, fn: fn})
	return handle
}

// UnregisterListener removes the listener registered under handle. It is
// idempotent: unregistering an unknown or already-removed handle is a
// no-op (spec §4.5).
func (t *Tree) UnregisterListener(handle uint64) {
	t.listenersMu.Lock()
	defer t.listenersMu.Unlock()
	for i, l := range t.listeners {
		if l.handle == handle {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			return
		}
	}
}

func (t *Tree) notifyListeners(name string, old, new BackendState) {
	t.listenersMu.Lock()
	snapshot := append([]listenerEntry(nil), t.listeners...)
	t.listenersMu.Unlock()
	for _, l := range snapshot {
		l.fn(name, old, new)
	}
}

// BackendSlotInfo is a read-only snapshot of one backend slot, for the
// admin API's mapping-tree inspection endpoint.
type BackendSlotInfo struct {
	Name  string
	State BackendState
}

// NodeInfo is a read-only snapshot of one mapping-tree node, for the
// admin API's mapping-tree inspection endpoint.
type NodeInfo struct {
	SuffixDN string
	State    NodeState
	Backends []BackendSlotInfo
}

// Snapshot returns a read-only view of every node in the tree, taken
// under a single read lock. It exists for the admin HTTP surface
// (SPEC_FULL.md §3: "/v1/mapping-tree") and is not used by the
// operation-resolution path itself.
func (t *Tree) Snapshot() []NodeInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []NodeInfo
	var walk func(n *Node)
	walk = func(n *Node) {
		info := NodeInfo{SuffixDN: n.SuffixDN, State: n.State}
		for _, s := range n.slots {
			info.Backends = append(info.Backends, BackendSlotInfo{Name: s.name, State: s.state})
		}
		out = append(out, info)
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// ScopeTriple is one (node, backend, referral) result from EnumerateSubtree.
type ScopeTriple struct {
	Node     *Node
	Backend  Backend
	Referral *entry.Entry
}

// EnumerateSubtree walks the subtree rooted at base (descending children
// before siblings, per spec §4.5's first_node/next_node contract),
// yielding one triple per backend slot per in-scope node. A referral
// encountered at base is terminal for that path; a referral found deeper
// only short-circuits that subtree. If oneLevel is true, only base's
// immediate children are visited (base itself is excluded).
func (t *Tree) EnumerateSubtree(base *Node, oneLevel bool, yield func(ScopeTriple) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	visit := func(n *Node, isBase bool) bool {
		if n.State == StateReferral || n.State == StateReferralOnUpdate {
			if !yield(ScopeTriple{Node: n, Referral: n.Referral}) {
				return false
			}
			if !isBase {
				return true // stop descending into this subtree, but keep enumerating siblings
			}
			return true
		}
		for _, s := range n.slots {
			if !yield(ScopeTriple{Node: n, Backend: s.backend}) {
				return false
			}
		}
		return true
	}

	if oneLevel {
		for _, c := range base.children {
			if !visit(c, false) {
				return
			}
		}
		return
	}

	var walk func(n *Node, isBase bool) bool
	walk = func(n *Node, isBase bool) bool {
		if !visit(n, isBase) {
			return false
		}
		if n.State == StateReferral || n.State == StateReferralOnUpdate {
			return true // referral terminates descent into n's children
		}
		for _, c := range n.children {
			if !walk(c, false) {
				return false
			}
		}
		return true
	}
	walk(base, true)
}
