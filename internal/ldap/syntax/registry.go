// Package syntax implements the attribute-syntax / matching-rule registry
// (spec §4.1, C1): name/alias/OID-indexed descriptor tables with
// refcounted lifetime, shared by every attribute-type resolution in the
// server.
package syntax

import (
	"fmt"
	"strings"
	"sync"
)

// AddFlags control Add's collision behavior.
type AddFlags uint8

const (
	// Override: when the OID already exists, every alias must either be
	// absent or resolve to the same descriptor; the superseded descriptor
	// is marked for deletion rather than replaced in place (spec §4.1).
	Override AddFlags = 1 << iota
)

// Plugin is the syntax-specific validation/normalization hook a
// descriptor carries; concrete syntaxes (DirectoryString, OctetString,
// ...) implement it. Kept minimal since syntax grammars are out of scope
// per spec.md §1/Non-goals.
type Plugin interface {
	// Validate reports whether raw is a legal value of this syntax.
	Validate(raw []byte) error
	// Normalize returns raw in the syntax's canonical comparison form.
	Normalize(raw []byte) []byte
}

// Descriptor is one C1 registry entry (spec §3, "Syntax descriptor").
type Descriptor struct {
	OID           string
	CanonicalName string
	Aliases       []string
	Description   string
	Superior      string
	EqualityMR    string
	OrderingMR    string
	SubstrMR      string
	LengthBound   int
	Flags         uint32
	Plugin        Plugin

	mu              sync.Mutex
	refcnt          int
	markedForDelete bool
}

// Refcnt returns the descriptor's current reference count.
func (d *Descriptor) Refcnt() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.refcnt
}

func (d *Descriptor) retain() {
	d.mu.Lock()
	d.refcnt++
	d.mu.Unlock()
}

// release decrements the refcount and reports whether the descriptor
// should now be freed (marked for delete and refcnt reached zero), per
// spec §3's "refcnt reaches 0 and marked_for_delete is set ⇒ free on next
// return" invariant.
func (d *Descriptor) release() (shouldFree bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refcnt--
	return d.markedForDelete && d.refcnt <= 0
}

// ErrTypeOrValueExists is returned by Add on a collision without Override.
var ErrTypeOrValueExists = fmt.Errorf("syntax: TYPE_OR_VALUE_EXISTS")

// Registry holds the OID and name/alias lookup tables behind a single
// reader-writer lock (spec §4.1).
type Registry struct {
	mu       sync.RWMutex
	byOID    map[string]*Descriptor
	byName   map[string]*Descriptor // canonical name or alias, lower-cased
	all      []*Descriptor          // insertion-ordered, shares lifetime with the tables
	octetStr *Descriptor
	dirStr   *Descriptor
}

// New returns an empty registry. Call InstallDefaults to seed the
// Octet-String and synthetic default Directory-String descriptors that
// lookup_with_default falls back to.
func New() *Registry {
	return &Registry{
		byOID:  make(map[string]*Descriptor),
		byName: make(map[string]*Descriptor),
	}
}

// InstallDefaults registers the Octet-String syntax and a synthetic
// default Directory-String syntax, and remembers both as the
// lookup_with_default fallback chain (spec §4.1).
func (r *Registry) InstallDefaults() error {
	octetStr := &Descriptor{
		OID:           "1.3.6.1.4.1.1466.115.121.1.40",
		CanonicalName: "Octet String",
		EqualityMR:    "octetStringMatch",
		OrderingMR:    "octetStringOrderingMatch",
		SubstrMR:      "octetStringSubstringsMatch",
	}
	if err := r.Add(octetStr, 0); err != nil {
		return err
	}
	r.mu.Lock()
	r.octetStr = octetStr
	r.mu.Unlock()

	dirStr := &Descriptor{
		OID:           "1.3.6.1.4.1.1466.115.121.1.15",
		CanonicalName: "Directory String",
		EqualityMR:    "caseIgnoreMatch",
		OrderingMR:    "caseIgnoreOrderingMatch",
		SubstrMR:      "caseIgnoreSubstringsMatch",
	}
	if err := r.Add(dirStr, 0); err != nil {
		return err
	}
	r.mu.Lock()
	r.dirStr = dirStr
	r.mu.Unlock()
	return nil
}

func lowerAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	return out
}

// Add registers desc under its OID, canonical name, and aliases. Without
// Override, any collision on OID, canonical name, or alias returns
// ErrTypeOrValueExists. With Override, a collision on an existing OID is
// allowed only if every alias is either unclaimed or already resolves to
// the same descriptor; the prior descriptor for that OID is marked for
// deletion (spec §4.1).
func (r *Registry) Add(desc *Descriptor, flags AddFlags) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{desc.CanonicalName}, desc.Aliases...)
	lnames := lowerAll(names)

	existingByOID, oidTaken := r.byOID[desc.OID]

	if oidTaken && flags&Override == 0 {
		return ErrTypeOrValueExists
	}
	if oidTaken && flags&Override != 0 {
		for _, n := range lnames {
			if other, ok := r.byName[n]; ok && other != existingByOID {
				return ErrTypeOrValueExists
			}
		}
		existingByOID.mu.Lock()
		existingByOID.markedForDelete = true
		shouldFree := existingByOID.refcnt <= 0
		existingByOID.mu.Unlock()
		if shouldFree {
			r.removeFromList(existingByOID)
		}
	}
	if !oidTaken {
		for _, n := range lnames {
			if _, ok := r.byName[n]; ok {
				return ErrTypeOrValueExists
			}
		}
	}

	r.byOID[desc.OID] = desc
	for _, n := range lnames {
		r.byName[n] = desc
	}
	r.all = append(r.all, desc)
	return nil
}

func (r *Registry) removeFromList(desc *Descriptor) {
	for i, d := range r.all {
		if d == desc {
			r.all = append(r.all[:i], r.all[i+1:]...)
			return
		}
	}
}

// LookupByName resolves name as a canonical name, alias, or OID and
// retains (increments the refcount of) the result. Callers must call
// Return when done. Returns nil if nothing matches (spec §4.1,
// lookup_by_name).
func (r *Registry) LookupByName(name string) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.byOID[name]; ok {
		d.retain()
		return d
	}
	if d, ok := r.byName[strings.ToLower(name)]; ok {
		d.retain()
		return d
	}
	return nil
}

// LookupWithDefault is LookupByName but never returns nil: it falls back
// first to the Octet-String descriptor, then to the synthetic default
// Directory-String descriptor installed by InstallDefaults (spec §4.1).
func (r *Registry) LookupWithDefault(name string) *Descriptor {
	if d := r.LookupByName(name); d != nil {
		return d
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.octetStr != nil {
		r.octetStr.retain()
		return r.octetStr
	}
	r.dirStr.retain()
	return r.dirStr
}

// Return releases a descriptor obtained from LookupByName/LookupWithDefault.
// If the descriptor was marked for deletion and this was its last
// reference, it is removed from the registry after the read lock used for
// the decrement is released (spec §4.1: "decrements and, if
// marked_for_delete and refcnt==0, frees the descriptor outside the read
// lock").
func (r *Registry) Return(desc *Descriptor) {
	if desc == nil {
		return
	}
	if desc.release() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.freeLocked(desc)
	}
}

// freeLocked removes desc from all tables. Caller must hold r.mu for
// writing.
func (r *Registry) freeLocked(desc *Descriptor) {
	if r.byOID[desc.OID] == desc {
		delete(r.byOID, desc.OID)
	}
	names := append([]string{desc.CanonicalName}, desc.Aliases...)
	for _, n := range lowerAll(names) {
		if r.byName[n] == desc {
			delete(r.byName, n)
		}
	}
	r.removeFromList(desc)
}

// Delete frees desc immediately, removing every OID/name/alias mapping for
// it, when its refcount is zero. If the refcount is still positive, desc
// is only marked for deletion: its mappings stay in the tables, so lookups
// still find and retain it, until the Return that drops the refcount to
// zero removes them (spec §4.1).
func (r *Registry) Delete(desc *Descriptor) {
	if desc.Refcnt() > 0 {
		desc.mu.Lock()
		desc.markedForDelete = true
		desc.mu.Unlock()
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freeLocked(desc)
}

// EnumerateAction is returned by an Enumerate callback to control
// iteration, replacing the C-style sentinel return codes per spec.md §9
// Design Notes.
type EnumerateAction int

const (
	Next EnumerateAction = iota
	Stop
	Remove
)

// Enumerate invokes fn for every descriptor in insertion order. If
// writeLock is true, the whole pass holds the write lock and Remove is
// honored (the descriptor is unregistered immediately, bypassing
// refcounting, as a startup/shutdown-only primitive); otherwise the read
// lock is held and Remove is treated as Stop.
func (r *Registry) Enumerate(writeLock bool, fn func(*Descriptor) EnumerateAction) {
	if writeLock {
		r.mu.Lock()
		defer r.mu.Unlock()
	} else {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	snapshot := append([]*Descriptor(nil), r.all...)
	for _, d := range snapshot {
		switch fn(d) {
		case Stop:
			return
		case Remove:
			if writeLock {
				r.freeLocked(d)
			} else {
				return
			}
		}
	}
}

// Close unconditionally frees every descriptor, ignoring refcounts
// (recovered from original_source/attrsyntax.c's attr_syntax_free_all,
// the server-shutdown counterpart to the refcounted Delete; see
// SPEC_FULL.md §5).
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOID = make(map[string]*Descriptor)
	r.byName = make(map[string]*Descriptor)
	r.all = nil
	r.octetStr = nil
	r.dirStr = nil
}

// AttrBaseType returns the part of name before ';' (the option tag),
// without allocation: the result is a substring of name, which is also
// copied into buf when it fits there (spec §4.1, attr_basetype).
func AttrBaseType(name string, buf []byte) string {
	if idx := strings.IndexByte(name, ';'); idx >= 0 {
		name = name[:idx]
	}
	if len(buf) >= len(name) {
		copy(buf, name)
	}
	return name
}
