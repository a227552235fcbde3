// Package entry implements the in-memory directory entry model: a DN/RDN,
// a uniqueid, the ordered attribute list, and the flags distinguishing
// tombstones and subentries (spec §3 Entry/Dn/Rdn; spec §4.4).
package entry

import (
	"github.com/ldapcore/ldapd/internal/ldap/csn"
	"github.com/ldapcore/ldapd/internal/ldap/value"
)

// Flags on an Entry.
type Flags uint8

const (
	FlagSubentry Flags = 1 << iota
	FlagTombstone
)

// Entry is the full in-memory representation of a directory entry (spec
// §3, Entry).
type Entry struct {
	Dn       *Dn
	Rdn      *Rdn
	UniqueID string

	DnCSNs *csn.Set
	MaxCSN csn.CSN

	Attrs        []*value.Attribute
	DeletedAttrs []*value.Attribute
	VirtualAttrs []*value.Attribute

	Flags      Flags
	Extensions map[string]any
}

// New builds an empty Entry for the given DN, with a fresh uniqueid.
func New(dn string) (*Entry, error) {
	uid, err := NewUniqueID()
	if err != nil {
		return nil, err
	}
	rdnStr, _, _ := SplitRdn(NewDn(dn).Normalized())
	return &Entry{
		Dn:       NewDn(dn),
		Rdn:      NewRdn(rdnStr),
		UniqueID: uid,
		DnCSNs:   csn.NewSet(),
	}, nil
}

// Stamp records c as the entry's max CSN if c dominates the current value
// (spec §3: "max_csn = sup of all CSNs ever stamped on the entry").
func (e *Entry) Stamp(c csn.CSN) {
	e.MaxCSN = csn.Max(e.MaxCSN, c)
}

// SetFlag sets f on the entry's flag bitset.
func (e *Entry) SetFlag(f Flags) { e.Flags |= f }

// HasFlag reports whether f is set.
func (e *Entry) HasFlag(f Flags) bool { return e.Flags&f != 0 }

// IsTombstone reports whether the entry is flagged as a tombstone.
func (e *Entry) IsTombstone() bool { return e.HasFlag(FlagTombstone) }

// IsSubentry reports whether the entry is flagged as an LDAP subentry.
func (e *Entry) IsSubentry() bool { return e.HasFlag(FlagSubentry) }

// AddPresentAttribute appends a to the entry's present attribute list,
// preserving insertion order for iteration (spec §4.4).
func (e *Entry) AddPresentAttribute(a *value.Attribute) {
	e.Attrs = append(e.Attrs, a)
}

// AddDeletedAttribute appends a to the entry's deleted-attribute list.
func (e *Entry) AddDeletedAttribute(a *value.Attribute) {
	e.DeletedAttrs = append(e.DeletedAttrs, a)
}

// FindAttr returns the present attribute of the given normalized type, or
// nil if absent (spec §4.4, attr_find).
func (e *Entry) FindAttr(attrType string) *value.Attribute {
	for _, a := range e.Attrs {
		if a.Type == attrType {
			return a
		}
	}
	return nil
}

// Dup returns a deep copy of the entry.
func (e *Entry) Dup() *Entry {
	cp := &Entry{
		Dn:       NewDn(e.Dn.Udn()),
		Rdn:      NewRdn(e.Rdn.Udn()),
		UniqueID: e.UniqueID,
		DnCSNs:   e.DnCSNs.Clone(),
		MaxCSN:   e.MaxCSN,
		Flags:    e.Flags,
	}
	for _, a := range e.Attrs {
		cp.Attrs = append(cp.Attrs, a.Clone())
	}
	for _, a := range e.DeletedAttrs {
		cp.DeletedAttrs = append(cp.DeletedAttrs, a.Clone())
	}
	for _, a := range e.VirtualAttrs {
		cp.VirtualAttrs = append(cp.VirtualAttrs, a.Clone())
	}
	if e.Extensions != nil {
		cp.Extensions = make(map[string]any, len(e.Extensions))
		for k, v := range e.Extensions {
			cp.Extensions[k] = v
		}
	}
	return cp
}

// ObjectClassHasTombstoneOrSubentry inspects the entry's objectClass
// values and reports whether the SUBENTRY and/or TOMBSTONE flags should be
// set, per spec §4.2's decode contract ("sets SUBENTRY and TOMBSTONE flags
// if objectClass contains ldapsubentry or the tombstone sentinel").
func ObjectClassHasTombstoneOrSubentry(objectClasses [][]byte) (subentry, tombstone bool) {
	for _, oc := range objectClasses {
		switch normalizeOC(oc) {
		case "ldapsubentry":
			subentry = true
		case "nstombstone":
			tombstone = true
		}
	}
	return subentry, tombstone
}

func normalizeOC(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
