package value

import "github.com/ldapcore/ldapd/internal/ldap/csn"

// FindResult is the outcome of Attribute.Find.
type FindResult int

const (
	NotFound FindResult = iota
	Present
	Deleted
)

// Attribute holds one normalized attribute type's present and deleted
// value sets, the matching rules resolved for it, and its own deletion CSN
// (spec §3, Attribute).
type Attribute struct {
	Type string // normalized attribute name

	// SyntaxOID names the C1 syntax descriptor governing this attribute's
	// values; resolution is done by the caller via the syntax registry,
	// this package only stores the OID to avoid a dependency cycle.
	SyntaxOID string
	EqualityMR string
	OrderingMR string
	SubstrMR   string

	Present *ValueSet
	Deleted *ValueSet

	// DeletionCSN is the CSN of the operation that deleted this whole
	// attribute, if any. Dominates any value CSN of lower order when
	// computing the attribute's effective state (spec §3 invariant).
	DeletionCSN *csn.CSN
}

// NewAttribute returns an empty Attribute of the given normalized type.
func NewAttribute(attrType string) *Attribute {
	return &Attribute{
		Type:    attrType,
		Present: NewValueSet(),
		Deleted: NewValueSet(),
	}
}

// equality returns the attribute's equality comparator, falling back to
// CaseIgnoreEquality when no matching rule has been wired in (mirrors the
// syntax registry's lookup_with_default never-nil contract at the
// attribute level).
func (a *Attribute) equality(eq EqualityFunc) EqualityFunc {
	if eq != nil {
		return eq
	}
	return CaseIgnoreEquality
}

// Find searches present values first, then deleted, returning which half
// matched (spec §4.3, Attribute::find).
func (a *Attribute) Find(v []byte, eq EqualityFunc) FindResult {
	eq = a.equality(eq)
	if a.Present.Find(v, eq) >= 0 {
		return Present
	}
	if a.Deleted.Find(v, eq) >= 0 {
		return Deleted
	}
	return NotFound
}

// Purge drops from Deleted every value whose every CSN is <= upTo,
// compressing the remaining values' CSN sets accordingly (spec §4.3,
// Attribute::purge).
func (a *Attribute) Purge(upTo csn.CSN) {
	kept := a.Deleted.values[:0]
	for _, v := range a.Deleted.values {
		v.CSNs.PurgeUpTo(upTo)
		if v.CSNs.Len() > 0 {
			kept = append(kept, v)
		}
	}
	a.Deleted.values = kept
}

// SetDeletionCSN replaces DeletionCSN with newCSN only if newCSN dominates
// (sorts after) the existing value; otherwise it is a no-op (spec §4.3,
// Attribute::set_deletion_csn).
func (a *Attribute) SetDeletionCSN(newCSN csn.CSN) {
	if a.DeletionCSN == nil || a.DeletionCSN.Less(newCSN) {
		c := newCSN
		a.DeletionCSN = &c
	}
}

// InvariantPresentDeletedDisjoint reports whether Present and Deleted share
// no value under eq — the invariant spec §8 requires of every attribute.
func (a *Attribute) InvariantPresentDeletedDisjoint(eq EqualityFunc) bool {
	eq = a.equality(eq)
	disjoint := true
	a.Present.Each(func(v *Value) {
		if a.Deleted.Find(v.Bytes, eq) >= 0 {
			disjoint = false
		}
	})
	return disjoint
}

// Clone returns a deep copy of a.
func (a *Attribute) Clone() *Attribute {
	cp := &Attribute{
		Type:       a.Type,
		SyntaxOID:  a.SyntaxOID,
		EqualityMR: a.EqualityMR,
		OrderingMR: a.OrderingMR,
		SubstrMR:   a.SubstrMR,
		Present:    a.Present.Clone(),
		Deleted:    a.Deleted.Clone(),
	}
	if a.DeletionCSN != nil {
		c := *a.DeletionCSN
		cp.DeletionCSN = &c
	}
	return cp
}
