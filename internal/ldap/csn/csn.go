// Package csn implements the Change-Sequence Number: a totally ordered
// logical clock used to order and reconcile replicated writes to directory
// entries (spec §3, CSN).
package csn

import (
	"fmt"
	"strconv"
	"strings"
)

// CSN is a logical clock value: (tstamp, seqnum, rid, subseqnum). It is
// totally ordered by lexicographic comparison of those four fields.
type CSN struct {
	Tstamp    uint64
	Seqnum    uint16
	Rid       uint16
	Subseqnum uint16
}

// Zero is the smallest possible CSN, useful as a purge/compare sentinel.
var Zero = CSN{}

// New builds a CSN from its four components.
func New(tstamp uint64, seqnum, rid, subseqnum uint16) CSN {
	return CSN{Tstamp: tstamp, Seqnum: seqnum, Rid: rid, Subseqnum: subseqnum}
}

// Compare returns -1, 0, or 1 as c is less than, equal to, or greater than
// other, comparing tstamp, seqnum, rid, subseqnum in that order.
func (c CSN) Compare(other CSN) int {
	if c.Tstamp != other.Tstamp {
		if c.Tstamp < other.Tstamp {
			return -1
		}
		return 1
	}
	if c.Seqnum != other.Seqnum {
		if c.Seqnum < other.Seqnum {
			return -1
		}
		return 1
	}
	if c.Rid != other.Rid {
		if c.Rid < other.Rid {
			return -1
		}
		return 1
	}
	if c.Subseqnum != other.Subseqnum {
		if c.Subseqnum < other.Subseqnum {
			return -1
		}
		return 1
	}
	return 0
}

// Equal reports whether all four components of c and other match.
func (c CSN) Equal(other CSN) bool { return c.Compare(other) == 0 }

// Less reports whether c sorts strictly before other.
func (c CSN) Less(other CSN) bool { return c.Compare(other) < 0 }

// LessOrEqual reports whether c sorts before or equal to other.
func (c CSN) LessOrEqual(other CSN) bool { return c.Compare(other) <= 0 }

// IsZero reports whether c is the zero CSN.
func (c CSN) IsZero() bool { return c == Zero }

// String returns the fixed-width canonical string form:
// "<8-hex-tstamp><4-hex-seqnum><4-hex-rid><4-hex-subseqnum>".
// 389-ds-base's canonical form is tstamp(8)+seq(4)+rid(4)+subseq(4) hex
// digits, 20 characters total; we reproduce that width here.
func (c CSN) String() string {
	return fmt.Sprintf("%08x%04x%04x%04x", c.Tstamp, c.Seqnum, c.Rid, c.Subseqnum)
}

// Parse parses the canonical 20-hex-digit string form produced by String.
func Parse(s string) (CSN, error) {
	if len(s) != 20 {
		return CSN{}, fmt.Errorf("csn: wrong length %d, want 20", len(s))
	}
	tstamp, err := strconv.ParseUint(s[0:8], 16, 64)
	if err != nil {
		return CSN{}, fmt.Errorf("csn: parse tstamp: %w", err)
	}
	seqnum, err := strconv.ParseUint(s[8:12], 16, 16)
	if err != nil {
		return CSN{}, fmt.Errorf("csn: parse seqnum: %w", err)
	}
	rid, err := strconv.ParseUint(s[12:16], 16, 16)
	if err != nil {
		return CSN{}, fmt.Errorf("csn: parse rid: %w", err)
	}
	subseqnum, err := strconv.ParseUint(s[16:20], 16, 16)
	if err != nil {
		return CSN{}, fmt.Errorf("csn: parse subseqnum: %w", err)
	}
	return CSN{
		Tstamp:    tstamp,
		Seqnum:    uint16(seqnum),
		Rid:       uint16(rid),
		Subseqnum: uint16(subseqnum),
	}, nil
}

// Max returns the greater of a and b.
func Max(a, b CSN) CSN {
	if a.Less(b) {
		return b
	}
	return a
}

// Type enumerates what role a CSN plays with respect to the value or
// attribute it is attached to (spec §3, CSNType).
type Type int

const (
	// ValueUpdated marks the CSN of the write that last set a value.
	ValueUpdated Type = iota + 1
	// ValueDeleted marks the CSN of the write that deleted a value.
	ValueDeleted
	// ValueDistinguished marks a value as contributing to the entry's RDN.
	ValueDistinguished
	// AttributeDeleted marks the CSN of the write that deleted an entire
	// attribute. Carried on the Attribute, never in a value's CSNSet, and
	// never serialized with an enumerated wire tag (spec §4.2).
	AttributeDeleted
)

func (t Type) String() string {
	switch t {
	case ValueUpdated:
		return "updated"
	case ValueDeleted:
		return "deleted"
	case ValueDistinguished:
		return "distinguished"
	case AttributeDeleted:
		return "attributeDeleted"
	default:
		return "unknown"
	}
}

// WireTag returns the BER ENUMERATED value for the three wire-representable
// CSN types (spec §4.2: updated=1, deleted=2, distinguished=3). AttributeDeleted
// has no wire tag; callers must not pass it here.
func (t Type) WireTag() (int, error) {
	switch t {
	case ValueUpdated:
		return 1, nil
	case ValueDeleted:
		return 2, nil
	case ValueDistinguished:
		return 3, nil
	default:
		return 0, fmt.Errorf("csn: type %v has no wire tag", t)
	}
}

// TypeFromWireTag maps a BER ENUMERATED value back to a Type.
func TypeFromWireTag(tag int) (Type, error) {
	switch tag {
	case 1:
		return ValueUpdated, nil
	case 2:
		return ValueDeleted, nil
	case 3:
		return ValueDistinguished, nil
	default:
		return 0, fmt.Errorf("csn: unknown wire tag %d", tag)
	}
}

// entry pairs a Type with its CSN for ordered storage in a Set.
type entry struct {
	typ Type
	csn CSN
}

// Set is a multimap from Type to CSN attached to a value, preserving
// insertion order on iteration (spec §3, CSNSet invariant ii). At most one
// AttributeDeleted entry may exist, and it is conventionally stored on the
// owning Attribute rather than inside a value's Set (invariant i).
type Set struct {
	entries []entry
}

// NewSet returns an empty CSN set.
func NewSet() *Set { return &Set{} }

// Add appends (typ, c) to the set. Per invariant (i), callers must not add
// more than one AttributeDeleted entry to a value-level Set; the attribute
// deletion CSN belongs on Attribute.DeletionCSN instead.
func (s *Set) Add(typ Type, c CSN) {
	s.entries = append(s.entries, entry{typ: typ, csn: c})
}

// Get returns the most recently added CSN of typ, if any.
func (s *Set) Get(typ Type) (CSN, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].typ == typ {
			return s.entries[i].csn, true
		}
	}
	return CSN{}, false
}

// Each iterates the set in insertion order.
func (s *Set) Each(fn func(typ Type, c CSN)) {
	for _, e := range s.entries {
		fn(e.typ, e.csn)
	}
}

// Len returns the number of (type, csn) entries in the set.
func (s *Set) Len() int { return len(s.entries) }

// Max returns the greatest CSN in the set, the zero CSN if empty.
func (s *Set) Max() CSN {
	var max CSN
	for _, e := range s.entries {
		if e.csn.Compare(max) > 0 {
			max = e.csn
		}
	}
	return max
}

// PurgeUpTo drops every entry whose CSN is <= upTo (spec §3: "a value
// purged up to csn X drops every entry whose CSN ≤ X").
func (s *Set) PurgeUpTo(upTo CSN) {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.csn.Compare(upTo) > 0 {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

// WireRepresentable iterates only the three wire-representable types
// (ValueUpdated/ValueDeleted/ValueDistinguished), skipping AttributeDeleted
// entries a caller may have stored alongside value CSNs by mistake; the BER
// codec uses this to implement "CSN-set minus any AttributeDeleted entries"
// (spec §4.2).
func (s *Set) WireRepresentable(fn func(typ Type, c CSN)) {
	s.Each(func(typ Type, c CSN) {
		if typ != AttributeDeleted {
			fn(typ, c)
		}
	})
}

// Clone returns a deep copy of s.
func (s *Set) Clone() *Set {
	cp := &Set{entries: make([]entry, len(s.entries))}
	copy(cp.entries, s.entries)
	return cp
}

// String renders the set for debugging as "type:csn,type:csn,...".
func (s *Set) String() string {
	parts := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		parts = append(parts, fmt.Sprintf("%s:%s", e.typ, e.csn))
	}
	return strings.Join(parts, ",")
}
