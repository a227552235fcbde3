package entry

import "strings"

// Dn retains the three forms of a distinguished name lazily: as supplied
// (Udn), normalized (Dn), and case-normalized (Ndn) (spec §3, Dn/Rdn).
type Dn struct {
	udn string
	dn  string
	ndn string
}

// NewDn wraps the as-supplied DN string; normalized forms are computed on
// first access.
func NewDn(udn string) *Dn {
	return &Dn{udn: udn}
}

// Udn returns the DN exactly as supplied.
func (d *Dn) Udn() string { return d.udn }

// Normalized returns the DN with redundant whitespace around RDN/AVA
// separators collapsed, computing it on first call.
func (d *Dn) Normalized() string {
	if d.dn == "" && d.udn != "" {
		d.dn = normalizeSpacing(d.udn)
	}
	return d.dn
}

// CaseNormalized returns the DN additionally folded to lower case for
// case-insensitive comparison, computing it on first call.
func (d *Dn) CaseNormalized() string {
	if d.ndn == "" && d.udn != "" {
		d.ndn = strings.ToLower(d.Normalized())
	}
	return d.ndn
}

// normalizeSpacing strips whitespace immediately surrounding ',' and '='
// separators the way slapd's DN normalizer does, without attempting full
// RFC 4514 escaping (out of scope for this core per spec.md §1/Non-goals).
func normalizeSpacing(dn string) string {
	parts := strings.Split(dn, ",")
	for i, p := range parts {
		if eq := strings.IndexByte(p, '='); eq >= 0 {
			attr := strings.TrimSpace(p[:eq])
			val := strings.TrimSpace(p[eq+1:])
			parts[i] = attr + "=" + val
		} else {
			parts[i] = strings.TrimSpace(p)
		}
	}
	return strings.Join(parts, ",")
}

// IsSuffixOf reports whether d's normalized form is a suffix of target's
// normalized form at an RDN boundary — the building block for mapping-tree
// best-match resolution (spec §4.5).
func (d *Dn) IsSuffixOf(target *Dn) bool {
	return IsNormalizedSuffix(d.CaseNormalized(), target.CaseNormalized())
}

// IsNormalizedSuffix reports whether suffix is a normalized-DN suffix of
// dn, aligned on an RDN (',') boundary or an exact match.
func IsNormalizedSuffix(suffix, dn string) bool {
	if suffix == "" {
		return true // the root's empty suffix matches everything
	}
	if suffix == dn {
		return true
	}
	if !strings.HasSuffix(dn, suffix) {
		return false
	}
	idx := len(dn) - len(suffix)
	return idx > 0 && dn[idx-1] == ','
}

// Rdn is the relative distinguished name: the leading component of a Dn.
type Rdn struct {
	udn string
	dn  string
	ndn string
}

// NewRdn wraps the as-supplied RDN string.
func NewRdn(udn string) *Rdn { return &Rdn{udn: udn} }

// Udn returns the RDN exactly as supplied.
func (r *Rdn) Udn() string { return r.udn }

// Normalized returns the whitespace-normalized RDN.
func (r *Rdn) Normalized() string {
	if r.dn == "" && r.udn != "" {
		r.dn = normalizeSpacing(r.udn)
	}
	return r.dn
}

// CaseNormalized returns the case-folded, whitespace-normalized RDN.
func (r *Rdn) CaseNormalized() string {
	if r.ndn == "" && r.udn != "" {
		r.ndn = strings.ToLower(r.Normalized())
	}
	return r.ndn
}

// SplitRdn splits a normalized DN into its leading RDN and the remaining
// parent DN. Returns ok=false for an empty (root) DN.
func SplitRdn(dn string) (rdn, parent string, ok bool) {
	if dn == "" {
		return "", "", false
	}
	idx := strings.IndexByte(dn, ',')
	if idx < 0 {
		return dn, "", true
	}
	return dn[:idx], dn[idx+1:], true
}
