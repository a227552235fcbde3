package bercodec

import (
	"bytes"
	"fmt"

	"github.com/ldapcore/ldapd/internal/ldap/csn"
	"github.com/ldapcore/ldapd/internal/ldap/entry"
	"github.com/ldapcore/ldapd/internal/ldap/value"
)

// Encode produces a single BER buffer for e: uniqueid, then the
// normalized DN, then each attribute of e.Attrs in order (spec §4.2,
// encoder contract). e.DeletedAttrs is not encoded.
func Encode(e *entry.Entry) ([]byte, error) {
	var body bytes.Buffer
	if err := WriteOctetString(&body, []byte(e.UniqueID)); err != nil {
		return nil, err
	}
	if err := WriteOctetString(&body, []byte(e.Dn.Normalized())); err != nil {
		return nil, err
	}

	var attrsBody bytes.Buffer
	for _, a := range e.Attrs {
		enc, err := encodeAttribute(a)
		if err != nil {
			return nil, err
		}
		attrsBody.Write(enc)
	}
	if err := writeTLV(&body, TagSequence, attrsBody.Bytes()); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := writeTLV(&out, TagSequence, body.Bytes()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// encodeAttribute emits: type, (if present) attribute-deletion CSN, then
// the values SET (present values followed by deleted values). It writes
// no attribute-level deleted flag; value.Attribute has no such field.
func encodeAttribute(a *value.Attribute) ([]byte, error) {
	var body bytes.Buffer
	if err := WriteOctetString(&body, []byte(a.Type)); err != nil {
		return nil, err
	}
	if a.DeletionCSN != nil {
		if err := WriteOctetString(&body, []byte(a.DeletionCSN.String())); err != nil {
			return nil, err
		}
	}

	var valuesBody bytes.Buffer
	if a.Present != nil {
		a.Present.Each(func(v *value.Value) {
			enc, err := encodeAnnotatedValue(v, false)
			if err == nil {
				valuesBody.Write(enc)
			}
		})
	}
	if a.Deleted != nil {
		a.Deleted.Each(func(v *value.Value) {
			enc, err := encodeAnnotatedValue(v, true)
			if err == nil {
				valuesBody.Write(enc)
			}
		})
	}
	if err := writeTLV(&body, TagSet, valuesBody.Bytes()); err != nil {
		return nil, err
	}

	return EncodeConstructed(TagSequence, body.Bytes()), nil
}

// encodeAnnotatedValue emits: value bytes, deleted flag (only if
// deleted), then the value's CSN-set minus any AttributeDeleted entries.
func encodeAnnotatedValue(v *value.Value, deleted bool) ([]byte, error) {
	var body bytes.Buffer
	if err := WriteOctetString(&body, v.Bytes); err != nil {
		return nil, err
	}
	if deleted {
		if err := WriteBoolean(&body, true); err != nil {
			return nil, err
		}
	}

	var csnsBody bytes.Buffer
	if v.CSNs != nil {
		v.CSNs.WireRepresentable(func(typ csn.Type, c csn.CSN) {
			tag, err := typ.WireTag()
			if err != nil {
				return
			}
			enc, err := encodeAnnotatedCSN(tag, c)
			if err == nil {
				csnsBody.Write(enc)
			}
		})
	}
	if err := writeTLV(&body, TagSequence, csnsBody.Bytes()); err != nil {
		return nil, err
	}
	return EncodeConstructed(TagSequence, body.Bytes()), nil
}

func encodeAnnotatedCSN(wireTag int, c csn.CSN) ([]byte, error) {
	var body bytes.Buffer
	if err := WriteEnumerated(&body, wireTag); err != nil {
		return nil, err
	}
	if err := WriteOctetString(&body, []byte(c.String())); err != nil {
		return nil, err
	}
	return EncodeConstructed(TagSequence, body.Bytes()), nil
}

// Decode rebuilds an Entry from a BER buffer, attaching CSN sets to
// values and setting SUBENTRY/TOMBSTONE flags from objectClass (spec
// §4.2, decoder contract). The whole payload is rejected on any
// malformed input; nothing is partially committed.
func Decode(buf []byte) (e *entry.Entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, err = nil, fmt.Errorf("bercodec: decode failed: %v", r)
		}
	}()

	top := NewReader(buf)
	seq, err := top.EnterConstructed(TagSequence)
	if err != nil {
		return nil, fmt.Errorf("bercodec: %w", err)
	}

	uid, err := seq.ReadOctetString()
	if err != nil {
		return nil, fmt.Errorf("bercodec: missing uniqueid: %w", err)
	}
	dn, err := seq.ReadOctetString()
	if err != nil {
		return nil, fmt.Errorf("bercodec: missing dn: %w", err)
	}
	if len(uid) == 0 || len(dn) == 0 {
		return nil, fmt.Errorf("bercodec: empty uniqueid or dn")
	}

	result := &entry.Entry{
		Dn:       entry.NewDn(string(dn)),
		UniqueID: string(uid),
	}
	rdnStr, _, _ := entry.SplitRdn(result.Dn.Normalized())
	result.Rdn = entry.NewRdn(rdnStr)

	attrsSeq, err := seq.EnterConstructed(TagSequence)
	if err != nil {
		return nil, fmt.Errorf("bercodec: malformed attrs sequence: %w", err)
	}

	var objectClasses [][]byte
	for !attrsSeq.Exhausted() {
		attr, err := decodeAttribute(attrsSeq)
		if err != nil {
			return nil, fmt.Errorf("bercodec: malformed attribute: %w", err)
		}
		result.AddPresentAttribute(attr)
		if strEqualFold(attr.Type, "objectclass") && attr.Present != nil {
			attr.Present.Each(func(v *value.Value) {
				objectClasses = append(objectClasses, v.Bytes)
			})
		}
	}

	subentry, tombstone := entry.ObjectClassHasTombstoneOrSubentry(objectClasses)
	if subentry {
		result.SetFlag(entry.FlagSubentry)
	}
	if tombstone {
		result.SetFlag(entry.FlagTombstone)
	}

	return result, nil
}

func decodeAttribute(r *Reader) (*value.Attribute, error) {
	attrSeq, err := r.EnterConstructed(TagSequence)
	if err != nil {
		return nil, err
	}

	typeBytes, err := attrSeq.ReadOctetString()
	if err != nil {
		return nil, fmt.Errorf("missing attribute type: %w", err)
	}
	attr := value.NewAttribute(string(typeBytes))

	// The attribute-deletion CSN is disambiguated by peek-tag: it is the
	// only OCTET STRING that can appear at this point (spec §4.2).
	if tag, err := attrSeq.PeekTag(); err == nil && tag == TagOctetStr {
		adcsnBytes, err := attrSeq.ReadOctetString()
		if err != nil {
			return nil, fmt.Errorf("malformed attribute-deletion csn: %w", err)
		}
		c, err := csn.Parse(string(adcsnBytes))
		if err != nil {
			return nil, fmt.Errorf("malformed attribute-deletion csn: %w", err)
		}
		attr.DeletionCSN = &c
	}

	if tag, err := attrSeq.PeekTag(); err == nil && tag == TagBoolean {
		if _, err := attrSeq.ReadBoolean(); err != nil {
			return nil, fmt.Errorf("malformed attribute deleted flag: %w", err)
		}
	}

	valuesSet, err := attrSeq.EnterConstructed(TagSet)
	if err != nil {
		return nil, fmt.Errorf("malformed values set: %w", err)
	}
	for !valuesSet.Exhausted() {
		v, deleted, err := decodeAnnotatedValue(valuesSet)
		if err != nil {
			return nil, fmt.Errorf("malformed annotated value: %w", err)
		}
		if deleted {
			if err := attr.Deleted.Add(v, value.NoDupCheck, nil); err != nil {
				return nil, err
			}
		} else {
			if err := attr.Present.Add(v, value.NoDupCheck, nil); err != nil {
				return nil, err
			}
		}
	}
	return attr, nil
}

func decodeAnnotatedValue(r *Reader) (v *value.Value, deleted bool, err error) {
	valSeq, err := r.EnterConstructed(TagSequence)
	if err != nil {
		return nil, false, err
	}

	bytesVal, err := valSeq.ReadOctetString()
	if err != nil {
		return nil, false, fmt.Errorf("missing value bytes: %w", err)
	}

	if tag, err := valSeq.PeekTag(); err == nil && tag == TagBoolean {
		deleted, err = valSeq.ReadBoolean()
		if err != nil {
			return nil, false, fmt.Errorf("malformed deleted flag: %w", err)
		}
	}

	val := value.NewValue(bytesVal)
	csnSeq, err := valSeq.EnterConstructed(TagSequence)
	if err != nil {
		return nil, false, fmt.Errorf("malformed csns sequence: %w", err)
	}
	for !csnSeq.Exhausted() {
		typ, c, err := decodeAnnotatedCSN(csnSeq)
		if err != nil {
			return nil, false, err
		}
		val.CSNs.Add(typ, c)
	}
	return val, deleted, nil
}

func decodeAnnotatedCSN(r *Reader) (csn.Type, csn.CSN, error) {
	seq, err := r.EnterConstructed(TagSequence)
	if err != nil {
		return 0, csn.Zero, err
	}
	wireTag, err := seq.ReadEnumerated()
	if err != nil {
		return 0, csn.Zero, fmt.Errorf("missing csntype: %w", err)
	}
	typ, err := csn.TypeFromWireTag(wireTag)
	if err != nil {
		return 0, csn.Zero, fmt.Errorf("unknown csntype %d: %w", wireTag, err)
	}
	valBytes, err := seq.ReadOctetString()
	if err != nil {
		return 0, csn.Zero, fmt.Errorf("missing csn value: %w", err)
	}
	c, err := csn.Parse(string(valBytes))
	if err != nil {
		return 0, csn.Zero, fmt.Errorf("malformed csn value: %w", err)
	}
	return typ, c, nil
}

func strEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
