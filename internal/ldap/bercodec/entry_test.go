package bercodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldapcore/ldapd/internal/ldap/csn"
	"github.com/ldapcore/ldapd/internal/ldap/entry"
	"github.com/ldapcore/ldapd/internal/ldap/value"
)

func mkCSN(tstamp uint64, seq uint16) csn.CSN {
	return csn.New(tstamp, seq, 1, 0)
}

func buildTestEntry(t *testing.T) *entry.Entry {
	t.Helper()
	e, err := entry.New("uid=alice,ou=people,o=x")
	require.NoError(t, err)

	cn := value.NewAttribute("cn")
	v := value.NewValue([]byte("Alice"))
	v.CSNs.Add(csn.ValueUpdated, mkCSN(1, 1))
	v.CSNs.Add(csn.ValueDistinguished, mkCSN(1, 1))
	require.NoError(t, cn.Present.Add(v, value.DupCheck, nil))
	e.AddPresentAttribute(cn)

	oc := value.NewAttribute("objectclass")
	for _, name := range []string{"top", "person"} {
		require.NoError(t, oc.Present.Add(value.NewValue([]byte(name)), value.NoDupCheck, nil))
	}
	e.AddPresentAttribute(oc)

	mail := value.NewAttribute("mail")
	dcsn := mkCSN(2, 0)
	mail.DeletionCSN = &dcsn
	deletedVal := value.NewValue([]byte("old@example.com"))
	deletedVal.CSNs.Add(csn.ValueDeleted, mkCSN(2, 0))
	require.NoError(t, mail.Deleted.Add(deletedVal, value.NoDupCheck, nil))
	e.AddPresentAttribute(mail)

	return e
}

func TestRoundTripPreservesUniqueIDAndDN(t *testing.T) {
	e := buildTestEntry(t)
	buf, err := Encode(e)
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, e.UniqueID, got.UniqueID)
	assert.Equal(t, e.Dn.Normalized(), got.Dn.Normalized())
}

func TestRoundTripPreservesAttributesAndCSNs(t *testing.T) {
	e := buildTestEntry(t)
	buf, err := Encode(e)
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)

	cn := got.FindAttr("cn")
	require.NotNil(t, cn)
	require.Equal(t, 1, cn.Present.Len())
	assert.Equal(t, "Alice", string(cn.Present.At(0).Bytes))
	c, ok := cn.Present.At(0).CSNs.Get(csn.ValueUpdated)
	require.True(t, ok)
	assert.Equal(t, mkCSN(1, 1), c)

	mail := got.FindAttr("mail")
	require.NotNil(t, mail)
	require.NotNil(t, mail.DeletionCSN)
	assert.Equal(t, mkCSN(2, 0), *mail.DeletionCSN)
	require.Equal(t, 1, mail.Deleted.Len())
	assert.Equal(t, "old@example.com", string(mail.Deleted.At(0).Bytes))
}

func TestRoundTripSetsSubentryAndTombstoneFlags(t *testing.T) {
	e, err := entry.New("cn=x,o=x")
	require.NoError(t, err)
	oc := value.NewAttribute("objectclass")
	require.NoError(t, oc.Present.Add(value.NewValue([]byte("ldapSubentry")), value.NoDupCheck, nil))
	require.NoError(t, oc.Present.Add(value.NewValue([]byte("nsTombstone")), value.NoDupCheck, nil))
	e.AddPresentAttribute(oc)

	buf, err := Encode(e)
	require.NoError(t, err)
	got, err := Decode(buf)
	require.NoError(t, err)
	assert.True(t, got.IsSubentry())
	assert.True(t, got.IsTombstone())
}

func TestDecodeRejectsTruncatedBuffer(t *testing.T) {
	e := buildTestEntry(t)
	buf, err := Encode(e)
	require.NoError(t, err)

	_, err = Decode(buf[:len(buf)-5])
	assert.Error(t, err)
}

func TestDecodeRejectsMissingUniqueID(t *testing.T) {
	var body []byte
	body = append(body, TagSequence)
	// empty content: no uniqueid, no dn
	body = append(body, 0x00)
	_, err := Decode(body)
	assert.Error(t, err)
}
