package entry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNormalizedSuffix(t *testing.T) {
	assert.True(t, IsNormalizedSuffix("o=x", "uid=a,ou=people,o=x"))
	assert.True(t, IsNormalizedSuffix("", "uid=a,ou=people,o=x"))
	assert.True(t, IsNormalizedSuffix("o=x", "o=x"))
	assert.False(t, IsNormalizedSuffix("o=y", "uid=a,ou=people,o=x"))
	assert.False(t, IsNormalizedSuffix("x=x", "uid=a,ou=people,o=x"), "must align on RDN boundary")
}

func TestSplitRdn(t *testing.T) {
	rdn, parent, ok := SplitRdn("uid=a,ou=people,o=x")
	require.True(t, ok)
	assert.Equal(t, "uid=a", rdn)
	assert.Equal(t, "ou=people,o=x", parent)

	rdn, parent, ok = SplitRdn("o=x")
	require.True(t, ok)
	assert.Equal(t, "o=x", rdn)
	assert.Equal(t, "", parent)

	_, _, ok = SplitRdn("")
	assert.False(t, ok)
}

func TestDnNormalizedCollapsesWhitespace(t *testing.T) {
	d := NewDn("cn = a , o = x")
	assert.Equal(t, "cn=a,o=x", d.Normalized())
	assert.Equal(t, "cn=a,o=x", d.CaseNormalized())
}

func TestNewEntryGetsUniqueID(t *testing.T) {
	e, err := New("cn=a,o=x")
	require.NoError(t, err)
	_, err = ParseUUID(e.UniqueID)
	require.NoError(t, err, "generated uniqueid must round-trip through ParseUUID")
	assert.Equal(t, "cn=a", e.Rdn.Normalized())
}

func TestParseUUIDStrictOnDashPositions(t *testing.T) {
	_, err := ParseUUID("11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)

	_, err = ParseUUID("111111111111-1111-1111-111111111111")
	assert.Error(t, err)
}

func TestObjectClassHasTombstoneOrSubentry(t *testing.T) {
	sub, tomb := ObjectClassHasTombstoneOrSubentry([][]byte{[]byte("top"), []byte("ldapSubentry")})
	assert.True(t, sub)
	assert.False(t, tomb)

	sub, tomb = ObjectClassHasTombstoneOrSubentry([][]byte{[]byte("nsTombstone")})
	assert.False(t, sub)
	assert.True(t, tomb)
}
