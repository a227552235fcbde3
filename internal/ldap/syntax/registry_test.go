package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func telephoneDesc() *Descriptor {
	return &Descriptor{
		OID:           "1.3.6.1.4.1.1466.115.121.1.50",
		CanonicalName: "Telephone Number",
		Aliases:       []string{"telephoneNumberSyntax"},
		EqualityMR:    "telephoneNumberMatch",
	}
}

func TestAddRejectsDuplicateOIDWithoutOverride(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(telephoneDesc(), 0))
	err := r.Add(telephoneDesc(), 0)
	assert.ErrorIs(t, err, ErrTypeOrValueExists)
}

func TestAddRejectsDuplicateAlias(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(telephoneDesc(), 0))

	other := &Descriptor{OID: "9.9.9", CanonicalName: "Telephone Number"}
	err := r.Add(other, 0)
	assert.ErrorIs(t, err, ErrTypeOrValueExists)
}

func TestAddOverrideReplacesSameOID(t *testing.T) {
	r := New()
	orig := telephoneDesc()
	require.NoError(t, r.Add(orig, 0))

	replacement := telephoneDesc()
	replacement.EqualityMR = "caseIgnoreMatch"
	require.NoError(t, r.Add(replacement, Override))

	d := r.LookupByName("Telephone Number")
	require.NotNil(t, d)
	defer r.Return(d)
	assert.Equal(t, "caseIgnoreMatch", d.EqualityMR)
}

func TestAddOverrideRejectsAliasOwnedByDifferentOID(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(telephoneDesc(), 0))

	other := &Descriptor{OID: "9.9.9", CanonicalName: "Something Else", Aliases: []string{"somethingElseSyntax"}}
	require.NoError(t, r.Add(other, 0))

	collide := telephoneDesc()
	collide.Aliases = append(collide.Aliases, "somethingElseSyntax")
	err := r.Add(collide, Override)
	assert.ErrorIs(t, err, ErrTypeOrValueExists)
}

func TestLookupByNameCaseInsensitiveAndByOID(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(telephoneDesc(), 0))

	d := r.LookupByName("TELEPHONENUMBERSYNTAX")
	require.NotNil(t, d)
	r.Return(d)

	d = r.LookupByName("1.3.6.1.4.1.1466.115.121.1.50")
	require.NotNil(t, d)
	r.Return(d)

	assert.Nil(t, r.LookupByName("no such syntax"))
}

func TestLookupWithDefaultFallsBackToOctetString(t *testing.T) {
	r := New()
	require.NoError(t, r.InstallDefaults())

	d := r.LookupWithDefault("unknownAttributeSyntax")
	require.NotNil(t, d)
	defer r.Return(d)
	assert.Equal(t, "Octet String", d.CanonicalName)
}

func TestDeleteDefersUntilRefcountZero(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(telephoneDesc(), 0))

	d := r.LookupByName("Telephone Number")
	require.NotNil(t, d)

	r.Delete(d)
	assert.NotNil(t, r.LookupByName("Telephone Number"), "descriptor stays registered while refs remain")

	r.Return(d) // release the LookupByName ref
	r.Return(d) // release the extra ref taken just above
	assert.Nil(t, r.LookupByName("Telephone Number"), "descriptor freed once last ref returned")
}

func TestEnumerateInsertionOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(&Descriptor{OID: "1.1", CanonicalName: "A"}, 0))
	require.NoError(t, r.Add(&Descriptor{OID: "1.2", CanonicalName: "B"}, 0))
	require.NoError(t, r.Add(&Descriptor{OID: "1.3", CanonicalName: "C"}, 0))

	var names []string
	r.Enumerate(false, func(d *Descriptor) EnumerateAction {
		names = append(names, d.CanonicalName)
		return Next
	})
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestAttrBaseTypeStripsOption(t *testing.T) {
	var buf [64]byte
	assert.Equal(t, "userCertificate", AttrBaseType("userCertificate;binary", buf[:]))
	assert.Equal(t, "cn", AttrBaseType("cn", buf[:]))
}
