package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSetAddDupCheck(t *testing.T) {
	vs := NewValueSet()
	require.NoError(t, vs.Add(NewValue([]byte("a")), DupCheck, CaseIgnoreEquality))

	err := vs.Add(NewValue([]byte("A")), DupCheck, CaseIgnoreEquality)
	require.Error(t, err)
	var dup *ErrDuplicateValue
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 0, dup.Index)
	assert.Equal(t, 1, vs.Len(), "set unchanged on duplicate")
}

func TestValueSetAddAllInternalDuplicateLeavesSetUnchanged(t *testing.T) {
	vs := NewValueSet()
	require.NoError(t, vs.Add(NewValue([]byte("x")), NoDupCheck, CaseIgnoreEquality))

	err := vs.AddAll([]*Value{NewValue([]byte("a")), NewValue([]byte("a"))}, CaseIgnoreEquality)
	require.Error(t, err)
	assert.Equal(t, 1, vs.Len(), "set unchanged when input batch has an internal duplicate")
}

func TestValueSetFind(t *testing.T) {
	vs := NewValueSet()
	require.NoError(t, vs.Add(NewValue([]byte("hello")), NoDupCheck, CaseIgnoreEquality))
	require.NoError(t, vs.Add(NewValue([]byte("world")), NoDupCheck, CaseIgnoreEquality))

	assert.Equal(t, 1, vs.Find([]byte("WORLD"), CaseIgnoreEquality))
	assert.Equal(t, -1, vs.Find([]byte("nope"), CaseIgnoreEquality))
}

func TestAttributeFindSearchesPresentThenDeleted(t *testing.T) {
	a := NewAttribute("cn")
	require.NoError(t, a.Present.Add(NewValue([]byte("present-val")), NoDupCheck, CaseIgnoreEquality))
	require.NoError(t, a.Deleted.Add(NewValue([]byte("deleted-val")), NoDupCheck, CaseIgnoreEquality))

	assert.Equal(t, Present, a.Find([]byte("present-val"), nil))
	assert.Equal(t, Deleted, a.Find([]byte("deleted-val"), nil))
	assert.Equal(t, NotFound, a.Find([]byte("missing"), nil))
}

func TestAttributePresentDeletedDisjointInvariant(t *testing.T) {
	a := NewAttribute("cn")
	require.NoError(t, a.Present.Add(NewValue([]byte("a")), NoDupCheck, CaseIgnoreEquality))
	assert.True(t, a.InvariantPresentDeletedDisjoint(nil))

	require.NoError(t, a.Deleted.Add(NewValue([]byte("a")), NoDupCheck, CaseIgnoreEquality))
	assert.False(t, a.InvariantPresentDeletedDisjoint(nil))
}

func TestAttributeSetDeletionCSNOnlyAdvances(t *testing.T) {
	a := NewAttribute("mail")
	a.SetDeletionCSN(mkCSN(100))
	require.NotNil(t, a.DeletionCSN)
	assert.EqualValues(t, 100, a.DeletionCSN.Tstamp)

	a.SetDeletionCSN(mkCSN(50))
	assert.EqualValues(t, 100, a.DeletionCSN.Tstamp, "older csn must not replace newer")

	a.SetDeletionCSN(mkCSN(200))
	assert.EqualValues(t, 200, a.DeletionCSN.Tstamp)
}
