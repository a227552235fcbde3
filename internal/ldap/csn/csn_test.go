package csn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareTotalOrder(t *testing.T) {
	a := New(100, 1, 1, 0)
	b := New(100, 1, 1, 1)
	c := New(100, 1, 2, 0)
	d := New(101, 0, 0, 0)

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.True(t, c.Less(d))
	assert.True(t, a.Less(d))
}

func TestEqualRequiresAllFourComponents(t *testing.T) {
	a := New(100, 1, 2, 3)
	b := New(100, 1, 2, 3)
	assert.True(t, a.Equal(b))

	for _, mutate := range []CSN{
		New(101, 1, 2, 3),
		New(100, 2, 2, 3),
		New(100, 1, 3, 3),
		New(100, 1, 2, 4),
	} {
		assert.False(t, a.Equal(mutate))
	}
}

func TestStringRoundTrip(t *testing.T) {
	c := New(0x5f6e7d8c, 0x1234, 0x0001, 0xabcd)
	s := c.String()
	require.Len(t, s, 20)

	parsed, err := Parse(s)
	require.NoError(t, err)
	assert.True(t, c.Equal(parsed))
}

func TestParseRejectsWrongLength(t *testing.T) {
	_, err := Parse("short")
	assert.Error(t, err)
}

func TestWireTagRoundTrip(t *testing.T) {
	for _, typ := range []Type{ValueUpdated, ValueDeleted, ValueDistinguished} {
		tag, err := typ.WireTag()
		require.NoError(t, err)

		back, err := TypeFromWireTag(tag)
		require.NoError(t, err)
		assert.Equal(t, typ, back)
	}

	_, err := AttributeDeleted.WireTag()
	assert.Error(t, err, "AttributeDeleted has no wire tag")
}

func TestSetPurgeUpTo(t *testing.T) {
	s := NewSet()
	c1 := New(1, 0, 0, 0)
	c2 := New(2, 0, 0, 0)
	c3 := New(3, 0, 0, 0)
	s.Add(ValueUpdated, c1)
	s.Add(ValueDeleted, c2)
	s.Add(ValueUpdated, c3)

	s.PurgeUpTo(c2)

	require.Equal(t, 1, s.Len())
	got, ok := s.Get(ValueUpdated)
	require.True(t, ok)
	assert.True(t, got.Equal(c3))
}

func TestSetInsertionOrder(t *testing.T) {
	s := NewSet()
	c1 := New(1, 0, 0, 0)
	c2 := New(2, 0, 0, 0)
	s.Add(ValueUpdated, c1)
	s.Add(ValueDeleted, c2)

	var order []Type
	s.Each(func(typ Type, c CSN) { order = append(order, typ) })
	assert.Equal(t, []Type{ValueUpdated, ValueDeleted}, order)
}

func TestSetMax(t *testing.T) {
	s := NewSet()
	s.Add(ValueUpdated, New(5, 0, 0, 0))
	s.Add(ValueUpdated, New(9, 0, 0, 0))
	s.Add(ValueUpdated, New(3, 0, 0, 0))
	assert.True(t, s.Max().Equal(New(9, 0, 0, 0)))
}

func TestWireRepresentableSkipsAttributeDeleted(t *testing.T) {
	s := NewSet()
	s.Add(ValueUpdated, New(1, 0, 0, 0))
	s.Add(AttributeDeleted, New(2, 0, 0, 0))

	var seen []Type
	s.WireRepresentable(func(typ Type, c CSN) { seen = append(seen, typ) })
	assert.Equal(t, []Type{ValueUpdated}, seen)
}
