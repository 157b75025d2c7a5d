package axis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a, err := New("K_z", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Size())
	assert.Equal(t, "K_z", a.Label())
	assert.NotZero(t, a.ID())
}

func TestNewRejectsEmptySize(t *testing.T) {
	_, err := New("bad", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size must be >= 1")

	assert.Panics(t, func() { MustNew("bad", -1) })
}

func TestIdentityNotLabel(t *testing.T) {
	a := MustNew("K", 4)
	b := MustNew("K", 4)

	assert.NotSame(t, a, b)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.True(t, Contains([]*Axis{a}, a))
	assert.False(t, Contains([]*Axis{a}, b), "same label and size must not match")
}

func TestIDsIncrease(t *testing.T) {
	a := MustNew("a", 1)
	b := MustNew("b", 1)
	assert.Less(t, a.ID(), b.ID())
}

func TestSetHelpers(t *testing.T) {
	a := MustNew("a", 2)
	b := MustNew("b", 3)
	c := MustNew("c", 5)

	assert.Equal(t, []*Axis{a, b, c}, Union([]*Axis{a, b}, []*Axis{b, c}))
	assert.Equal(t, []*Axis{a}, Difference([]*Axis{a, b}, []*Axis{b, c}))
	assert.Equal(t, []*Axis{b}, Intersect([]*Axis{a, b}, []*Axis{b, c}))
	assert.Equal(t, 30, Volume([]*Axis{a, b, c}))
	assert.Equal(t, 1, Volume(nil))
	assert.Equal(t, []*Axis{a}, Duplicates([]*Axis{a, b, a, a}))
	assert.Empty(t, Duplicates([]*Axis{a, b, c}))

	assert.True(t, SameSequence([]*Axis{a, b}, []*Axis{a, b}))
	assert.False(t, SameSequence([]*Axis{a, b}, []*Axis{b, a}))

	axes := []*Axis{c, a, b}
	SortByID(axes)
	assert.Equal(t, []*Axis{a, b, c}, axes)
}

func TestString(t *testing.T) {
	a := MustNew("plate", 7)
	assert.Contains(t, a.String(), "plate#")
	assert.Contains(t, a.String(), "(7)")

	var nilAxis *Axis
	assert.Equal(t, "<nil>", nilAxis.String())
}
