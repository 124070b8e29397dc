package witgen

import (
	"testing"

	"github.com/AztecProtocol/powdr/field"
	"github.com/stretchr/testify/assert"
)

func TestNewBitConstraintAllowsExactlyRange(t *testing.T) {
	c := NewBitConstraint(2)
	for i := uint64(0); i < 4; i++ {
		assert.True(t, c.Allows(field.NewFromUint64(i)), "value %d should be allowed", i)
	}
	assert.False(t, c.Allows(field.NewFromUint64(4)))
}

func TestNewBitConstraintZeroBitsIsZeroOnly(t *testing.T) {
	c := NewBitConstraint(0)
	assert.True(t, c.Allows(field.Zero))
	assert.False(t, c.Allows(field.One))
}

func TestNewEnumerationAllowsOnlyListedValues(t *testing.T) {
	c := NewEnumeration([]field.Element{field.Zero, field.NewFromUint64(5)})
	assert.True(t, c.Allows(field.Zero))
	assert.True(t, c.Allows(field.NewFromUint64(5)))
	assert.False(t, c.Allows(field.NewFromUint64(1)))
	assert.False(t, c.Allows(field.NewFromUint64(4)))
}

func TestIntersectNarrows(t *testing.T) {
	a := NewEnumeration([]field.Element{field.Zero, field.One, field.NewFromUint64(2)})
	b := NewEnumeration([]field.Element{field.One, field.NewFromUint64(2), field.NewFromUint64(3)})
	got := Intersect(a, b)
	values, ok := got.Enumerated()
	assert.True(t, ok)
	assert.ElementsMatch(t, []field.Element{field.One, field.NewFromUint64(2)}, values)
}

func TestIntersectWithUnconstrainedIsIdentity(t *testing.T) {
	a := NewBitConstraint(3)
	assert.True(t, Intersect(a, Unconstrained).Equal(a))
	assert.True(t, Intersect(Unconstrained, a).Equal(a))
}

func TestIntersectOfBoundsTakesMin(t *testing.T) {
	a := NewBitConstraint(40)
	b := NewBitConstraint(20)
	got := Intersect(a, b)
	assert.True(t, got.Allows(field.NewFromUint64(1 << 19)))
	assert.False(t, got.Allows(field.NewFromUint64(1 << 20)))
}

func TestEqualDistinguishesUnconstrained(t *testing.T) {
	assert.True(t, Unconstrained.Equal(Unconstrained))
	assert.False(t, Unconstrained.Equal(NewBitConstraint(1)))
}
