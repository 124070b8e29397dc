package witgen

import (
	"testing"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScope() []analyzed.PolyID {
	return []analyzed.PolyID{
		{ID: 0, SubKind: analyzed.Committed},
		{ID: 1, SubKind: analyzed.Committed},
	}
}

func TestRowStartsUnknown(t *testing.T) {
	r := NewRow(testScope())
	cell := r.Get(analyzed.PolyID{ID: 0, SubKind: analyzed.Committed})
	assert.Equal(t, Unknown, cell.State)
}

func TestSetKnownReportsChange(t *testing.T) {
	r := NewRow(testScope())
	id := analyzed.PolyID{ID: 0, SubKind: analyzed.Committed}
	assert.True(t, r.SetKnown(id, field.NewFromUint64(7)))
	assert.False(t, r.SetKnown(id, field.NewFromUint64(7)))
	assert.Equal(t, Known, r.Get(id).State)
}

func TestSetRangeConstraintNeverOverwritesKnown(t *testing.T) {
	r := NewRow(testScope())
	id := analyzed.PolyID{ID: 0, SubKind: analyzed.Committed}
	r.SetKnown(id, field.NewFromUint64(3))
	changed := r.SetRangeConstraint(id, NewBitConstraint(1))
	assert.False(t, changed)
	assert.Equal(t, Known, r.Get(id).State)
}

func TestRowEqualComparesState(t *testing.T) {
	a := NewRow(testScope())
	b := NewRow(testScope())
	assert.True(t, a.Equal(b))

	id := analyzed.PolyID{ID: 0, SubKind: analyzed.Committed}
	a.SetKnown(id, field.NewFromUint64(1))
	assert.False(t, a.Equal(b))
	b.SetKnown(id, field.NewFromUint64(1))
	assert.True(t, a.Equal(b))
}

func TestFinalizableDataPushAndGet(t *testing.T) {
	d := NewFinalizableData(testScope())
	d.Push(NewRow(testScope()))
	d.Push(NewRow(testScope()))
	require.Equal(t, 2, d.Len())

	id := analyzed.PolyID{ID: 0, SubKind: analyzed.Committed}
	d.Get(1).SetKnown(id, field.NewFromUint64(9))
	assert.Equal(t, field.NewFromUint64(9), d.Get(1).Get(id).Value)
}

func TestFinalizeCompactsPrefix(t *testing.T) {
	d := NewFinalizableData(testScope())
	for i := 0; i < 5; i++ {
		d.Push(NewRow(testScope()))
	}
	d.Finalize(0, 3)
	require.Equal(t, 5, d.Len())
	// rows beyond the finalized prefix are still reachable and mutable
	id := analyzed.PolyID{ID: 0, SubKind: analyzed.Committed}
	assert.True(t, d.Get(4).SetKnown(id, field.One))
}

func TestEnsureHasNextRowGrowsArena(t *testing.T) {
	d := NewFinalizableData(testScope())
	d.Push(NewRow(testScope()))
	d.EnsureHasNextRow(0)
	assert.Equal(t, 2, d.Len())
}
