package witgen

import (
	"testing"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func col(id int64) analyzed.AlgebraicReference {
	return analyzed.AlgebraicReference{Poly: analyzed.PolyID{ID: id, SubKind: analyzed.Committed}}
}

func TestReduceFoldsKnownReferences(t *testing.T) {
	row := NewRow(testScope())
	row.SetKnown(col(0).Poly, field.NewFromUint64(3))
	rp := RowPair{Current: row, Next: NewRow(testScope())}

	expr := analyzed.NewBinaryOp(analyzed.AlgAdd, analyzed.NewReference(col(0)), analyzed.NewConstant(field.NewFromUint64(4)))
	reduced := Reduce(expr, rp)

	require.Equal(t, analyzed.AlgConstant, reduced.Kind)
	assert.True(t, reduced.Constant.Equal(field.NewFromUint64(7)))
}

func TestReduceLeavesUnknownReferenceIntact(t *testing.T) {
	row := NewRow(testScope())
	rp := RowPair{Current: row, Next: NewRow(testScope())}

	expr := analyzed.NewBinaryOp(analyzed.AlgAdd, analyzed.NewReference(col(0)), analyzed.NewConstant(field.One))
	reduced := Reduce(expr, rp)

	assert.Equal(t, analyzed.AlgBinaryOp, reduced.Kind)
	free := FreeRefs(reduced)
	require.Len(t, free, 1)
	assert.Equal(t, col(0), free[0])
}

// x + 5 = 0  =>  x = -5
func TestMatchAffineSolvesLinearEquation(t *testing.T) {
	expr := analyzed.NewBinaryOp(analyzed.AlgAdd, analyzed.NewReference(col(0)), analyzed.NewConstant(field.NewFromUint64(5)))
	val, ok := matchAffine(expr, col(0))
	require.True(t, ok)
	assert.True(t, val.Equal(field.Neg(field.NewFromUint64(5))))
}

func TestMatchAffineRejectsNonLinear(t *testing.T) {
	// x * x (degree 2)
	expr := analyzed.NewBinaryOp(analyzed.AlgMul, analyzed.NewReference(col(0)), analyzed.NewReference(col(0)))
	_, ok := matchAffine(expr, col(0))
	assert.False(t, ok)
}

// x * (x - 1) = 0  =>  x in {0, 1}, the spec's worked example.
func TestMatchRootProductFindsBooleanRoots(t *testing.T) {
	x := analyzed.NewReference(col(0))
	xMinusOne := analyzed.NewBinaryOp(analyzed.AlgSub, x, analyzed.NewConstant(field.One))
	expr := analyzed.NewBinaryOp(analyzed.AlgMul, x, xMinusOne)

	roots, ok := matchRootProduct(expr, col(0))
	require.True(t, ok)
	assert.ElementsMatch(t, []field.Element{field.Zero, field.One}, roots)
}

func TestMatchRootProductRejectsNonProductShape(t *testing.T) {
	expr := analyzed.NewBinaryOp(analyzed.AlgAdd, analyzed.NewReference(col(0)), analyzed.NewConstant(field.One))
	_, ok := matchRootProduct(expr, col(0))
	assert.False(t, ok)
}
