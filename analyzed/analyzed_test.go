package analyzed

import (
	"testing"

	"github.com/AztecProtocol/powdr/field"
	"github.com/AztecProtocol/powdr/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourColumnProgram() *Analyzed {
	a := New(4)
	for i := int64(0); i < 4; i++ {
		name := "T.c" + string(rune('0'+i))
		sym := &Symbol{ID: i, AbsoluteName: name, Kind: KindPolynomial, SubKind: Committed, Degree: 4}
		a.Definitions[name] = &Definition{Symbol: sym}
		a.SourceOrder = append(a.SourceOrder, SourceOrderEntry{Kind: SourceOrderDefinition, Name: name})
	}
	// identity referencing columns 0 and 2: c0 + c2 = 0
	ref0 := NewReference(AlgebraicReference{Poly: PolyID{ID: 0, SubKind: Committed}})
	ref2 := NewReference(AlgebraicReference{Poly: PolyID{ID: 2, SubKind: Committed}})
	expr := NewBinaryOp(AlgAdd, ref0, ref2)
	id := a.AppendPolynomialIdentity(expr, source.NoRef)
	_ = id
	return a
}

func TestRemovePolynomialsEmptyIsIdentity(t *testing.T) {
	a := fourColumnProgram()
	before := Print(a)
	a.RemovePolynomials(nil)
	assert.Equal(t, before, Print(a))
}

func TestRemovePolynomialsRenumbersAndRewrites(t *testing.T) {
	a := fourColumnProgram()
	a.RemovePolynomials(map[string]bool{"T.c1": true})

	require.Equal(t, 3, a.CountBySubKind(Committed))

	ids := map[int64]bool{}
	for _, def := range a.Definitions {
		ids[def.Symbol.ID] = true
	}
	assert.Equal(t, map[int64]bool{0: true, 1: true, 2: true}, ids)

	// original refs to id 0 and 2 (now renumbered to 0 and 1) must be rewritten
	expr := a.Identities[0].Expression()
	left := expr.Left.Reference
	right := expr.Right.Reference
	assert.Equal(t, int64(0), left.Poly.ID)
	assert.Equal(t, int64(1), right.Poly.ID)
}

func TestAppendPolynomialIdentityAssignsFreshID(t *testing.T) {
	a := fourColumnProgram()
	require.Len(t, a.Identities, 1)
	assert.Equal(t, int64(0), a.Identities[0].ID)

	expr2 := NewConstant(field.Zero)
	id2 := a.AppendPolynomialIdentity(expr2, source.NoRef)
	assert.Equal(t, int64(1), id2.ID)
	assert.Len(t, a.Identities, 2)
	assert.Equal(t, SourceOrderIdentity, a.SourceOrder[len(a.SourceOrder)-1].Kind)
}

func TestRemoveIdentitiesShiftsSourceOrder(t *testing.T) {
	a := fourColumnProgram()
	a.AppendPolynomialIdentity(NewConstant(field.Zero), source.NoRef)
	a.AppendPolynomialIdentity(NewConstant(field.One), source.NoRef)
	require.Len(t, a.Identities, 3)

	a.RemoveIdentities([]int{0})
	require.Len(t, a.Identities, 2)
	// the remaining identities keep their original (unrenumbered) ids
	assert.Equal(t, int64(1), a.Identities[0].ID)
	assert.Equal(t, int64(2), a.Identities[1].ID)

	for _, entry := range a.SourceOrder {
		if entry.Kind == SourceOrderIdentity {
			assert.True(t, entry.IdentityIndex < len(a.Identities))
		}
	}
}

func TestContainsNextRef(t *testing.T) {
	cur := NewReference(AlgebraicReference{Poly: PolyID{ID: 0, SubKind: Committed}})
	next := NewReference(AlgebraicReference{Poly: PolyID{ID: 0, SubKind: Committed}, Next: true})

	assert.False(t, ContainsNextRef(cur))
	assert.True(t, ContainsNextRef(next))
	assert.True(t, ContainsNextRef(NewBinaryOp(AlgAdd, cur, next)))
	assert.False(t, ContainsNextRef(NewBinaryOp(AlgAdd, cur, cur)))
}

func TestEvaluateConstant(t *testing.T) {
	two := NewConstant(field.NewFromUint64(2))
	three := NewConstant(field.NewFromUint64(3))
	sum := NewBinaryOp(AlgAdd, two, three)
	assert.True(t, EvaluateConstant(sum).Equal(field.NewFromUint64(5)))

	product := NewBinaryOp(AlgMul, two, three)
	assert.True(t, EvaluateConstant(product).Equal(field.NewFromUint64(6)))
}
