package witgen

import (
	"context"
	"math/big"
	"testing"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/ast"
	"github.com/AztecProtocol/powdr/field"
	"github.com/AztecProtocol/powdr/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// booleanProgram builds a one-column, one-identity program over degree rows:
// x * (x - 1) = 0, the spec's worked boolean-constraint example. x also
// carries a trivial Query(|i| 0) value so tests can seed it through the
// callback without having to add a second identity.
func booleanProgram(degree int) (*analyzed.Analyzed, []analyzed.PolyID, []*analyzed.Identity) {
	x := analyzed.AlgebraicReference{Poly: analyzed.PolyID{ID: 0, SubKind: analyzed.Committed}}
	expr := analyzed.NewBinaryOp(analyzed.AlgMul,
		analyzed.NewReference(x),
		analyzed.NewBinaryOp(analyzed.AlgSub, analyzed.NewReference(x), analyzed.NewConstant(field.One)))
	id := analyzed.NewPolynomialIdentity(0, source.NoRef, expr)

	prog := &analyzed.Analyzed{
		Degree:      degree,
		Definitions: map[string]*analyzed.Definition{},
	}
	prog.Definitions["Main.x"] = &analyzed.Definition{
		Symbol: &analyzed.Symbol{ID: 0, AbsoluteName: "Main.x", Kind: analyzed.KindPolynomial, SubKind: analyzed.Committed, Degree: degree},
		Value: &analyzed.FunctionValueDefinition{
			Kind:  analyzed.QueryValue,
			Query: &ast.LambdaExpr{Params: []string{"i"}, Body: ast.NewNumber(0, source.NoRef, big.NewInt(0))},
		},
	}

	scope := []analyzed.PolyID{x.Poly}
	return prog, scope, []*analyzed.Identity{id}
}

func newTestVmProcessor(degree int) *VmProcessor {
	prog, scope, identities := booleanProgram(degree)
	idProc := &IdentityProcessor{}
	queryProc := &QueryProcessor{}
	return NewVmProcessor(prog, scope, identities, idProc, queryProc)
}

// queryOnlyProgram is a single Query-valued column with no identity
// narrowing it, so a resolving callback is the only thing that can ever
// make the column Known (spec.md's worked `pc := Query(|i| ("input", i))`
// scenario).
func queryOnlyProgram(degree int) (*analyzed.Analyzed, []analyzed.PolyID) {
	pc := analyzed.PolyID{ID: 0, SubKind: analyzed.Committed}
	prog := &analyzed.Analyzed{
		Degree:      degree,
		Definitions: map[string]*analyzed.Definition{},
	}
	prog.Definitions["Main.pc"] = &analyzed.Definition{
		Symbol: &analyzed.Symbol{ID: 0, AbsoluteName: "Main.pc", Kind: analyzed.KindPolynomial, SubKind: analyzed.Committed, Degree: degree},
		Value: &analyzed.FunctionValueDefinition{
			Kind:  analyzed.QueryValue,
			Query: &ast.LambdaExpr{Params: []string{"i"}, Body: ast.NewNumber(0, source.NoRef, big.NewInt(0))},
		},
	}
	return prog, []analyzed.PolyID{pc}
}

// Without a seeded input, x never leaves its {0,1} range constraint: the
// final pass must reject this as underconstrained rather than accept it
// because the identity happens to hold under zero-fill.
func TestFinalPassRejectsNeverKnownCommittedCell(t *testing.T) {
	vp := newTestVmProcessor(4)
	err := vp.Run(context.Background())
	require.Error(t, err)
}

// A query callback that always answers lets every row settle to Known, and
// the row loop must produce degree+1 rows with the wrap-around row's
// committed cells equal to row 0's (spec.md §4.2's post-condition
// `data.len() == degree + 1`).
func TestRunProducesDegreePlusOneRowsWithWrapAround(t *testing.T) {
	const degree = 4
	prog, scope := queryOnlyProgram(degree)
	vp := NewVmProcessor(prog, scope, nil, &IdentityProcessor{}, &QueryProcessor{
		Callback: func(query string) (field.Element, bool, error) {
			return field.Zero, true, nil
		},
	})

	err := vp.Run(context.Background())
	require.NoError(t, err)

	pc := scope[0]
	assert.Equal(t, degree+1, vp.Data.Len())
	row0 := vp.Data.Get(0)
	wrap := vp.Data.Get(degree)
	assert.Equal(t, Known, wrap.Get(pc).State)
	assert.True(t, wrap.Get(pc).Value.Equal(row0.Get(pc).Value))
}

func TestDetectLoopFindsRepeatingPeriod(t *testing.T) {
	vp := newTestVmProcessor(16)
	x := analyzed.PolyID{ID: 0, SubKind: analyzed.Committed}
	for i := 0; i < 10; i++ {
		vp.Data.Push(NewRow(vp.Scope))
	}
	for i := 0; i < vp.Data.Len(); i++ {
		vp.Data.Get(i).SetKnown(x, field.Zero)
	}
	period, ok := vp.detectLoop(8)
	require.True(t, ok)
	assert.Equal(t, 1, period)
}

// A single-column always-zero program: every row trivially repeats with
// period 1, and the two-sided zero-strategy check must accept the proposal.
func TestVerifyProposedRowAcceptsConsistentRepeat(t *testing.T) {
	vp := newTestVmProcessor(8)
	x := analyzed.PolyID{ID: 0, SubKind: analyzed.Committed}
	vp.Data.Push(NewRow(vp.Scope))
	vp.Data.Push(NewRow(vp.Scope))
	vp.Data.Get(0).SetKnown(x, field.Zero)
	vp.Data.Get(1).SetKnown(x, field.Zero)

	proposed := vp.Data.Get(0).Clone()
	ok, err := vp.verifyProposedRow(1, proposed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyProposedRowRejectsInconsistentRepeat(t *testing.T) {
	vp := newTestVmProcessor(8)
	x := analyzed.PolyID{ID: 0, SubKind: analyzed.Committed}
	vp.Data.Push(NewRow(vp.Scope))
	vp.Data.Get(0).SetKnown(x, field.NewFromUint64(2)) // fails x*(x-1)=0

	proposed := vp.Data.Get(0).Clone()
	ok, err := vp.verifyProposedRow(1, proposed)
	require.NoError(t, err)
	assert.False(t, ok)
}
