package witgen

import (
	"testing"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/field"
	"github.com/AztecProtocol/powdr/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowPairOverScope() RowPair {
	return RowPair{Current: NewRow(testScope()), Next: NewRow(testScope())}
}

func TestProcessSatisfiedConstantIdentityIsComplete(t *testing.T) {
	p := &IdentityProcessor{}
	id := analyzed.NewPolynomialIdentity(0, source.NoRef, analyzed.NewConstant(field.Zero))
	res, err := p.Process(id, rowPairOverScope())
	require.NoError(t, err)
	assert.True(t, res.Complete)
	assert.Empty(t, res.Assignments)
}

func TestProcessUnsatisfiedConstantIdentityErrors(t *testing.T) {
	p := &IdentityProcessor{}
	id := analyzed.NewPolynomialIdentity(0, source.NoRef, analyzed.NewConstant(field.One))
	_, err := p.Process(id, rowPairOverScope())
	require.Error(t, err)
}

func TestProcessLinearIdentityYieldsAssignment(t *testing.T) {
	p := &IdentityProcessor{}
	// c0 - 9 = 0  =>  c0 = 9
	expr := analyzed.NewBinaryOp(analyzed.AlgSub, analyzed.NewReference(col(0)), analyzed.NewConstant(field.NewFromUint64(9)))
	id := analyzed.NewPolynomialIdentity(0, source.NoRef, expr)

	res, err := p.Process(id, rowPairOverScope())
	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	assert.True(t, res.Assignments[0].Value.Equal(field.NewFromUint64(9)))
	assert.Equal(t, col(0), res.Assignments[0].Ref)
}

func TestProcessBooleanIdentityYieldsRangeConstraint(t *testing.T) {
	p := &IdentityProcessor{}
	x := analyzed.NewReference(col(0))
	expr := analyzed.NewBinaryOp(analyzed.AlgMul, x, analyzed.NewBinaryOp(analyzed.AlgSub, x, analyzed.NewConstant(field.One)))
	id := analyzed.NewPolynomialIdentity(0, source.NoRef, expr)

	res, err := p.Process(id, rowPairOverScope())
	require.NoError(t, err)
	require.Len(t, res.Constraints, 1)
	assert.True(t, res.Constraints[0].Constraint.Allows(field.Zero))
	assert.True(t, res.Constraints[0].Constraint.Allows(field.One))
	assert.False(t, res.Constraints[0].Constraint.Allows(field.NewFromUint64(2)))
}

func TestProcessUnderdeterminedIdentityMakesNoProgress(t *testing.T) {
	p := &IdentityProcessor{}
	// c0 + c1 = 0: two free references, neither pattern matcher applies.
	expr := analyzed.NewBinaryOp(analyzed.AlgAdd, analyzed.NewReference(col(0)), analyzed.NewReference(col(1)))
	id := analyzed.NewPolynomialIdentity(0, source.NoRef, expr)

	res, err := p.Process(id, rowPairOverScope())
	require.NoError(t, err)
	assert.False(t, res.Complete)
	assert.Empty(t, res.Assignments)
	assert.Empty(t, res.Constraints)
}

func TestProcessConnectIdentityIsRejected(t *testing.T) {
	p := &IdentityProcessor{}
	id := &analyzed.Identity{ID: 0, Kind: analyzed.ConnectIdentity}
	_, err := p.Process(id, rowPairOverScope())
	assert.Error(t, err)
}
