package analyzer

import (
	"testing"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/ast"
	"github.com/AztecProtocol/powdr/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpressionProcessorResolvesBareReference(t *testing.T) {
	symbols := NewSymbolTable()
	symbols.Declare(&analyzed.Symbol{AbsoluteName: "Main.x", Kind: analyzed.KindPolynomial, SubKind: analyzed.Committed}, false)
	errs := source.NewErrors()
	p := NewExpressionProcessor(symbols, errs, "Main")

	resolved := p.Resolve(ref("x"))
	require.False(t, errs.HasErrors())
	assert.Equal(t, "Main.x", resolved.AsReference().Name)
}

func TestExpressionProcessorLeavesLambdaParamsUnresolved(t *testing.T) {
	symbols := NewSymbolTable()
	errs := source.NewErrors()
	p := NewExpressionProcessor(symbols, errs, "Main")

	lambda := ast.NewLambda(0, source.NoRef, []string{"i"}, ref("i"))
	resolved := p.Resolve(lambda)
	require.False(t, errs.HasErrors())
	assert.Equal(t, "i", resolved.AsLambda().Body.AsReference().Name)
}

func TestExpressionProcessorReportsUnresolvedReference(t *testing.T) {
	symbols := NewSymbolTable()
	errs := source.NewErrors()
	p := NewExpressionProcessor(symbols, errs, "Main")

	p.Resolve(ref("missing"))
	require.True(t, errs.HasErrors())
	assert.True(t, source.KindUnresolvedReference.Is(errs.All()[0].Err))
}
