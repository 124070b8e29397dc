package witgen

import (
	"testing"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/ast"
	"github.com/AztecProtocol/powdr/field"
	"github.com/AztecProtocol/powdr/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(name string) ast.Expr {
	return ast.NewReference(0, source.NoRef, ast.NamespacedRef{Name: name})
}

// |i| ("input", i) at row 3 must render as ("input", 3) (spec.md §4.3's
// worked pc := Query(|i| ("input", i)) example).
func TestRenderQuerySubstitutesRowForParam(t *testing.T) {
	lambda := &ast.LambdaExpr{
		Params: []string{"i"},
		Body:   ast.NewTuple(0, source.NoRef, []ast.Expr{ast.NewString(0, source.NoRef, "input"), ref("i")}),
	}
	assert.Equal(t, `("input", 3)`, renderQuery(lambda, 3))
}

func TestRenderQueryLeavesUnboundNamesAlone(t *testing.T) {
	lambda := &ast.LambdaExpr{
		Params: []string{"i"},
		Body:   ref("other"),
	}
	assert.Equal(t, "other", renderQuery(lambda, 5))
}

func TestQueryProcessorSkipsColumnsWithoutQueryValue(t *testing.T) {
	p := &QueryProcessor{Callback: func(string) (field.Element, bool, error) {
		t.Fatal("callback must not be invoked")
		return field.Zero, false, nil
	}}
	def := &analyzed.Definition{Symbol: &analyzed.Symbol{ID: 0, SubKind: analyzed.Committed}}
	res, err := p.Process(def, def.Symbol.PolyID(), 0)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
}

func TestQueryProcessorCommitsCallbackValue(t *testing.T) {
	var seen string
	p := &QueryProcessor{Callback: func(q string) (field.Element, bool, error) {
		seen = q
		return field.NewFromUint64(42), true, nil
	}}
	def := &analyzed.Definition{
		Symbol: &analyzed.Symbol{ID: 0, SubKind: analyzed.Committed},
		Value: &analyzed.FunctionValueDefinition{
			Kind:  analyzed.QueryValue,
			Query: &ast.LambdaExpr{Params: []string{"i"}, Body: ref("i")},
		},
	}
	res, err := p.Process(def, def.Symbol.PolyID(), 7)
	require.NoError(t, err)
	require.True(t, res.Resolved)
	assert.Equal(t, "7", seen)
	assert.True(t, res.Assignment.Value.Equal(field.NewFromUint64(42)))
}

func TestQueryProcessorLeavesUnresolvedWhenCallbackHasNoAnswer(t *testing.T) {
	p := &QueryProcessor{Callback: func(string) (field.Element, bool, error) {
		return field.Zero, false, nil
	}}
	def := &analyzed.Definition{
		Symbol: &analyzed.Symbol{ID: 0, SubKind: analyzed.Committed},
		Value: &analyzed.FunctionValueDefinition{
			Kind:  analyzed.QueryValue,
			Query: &ast.LambdaExpr{Params: []string{"i"}, Body: ref("i")},
		},
	}
	res, err := p.Process(def, def.Symbol.PolyID(), 0)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
}
