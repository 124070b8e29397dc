package analyzer

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

// x * (x - 1) = 0, the spec's worked boolean-constraint example.
func booleanIdentity(name string) ast.Expr {
	xMinusOne := ast.NewBinaryOp(0, source.NoRef, ast.Sub, ref(name), num(1))
	return ast.NewBinaryOp(0, source.NoRef, ast.Mul, ref(name), xMinusOne)
}

func TestAnalyzeSimpleProgram(t *testing.T) {
	stmts := []*ast.Statement{
		{Kind: ast.NamespaceKind, NamespaceName: "Main", NamespaceDegree: num(4), Ref: source.Ref{File: "t.pil", Line: 1}},
		{Kind: ast.PolynomialCommitDeclarationKind, ColumnNames: []string{"x"}, ColumnLens: []int{0}, Ref: source.Ref{File: "t.pil", Line: 2}},
		{Kind: ast.PolynomialIdentityKind, Identity: booleanIdentity("x"), Ref: source.Ref{File: "t.pil", Line: 3}},
		{Kind: ast.PublicDeclarationKind, PublicName: "out", PublicColumn: ast.NamespacedRef{Name: "x"}, PublicRow: num(0), Ref: source.Ref{File: "t.pil", Line: 4}},
	}

	result, err := Analyze("t.pil", stmts, Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Degree)
	require.Len(t, result.Identities, 1)
	assert.Equal(t, analyzed.PolynomialIdentity, result.Identities[0].Kind)
	require.Len(t, result.Publics, 1)

	printed := analyzed.Print(result)
	assert.Contains(t, printed, "col witness x")
	assert.Contains(t, printed, "= 0;")
}

// The analyzer accepts Connect syntactically but must fail it at the
// condenser (spec.md §9 DESIGN NOTES open question).
func TestAnalyzeRejectsConnectIdentity(t *testing.T) {
	stmts := []*ast.Statement{
		{Kind: ast.NamespaceKind, NamespaceName: "Main", NamespaceDegree: num(4), Ref: source.Ref{File: "t.pil", Line: 1}},
		{Kind: ast.PolynomialCommitDeclarationKind, ColumnNames: []string{"x"}, ColumnLens: []int{0}, Ref: source.Ref{File: "t.pil", Line: 2}},
		{Kind: ast.PolynomialCommitDeclarationKind, ColumnNames: []string{"y"}, ColumnLens: []int{0}, Ref: source.Ref{File: "t.pil", Line: 3}},
		{
			Kind: ast.ConnectIdentityKind,
			Ref:  source.Ref{File: "t.pil", Line: 4},
			Left: ast.SelectedExpressions{Expressions: []ast.Expr{ref("x")}},
			Right: ast.SelectedExpressions{Expressions: []ast.Expr{ref("y")}},
		},
	}
	_, err := Analyze("t.pil", stmts, Options{})
	require.Error(t, err)
}

func TestAnalyzeReportsNamespaceDegreeMismatch(t *testing.T) {
	stmts := []*ast.Statement{
		{Kind: ast.NamespaceKind, NamespaceName: "A", NamespaceDegree: num(4), Ref: source.Ref{File: "t.pil", Line: 1}},
		{Kind: ast.NamespaceKind, NamespaceName: "B", NamespaceDegree: num(8), Ref: source.Ref{File: "t.pil", Line: 2}},
	}
	_, err := Analyze("t.pil", stmts, Options{})
	require.Error(t, err)
}

// col fixed first = [1]+[0]*; at degree 4 must materialize as [1, 0, 0, 0].
func TestAnalyzeFixedColumnArrayDefinition(t *testing.T) {
	stmts := []*ast.Statement{
		{Kind: ast.NamespaceKind, NamespaceName: "Main", NamespaceDegree: num(4), Ref: source.Ref{File: "t.pil", Line: 1}},
		{Kind: ast.PolynomialConstantDefinitionKind, Name: "first", ArrayBody: []ast.Expr{num(1)}, RepeatBody: []ast.Expr{num(0)}, Ref: source.Ref{File: "t.pil", Line: 2}},
	}
	result, err := Analyze("t.pil", stmts, Options{})
	require.NoError(t, err)

	def, ok := result.Definitions["Main.first"]
	require.True(t, ok)
	require.NotNil(t, def.Value)
	require.NotNil(t, def.Value.Array)

	values := def.Value.Array.Values()
	require.Len(t, values, 4)
	assert.True(t, values[0].Equal(field.One))
	for _, v := range values[1:] {
		assert.True(t, v.IsZero())
	}
}
