package analyzer

import (
	"math/big"
	"testing"

	"github.com/AztecProtocol/powdr/ast"
	"github.com/AztecProtocol/powdr/field"
	"github.com/AztecProtocol/powdr/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(n int64) ast.Expr {
	return ast.NewNumber(0, source.NoRef, big.NewInt(n))
}

func newEval() *Evaluator {
	return NewEvaluator(NewSymbolTable(), source.NewErrors())
}

func TestEvalArithmetic(t *testing.T) {
	ev := newEval()
	expr := ast.NewBinaryOp(0, source.NoRef, ast.Add, num(3), ast.NewBinaryOp(0, source.NoRef, ast.Mul, num(4), num(5)))
	val, err := ev.Eval(expr, nil, nil)
	require.NoError(t, err)
	assert.True(t, val.Field.Equal(field.NewFromUint64(23)))
}

func TestEvalComparison(t *testing.T) {
	ev := newEval()
	expr := ast.NewBinaryOp(0, source.NoRef, ast.Lt, num(3), num(5))
	val, err := ev.Eval(expr, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, BoolValue, val.Kind)
	assert.True(t, val.Bool)
}

func TestEvalLogicalShortCircuit(t *testing.T) {
	ev := newEval()
	// false && <error-producing expr> must short-circuit before evaluating the right side.
	bogus := ast.NewReference(0, source.NoRef, ast.NamespacedRef{Name: "undeclared"})
	expr := ast.NewBinaryOp(0, source.NoRef, ast.LogicalAnd, boolLit(false), bogus)
	val, err := ev.Eval(expr, nil, nil)
	require.NoError(t, err)
	assert.False(t, val.Bool)
}

func boolLit(b bool) ast.Expr {
	if b {
		return ast.NewBinaryOp(0, source.NoRef, ast.Eq, num(1), num(1))
	}
	return ast.NewBinaryOp(0, source.NoRef, ast.Eq, num(1), num(2))
}

func TestEvalMatchCatchAll(t *testing.T) {
	ev := newEval()
	arms := []ast.MatchArm{
		{Pattern: big.NewInt(0), Value: num(100)},
		{CatchAll: true, Value: num(999)},
	}
	expr := ast.NewMatch(0, source.NoRef, num(7), arms)
	val, err := ev.Eval(expr, nil, nil)
	require.NoError(t, err)
	assert.True(t, val.Field.Equal(field.NewFromUint64(999)))
}

func TestEvalMatchExactArm(t *testing.T) {
	ev := newEval()
	arms := []ast.MatchArm{
		{Pattern: big.NewInt(7), Value: num(100)},
		{CatchAll: true, Value: num(999)},
	}
	expr := ast.NewMatch(0, source.NoRef, num(7), arms)
	val, err := ev.Eval(expr, nil, nil)
	require.NoError(t, err)
	assert.True(t, val.Field.Equal(field.NewFromUint64(100)))
}

// (|x| x + 1)(41) == 42
func TestEvalLambdaCall(t *testing.T) {
	ev := newEval()
	lambda := ast.NewLambda(0, source.NoRef, []string{"x"}, ast.NewBinaryOp(0, source.NoRef, ast.Add, ast.NewReference(0, source.NoRef, ast.NamespacedRef{Name: "x"}), num(1)))
	call := ast.NewFunctionCall(0, source.NoRef, lambda, []ast.Expr{num(41)})
	val, err := ev.Eval(call, nil, nil)
	require.NoError(t, err)
	assert.True(t, val.Field.Equal(field.NewFromUint64(42)))
}

// A higher-order call: a lambda returning a lambda, applied twice.
func TestEvalHigherOrderLambdaCall(t *testing.T) {
	ev := newEval()
	inner := ast.NewLambda(0, source.NoRef, []string{"y"}, ast.NewBinaryOp(0, source.NoRef, ast.Add, ast.NewReference(0, source.NoRef, ast.NamespacedRef{Name: "x"}), ast.NewReference(0, source.NoRef, ast.NamespacedRef{Name: "y"})))
	outer := ast.NewLambda(0, source.NoRef, []string{"x"}, inner)
	makeAdder := ast.NewFunctionCall(0, source.NoRef, outer, []ast.Expr{num(10)})
	call := ast.NewFunctionCall(0, source.NoRef, makeAdder, []ast.Expr{num(5)})
	val, err := ev.Eval(call, nil, nil)
	require.NoError(t, err)
	assert.True(t, val.Field.Equal(field.NewFromUint64(15)))
}

func TestEvalRecursionDepthLimit(t *testing.T) {
	ev := newEval()
	ev.MaxDepth = 3

	// A lambda that calls itself via a let-bound name resolved through Consts.
	self := ast.NewReference(0, source.NoRef, ast.NamespacedRef{Name: "loop"})
	body := ast.NewFunctionCall(0, source.NoRef, self, []ast.Expr{num(0)})
	closure := &Closure{Params: []string{"n"}, Body: body}
	ev.Consts["loop"] = LambdaVal(closure)
	closure.Env = nil

	call := ast.NewFunctionCall(0, source.NoRef, self, []ast.Expr{num(0)})
	_, err := ev.Eval(call, nil, nil)
	require.Error(t, err)
	assert.True(t, source.KindRecursionDepth.Is(err))
}

func TestEvalDivisionByZero(t *testing.T) {
	ev := newEval()
	expr := ast.NewBinaryOp(0, source.NoRef, ast.Div, num(1), num(0))
	_, err := ev.Eval(expr, nil, nil)
	require.Error(t, err)
	assert.True(t, source.KindEvaluation.Is(err))
}
