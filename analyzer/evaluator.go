package analyzer

import (
	"math/big"
	"strings"

	"github.com/AztecProtocol/powdr/ast"
	"github.com/AztecProtocol/powdr/field"
	"github.com/AztecProtocol/powdr/source"
)

// Evaluator evaluates compile-time expressions: literals, arithmetic,
// comparisons, logical operators, match expressions with a catch-all arm,
// and lambda calls including higher-order ones. Grounded on
// interpreter/interpretable.go's recursive Eval-with-Activation shape,
// adapted from CEL's dynamic runtime evaluation to this compiler's
// compile-time-only, field-valued evaluation.
//
// Every Expr handed to Eval must already be name-resolved (every Reference
// carries an absolute name, or a bare local name bound in env) -- the
// ExpressionProcessor is expected to have run first.
type Evaluator struct {
	Symbols  *SymbolTable
	Consts   map[string]Value // absolute name -> already-evaluated constant
	Errors   *source.Errors
	MaxDepth int
}

// NewEvaluator returns an Evaluator with the depth limit the DESIGN NOTES
// call "sufficient for observed programs".
func NewEvaluator(symbols *SymbolTable, errs *source.Errors) *Evaluator {
	return &Evaluator{Symbols: symbols, Consts: map[string]Value{}, Errors: errs, MaxDepth: 256}
}

// Eval evaluates e under env, with callChain naming the lambda calls
// already on the stack (for recursion-depth and evaluation-error
// diagnostics, which must "include callee and call chain").
func (ev *Evaluator) Eval(e ast.Expr, env *Env, callChain []string) (Value, error) {
	if len(callChain) > ev.MaxDepth {
		return Value{}, source.KindRecursionDepth.New(strings.Join(callChain, " -> "), ev.MaxDepth)
	}
	switch e.Kind() {
	case ast.NumberKind:
		return FieldVal(field.NewFromBigInt(e.AsNumber())), nil
	case ast.StringKind:
		return StringVal(e.AsString()), nil
	case ast.ReferenceKind:
		return ev.evalReference(e, env, callChain)
	case ast.PublicReferenceKind:
		return Value{}, ev.evalErr(e, callChain, "a public reference has no compile-time value")
	case ast.BinaryOpKind:
		return ev.evalBinaryOp(e, env, callChain)
	case ast.UnaryOpKind:
		return ev.evalUnaryOp(e, env, callChain)
	case ast.FunctionCallKind:
		return ev.evalCall(e, env, callChain)
	case ast.MatchKind:
		return ev.evalMatch(e, env, callChain)
	case ast.LambdaKind:
		l := e.AsLambda()
		return LambdaVal(&Closure{Params: l.Params, Body: l.Body, Env: env}), nil
	case ast.ArrayLiteralKind, ast.TupleKind:
		elems := e.AsArrayLiteral()
		if e.Kind() == ast.TupleKind {
			elems = e.AsTuple()
		}
		out := make([]Value, len(elems))
		for i, el := range elems {
			v, err := ev.Eval(el, env, callChain)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return ArrayVal(out), nil
	default:
		return Value{}, ev.evalErr(e, callChain, "expression form has no compile-time value")
	}
}

func (ev *Evaluator) evalReference(e ast.Expr, env *Env, callChain []string) (Value, error) {
	ref := e.AsReference()
	if ref.Namespace == "" {
		if v, ok := env.Lookup(ref.Name); ok {
			return v, nil
		}
	}
	if v, ok := ev.Consts[ref.Name]; ok {
		return v, nil
	}
	// A symbol may exist (e.g. a witness or fixed column) without having a
	// compile-time Value: spec.md's "references to columns in a
	// purely-arithmetic position" fatal case.
	return Value{}, ev.evalErr(e, callChain, "reference to "+ref.Name+" in a purely-arithmetic position")
}

func (ev *Evaluator) evalBinaryOp(e ast.Expr, env *Env, callChain []string) (Value, error) {
	b := e.AsBinaryOp()
	left, err := ev.Eval(b.Left, env, callChain)
	if err != nil {
		return Value{}, err
	}
	switch b.Op {
	case ast.LogicalAnd:
		if left.Kind != BoolValue {
			return Value{}, ev.evalErr(e, callChain, "&& on a non-bool operand")
		}
		if !left.Bool {
			return BoolVal(false), nil
		}
		right, err := ev.Eval(b.Right, env, callChain)
		if err != nil {
			return Value{}, err
		}
		return BoolVal(right.Kind == BoolValue && right.Bool), nil
	case ast.LogicalOr:
		if left.Kind != BoolValue {
			return Value{}, ev.evalErr(e, callChain, "|| on a non-bool operand")
		}
		if left.Bool {
			return BoolVal(true), nil
		}
		right, err := ev.Eval(b.Right, env, callChain)
		if err != nil {
			return Value{}, err
		}
		return BoolVal(right.Kind == BoolValue && right.Bool), nil
	}

	right, err := ev.Eval(b.Right, env, callChain)
	if err != nil {
		return Value{}, err
	}
	if left.Kind != FieldValue || right.Kind != FieldValue {
		return Value{}, ev.evalErr(e, callChain, "operator "+b.Op.String()+" needs field-element operands")
	}
	switch b.Op {
	case ast.Add:
		return FieldVal(field.Add(left.Field, right.Field)), nil
	case ast.Sub:
		return FieldVal(field.Sub(left.Field, right.Field)), nil
	case ast.Mul:
		return FieldVal(field.Mul(left.Field, right.Field)), nil
	case ast.Pow:
		return FieldVal(field.Pow(left.Field, right.Field.BigInt().Uint64())), nil
	case ast.Div:
		inv, ok := field.Inverse(right.Field)
		if !ok {
			return Value{}, ev.evalErr(e, callChain, "division by zero")
		}
		return FieldVal(field.Mul(left.Field, inv)), nil
	case ast.Mod:
		l, r := left.Field.BigInt(), right.Field.BigInt()
		if r.Sign() == 0 {
			return Value{}, ev.evalErr(e, callChain, "modulo by zero")
		}
		m := new(big.Int).Mod(l, r)
		return FieldVal(field.NewFromBigInt(m)), nil
	case ast.Eq:
		return BoolVal(left.Field.Equal(right.Field)), nil
	case ast.Neq:
		return BoolVal(!left.Field.Equal(right.Field)), nil
	case ast.Lt:
		return BoolVal(left.Field.BigInt().Cmp(right.Field.BigInt()) < 0), nil
	case ast.Lte:
		return BoolVal(left.Field.BigInt().Cmp(right.Field.BigInt()) <= 0), nil
	case ast.Gt:
		return BoolVal(left.Field.BigInt().Cmp(right.Field.BigInt()) > 0), nil
	case ast.Gte:
		return BoolVal(left.Field.BigInt().Cmp(right.Field.BigInt()) >= 0), nil
	default:
		return Value{}, ev.evalErr(e, callChain, "operator not defined for field operands")
	}
}

func (ev *Evaluator) evalUnaryOp(e ast.Expr, env *Env, callChain []string) (Value, error) {
	u := e.AsUnaryOp()
	v, err := ev.Eval(u.Expr, env, callChain)
	if err != nil {
		return Value{}, err
	}
	if v.Kind != FieldValue {
		return Value{}, ev.evalErr(e, callChain, "unary "+u.Op.String()+" needs a field-element operand")
	}
	if u.Op == ast.UnaryMinus {
		return FieldVal(field.Neg(v.Field)), nil
	}
	return v, nil
}

func (ev *Evaluator) evalCall(e ast.Expr, env *Env, callChain []string) (Value, error) {
	c := e.AsFunctionCall()
	fn, err := ev.Eval(c.Function, env, callChain)
	if err != nil {
		return Value{}, err
	}
	if fn.Kind != LambdaValue {
		return Value{}, ev.evalErr(e, callChain, "call target is not a function")
	}
	if len(c.Args) != len(fn.Closure.Params) {
		return Value{}, ev.evalErr(e, callChain, "argument count mismatch in call")
	}
	callEnv := fn.Closure.Env
	for i, param := range fn.Closure.Params {
		argVal, err := ev.Eval(c.Args[i], env, callChain)
		if err != nil {
			return Value{}, err
		}
		callEnv = callEnv.Bind(param, argVal)
	}
	name := calleeName(c.Function)
	return ev.Eval(fn.Closure.Body, callEnv, append(append([]string{}, callChain...), name))
}

func (ev *Evaluator) evalMatch(e ast.Expr, env *Env, callChain []string) (Value, error) {
	m := e.AsMatch()
	scrutinee, err := ev.Eval(m.Scrutinee, env, callChain)
	if err != nil {
		return Value{}, err
	}
	if scrutinee.Kind != FieldValue {
		return Value{}, ev.evalErr(e, callChain, "match scrutinee must be a field element")
	}
	var fallback *ast.MatchArm
	for i := range m.Arms {
		arm := m.Arms[i]
		if arm.CatchAll {
			fallback = &m.Arms[i]
			continue
		}
		if arm.Pattern != nil && scrutinee.Field.BigInt().Cmp(arm.Pattern) == 0 {
			return ev.Eval(arm.Value, env, callChain)
		}
	}
	if fallback != nil {
		return ev.Eval(fallback.Value, env, callChain)
	}
	return Value{}, ev.evalErr(e, callChain, "match has no matching arm and no catch-all")
}

func calleeName(fn ast.Expr) string {
	if fn.Kind() == ast.ReferenceKind {
		return fn.AsReference().Name
	}
	return "<lambda>"
}

func (ev *Evaluator) evalErr(e ast.Expr, callChain []string, msg string) error {
	context := "<top level>"
	if len(callChain) > 0 {
		context = strings.Join(callChain, " -> ")
	}
	err := source.KindEvaluation.New(context, msg)
	if ev.Errors != nil {
		ev.Errors.Report(e.Ref(), nil, source.KindEvaluation, context, msg)
	}
	return err
}
