package analyzer

import (
	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/ast"
	"github.com/AztecProtocol/powdr/field"
	"github.com/AztecProtocol/powdr/source"
)

// Condenser lowers a name-resolved ast.Expr (as produced by
// ExpressionProcessor) into the restricted AlgebraicExpression language
// identities and intermediate-column definitions are built from. It
// substitutes intermediate-column references with their already-condensed
// defining expression, rejects operators outside {+, -, *, ^}, and rejects
// any expression form that isn't a constant, a reference, or one of those
// operators.
type Condenser struct {
	Symbols       *SymbolTable
	Errors        *source.Errors
	Evaluator     *Evaluator // evaluates compile-time array-index sub-expressions
	Intermediates map[string]*analyzed.AlgebraicExpression
}

// NewCondenser returns a Condenser sharing symbols, errors and evaluator
// with the rest of the analysis pipeline.
func NewCondenser(symbols *SymbolTable, errs *source.Errors, ev *Evaluator) *Condenser {
	return &Condenser{Symbols: symbols, Errors: errs, Evaluator: ev, Intermediates: map[string]*analyzed.AlgebraicExpression{}}
}

// Condense lowers e. On any rejected form it reports the error and returns
// a zero constant placeholder so callers can keep processing the rest of
// the program and collect every diagnostic in one pass.
func (c *Condenser) Condense(e ast.Expr) *analyzed.AlgebraicExpression {
	if e == nil {
		return analyzed.NewConstant(field.Zero)
	}
	switch e.Kind() {
	case ast.NumberKind:
		return analyzed.NewConstant(field.NewFromBigInt(e.AsNumber()))
	case ast.ReferenceKind:
		return c.condenseReference(e)
	case ast.PublicReferenceKind:
		return analyzed.NewPublicReference(e.AsPublicReference())
	case ast.BinaryOpKind:
		b := e.AsBinaryOp()
		op, ok := condenseBinaryOp(b.Op)
		if !ok {
			c.Errors.Report(e.Ref(), nil, source.KindDisallowedOperator, b.Op.String())
			return analyzed.NewConstant(field.Zero)
		}
		left, right := c.Condense(b.Left), c.Condense(b.Right)
		if op == analyzed.AlgPow && right.Kind != analyzed.AlgConstant {
			c.Errors.Report(e.Ref(), nil, source.KindDisallowedForm, "non-constant exponent")
			return analyzed.NewConstant(field.Zero)
		}
		return analyzed.NewBinaryOp(op, left, right)
	case ast.UnaryOpKind:
		u := e.AsUnaryOp()
		op := analyzed.AlgUnaryPlus
		if u.Op == ast.UnaryMinus {
			op = analyzed.AlgUnaryMinus
		}
		return analyzed.NewUnaryOp(op, c.Condense(u.Expr))
	default:
		c.Errors.Report(e.Ref(), nil, source.KindDisallowedForm, formName(e.Kind()))
		return analyzed.NewConstant(field.Zero)
	}
}

func condenseBinaryOp(op ast.BinaryOperator) (analyzed.AlgebraicBinaryOperator, bool) {
	switch op {
	case ast.Add:
		return analyzed.AlgAdd, true
	case ast.Sub:
		return analyzed.AlgSub, true
	case ast.Mul:
		return analyzed.AlgMul, true
	case ast.Pow:
		return analyzed.AlgPow, true
	default:
		return 0, false
	}
}

func (c *Condenser) condenseReference(e ast.Expr) *analyzed.AlgebraicExpression {
	ref := e.AsReference()
	if body, ok := c.Intermediates[ref.Name]; ok {
		if ref.Next {
			c.Errors.Report(e.Ref(), nil, source.KindDisallowedForm, "next-row reference to an intermediate column")
			return analyzed.NewConstant(field.Zero)
		}
		return body
	}
	sym, ok := c.Symbols.Lookup(ref.Name)
	if !ok {
		c.Errors.Report(e.Ref(), nil, source.KindUnresolvedReference, ref.Name)
		return analyzed.NewConstant(field.Zero)
	}
	if sym.Kind != analyzed.KindPolynomial {
		c.Errors.Report(e.Ref(), nil, source.KindDisallowedForm, "non-polynomial reference in algebraic position: "+ref.Name)
		return analyzed.NewConstant(field.Zero)
	}

	var idx *int
	if ref.Index != nil {
		i, ok := c.constIndex(ref.Index)
		if !ok {
			return analyzed.NewConstant(field.Zero)
		}
		if sym.ArrayLength == nil || i < 0 || i >= *sym.ArrayLength {
			c.Errors.Report(e.Ref(), nil, source.KindArrayOutOfBounds, i, ref.Name, arrayLenOrZero(sym))
			return analyzed.NewConstant(field.Zero)
		}
		idx = &i
	}

	poly := sym.PolyID()
	if idx != nil {
		poly.ID += int64(*idx)
	}
	return analyzed.NewReference(analyzed.AlgebraicReference{Poly: poly, Index: idx, Next: ref.Next})
}

func (c *Condenser) constIndex(e ast.Expr) (int, bool) {
	v, err := c.Evaluator.Eval(e, nil, nil)
	if err != nil {
		return 0, false
	}
	i, err := v.Int()
	if err != nil {
		c.Errors.Report(e.Ref(), nil, source.KindEvaluation, "array index", err.Error())
		return 0, false
	}
	return i, true
}

func arrayLenOrZero(sym *analyzed.Symbol) int {
	if sym.ArrayLength == nil {
		return 0
	}
	return *sym.ArrayLength
}

func formName(k ast.ExprKind) string {
	switch k {
	case ast.FunctionCallKind:
		return "function call"
	case ast.MatchKind:
		return "match expression"
	case ast.LambdaKind:
		return "lambda"
	case ast.ArrayLiteralKind:
		return "array literal"
	case ast.TupleKind:
		return "tuple"
	case ast.StringKind:
		return "string literal"
	case ast.IndexKind:
		return "index expression"
	default:
		return "unknown"
	}
}
