package analyzer

import (
	"github.com/AztecProtocol/powdr/ast"
	"github.com/AztecProtocol/powdr/source"
)

// ExpressionProcessor resolves every NamespacedRef inside a parsed
// expression tree into its absolute form, leaving the rest of the tree
// shape untouched; it performs no evaluation. The Evaluator and Condenser
// both consume its output rather than raw parser expressions. Grounded on
// checker/env.go's scoped-resolution passes, adapted from type-checking
// scopes to this compiler's namespace/local-binding resolution.
type ExpressionProcessor struct {
	Symbols   *SymbolTable
	Errors    *source.Errors
	Namespace string
	locals    map[string]bool
}

// NewExpressionProcessor returns a processor resolving bare references
// against namespace (current_namespace in the resolution rules).
func NewExpressionProcessor(symbols *SymbolTable, errs *source.Errors, namespace string) *ExpressionProcessor {
	return &ExpressionProcessor{Symbols: symbols, Errors: errs, Namespace: namespace, locals: map[string]bool{}}
}

func (p *ExpressionProcessor) withLocals(names []string) *ExpressionProcessor {
	next := make(map[string]bool, len(p.locals)+len(names))
	for k := range p.locals {
		next[k] = true
	}
	for _, n := range names {
		next[n] = true
	}
	return &ExpressionProcessor{Symbols: p.Symbols, Errors: p.Errors, Namespace: p.Namespace, locals: next}
}

// Resolve rewrites e's references in place (returning a new tree; e itself
// is never mutated since ast nodes are immutable values built through
// New*).
func (p *ExpressionProcessor) Resolve(e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	switch e.Kind() {
	case ast.NumberKind, ast.StringKind, ast.PublicReferenceKind, ast.IndexKind:
		return e
	case ast.ReferenceKind:
		return p.resolveReference(e)
	case ast.BinaryOpKind:
		b := e.AsBinaryOp()
		return ast.NewBinaryOp(e.ID(), e.Ref(), b.Op, p.Resolve(b.Left), p.Resolve(b.Right))
	case ast.UnaryOpKind:
		u := e.AsUnaryOp()
		return ast.NewUnaryOp(e.ID(), e.Ref(), u.Op, p.Resolve(u.Expr))
	case ast.FunctionCallKind:
		c := e.AsFunctionCall()
		args := make([]ast.Expr, len(c.Args))
		for i, a := range c.Args {
			args[i] = p.Resolve(a)
		}
		return ast.NewFunctionCall(e.ID(), e.Ref(), p.Resolve(c.Function), args)
	case ast.MatchKind:
		m := e.AsMatch()
		arms := make([]ast.MatchArm, len(m.Arms))
		for i, a := range m.Arms {
			arms[i] = ast.MatchArm{Pattern: a.Pattern, CatchAll: a.CatchAll, Value: p.Resolve(a.Value)}
		}
		return ast.NewMatch(e.ID(), e.Ref(), p.Resolve(m.Scrutinee), arms)
	case ast.LambdaKind:
		l := e.AsLambda()
		sub := p.withLocals(l.Params)
		return ast.NewLambda(e.ID(), e.Ref(), l.Params, sub.Resolve(l.Body))
	case ast.ArrayLiteralKind:
		elems := e.AsArrayLiteral()
		out := make([]ast.Expr, len(elems))
		for i, el := range elems {
			out[i] = p.Resolve(el)
		}
		return ast.NewArrayLiteral(e.ID(), e.Ref(), out)
	case ast.TupleKind:
		elems := e.AsTuple()
		out := make([]ast.Expr, len(elems))
		for i, el := range elems {
			out[i] = p.Resolve(el)
		}
		return ast.NewTuple(e.ID(), e.Ref(), out)
	default:
		return e
	}
}

func (p *ExpressionProcessor) resolveReference(e ast.Expr) ast.Expr {
	ref := e.AsReference()
	if ref.Namespace == "" && p.locals[ref.Name] {
		return e
	}
	abs, ok := p.Symbols.Resolve(ref, p.Namespace)
	if !ok {
		p.Errors.Report(e.Ref(), nil, source.KindUnresolvedReference, displayRef(ref))
	}
	var idx ast.Expr
	if ref.Index != nil {
		idx = p.Resolve(ref.Index)
	}
	return ast.NewReference(e.ID(), e.Ref(), ast.NamespacedRef{Name: abs, Index: idx, Next: ref.Next})
}

func displayRef(ref ast.NamespacedRef) string {
	if ref.Namespace == "" {
		return ref.Name
	}
	return ref.Namespace + "::" + ref.Name
}
