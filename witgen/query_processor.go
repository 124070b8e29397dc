package witgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/ast"
	"github.com/AztecProtocol/powdr/field"
)

// QueryCallback resolves one stringified query expression against the
// external channel described by spec.md §4.3: "invoked with a stringified
// query expression ... returns an optional field element". ok is false when
// the query cannot yet be answered (the external channel has nothing for
// this row yet); the row loop treats that the same as any other
// not-yet-known cell and retries on a later pass.
type QueryCallback func(query string) (value field.Element, ok bool, err error)

// QueryProcessor evaluates the Query-kind FunctionValueDefinitions attached
// to witness columns (spec.md §3's "Query" value kind, §4.3). It does not
// interpret the query's meaning itself -- that's the callback's concern --
// it only owns the row-by-row contract: serialize the lambda body with the
// current row substituted in, ask the callback, and if it answers, commit
// the value.
type QueryProcessor struct {
	Callback QueryCallback
}

// QueryResult mirrors ProcessResult's shape so the VM processor can thread
// it through the same assignment-application path as identities.
type QueryResult struct {
	Assignment Assignment
	Resolved   bool
}

// Process asks the callback for column's value at row, if column carries a
// Query-kind definition. It returns Resolved=false (not an error) when the
// column has no query, or the callback has no answer yet.
func (p *QueryProcessor) Process(def *analyzed.Definition, poly analyzed.PolyID, row int) (QueryResult, error) {
	if def.Value == nil || def.Value.Kind != analyzed.QueryValue || def.Value.Query == nil || p.Callback == nil {
		return QueryResult{}, nil
	}
	query := renderQuery(def.Value.Query, row)
	v, ok, err := p.Callback(query)
	if err != nil {
		return QueryResult{}, err
	}
	if !ok {
		return QueryResult{}, nil
	}
	return QueryResult{
		Assignment: Assignment{Ref: analyzed.AlgebraicReference{Poly: poly}, Value: v},
		Resolved:   true,
	}, nil
}

// renderQuery serializes lambda's body into the callback's query string,
// substituting row for every occurrence of the lambda's bound parameter
// (spec.md §4.3: "the analyzer serializes Query lambda bodies with the
// current row index substituted"). A typical query `|i| ("input", i)` at
// row 3 renders as `("input", 3)`.
func renderQuery(lambda *ast.LambdaExpr, row int) string {
	param := ""
	if len(lambda.Params) > 0 {
		param = lambda.Params[0]
	}
	var b strings.Builder
	renderQueryExpr(&b, lambda.Body, param, row)
	return b.String()
}

func renderQueryExpr(b *strings.Builder, e ast.Expr, param string, row int) {
	switch e.Kind() {
	case ast.NumberKind:
		b.WriteString(e.AsNumber().String())
	case ast.StringKind:
		b.WriteString(strconv.Quote(e.AsString()))
	case ast.ReferenceKind:
		ref := e.AsReference()
		if ref.Namespace == "" && ref.Index == nil && !ref.Next && ref.Name == param {
			b.WriteString(strconv.Itoa(row))
			return
		}
		if ref.Namespace != "" {
			b.WriteString(ref.Namespace)
			b.WriteString("::")
		}
		b.WriteString(ref.Name)
		if ref.Next {
			b.WriteString("'")
		}
		if ref.Index != nil {
			b.WriteString("[")
			renderQueryExpr(b, ref.Index, param, row)
			b.WriteString("]")
		}
	case ast.PublicReferenceKind:
		b.WriteString(":")
		b.WriteString(e.AsPublicReference())
	case ast.BinaryOpKind:
		bin := e.AsBinaryOp()
		b.WriteString("(")
		renderQueryExpr(b, bin.Left, param, row)
		fmt.Fprintf(b, " %s ", bin.Op)
		renderQueryExpr(b, bin.Right, param, row)
		b.WriteString(")")
	case ast.UnaryOpKind:
		un := e.AsUnaryOp()
		b.WriteString(un.Op.String())
		renderQueryExpr(b, un.Expr, param, row)
	case ast.FunctionCallKind:
		call := e.AsFunctionCall()
		renderQueryExpr(b, call.Function, param, row)
		b.WriteString("(")
		for i, a := range call.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			renderQueryExpr(b, a, param, row)
		}
		b.WriteString(")")
	case ast.ArrayLiteralKind:
		b.WriteString("[")
		for i, el := range e.AsArrayLiteral() {
			if i > 0 {
				b.WriteString(", ")
			}
			renderQueryExpr(b, el, param, row)
		}
		b.WriteString("]")
	case ast.TupleKind:
		b.WriteString("(")
		for i, el := range e.AsTuple() {
			if i > 0 {
				b.WriteString(", ")
			}
			renderQueryExpr(b, el, param, row)
		}
		b.WriteString(")")
	default:
		b.WriteString("?")
	}
}
