// Package analyzed defines the condensed program IR (spec.md §3 "Analyzed"):
// symbols with stable ids, the restricted algebraic expression language used
// inside identities, and the identities themselves, plus the order-
// preserving mutation operations the analyzer exposes once a program is
// built (append/remove polynomials, remove identities).
package analyzed

import (
	"github.com/AztecProtocol/powdr/ast"
	"github.com/AztecProtocol/powdr/field"
	"github.com/AztecProtocol/powdr/source"
)

// SymbolKind is the coarse classification of a named program entity
// (spec.md §3 "Symbol").
type SymbolKind int

const (
	KindPolynomial SymbolKind = iota
	KindConstantScalar
	KindOther
)

// PolySubKind further classifies a KindPolynomial symbol.
type PolySubKind int

const (
	Committed PolySubKind = iota
	Constant
	Intermediate
)

func (k PolySubKind) String() string {
	switch k {
	case Committed:
		return "witness"
	case Constant:
		return "fixed"
	default:
		return "intermediate"
	}
}

// PolyID is the stable, per-subkind-dense identifier of a polynomial,
// derivable from (symbol id, subkind) per spec.md §3's invariant. It is the
// key every AlgebraicExpression reference and every row cell is indexed by.
type PolyID struct {
	ID      int64
	SubKind PolySubKind
}

// Less gives the deterministic total order spec.md §3 requires of
// AlgebraicExpression references: ordered by (SubKind, ID), then by the
// caller-supplied next flag (see AlgebraicReference.Less).
func (p PolyID) Less(other PolyID) bool {
	if p.SubKind != other.SubKind {
		return p.SubKind < other.SubKind
	}
	return p.ID < other.ID
}

// Symbol is the unique identifier of a named program entity (spec.md §3).
type Symbol struct {
	ID           int64
	AbsoluteName string
	Ref          source.Ref
	Kind         SymbolKind
	SubKind      PolySubKind // meaningful only if Kind == KindPolynomial
	Degree       int         // shared across all polynomials in the compilation unit
	ArrayLength  *int        // non-nil iff this symbol is a polynomial array
}

// PolyID derives the dense (id, subkind) identifier for a polynomial-kind
// symbol. Callers must not call this on a non-polynomial symbol.
func (s *Symbol) PolyID() PolyID {
	return PolyID{ID: s.ID, SubKind: s.SubKind}
}

// IsArray reports whether the symbol declares an array of columns.
func (s *Symbol) IsArray() bool {
	return s.ArrayLength != nil
}

// FunctionValueKind tags the variant of a FunctionValueDefinition.
type FunctionValueKind int

const (
	MappingValue FunctionValueKind = iota
	ArrayValue
	QueryValue
	ExpressionValue
)

// RepeatedArray is an explicit literal prefix plus an optional repeating
// tail pattern, filling a fixed column up to a total target size
// (`[ v0, v1, ... ] + [ p ]*`): the prefix is emitted literally, then Tail
// is cycled to fill the remainder, truncating on the last cycle. An empty
// Pattern and Tail is legal only when Size == 0.
type RepeatedArray struct {
	Pattern []field.Element
	Tail    []field.Element
	Size    int
}

// Values materializes the column's values: Pattern verbatim, then Tail
// cycled to fill the remaining Size - len(Pattern) slots.
func (r RepeatedArray) Values() []field.Element {
	if r.Size == 0 {
		return nil
	}
	out := make([]field.Element, r.Size)
	n := copy(out, r.Pattern)
	if n >= r.Size {
		return out[:r.Size]
	}
	if len(r.Tail) == 0 {
		panic("repeated-array prefix shorter than size with no repeating tail")
	}
	for i := n; i < r.Size; i++ {
		out[i] = r.Tail[(i-n)%len(r.Tail)]
	}
	return out
}

// FunctionValueDefinition is the optional value attached to a symbol
// (spec.md §3): a row-index-to-field-element Mapping lambda for fixed
// columns, a literal Array, a witness-generation-time Query lambda, or an
// Expression for intermediate columns.
type FunctionValueDefinition struct {
	Kind       FunctionValueKind
	Mapping    *ast.LambdaExpr
	Array      *RepeatedArray
	Query      *ast.LambdaExpr
	Expression *AlgebraicExpression
}
