package analyzed

import "github.com/AztecProtocol/powdr/field"

// AlgebraicExprKind tags the restricted expression language used inside
// identities and intermediate-column definitions (spec.md §3
// "AlgebraicExpression").
type AlgebraicExprKind int

const (
	AlgConstant AlgebraicExprKind = iota
	AlgReference
	AlgPublicReference
	AlgBinaryOp
	AlgUnaryOp
)

// AlgebraicBinaryOperator is one of the four operators legal in algebraic
// position: +, −, ×, ^. Exponentiation's right operand must be a constant
// integer (enforced by the condenser, not representable here as anything
// but an AlgConstant right-hand side).
type AlgebraicBinaryOperator int

const (
	AlgAdd AlgebraicBinaryOperator = iota
	AlgSub
	AlgMul
	AlgPow
)

func (op AlgebraicBinaryOperator) String() string {
	switch op {
	case AlgAdd:
		return "+"
	case AlgSub:
		return "-"
	case AlgMul:
		return "*"
	default:
		return "**"
	}
}

// AlgebraicUnaryOperator is one of the two unary operators legal in
// algebraic position: + or -.
type AlgebraicUnaryOperator int

const (
	AlgUnaryPlus AlgebraicUnaryOperator = iota
	AlgUnaryMinus
)

func (op AlgebraicUnaryOperator) String() string {
	if op == AlgUnaryMinus {
		return "-"
	}
	return "+"
}

// AlgebraicReference is a reference to a polynomial at the current or next
// row, with an optional array index (spec.md §3).
type AlgebraicReference struct {
	Poly  PolyID
	Index *int // non-nil iff the referenced symbol is an array
	Next  bool
}

// Less implements the deterministic total order spec.md §3 requires:
// derived from the PolyID, then the next flag, used to make identity
// canonicalization and equality stable.
func (r AlgebraicReference) Less(other AlgebraicReference) bool {
	if r.Poly != other.Poly {
		return r.Poly.Less(other.Poly)
	}
	if r.Next != other.Next {
		return !r.Next && other.Next
	}
	ri, oi := indexOrZero(r.Index), indexOrZero(other.Index)
	return ri < oi
}

func indexOrZero(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// AlgebraicExpression is one node of the restricted expression language.
type AlgebraicExpression struct {
	Kind AlgebraicExprKind

	Constant  field.Element
	Reference AlgebraicReference
	Public    string

	BinOp AlgebraicBinaryOperator
	Left  *AlgebraicExpression
	Right *AlgebraicExpression

	UnOp    AlgebraicUnaryOperator
	Operand *AlgebraicExpression
}

// NewConstant builds an AlgConstant node.
func NewConstant(v field.Element) *AlgebraicExpression {
	return &AlgebraicExpression{Kind: AlgConstant, Constant: v}
}

// NewReference builds an AlgReference node.
func NewReference(ref AlgebraicReference) *AlgebraicExpression {
	return &AlgebraicExpression{Kind: AlgReference, Reference: ref}
}

// NewPublicReference builds an AlgPublicReference node.
func NewPublicReference(name string) *AlgebraicExpression {
	return &AlgebraicExpression{Kind: AlgPublicReference, Public: name}
}

// NewBinaryOp builds an AlgBinaryOp node.
func NewBinaryOp(op AlgebraicBinaryOperator, left, right *AlgebraicExpression) *AlgebraicExpression {
	return &AlgebraicExpression{Kind: AlgBinaryOp, BinOp: op, Left: left, Right: right}
}

// NewUnaryOp builds an AlgUnaryOp node.
func NewUnaryOp(op AlgebraicUnaryOperator, operand *AlgebraicExpression) *AlgebraicExpression {
	return &AlgebraicExpression{Kind: AlgUnaryOp, UnOp: op, Operand: operand}
}

// ContainsNextRef reports whether e has at least one Reference with
// Next == true (spec.md §8 testable property).
func ContainsNextRef(e *AlgebraicExpression) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case AlgReference:
		return e.Reference.Next
	case AlgBinaryOp:
		return ContainsNextRef(e.Left) || ContainsNextRef(e.Right)
	case AlgUnaryOp:
		return ContainsNextRef(e.Operand)
	default:
		return false
	}
}

// EvaluateConstant evaluates e, which must be built only from AlgConstant
// nodes (and +/-/×/^ combinations of them), per spec.md §8: "For any
// AlgebraicExpression built only from constants, evaluation equals standard
// arithmetic modulo the field modulus." It panics on a Reference or
// PublicReference node, since those have no constant value.
func EvaluateConstant(e *AlgebraicExpression) field.Element {
	switch e.Kind {
	case AlgConstant:
		return e.Constant
	case AlgBinaryOp:
		l := EvaluateConstant(e.Left)
		r := EvaluateConstant(e.Right)
		switch e.BinOp {
		case AlgAdd:
			return field.Add(l, r)
		case AlgSub:
			return field.Sub(l, r)
		case AlgMul:
			return field.Mul(l, r)
		case AlgPow:
			return field.Pow(l, r.BigInt().Uint64())
		}
	case AlgUnaryOp:
		v := EvaluateConstant(e.Operand)
		if e.UnOp == AlgUnaryMinus {
			return field.Neg(v)
		}
		return v
	}
	panic("EvaluateConstant called on a non-constant expression")
}

// RewriteReferences returns a deep copy of e with every AlgebraicReference's
// Poly rewritten through mapping. Used by Analyzed.RemovePolynomials to
// renumber ids in a single post-order pass (spec.md §4.1).
func RewriteReferences(e *AlgebraicExpression, mapping map[PolyID]PolyID) *AlgebraicExpression {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case AlgReference:
		ref := e.Reference
		if newID, ok := mapping[ref.Poly]; ok {
			ref.Poly = newID
		}
		return NewReference(ref)
	case AlgBinaryOp:
		return NewBinaryOp(e.BinOp, RewriteReferences(e.Left, mapping), RewriteReferences(e.Right, mapping))
	case AlgUnaryOp:
		return NewUnaryOp(e.UnOp, RewriteReferences(e.Operand, mapping))
	default:
		cp := *e
		return &cp
	}
}
