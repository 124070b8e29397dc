package analyzed

import "github.com/AztecProtocol/powdr/source"

// IdentityKind enumerates the four identity shapes spec.md §3 defines.
// Connect is reserved and never produced by the analyzer today (see
// DESIGN NOTES' Open Question); it round-trips but fails at the condenser.
type IdentityKind int

const (
	PolynomialIdentity IdentityKind = iota
	PlookupIdentity
	PermutationIdentity
	ConnectIdentity
)

func (k IdentityKind) String() string {
	switch k {
	case PolynomialIdentity:
		return "polynomial"
	case PlookupIdentity:
		return "plookup"
	case PermutationIdentity:
		return "permutation"
	default:
		return "connect"
	}
}

// SelectedExpressions is one side of an identity: an optional selector and a
// tuple of expressions. For a polynomial identity the full expression E is
// stored as the left Selector (asserting E == 0 on every row); the right
// side is left empty (spec.md §3).
type SelectedExpressions struct {
	Selector    *AlgebraicExpression // nil if absent
	Expressions []*AlgebraicExpression
}

// Identity is one constraint: its id is unique within its Kind (spec.md
// §3), not globally.
type Identity struct {
	ID    int64
	Kind  IdentityKind
	Ref   source.Ref
	Left  SelectedExpressions
	Right SelectedExpressions
}

// NewPolynomialIdentity builds a `expr = 0` identity: the convention spec.md
// §3 names is that the left selector holds the whole expression.
func NewPolynomialIdentity(id int64, ref source.Ref, expr *AlgebraicExpression) *Identity {
	return &Identity{
		ID:   id,
		Kind: PolynomialIdentity,
		Ref:  ref,
		Left: SelectedExpressions{Selector: expr},
	}
}

// Expression returns the asserted-zero expression of a PolynomialIdentity.
// Panics if Kind is not PolynomialIdentity.
func (i *Identity) Expression() *AlgebraicExpression {
	if i.Kind != PolynomialIdentity {
		panic("Expression called on a non-polynomial identity")
	}
	return i.Left.Selector
}
