package witgen

import (
	"fmt"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/field"
)

// Assignment is a single concrete value the identity processor derived for
// one reference (spec.md §4.2 "Identity Processor").
type Assignment struct {
	Ref   analyzed.AlgebraicReference
	Value field.Element
}

// ConstraintUpdate is a narrowed allowed-value set derived for one
// reference, short of a full assignment.
type ConstraintUpdate struct {
	Ref        analyzed.AlgebraicReference
	Constraint RangeConstraint
}

// ProcessResult is everything a single identity evaluation against the
// current row state produced.
type ProcessResult struct {
	Assignments []Assignment
	Constraints []ConstraintUpdate
	// Complete is true iff this identity has nothing further to contribute:
	// either it is now fully satisfied by known values, or it was resolved
	// into assignments/constraints covering every free reference it had.
	Complete bool
}

func (r ProcessResult) hasProgress() bool {
	return len(r.Assignments) > 0 || len(r.Constraints) > 0
}

// MachineRuntime dispatches plookup/permutation identities (an "outer
// query") to whichever secondary machine owns the right-hand side, per
// spec.md §5. The concrete implementation is an external collaborator
// supplied by the caller; nothing in this package implements it, and the
// identity processor only needs this narrow interface.
type MachineRuntime interface {
	// TryOuterQuery attempts to resolve identity id's right-hand side given
	// the current left-hand values (nil entries are Unknown). It returns
	// assignments for any previously-unknown left-hand references the
	// machine could determine, and complete=true iff the call is fully
	// resolved (every argument now known, on both sides).
	TryOuterQuery(id *analyzed.Identity, left []*field.Element) (assignments []Assignment, complete bool, err error)
}

// IdentityProcessor evaluates one identity against a RowPair, producing
// whatever assignments or range-constraint narrowings it can (spec.md
// §4.2). It holds no per-row state of its own; all state lives in the Row
// values it's given.
type IdentityProcessor struct {
	Machine MachineRuntime
}

// Process evaluates id against rp. For a PolynomialIdentity it runs the
// constant-fold-then-pattern-match algorithm (Reduce + matchAffine /
// matchRootProduct). For Plookup/Permutation it forwards to Machine. Connect
// never reaches here in ordinary operation: the condenser rejects it
// (source.KindConnectUnsupported) before an Analyzed program can exist; this
// default case is a defense-in-depth backstop only.
func (p *IdentityProcessor) Process(id *analyzed.Identity, lookup Lookup) (ProcessResult, error) {
	switch id.Kind {
	case analyzed.PolynomialIdentity:
		return p.processPolynomial(id, lookup)
	case analyzed.PlookupIdentity, analyzed.PermutationIdentity:
		return p.processOuterQuery(id, lookup)
	default:
		return ProcessResult{}, KindConnectUnsupported.New(id.ID)
	}
}

func (p *IdentityProcessor) processPolynomial(id *analyzed.Identity, lookup Lookup) (ProcessResult, error) {
	reduced := Reduce(id.Expression(), lookup)

	if reduced.Kind == analyzed.AlgConstant {
		if reduced.Constant.IsZero() {
			return ProcessResult{Complete: true}, nil
		}
		return ProcessResult{}, KindUnsatisfiedIdentity.New(
			fmt.Sprintf("identity %d", id.ID), reduced.Constant.String())
	}

	free := FreeRefs(reduced)
	if len(free) != 1 {
		// Either no free references remain (impossible: AlgConstant would
		// have matched above) or more than one: not solvable by this
		// single-variable pattern match yet. Another identity may pin down
		// one of the remaining references first; the row loop retries.
		return ProcessResult{}, nil
	}
	ref := free[0]

	if val, ok := matchAffine(reduced, ref); ok {
		return ProcessResult{
			Assignments: []Assignment{{Ref: ref, Value: val}},
			Complete:    true,
		}, nil
	}

	if roots, ok := matchRootProduct(reduced, ref); ok {
		return ProcessResult{
			Constraints: []ConstraintUpdate{{Ref: ref, Constraint: NewEnumeration(roots)}},
			Complete:    true,
		}, nil
	}

	return ProcessResult{}, nil
}

func (p *IdentityProcessor) processOuterQuery(id *analyzed.Identity, lookup Lookup) (ProcessResult, error) {
	if p.Machine == nil {
		return ProcessResult{}, nil
	}
	left := make([]*field.Element, len(id.Left.Expressions))
	for i, e := range id.Left.Expressions {
		reduced := Reduce(e, lookup)
		if reduced.Kind == analyzed.AlgConstant {
			v := reduced.Constant
			left[i] = &v
		}
	}
	assignments, complete, err := p.Machine.TryOuterQuery(id, left)
	if err != nil {
		return ProcessResult{}, err
	}
	return ProcessResult{Assignments: assignments, Complete: complete}, nil
}
