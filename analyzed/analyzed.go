package analyzed

import (
	"sort"

	"github.com/AztecProtocol/powdr/source"
)

// Definition pairs a symbol with its optional value, as stored under
// Analyzed.Definitions (spec.md §3).
type Definition struct {
	Symbol *Symbol
	Value  *FunctionValueDefinition // nil if the symbol has no attached value
}

// PublicDeclaration names one public input cell: a column, an array index
// (if the column is an array) and the row it is read at.
type PublicDeclaration struct {
	Name       string
	Ref        source.Ref
	Poly       PolyID
	ArrayIndex *int
	Row        int
}

// IntermediateDefinition pairs an intermediate column's symbol with the
// algebraic expression it aliases (spec.md §3).
type IntermediateDefinition struct {
	Symbol     *Symbol
	Expression *AlgebraicExpression
}

// SourceOrderKind tags one entry of Analyzed.SourceOrder.
type SourceOrderKind int

const (
	SourceOrderDefinition SourceOrderKind = iota
	SourceOrderPublicDeclaration
	SourceOrderIdentity
)

// SourceOrderEntry reproduces the source declaration order for deterministic
// printing (spec.md §3): a Definition(name) or PublicDeclaration(name), or
// an Identity(index) referring into Analyzed.Identities by position.
type SourceOrderEntry struct {
	Kind          SourceOrderKind
	Name          string // valid for Definition / PublicDeclaration
	IdentityIndex int    // valid for Identity: index into Identities
}

// Analyzed is the finalized, condensed program (spec.md §3).
type Analyzed struct {
	Degree int

	Definitions   map[string]*Definition
	Publics       map[string]*PublicDeclaration
	Intermediates map[string]*IntermediateDefinition

	Identities []*Identity

	SourceOrder []SourceOrderEntry
}

// New returns an empty Analyzed for the given shared column degree.
func New(degree int) *Analyzed {
	return &Analyzed{
		Degree:        degree,
		Definitions:   map[string]*Definition{},
		Publics:       map[string]*PublicDeclaration{},
		Intermediates: map[string]*IntermediateDefinition{},
	}
}

// maxIdentityID returns the highest identity id in use, or -1 if none.
func (a *Analyzed) maxIdentityID() int64 {
	max := int64(-1)
	for _, id := range a.Identities {
		if id.ID > max {
			max = id.ID
		}
	}
	return max
}

// AppendPolynomialIdentity assigns a fresh identity id (max existing + 1),
// appends the identity, and appends the corresponding SourceOrder entry
// (spec.md §4.1).
func (a *Analyzed) AppendPolynomialIdentity(expr *AlgebraicExpression, ref source.Ref) *Identity {
	id := NewPolynomialIdentity(a.maxIdentityID()+1, ref, expr)
	a.Identities = append(a.Identities, id)
	a.SourceOrder = append(a.SourceOrder, SourceOrderEntry{
		Kind:          SourceOrderIdentity,
		IdentityIndex: len(a.Identities) - 1,
	})
	return id
}

// RemoveIdentities drops the identities at the given positions (indices
// into Analyzed.Identities, not Identity.ID) and shifts every subsequent
// index referenced from SourceOrder so references stay correct. Identity
// ids themselves are never renumbered (spec.md §4.1).
func (a *Analyzed) RemoveIdentities(indices []int) {
	toRemove := make(map[int]bool, len(indices))
	for _, i := range indices {
		toRemove[i] = true
	}

	remap := make(map[int]int, len(a.Identities)) // old index -> new index
	kept := make([]*Identity, 0, len(a.Identities))
	for i, id := range a.Identities {
		if toRemove[i] {
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, id)
	}
	a.Identities = kept

	newOrder := make([]SourceOrderEntry, 0, len(a.SourceOrder))
	for _, entry := range a.SourceOrder {
		if entry.Kind == SourceOrderIdentity {
			newIdx, ok := remap[entry.IdentityIndex]
			if !ok {
				continue // this identity was removed; drop its source_order entry too
			}
			entry.IdentityIndex = newIdx
		}
		newOrder = append(newOrder, entry)
	}
	a.SourceOrder = newOrder
}

// RemovePolynomials deletes the named definitions, then renumbers the
// remaining polynomial ids per-kind so the result is contiguous, rewriting
// every reference in every identity and every remaining definition through
// the computed mapping in a single post-order expression rewrite (spec.md
// §4.1). RemovePolynomials(nil) is the identity operation (spec.md §8).
// Intermediate polynomial definitions are never removed by this pass
// (spec.md §3 invariant), even if named in names.
func (a *Analyzed) RemovePolynomials(names map[string]bool) {
	if len(names) == 0 {
		return
	}

	removedIDs := map[PolyID]bool{}
	for name := range names {
		def, ok := a.Definitions[name]
		if !ok {
			continue // intermediates and unknown names are not removable here
		}
		if def.Symbol.Kind != KindPolynomial {
			continue
		}
		removedIDs[def.Symbol.PolyID()] = true
		delete(a.Definitions, name)
	}
	if len(removedIDs) == 0 {
		return
	}

	mapping := a.renumberMapping(removedIDs)

	for _, def := range a.Definitions {
		if def.Symbol.Kind == KindPolynomial {
			if newID, ok := mapping[def.Symbol.PolyID()]; ok {
				def.Symbol.ID = newID.ID
			}
		}
		if def.Value != nil && def.Value.Kind == ExpressionValue {
			def.Value.Expression = RewriteReferences(def.Value.Expression, mapping)
		}
	}
	for _, inter := range a.Intermediates {
		inter.Expression = RewriteReferences(inter.Expression, mapping)
	}
	for _, id := range a.Identities {
		id.Left.Selector = RewriteReferences(id.Left.Selector, mapping)
		id.Right.Selector = RewriteReferences(id.Right.Selector, mapping)
		for i, e := range id.Left.Expressions {
			id.Left.Expressions[i] = RewriteReferences(e, mapping)
		}
		for i, e := range id.Right.Expressions {
			id.Right.Expressions[i] = RewriteReferences(e, mapping)
		}
	}
	for _, pub := range a.Publics {
		if newID, ok := mapping[pub.Poly]; ok {
			pub.Poly = newID
		}
	}
}

// renumberMapping computes, for every polynomial id still referenced after
// removedIDs are deleted, its new contiguous-per-subkind id.
func (a *Analyzed) renumberMapping(removedIDs map[PolyID]bool) map[PolyID]PolyID {
	bySubKind := map[PolySubKind][]PolyID{}
	for _, def := range a.Definitions {
		if def.Symbol.Kind != KindPolynomial {
			continue
		}
		id := def.Symbol.PolyID()
		if removedIDs[id] {
			continue
		}
		bySubKind[id.SubKind] = append(bySubKind[id.SubKind], id)
	}
	for _, inter := range a.Intermediates {
		id := inter.Symbol.PolyID()
		bySubKind[id.SubKind] = append(bySubKind[id.SubKind], id)
	}

	arrayLen := func(id PolyID) int {
		for _, def := range a.Definitions {
			if def.Symbol.Kind == KindPolynomial && def.Symbol.PolyID() == id {
				if def.Symbol.IsArray() {
					return *def.Symbol.ArrayLength
				}
				return 1
			}
		}
		return 1
	}

	mapping := map[PolyID]PolyID{}
	for subKind, ids := range bySubKind {
		sort.Slice(ids, func(i, j int) bool { return ids[i].ID < ids[j].ID })
		next := int64(0)
		for _, old := range ids {
			mapping[old] = PolyID{ID: next, SubKind: subKind}
			next += int64(arrayLen(old))
		}
	}
	return mapping
}

// CountBySubKind returns the number of distinct polynomial ids of the given
// subkind currently in the program, counting array multiplicities, used by
// the round-trip property in spec.md §8.
func (a *Analyzed) CountBySubKind(sub PolySubKind) int {
	count := 0
	for _, def := range a.Definitions {
		if def.Symbol.Kind == KindPolynomial && def.Symbol.SubKind == sub {
			if def.Symbol.IsArray() {
				count += *def.Symbol.ArrayLength
			} else {
				count++
			}
		}
	}
	if sub == Intermediate {
		count += len(a.Intermediates)
	}
	return count
}
