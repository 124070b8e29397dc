package witgen

import (
	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/field"
)

// Lookup resolves a reference to its current cell state. RowPair (below),
// where Next selects the next row, and vm_processor.go's zeroStrategyLookup
// wrapper around it implement it.
type Lookup interface {
	Get(ref analyzed.AlgebraicReference) CellValue
}

// RowPair bundles the current and next row so an AlgebraicReference's Next
// flag can be resolved directly (spec.md §3 "RowPair").
type RowPair struct {
	Current *Row
	Next    *Row
}

// Get implements Lookup.
func (p RowPair) Get(ref analyzed.AlgebraicReference) CellValue {
	if ref.Next {
		return p.Next.Get(ref.Poly)
	}
	return p.Current.Get(ref.Poly)
}

// Reduce constant-folds e against lookup: every Known reference becomes an
// AlgConstant, every BinaryOp/UnaryOp whose operands are now all constant is
// folded via EvaluateConstant, and everything else (Unknown or
// RangeConstrained references, and expressions built from them) is returned
// unchanged in shape. The result is the residual expression the identity
// processor pattern-matches against (spec.md §4.2's "substituted in known
// values" evaluation step).
func Reduce(e *analyzed.AlgebraicExpression, lookup Lookup) *analyzed.AlgebraicExpression {
	switch e.Kind {
	case analyzed.AlgConstant, analyzed.AlgPublicReference:
		return e
	case analyzed.AlgReference:
		cell := lookup.Get(e.Reference)
		if cell.State == Known {
			return analyzed.NewConstant(cell.Value)
		}
		return e
	case analyzed.AlgBinaryOp:
		l := Reduce(e.Left, lookup)
		r := Reduce(e.Right, lookup)
		if l.Kind == analyzed.AlgConstant && r.Kind == analyzed.AlgConstant {
			return analyzed.NewConstant(analyzed.EvaluateConstant(analyzed.NewBinaryOp(e.BinOp, l, r)))
		}
		return analyzed.NewBinaryOp(e.BinOp, l, r)
	case analyzed.AlgUnaryOp:
		operand := Reduce(e.Operand, lookup)
		if operand.Kind == analyzed.AlgConstant {
			return analyzed.NewConstant(analyzed.EvaluateConstant(analyzed.NewUnaryOp(e.UnOp, operand)))
		}
		return analyzed.NewUnaryOp(e.UnOp, operand)
	default:
		return e
	}
}

// FreeRefs collects the distinct references still present in a reduced
// expression, in a stable order (per AlgebraicReference.Less).
func FreeRefs(e *analyzed.AlgebraicExpression) []analyzed.AlgebraicReference {
	seen := map[analyzed.AlgebraicReference]bool{}
	var out []analyzed.AlgebraicReference
	var walk func(e *analyzed.AlgebraicExpression)
	walk = func(e *analyzed.AlgebraicExpression) {
		switch e.Kind {
		case analyzed.AlgReference:
			if !seen[e.Reference] {
				seen[e.Reference] = true
				out = append(out, e.Reference)
			}
		case analyzed.AlgBinaryOp:
			walk(e.Left)
			walk(e.Right)
		case analyzed.AlgUnaryOp:
			walk(e.Operand)
		}
	}
	walk(e)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Less(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// evalSubstituted evaluates e, which must contain no reference other than
// ref, by substituting val for every occurrence of ref.
func evalSubstituted(e *analyzed.AlgebraicExpression, ref analyzed.AlgebraicReference, val field.Element) field.Element {
	switch e.Kind {
	case analyzed.AlgConstant:
		return e.Constant
	case analyzed.AlgReference:
		if e.Reference == ref {
			return val
		}
		// Reduce guarantees no other free reference survives when this
		// helper is used (callers only invoke it on single-free-variable
		// residuals), so reaching here means a different ref slipped in;
		// treat it as unresolved by returning zero rather than panicking.
		return field.Zero
	case analyzed.AlgBinaryOp:
		l := evalSubstituted(e.Left, ref, val)
		r := evalSubstituted(e.Right, ref, val)
		switch e.BinOp {
		case analyzed.AlgAdd:
			return field.Add(l, r)
		case analyzed.AlgSub:
			return field.Sub(l, r)
		case analyzed.AlgMul:
			return field.Mul(l, r)
		default:
			return field.Pow(l, r.BigInt().Uint64())
		}
	case analyzed.AlgUnaryOp:
		v := evalSubstituted(e.Operand, ref, val)
		if e.UnOp == analyzed.AlgUnaryMinus {
			return field.Neg(v)
		}
		return v
	default:
		return field.Zero
	}
}

// matchAffine samples reduced at u = 0, 1, 2 and checks the three points lie
// on a single line (degree <= 1 in ref). If so it returns the unique root of
// that line, i.e. the value ref must take for reduced to evaluate to zero.
func matchAffine(reduced *analyzed.AlgebraicExpression, ref analyzed.AlgebraicReference) (field.Element, bool) {
	f0 := evalSubstituted(reduced, ref, field.Zero)
	f1 := evalSubstituted(reduced, ref, field.One)
	f2 := evalSubstituted(reduced, ref, field.NewFromUint64(2))

	slope := field.Sub(f1, f0)
	expected2 := field.Add(f0, field.Mul(field.NewFromUint64(2), slope))
	if !f2.Equal(expected2) {
		return field.Zero, false // degree > 1 in ref
	}
	if slope.IsZero() {
		return field.Zero, false // constant in ref; no unique assignment
	}
	inv, _ := field.Inverse(slope)
	return field.Neg(field.Mul(f0, inv)), true
}

// linearRoot treats e as an affine function of ref (as matchAffine does) and
// returns its unique root without requiring the caller to already know e is
// linear; ok is false if e is not affine in ref.
func linearRoot(e *analyzed.AlgebraicExpression, ref analyzed.AlgebraicReference) (field.Element, bool) {
	return matchAffine(e, ref)
}

// matchRootProduct recognizes a reduced residual of the structural shape
// `linear_in(ref) * linear_in(ref)` -- e.g. `ref * (ref - 1)` -- and returns
// the (up to two) roots, i.e. the values ref is constrained to by the
// implied "ref in {roots}" bit/range constraint. This is a deliberately
// narrow, structural match (spec.md's worked `x*(x-1)=0 => x in {0,1}`
// scenario), not a general polynomial root finder: it only fires when the
// top-level operator is a product of two factors each independently affine
// in ref.
func matchRootProduct(reduced *analyzed.AlgebraicExpression, ref analyzed.AlgebraicReference) ([]field.Element, bool) {
	if reduced.Kind != analyzed.AlgBinaryOp || reduced.BinOp != analyzed.AlgMul {
		return nil, false
	}
	r1, ok1 := linearRoot(reduced.Left, ref)
	if !ok1 {
		return nil, false
	}
	r2, ok2 := linearRoot(reduced.Right, ref)
	if !ok2 {
		return nil, false
	}
	if r1.Equal(r2) {
		return []field.Element{r1}, true
	}
	return []field.Element{r1, r2}, true
}
