package witgen

import (
	"github.com/AztecProtocol/powdr/field"
	"github.com/bits-and-blooms/bitset"
)

// maxEnumeratedValues caps how large an explicit enumeration a
// RangeConstraint will materialize as a bitset before falling back to a
// symbolic bound. Witness columns are rarely constrained to more than a
// handful of values by a single identity (booleans, small lookups), so this
// comfortably covers the common case without risking a huge allocation for
// a malformed "x < 2^63" style bound.
const maxEnumeratedValues = 1 << 16

// RangeConstraint is a set-of-allowed-values description for a witness cell
// (spec.md §3): bounded by `value < 2^k` or a small enumeration. Constraints
// combine by intersection.
type RangeConstraint struct {
	// mask, when non-nil, lists the exact allowed values as indices into a
	// bitset (only used for small enumerations, e.g. boolean columns).
	mask *bitset.BitSet
	// bound, when set (bound != nil), asserts value < bound without
	// necessarily enumerating every allowed value (used for `value < 2^k`
	// constraints where k is too large to enumerate).
	bound *uint64
}

// Unconstrained has no information: every value is allowed.
var Unconstrained = RangeConstraint{}

// NewBitConstraint describes `value < 2^bits`.
func NewBitConstraint(bits uint) RangeConstraint {
	if bits == 0 {
		return NewEnumeration([]field.Element{field.Zero})
	}
	if bits <= 16 {
		b := bitset.New(uint(1) << bits)
		b.FlipRange(0, uint(1)<<bits)
		return RangeConstraint{mask: b}
	}
	bound := uint64(1) << bits
	return RangeConstraint{bound: &bound}
}

// NewEnumeration describes an explicit small allowed-value set, e.g. the
// {0, k} roots the identity processor derives from `x * (x - k) = 0`.
func NewEnumeration(values []field.Element) RangeConstraint {
	max := uint64(0)
	for _, v := range values {
		if u := v.BigInt().Uint64(); u > max {
			max = u
		}
	}
	size := max + 1
	if size > maxEnumeratedValues {
		// Too sparse/large to enumerate; degrade to a bound at least as
		// permissive as every observed value so intersection stays sound.
		return RangeConstraint{bound: &size}
	}
	b := bitset.New(uint(size))
	for _, v := range values {
		b.Set(uint(v.BigInt().Uint64()))
	}
	return RangeConstraint{mask: b}
}

// Allows reports whether v satisfies the constraint.
func (r RangeConstraint) Allows(v field.Element) bool {
	u := v.BigInt().Uint64()
	if r.bound != nil && u >= *r.bound {
		return false
	}
	if r.mask != nil {
		if u >= r.mask.Len() {
			return false
		}
		return r.mask.Test(uint(u))
	}
	return true
}

// IsUnconstrained reports whether the constraint carries no information.
func (r RangeConstraint) IsUnconstrained() bool {
	return r.mask == nil && r.bound == nil
}

// Enumerated returns the explicit allowed-value set, if this constraint
// tracks one (as opposed to a bare bound). ok is false for unconstrained
// cells or for bounds too large to have been enumerated.
func (r RangeConstraint) Enumerated() (values []field.Element, ok bool) {
	if r.mask == nil {
		return nil, false
	}
	for i, e := r.mask.NextSet(0); e; i, e = r.mask.NextSet(i + 1) {
		values = append(values, field.NewFromUint64(uint64(i)))
	}
	return values, true
}

// Intersect combines two constraints, narrowing to values both allow.
func Intersect(a, b RangeConstraint) RangeConstraint {
	if a.IsUnconstrained() {
		return b
	}
	if b.IsUnconstrained() {
		return a
	}
	switch {
	case a.mask != nil && b.mask != nil:
		m := a.mask.Clone()
		m.InPlaceIntersection(b.mask)
		return RangeConstraint{mask: m}
	case a.mask != nil:
		m := a.mask.Clone()
		for i := uint(0); i < m.Len(); i++ {
			if m.Test(i) && !b.Allows(field.NewFromUint64(uint64(i))) {
				m.Clear(i)
			}
		}
		return RangeConstraint{mask: m}
	case b.mask != nil:
		return Intersect(b, a)
	default:
		bound := *a.bound
		if *b.bound < bound {
			bound = *b.bound
		}
		return RangeConstraint{bound: &bound}
	}
}

// Equal reports whether two constraints describe the same allowed set, used
// by Row equality checks during loop detection (spec.md §4.2 step 2).
func (r RangeConstraint) Equal(other RangeConstraint) bool {
	if r.IsUnconstrained() != other.IsUnconstrained() {
		return false
	}
	if r.mask != nil && other.mask != nil {
		return r.mask.Equal(other.mask)
	}
	if r.bound != nil && other.bound != nil {
		return *r.bound == *other.bound
	}
	return r.IsUnconstrained() && other.IsUnconstrained()
}
