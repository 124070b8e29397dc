// Package field provides prime-field arithmetic for the fixed modulus every
// column value and algebraic expression in this module is defined over.
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// Element is a value in the Goldilocks field (p = 2^64 - 2^32 + 1). It wraps
// goldilocks.Element rather than re-deriving Montgomery arithmetic:
// gnark-crypto already ships a production-grade, constant-time
// implementation with a generated addition-chain inversion, which is
// exactly what spec.md asks for ("+, −, ×, inverse, pow, equality, zero
// test, byte serialization"). Goldilocks is also the field whose elements
// fit the 8-byte little-endian witness encoding of spec.md §6 without
// truncation, unlike a 254-bit curve scalar field.
type Element struct {
	inner goldilocks.Element
}

// Zero is the additive identity.
var Zero = Element{}

// One is the multiplicative identity.
var One = NewFromUint64(1)

// NewFromUint64 builds an Element from a small unsigned constant.
func NewFromUint64(v uint64) Element {
	var e Element
	e.inner.SetUint64(v)
	return e
}

// NewFromInt64 builds an Element from a signed constant, wrapping negative
// values around the modulus.
func NewFromInt64(v int64) Element {
	var e Element
	if v < 0 {
		e.inner.SetUint64(uint64(-v))
		e.inner.Neg(&e.inner)
	} else {
		e.inner.SetUint64(uint64(v))
	}
	return e
}

// NewFromBigInt reduces an arbitrary-precision integer modulo the field.
func NewFromBigInt(v *big.Int) Element {
	var e Element
	e.inner.SetBigInt(v)
	return e
}

// Add returns a + b.
func Add(a, b Element) Element {
	var r Element
	r.inner.Add(&a.inner, &b.inner)
	return r
}

// Sub returns a - b.
func Sub(a, b Element) Element {
	var r Element
	r.inner.Sub(&a.inner, &b.inner)
	return r
}

// Mul returns a * b.
func Mul(a, b Element) Element {
	var r Element
	r.inner.Mul(&a.inner, &b.inner)
	return r
}

// Neg returns -a.
func Neg(a Element) Element {
	var r Element
	r.inner.Neg(&a.inner)
	return r
}

// Inverse returns a^-1 and true, or Zero and false for a zero input, leaving
// "divide by zero" to the caller (e.g. the identity processor deciding
// whether a linear coefficient is invertible).
func Inverse(a Element) (Element, bool) {
	if a.IsZero() {
		return Zero, false
	}
	var r Element
	r.inner.Inverse(&a.inner)
	return r, true
}

// Pow returns a^n for a non-negative exponent, as required for the
// AlgebraicExpression exponentiation operator whose right operand must be a
// constant integer (spec.md §3).
func Pow(a Element, n uint64) Element {
	var r Element
	r.inner.Exp(a.inner, new(big.Int).SetUint64(n))
	return r
}

// IsZero reports whether the element is the additive identity.
func (e Element) IsZero() bool {
	return e.inner.IsZero()
}

// Equal reports field equality.
func (e Element) Equal(other Element) bool {
	return e.inner.Equal(&other.inner)
}

// Bytes returns the little-endian byte encoding used by the witness binary
// format (spec.md §6): 8 bytes, canonical (non-Montgomery) form. Built from
// BigInt rather than the internal limb layout so it does not depend on
// gnark-crypto's Montgomery representation details.
func (e Element) Bytes() [8]byte {
	limb := e.BigInt().Uint64()
	var out [8]byte
	for i := 0; i < 8; i++ {
		out[i] = byte(limb >> (8 * i))
	}
	return out
}

// SetBytes decodes the little-endian 8-byte witness encoding back into an
// Element.
func SetBytes(b [8]byte) Element {
	var limb uint64
	for i := 7; i >= 0; i-- {
		limb = limb<<8 | uint64(b[i])
	}
	return NewFromUint64(limb)
}

// String renders the element in decimal, for diagnostics and the
// pretty-printer.
func (e Element) String() string {
	return e.inner.String()
}

// BigInt returns the canonical non-negative representative as a big.Int.
func (e Element) BigInt() *big.Int {
	var b big.Int
	e.inner.BigInt(&b)
	return &b
}
