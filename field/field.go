package field

import (
	"fmt"
	"math/big"
)

// Element represents an element in a finite field
type Element interface {
	// Add returns a + b in the field
	Add(b Element) Element

	// Sub returns a - b in the field
	Sub(b Element) Element

	// Mul returns a * b in the field
	Mul(b Element) Element

	// Neg returns -a in the field
	Neg() Element

	// Inv returns the multiplicative inverse of a in the field
	Inv() Element

	// IsZero returns true if the element is the zero element
	IsZero() bool

	// IsOne returns true if the element is the multiplicative identity
	IsOne() bool

	// Equal returns true if two elements are equal
	Equal(b Element) bool

	// Clone returns a copy of the element
	Clone() Element

	// Uint64 returns the canonical index of the element in [0, q)
	Uint64() uint64

	// String returns the string representation of the element
	String() string
}

// Field represents a finite field
type Field interface {
	// Zero returns the zero element of the field
	Zero() Element

	// One returns the one element of the field
	One() Element

	// Random returns a random element in the field
	Random() (Element, error)

	// FromUint64 returns the element with canonical index v mod q
	FromUint64(v uint64) Element

	// Order returns the order (size) of the field
	Order() *big.Int

	// Size returns the order of the field as a machine integer
	Size() uint64

	// Characteristic returns the characteristic p of the field
	Characteristic() uint64

	// String returns a short description such as GF(2^8)
	String() string
}

// MaxOrder bounds the field orders supported by New. Products of two
// canonical indices must fit in a uint64.
const MaxOrder = 1 << 32

// New returns the finite field with q elements. q must be a prime power in
// [2, MaxOrder).
func New(q uint64) (Field, error) {
	if q < 2 {
		return nil, fmt.Errorf("field order %d is too small", q)
	}
	if q >= MaxOrder {
		return nil, fmt.Errorf("field order %d exceeds the supported maximum %d", q, uint64(MaxOrder))
	}
	p, k, ok := primePower(q)
	if !ok {
		return nil, fmt.Errorf("field order %d is not a prime power", q)
	}

	switch {
	case p == 2:
		return NewBinaryField(k, binaryModulus(k)), nil
	case k == 1:
		return NewPrimeField(p), nil
	default:
		return NewExtensionField(p, k, extensionModulus(p, k)), nil
	}
}

// MustNew is like New but panics on error. It is meant for constants and tests.
func MustNew(q uint64) Field {
	f, err := New(q)
	if err != nil {
		panic(err)
	}
	return f
}

// NewGF2 returns GF(2), where addition is XOR and multiplication is AND
func NewGF2() *BinaryField {
	return NewBinaryField(1, 0b11)
}

// SameField reports whether a and b are the same field instance or
// describe the same field.
func SameField(a, b Field) bool {
	if a == b {
		return true
	}
	switch x := a.(type) {
	case *PrimeField:
		y, ok := b.(*PrimeField)
		return ok && x.p == y.p
	case *BinaryField:
		y, ok := b.(*BinaryField)
		return ok && x.n == y.n && x.modulus == y.modulus
	case *ExtensionField:
		y, ok := b.(*ExtensionField)
		if !ok || x.p != y.p || x.k != y.k {
			return false
		}
		for i := range x.modulus {
			if x.modulus[i] != y.modulus[i] {
				return false
			}
		}
		return true
	}
	return false
}

// FromUint64s converts canonical indices to field elements
func FromUint64s(f Field, values []uint64) []Element {
	result := make([]Element, len(values))
	for i, v := range values {
		result[i] = f.FromUint64(v)
	}
	return result
}

// ToUint64s converts field elements to their canonical indices
func ToUint64s(elements []Element) []uint64 {
	result := make([]uint64, len(elements))
	for i, e := range elements {
		result[i] = e.Uint64()
	}
	return result
}

// primePower decomposes q = p^k with p prime.
func primePower(q uint64) (p uint64, k int, ok bool) {
	for k = 1; k < 64; k++ {
		root := integerRoot(q, k)
		if root < 2 {
			break
		}
		if pow(root, k) == q && big.NewInt(0).SetUint64(root).ProbablyPrime(20) {
			return root, k, true
		}
	}
	return 0, 0, false
}

// integerRoot returns floor(q^(1/k)).
func integerRoot(q uint64, k int) uint64 {
	if k == 1 {
		return q
	}
	lo, hi := uint64(1), uint64(1)<<(64/k+1)
	if hi > q {
		hi = q
	}
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if powFits(mid, k, q) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// powFits reports whether b^k <= limit without overflowing.
func powFits(b uint64, k int, limit uint64) bool {
	r := uint64(1)
	for i := 0; i < k; i++ {
		if r > limit/b {
			return false
		}
		r *= b
	}
	return r <= limit
}

func pow(b uint64, k int) uint64 {
	r := uint64(1)
	for i := 0; i < k; i++ {
		r *= b
	}
	return r
}
