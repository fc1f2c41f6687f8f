package field

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"math/bits"
)

// BinaryField represents a binary finite field GF(2^n)
type BinaryField struct {
	n       int    // field extension degree
	modulus uint64 // irreducible polynomial of degree n, bit i is the coefficient of x^i
}

// NewBinaryField creates a new binary field GF(2^n) with given irreducible polynomial
func NewBinaryField(n int, modulus uint64) *BinaryField {
	if n < 1 || n >= 32 {
		panic(fmt.Sprintf("binary field degree %d out of range", n))
	}
	if bits.Len64(modulus)-1 != n {
		panic(fmt.Sprintf("modulus 0x%x does not have degree %d", modulus, n))
	}
	return &BinaryField{n: n, modulus: modulus}
}

// BinaryFieldElement represents an element in a binary field
type BinaryFieldElement struct {
	value uint64       // polynomial representation
	field *BinaryField // reference to parent field
}

// Zero returns the additive identity element (0)
func (f *BinaryField) Zero() Element {
	return &BinaryFieldElement{value: 0, field: f}
}

// One returns the multiplicative identity element (1)
func (f *BinaryField) One() Element {
	return &BinaryFieldElement{value: 1, field: f}
}

// Random returns a uniformly random field element
func (f *BinaryField) Random() (Element, error) {
	val, err := rand.Int(rand.Reader, f.Order())
	if err != nil {
		return nil, err
	}
	return &BinaryFieldElement{value: val.Uint64(), field: f}, nil
}

// FromUint64 keeps the low n bits of v
func (f *BinaryField) FromUint64(v uint64) Element {
	return &BinaryFieldElement{value: v & (f.Size() - 1), field: f}
}

// Order returns 2^n
func (f *BinaryField) Order() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(f.n))
}

func (f *BinaryField) Size() uint64 {
	return 1 << uint(f.n)
}

func (f *BinaryField) Characteristic() uint64 {
	return 2
}

// Degree returns the extension degree n
func (f *BinaryField) Degree() int {
	return f.n
}

// Modulus returns the reduction polynomial
func (f *BinaryField) Modulus() uint64 {
	return f.modulus
}

func (f *BinaryField) String() string {
	if f.n == 1 {
		return "GF(2)"
	}
	return fmt.Sprintf("GF(2^%d)", f.n)
}

func (e *BinaryFieldElement) other(b Element) *BinaryFieldElement {
	other, ok := b.(*BinaryFieldElement)
	if !ok || other.field.modulus != e.field.modulus {
		panic("incompatible field elements")
	}
	return other
}

// Add returns e + b in the field (XOR operation)
func (e *BinaryFieldElement) Add(b Element) Element {
	other := e.other(b)
	return &BinaryFieldElement{value: e.value ^ other.value, field: e.field}
}

// Sub returns e - b in the field (same as Add in GF(2^n))
func (e *BinaryFieldElement) Sub(b Element) Element {
	return e.Add(b)
}

// Neg returns e, every element is its own additive inverse
func (e *BinaryFieldElement) Neg() Element {
	return e
}

// Mul returns e * b in the field using polynomial multiplication with reduction
func (e *BinaryFieldElement) Mul(b Element) Element {
	other := e.other(b)
	if e.field.n == 1 {
		return &BinaryFieldElement{value: e.value & other.value, field: e.field}
	}
	return &BinaryFieldElement{value: reduce(clmul(e.value, other.value), e.field.modulus), field: e.field}
}

// clmul is carry-less multiplication of two polynomials over GF(2)
func clmul(a, b uint64) uint64 {
	var result uint64
	for b != 0 {
		if b&1 == 1 {
			result ^= a
		}
		a <<= 1
		b >>= 1
	}
	return result
}

// reduce performs polynomial reduction modulo the irreducible polynomial
func reduce(val, modulus uint64) uint64 {
	degree := bits.Len64(modulus) - 1
	for {
		pos := bits.Len64(val) - 1
		if pos < degree {
			return val
		}
		val ^= modulus << uint(pos-degree)
	}
}

// Inv returns the multiplicative inverse of e using extended Euclidean algorithm
func (e *BinaryFieldElement) Inv() Element {
	if e.IsZero() {
		panic("zero element is not invertible")
	}

	oldR, r := e.field.modulus, e.value
	oldS, s := uint64(0), uint64(1)
	for r != 0 {
		q, remainder := polyDivMod(oldR, r)
		oldR, r = r, remainder
		oldS, s = s, oldS^clmul(q, s)
	}

	return &BinaryFieldElement{value: reduce(oldS, e.field.modulus), field: e.field}
}

// polyDivMod performs polynomial division in GF(2)
func polyDivMod(a, b uint64) (uint64, uint64) {
	var quotient uint64
	bDegree := bits.Len64(b) - 1
	for bits.Len64(a)-1 >= bDegree {
		shift := bits.Len64(a) - 1 - bDegree
		quotient |= 1 << uint(shift)
		a ^= b << uint(shift)
	}
	return quotient, a
}

// IsZero returns true if e equals zero
func (e *BinaryFieldElement) IsZero() bool {
	return e.value == 0
}

// IsOne returns true if e equals one
func (e *BinaryFieldElement) IsOne() bool {
	return e.value == 1
}

// Equal returns true if e equals b
func (e *BinaryFieldElement) Equal(b Element) bool {
	other, ok := b.(*BinaryFieldElement)
	if !ok {
		return false
	}
	return e.field.modulus == other.field.modulus && e.value == other.value
}

// Clone returns a copy of e
func (e *BinaryFieldElement) Clone() Element {
	return &BinaryFieldElement{value: e.value, field: e.field}
}

func (e *BinaryFieldElement) Uint64() uint64 {
	return e.value
}

// String returns the string representation of e
func (e *BinaryFieldElement) String() string {
	if e.field.n == 1 {
		return fmt.Sprintf("%d", e.value)
	}
	return fmt.Sprintf("0x%x", e.value)
}

// binaryModulus returns the smallest irreducible polynomial of degree n
// over GF(2) with a non-zero constant term.
func binaryModulus(n int) uint64 {
	for m := uint64(1)<<uint(n) | 1; m < uint64(1)<<uint(n+1); m += 2 {
		if binaryIrreducible(m) {
			return m
		}
	}
	panic(fmt.Sprintf("no irreducible polynomial of degree %d", n))
}

// binaryIrreducible reports whether m has no factor of degree 1..deg(m)/2.
func binaryIrreducible(m uint64) bool {
	degree := bits.Len64(m) - 1
	for d := uint64(2); bits.Len64(d)-1 <= degree/2; d++ {
		if _, r := polyDivMod(m, d); r == 0 {
			return false
		}
	}
	return degree >= 1
}
