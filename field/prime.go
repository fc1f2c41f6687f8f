package field

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// PrimeField represents a prime finite field F_p
type PrimeField struct {
	p uint64 // the prime modulus
}

// NewPrimeField creates a new prime field. p must be a prime below MaxOrder.
func NewPrimeField(p uint64) *PrimeField {
	if p < 2 || p >= MaxOrder {
		panic(fmt.Sprintf("prime modulus %d out of range", p))
	}
	return &PrimeField{p: p}
}

// PrimeFieldElement represents an element in a prime field
type PrimeFieldElement struct {
	value uint64      // element value in range [0, p-1]
	field *PrimeField // reference to parent field
}

// Zero returns the additive identity element (0)
func (f *PrimeField) Zero() Element {
	return &PrimeFieldElement{value: 0, field: f}
}

// One returns the multiplicative identity element (1)
func (f *PrimeField) One() Element {
	return &PrimeFieldElement{value: 1, field: f}
}

// Random returns a uniformly random field element
func (f *PrimeField) Random() (Element, error) {
	val, err := rand.Int(rand.Reader, f.Order())
	if err != nil {
		return nil, err
	}
	return &PrimeFieldElement{value: val.Uint64(), field: f}, nil
}

// FromUint64 reduces v modulo p
func (f *PrimeField) FromUint64(v uint64) Element {
	return &PrimeFieldElement{value: v % f.p, field: f}
}

// Order returns the order (size) of the field, which is p for a prime field
func (f *PrimeField) Order() *big.Int {
	return new(big.Int).SetUint64(f.p)
}

func (f *PrimeField) Size() uint64 {
	return f.p
}

func (f *PrimeField) Characteristic() uint64 {
	return f.p
}

func (f *PrimeField) String() string {
	return fmt.Sprintf("GF(%d)", f.p)
}

func (e *PrimeFieldElement) other(b Element) *PrimeFieldElement {
	other, ok := b.(*PrimeFieldElement)
	if !ok || other.field.p != e.field.p {
		panic("incompatible field elements")
	}
	return other
}

// Add returns e + b in the field
func (e *PrimeFieldElement) Add(b Element) Element {
	other := e.other(b)
	return &PrimeFieldElement{value: (e.value + other.value) % e.field.p, field: e.field}
}

// Sub returns e - b in the field
func (e *PrimeFieldElement) Sub(b Element) Element {
	other := e.other(b)
	return &PrimeFieldElement{value: (e.value + e.field.p - other.value) % e.field.p, field: e.field}
}

// Mul returns e * b in the field
func (e *PrimeFieldElement) Mul(b Element) Element {
	other := e.other(b)
	return &PrimeFieldElement{value: (e.value * other.value) % e.field.p, field: e.field}
}

// Neg returns -e in the field
func (e *PrimeFieldElement) Neg() Element {
	return &PrimeFieldElement{value: (e.field.p - e.value) % e.field.p, field: e.field}
}

// Inv returns the multiplicative inverse of e
func (e *PrimeFieldElement) Inv() Element {
	inv := new(big.Int).ModInverse(new(big.Int).SetUint64(e.value), e.field.Order())
	if inv == nil {
		panic("element is not invertible")
	}
	return &PrimeFieldElement{value: inv.Uint64(), field: e.field}
}

// IsZero returns true if e equals zero
func (e *PrimeFieldElement) IsZero() bool {
	return e.value == 0
}

// IsOne returns true if e equals one
func (e *PrimeFieldElement) IsOne() bool {
	return e.value == 1
}

// Equal returns true if e equals b
func (e *PrimeFieldElement) Equal(b Element) bool {
	other, ok := b.(*PrimeFieldElement)
	if !ok {
		return false
	}
	return e.field.p == other.field.p && e.value == other.value
}

// Clone returns a copy of e
func (e *PrimeFieldElement) Clone() Element {
	return &PrimeFieldElement{value: e.value, field: e.field}
}

func (e *PrimeFieldElement) Uint64() uint64 {
	return e.value
}

// String returns the string representation of e
func (e *PrimeFieldElement) String() string {
	return fmt.Sprintf("%d", e.value)
}
