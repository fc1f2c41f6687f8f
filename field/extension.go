package field

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// ExtensionField represents GF(p^k) for an odd prime p as polynomials over
// GF(p) reduced by a monic irreducible polynomial of degree k.
type ExtensionField struct {
	p       uint64
	k       int
	size    uint64
	modulus []uint64 // k+1 ascending coefficients, modulus[k] == 1
}

// NewExtensionField creates GF(p^k). The modulus must be monic of degree k
// and irreducible over GF(p); it is not checked.
func NewExtensionField(p uint64, k int, modulus []uint64) *ExtensionField {
	if len(modulus) != k+1 || modulus[k] != 1 {
		panic(fmt.Sprintf("modulus %v is not monic of degree %d", modulus, k))
	}
	size := pow(p, k)
	if size >= MaxOrder {
		panic(fmt.Sprintf("field GF(%d^%d) is too large", p, k))
	}
	return &ExtensionField{p: p, k: k, size: size, modulus: append([]uint64(nil), modulus...)}
}

// ExtensionFieldElement is an element of GF(p^k) stored by canonical index
type ExtensionFieldElement struct {
	value uint64
	field *ExtensionField
}

func (f *ExtensionField) Zero() Element {
	return &ExtensionFieldElement{value: 0, field: f}
}

func (f *ExtensionField) One() Element {
	return &ExtensionFieldElement{value: 1, field: f}
}

func (f *ExtensionField) Random() (Element, error) {
	val, err := rand.Int(rand.Reader, f.Order())
	if err != nil {
		return nil, err
	}
	return &ExtensionFieldElement{value: val.Uint64(), field: f}, nil
}

func (f *ExtensionField) FromUint64(v uint64) Element {
	return &ExtensionFieldElement{value: v % f.size, field: f}
}

func (f *ExtensionField) Order() *big.Int {
	return new(big.Int).SetUint64(f.size)
}

func (f *ExtensionField) Size() uint64 {
	return f.size
}

func (f *ExtensionField) Characteristic() uint64 {
	return f.p
}

// Degree returns the extension degree k
func (f *ExtensionField) Degree() int {
	return f.k
}

// Modulus returns a copy of the reduction polynomial coefficients
func (f *ExtensionField) Modulus() []uint64 {
	return append([]uint64(nil), f.modulus...)
}

func (f *ExtensionField) String() string {
	return fmt.Sprintf("GF(%d^%d)", f.p, f.k)
}

// digits expands a canonical index into k base-p coefficients
func (f *ExtensionField) digits(v uint64) []uint64 {
	d := make([]uint64, f.k)
	for i := 0; i < f.k; i++ {
		d[i] = v % f.p
		v /= f.p
	}
	return d
}

// index packs base-p coefficients into a canonical index
func (f *ExtensionField) index(d []uint64) uint64 {
	var v uint64
	for i := len(d) - 1; i >= 0; i-- {
		v = v*f.p + d[i]
	}
	return v
}

func (e *ExtensionFieldElement) other(b Element) *ExtensionFieldElement {
	other, ok := b.(*ExtensionFieldElement)
	if !ok || !SameField(e.field, other.field) {
		panic("incompatible field elements")
	}
	return other
}

func (e *ExtensionFieldElement) with(d []uint64) Element {
	return &ExtensionFieldElement{value: e.field.index(d), field: e.field}
}

func (e *ExtensionFieldElement) Add(b Element) Element {
	other := e.other(b)
	x, y := e.field.digits(e.value), e.field.digits(other.value)
	for i := range x {
		x[i] = (x[i] + y[i]) % e.field.p
	}
	return e.with(x)
}

func (e *ExtensionFieldElement) Sub(b Element) Element {
	return e.Add(e.other(b).Neg())
}

func (e *ExtensionFieldElement) Neg() Element {
	x := e.field.digits(e.value)
	for i := range x {
		x[i] = (e.field.p - x[i]) % e.field.p
	}
	return e.with(x)
}

func (e *ExtensionFieldElement) Mul(b Element) Element {
	other := e.other(b)
	return e.with(smallMulMod(e.field.digits(e.value), e.field.digits(other.value), e.field.modulus, e.field.p))
}

// Inv returns e^(q-2), which is the inverse in the multiplicative group
func (e *ExtensionFieldElement) Inv() Element {
	if e.IsZero() {
		panic("zero element is not invertible")
	}
	result := e.field.One()
	base := Element(e)
	for n := e.field.size - 2; n > 0; n >>= 1 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
	}
	return result
}

func (e *ExtensionFieldElement) IsZero() bool {
	return e.value == 0
}

func (e *ExtensionFieldElement) IsOne() bool {
	return e.value == 1
}

func (e *ExtensionFieldElement) Equal(b Element) bool {
	other, ok := b.(*ExtensionFieldElement)
	if !ok {
		return false
	}
	return e.value == other.value && SameField(e.field, other.field)
}

func (e *ExtensionFieldElement) Clone() Element {
	return &ExtensionFieldElement{value: e.value, field: e.field}
}

func (e *ExtensionFieldElement) Uint64() uint64 {
	return e.value
}

func (e *ExtensionFieldElement) String() string {
	return fmt.Sprintf("%d", e.value)
}

// smallMulMod multiplies two coefficient vectors over GF(p) and reduces by
// the monic modulus. The result has len(modulus)-1 coefficients.
func smallMulMod(a, b, modulus []uint64, p uint64) []uint64 {
	k := len(modulus) - 1
	prod := make([]uint64, len(a)+len(b))
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			prod[i+j] = (prod[i+j] + x*y) % p
		}
	}
	return smallMod(prod, modulus, p)[:k]
}

// smallMod reduces a by the monic polynomial m over GF(p). The returned
// slice has at least len(m)-1 entries.
func smallMod(a, m []uint64, p uint64) []uint64 {
	k := len(m) - 1
	r := append([]uint64(nil), a...)
	for len(r) < k {
		r = append(r, 0)
	}
	for i := len(r) - 1; i >= k; i-- {
		c := r[i]
		if c == 0 {
			continue
		}
		for j := 0; j <= k; j++ {
			r[i-k+j] = (r[i-k+j] + (p-c)*m[j]) % p
		}
	}
	return r
}

// extensionModulus returns the smallest monic irreducible polynomial of
// degree k over GF(p) in canonical index order.
func extensionModulus(p uint64, k int) []uint64 {
	total := pow(p, k)
	for i := uint64(1); i < total; i++ {
		m := make([]uint64, k+1)
		v := i
		for j := 0; j < k; j++ {
			m[j] = v % p
			v /= p
		}
		m[k] = 1
		if m[0] != 0 && smallIrreducible(m, p) {
			return m
		}
	}
	panic(fmt.Sprintf("no irreducible polynomial of degree %d over GF(%d)", k, p))
}

// smallIrreducible checks m for monic divisors of degree 1..deg(m)/2.
func smallIrreducible(m []uint64, p uint64) bool {
	k := len(m) - 1
	for d := 1; d <= k/2; d++ {
		count := pow(p, d)
		for i := uint64(0); i < count; i++ {
			divisor := make([]uint64, d+1)
			v := i
			for j := 0; j < d; j++ {
				divisor[j] = v % p
				v /= p
			}
			divisor[d] = 1
			r := smallMod(m, divisor, p)
			zero := true
			for _, c := range r[:d] {
				if c != 0 {
					zero = false
					break
				}
			}
			if zero {
				return false
			}
		}
	}
	return true
}
