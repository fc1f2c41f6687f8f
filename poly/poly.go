// Package poly implements immutable polynomials over a finite field GF(q):
// arithmetic, division with remainder, arithmetic in the quotient ring
// GF(q)[t]/(m), irreducibility testing and factorization.
package poly

import (
	"fmt"
	"strings"

	"github.com/ppopth/lfsr-analysis/field"
)

// Poly is a polynomial in GF(q)[t]. Coefficients are stored in ascending
// order of powers with no trailing zeros; the zero polynomial has none.
// A Poly is never modified after construction.
type Poly struct {
	f     field.Field
	coeff []field.Element
}

// New returns the polynomial with the given ascending coefficients
func New(f field.Field, coeffs []field.Element) *Poly {
	c := make([]field.Element, len(coeffs))
	copy(c, coeffs)
	return normalize(f, c)
}

// FromUint64s returns the polynomial whose i-th coefficient has canonical
// index coeffs[i]
func FromUint64s(f field.Field, coeffs []uint64) *Poly {
	return normalize(f, field.FromUint64s(f, coeffs))
}

// Zero returns the zero polynomial
func Zero(f field.Field) *Poly {
	return &Poly{f: f}
}

// One returns the constant polynomial 1
func One(f field.Field) *Poly {
	return &Poly{f: f, coeff: []field.Element{f.One()}}
}

// T returns the polynomial t
func T(f field.Field) *Poly {
	return Monomial(f, f.One(), 1)
}

// Monomial returns c*t^deg
func Monomial(f field.Field, c field.Element, deg int) *Poly {
	coeff := make([]field.Element, deg+1)
	for i := range coeff {
		coeff[i] = f.Zero()
	}
	coeff[deg] = c
	return normalize(f, coeff)
}

func normalize(f field.Field, c []field.Element) *Poly {
	n := len(c)
	for n > 0 && c[n-1].IsZero() {
		n--
	}
	return &Poly{f: f, coeff: c[:n]}
}

// Field returns the coefficient field
func (p *Poly) Field() field.Field {
	return p.f
}

// Degree returns the degree of p, or -1 for the zero polynomial
func (p *Poly) Degree() int {
	return len(p.coeff) - 1
}

// Coefficient returns the coefficient of t^i
func (p *Poly) Coefficient(i int) field.Element {
	if i < 0 || i >= len(p.coeff) {
		return p.f.Zero()
	}
	return p.coeff[i]
}

// Coefficients returns a copy of the ascending coefficients
func (p *Poly) Coefficients() []field.Element {
	return append([]field.Element(nil), p.coeff...)
}

// Uint64s returns the canonical indices of the ascending coefficients
func (p *Poly) Uint64s() []uint64 {
	return field.ToUint64s(p.coeff)
}

// Leading returns the leading coefficient, zero for the zero polynomial
func (p *Poly) Leading() field.Element {
	if len(p.coeff) == 0 {
		return p.f.Zero()
	}
	return p.coeff[len(p.coeff)-1]
}

func (p *Poly) IsZero() bool {
	return len(p.coeff) == 0
}

func (p *Poly) IsOne() bool {
	return len(p.coeff) == 1 && p.coeff[0].IsOne()
}

func (p *Poly) IsMonic() bool {
	return len(p.coeff) > 0 && p.Leading().IsOne()
}

// Equal reports whether p and o are the same polynomial over the same field
func (p *Poly) Equal(o *Poly) bool {
	if !field.SameField(p.f, o.f) || len(p.coeff) != len(o.coeff) {
		return false
	}
	for i := range p.coeff {
		if !p.coeff[i].Equal(o.coeff[i]) {
			return false
		}
	}
	return true
}

// Compare orders polynomials by degree, then by coefficients from the
// leading term down. It returns -1, 0 or 1.
func (p *Poly) Compare(o *Poly) int {
	if p.Degree() != o.Degree() {
		if p.Degree() < o.Degree() {
			return -1
		}
		return 1
	}
	for i := len(p.coeff) - 1; i >= 0; i-- {
		a, b := p.coeff[i].Uint64(), o.coeff[i].Uint64()
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (p *Poly) check(o *Poly) {
	if !field.SameField(p.f, o.f) {
		panic(fmt.Sprintf("incompatible polynomials over %s and %s", p.f, o.f))
	}
}

// Add returns p + o
func (p *Poly) Add(o *Poly) *Poly {
	p.check(o)
	n := max(len(p.coeff), len(o.coeff))
	c := make([]field.Element, n)
	for i := range c {
		c[i] = p.Coefficient(i).Add(o.Coefficient(i))
	}
	return normalize(p.f, c)
}

// Sub returns p - o
func (p *Poly) Sub(o *Poly) *Poly {
	p.check(o)
	n := max(len(p.coeff), len(o.coeff))
	c := make([]field.Element, n)
	for i := range c {
		c[i] = p.Coefficient(i).Sub(o.Coefficient(i))
	}
	return normalize(p.f, c)
}

// Neg returns -p
func (p *Poly) Neg() *Poly {
	c := make([]field.Element, len(p.coeff))
	for i, a := range p.coeff {
		c[i] = a.Neg()
	}
	return normalize(p.f, c)
}

// Scale returns s*p
func (p *Poly) Scale(s field.Element) *Poly {
	c := make([]field.Element, len(p.coeff))
	for i, a := range p.coeff {
		c[i] = a.Mul(s)
	}
	return normalize(p.f, c)
}

// Mul returns p * o
func (p *Poly) Mul(o *Poly) *Poly {
	p.check(o)
	if p.IsZero() || o.IsZero() {
		return Zero(p.f)
	}
	c := make([]field.Element, len(p.coeff)+len(o.coeff)-1)
	for i := range c {
		c[i] = p.f.Zero()
	}
	for i, a := range p.coeff {
		if a.IsZero() {
			continue
		}
		for j, b := range o.coeff {
			c[i+j] = c[i+j].Add(a.Mul(b))
		}
	}
	return normalize(p.f, c)
}

// Monic returns p divided by its leading coefficient
func (p *Poly) Monic() (*Poly, error) {
	if p.IsZero() {
		return nil, &AlgebraError{Op: "monic", Err: ErrZeroPolynomial}
	}
	if p.IsMonic() {
		return p, nil
	}
	return p.Scale(p.Leading().Inv()), nil
}

// Derivative returns the formal derivative of p
func (p *Poly) Derivative() *Poly {
	if len(p.coeff) <= 1 {
		return Zero(p.f)
	}
	c := make([]field.Element, len(p.coeff)-1)
	for i := 1; i < len(p.coeff); i++ {
		// i mod p as a field element: repeated addition of one
		c[i-1] = p.coeff[i].Mul(p.f.FromUint64(uint64(i) % p.f.Characteristic()))
	}
	return normalize(p.f, c)
}

// Eval evaluates p at x with Horner's method
func (p *Poly) Eval(x field.Element) field.Element {
	result := p.f.Zero()
	for i := len(p.coeff) - 1; i >= 0; i-- {
		result = result.Mul(x).Add(p.coeff[i])
	}
	return result
}

// String renders p in descending powers of t, e.g. "t^4 + t + 1"
func (p *Poly) String() string {
	if p.IsZero() {
		return "0"
	}
	var terms []string
	for i := len(p.coeff) - 1; i >= 0; i-- {
		c := p.coeff[i]
		if c.IsZero() {
			continue
		}
		var coeff string
		if !c.IsOne() || i == 0 {
			coeff = c.String()
		}
		switch i {
		case 0:
			terms = append(terms, coeff)
		case 1:
			terms = append(terms, coeff+"t")
		default:
			terms = append(terms, fmt.Sprintf("%st^%d", coeff, i))
		}
	}
	return strings.Join(terms, " + ")
}
