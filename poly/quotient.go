package poly

import (
	"math/big"

	"github.com/ppopth/lfsr-analysis/field"
)

// Quotient is the ring GF(q)[t]/(m). Elements are polynomials of degree
// less than deg m; all operations reduce their result.
type Quotient struct {
	m      *Poly
	negLow []field.Element // -m_i / m_d for i < d, used to rewrite t^d
}

// NewQuotient returns the quotient ring modulo m. m must have degree >= 1.
func NewQuotient(m *Poly) (*Quotient, error) {
	if m.Degree() < 1 {
		return nil, &AlgebraError{Op: "quotient", Err: ErrConstant}
	}
	invLead := m.Leading().Inv()
	negLow := make([]field.Element, m.Degree())
	for i := range negLow {
		negLow[i] = m.coeff[i].Mul(invLead).Neg()
	}
	return &Quotient{m: m, negLow: negLow}, nil
}

// Modulus returns m
func (q *Quotient) Modulus() *Poly {
	return q.m
}

// Reduce returns a mod m
func (q *Quotient) Reduce(a *Poly) *Poly {
	if a.Degree() < q.m.Degree() {
		return a
	}
	// m has degree >= 1, so the division cannot fail
	_, r, _ := DivMod(a, q.m)
	return r
}

// Mul returns a*b mod m
func (q *Quotient) Mul(a, b *Poly) *Poly {
	return q.Reduce(a.Mul(b))
}

// MulT returns t*a mod m for a reduced a. It costs O(deg m) field
// operations, which makes it the step of the exhaustive order search.
func (q *Quotient) MulT(a *Poly) *Poly {
	d := q.m.Degree()
	f := q.m.f
	c := make([]field.Element, d)
	top := a.Coefficient(d - 1)
	for i := d - 1; i >= 1; i-- {
		c[i] = a.Coefficient(i - 1)
	}
	c[0] = f.Zero()
	if !top.IsZero() {
		for i := range c {
			c[i] = c[i].Add(top.Mul(q.negLow[i]))
		}
	}
	return normalize(f, c)
}

// Pow returns a^e mod m by square-and-multiply
func (q *Quotient) Pow(a *Poly, e *big.Int) *Poly {
	if e.Sign() < 0 {
		panic("negative exponent")
	}
	result := q.Reduce(One(q.m.f))
	base := q.Reduce(a)
	for i := 0; i < e.BitLen(); i++ {
		if e.Bit(i) == 1 {
			result = q.Mul(result, base)
		}
		if i+1 < e.BitLen() {
			base = q.Mul(base, base)
		}
	}
	return result
}

// PowT returns t^e mod m
func (q *Quotient) PowT(e *big.Int) *Poly {
	return q.Pow(T(q.m.f), e)
}
