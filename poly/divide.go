package poly

import (
	"github.com/ppopth/lfsr-analysis/field"
)

// DivMod returns q and r with a = q*b + r and deg r < deg b
func DivMod(a, b *Poly) (q, r *Poly, err error) {
	a.check(b)
	if b.IsZero() {
		return nil, nil, &AlgebraError{Op: "divmod", Err: ErrDivisionByZero}
	}

	f := a.f
	if a.Degree() < b.Degree() {
		return Zero(f), a, nil
	}

	rem := a.Coefficients()
	quot := make([]field.Element, a.Degree()-b.Degree()+1)
	for i := range quot {
		quot[i] = f.Zero()
	}
	invLead := b.Leading().Inv()
	bd := b.Degree()

	for i := len(rem) - 1; i >= bd; i-- {
		c := rem[i]
		if c.IsZero() {
			continue
		}
		c = c.Mul(invLead)
		quot[i-bd] = c
		for j := 0; j <= bd; j++ {
			rem[i-bd+j] = rem[i-bd+j].Sub(c.Mul(b.coeff[j]))
		}
	}
	return normalize(f, quot), normalize(f, rem[:bd]), nil
}

// Div returns the quotient of a divided by b
func Div(a, b *Poly) (*Poly, error) {
	q, _, err := DivMod(a, b)
	return q, err
}

// Mod returns the remainder of a divided by b
func Mod(a, b *Poly) (*Poly, error) {
	_, r, err := DivMod(a, b)
	return r, err
}

// GCD returns the monic greatest common divisor of a and b. The GCD of two
// zero polynomials is zero.
func GCD(a, b *Poly) *Poly {
	a.check(b)
	for !b.IsZero() {
		// b is non-zero, so the division cannot fail
		_, r, _ := DivMod(a, b)
		a, b = b, r
	}
	if a.IsZero() {
		return a
	}
	m, _ := a.Monic()
	return m
}
