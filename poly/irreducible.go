package poly

// Irreducible reports whether p is irreducible over its field. It uses Ben
// Or's test: p of degree d is irreducible iff gcd(p, t^(q^i) - t) = 1 for
// every 1 <= i <= d/2.
//
// Constants are not irreducible; polynomials of degree one always are.
func Irreducible(p *Poly) (bool, error) {
	if p.IsZero() {
		return false, &AlgebraError{Op: "irreducible", Err: ErrZeroPolynomial}
	}
	d := p.Degree()
	if d < 1 {
		return false, nil
	}
	if d == 1 {
		return true, nil
	}

	ring, err := NewQuotient(p)
	if err != nil {
		return false, err
	}
	q := p.f.Order()
	t := ring.Reduce(T(p.f))

	// x runs through t^(q^i) mod p
	x := t
	for i := 1; i <= d/2; i++ {
		x = ring.Pow(x, q)
		if !GCD(p, x.Sub(t)).IsOne() {
			return false, nil
		}
	}
	return true, nil
}
