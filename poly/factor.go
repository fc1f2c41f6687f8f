package poly

import (
	"fmt"
	"math/big"

	"github.com/ppopth/lfsr-analysis/field"
)

// MaxCandidates bounds the number of monic candidates of a single degree
// that Factor is willing to enumerate.
const MaxCandidates = 1 << 24

// Factor is an irreducible factor and its multiplicity
type Factor struct {
	Poly         *Poly
	Multiplicity int
}

// Factorize splits p into monic irreducible factors with multiplicities.
// The leading coefficient is dropped. Factors are ordered by degree and
// then by coefficients (see Compare).
//
// Candidates of each degree k are enumerated and divided out in increasing
// order while 2k <= deg of the remaining cofactor; whatever is left is
// irreducible. Every divisor found this way is irreducible, because its
// proper factors have already been removed.
func Factorize(p *Poly) ([]Factor, error) {
	if p.IsZero() {
		return nil, &AlgebraError{Op: "factor", Err: ErrZeroPolynomial}
	}
	rest, err := p.Monic()
	if err != nil {
		return nil, err
	}

	var factors []Factor
	q := p.f.Size()
	for k := 1; 2*k <= rest.Degree(); k++ {
		count, ok := candidateCount(q, k)
		if !ok {
			return nil, &AlgebraError{
				Op:  "factor",
				Err: fmt.Errorf("%w: %s has no factor below degree %d and %d^%d candidates remain", ErrSearchTooLarge, rest, k, q, k),
			}
		}
		for i := uint64(0); i < count && 2*k <= rest.Degree(); i++ {
			candidate := monicCandidate(p.f, k, i)
			multiplicity := 0
			for {
				quot, rem, err := DivMod(rest, candidate)
				if err != nil {
					return nil, err
				}
				if !rem.IsZero() {
					break
				}
				rest = quot
				multiplicity++
			}
			if multiplicity > 0 {
				factors = append(factors, Factor{Poly: candidate, Multiplicity: multiplicity})
			}
		}
	}
	if rest.Degree() >= 1 {
		factors = insertFactor(factors, rest)
	}
	return factors, nil
}

// insertFactor places the irreducible cofactor left over by the search.
// It is coprime to every factor found so far.
func insertFactor(factors []Factor, last *Poly) []Factor {
	pos := len(factors)
	for i := range factors {
		if last.Compare(factors[i].Poly) < 0 {
			pos = i
			break
		}
	}
	factors = append(factors, Factor{})
	copy(factors[pos+1:], factors[pos:])
	factors[pos] = Factor{Poly: last, Multiplicity: 1}
	return factors
}

// Product multiplies the factors back together
func Product(f field.Field, factors []Factor) *Poly {
	result := One(f)
	for _, fc := range factors {
		for i := 0; i < fc.Multiplicity; i++ {
			result = result.Mul(fc.Poly)
		}
	}
	return result
}

// candidateCount returns q^k if it is at most MaxCandidates.
func candidateCount(q uint64, k int) (uint64, bool) {
	count := new(big.Int).Exp(new(big.Int).SetUint64(q), big.NewInt(int64(k)), nil)
	if count.Cmp(big.NewInt(MaxCandidates)) > 0 {
		return 0, false
	}
	return count.Uint64(), true
}

// monicCandidate returns the i-th monic polynomial of degree k, where the
// base-q digits of i are the lower coefficients.
func monicCandidate(f field.Field, k int, i uint64) *Poly {
	q := f.Size()
	c := make([]field.Element, k+1)
	for j := 0; j < k; j++ {
		c[j] = f.FromUint64(i % q)
		i /= q
	}
	c[k] = f.One()
	return &Poly{f: f, coeff: c}
}
