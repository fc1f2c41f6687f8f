// Package order computes the multiplicative order of t in GF(q)[t]/(P),
// classifies primitivity and derives the period facts of an LFSR from its
// characteristic polynomial.
package order

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ppopth/lfsr-analysis/poly"
)

var log = logging.Logger("order")

// checkInterval is the number of exhaustive search steps between context checks
const checkInterval = 4096

var (
	// ErrSearchTooLarge is returned when q^d does not fit the exhaustive search counter
	ErrSearchTooLarge = errors.New("exhaustive order search space exceeds 2^63")
	// ErrNotIrreducible is returned when the divisor strategy is asked for a reducible polynomial
	ErrNotIrreducible = errors.New("divisor search requires an irreducible polynomial")
)

// Strategy selects how the order is searched for
type Strategy int

const (
	// StrategyAuto uses the divisor search for irreducible polynomials and
	// the exhaustive search otherwise
	StrategyAuto Strategy = iota
	// StrategyExhaustive tries every exponent j from d to q^d-1
	StrategyExhaustive
	// StrategyDivisor only tests divisors of q^d-1; irreducible input only
	StrategyDivisor
)

func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyExhaustive:
		return "exhaustive"
	case StrategyDivisor:
		return "divisor"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses the output of Strategy.String
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "auto", "":
		return StrategyAuto, nil
	case "exhaustive":
		return StrategyExhaustive, nil
	case "divisor":
		return StrategyDivisor, nil
	}
	return 0, fmt.Errorf("unknown order strategy %q", s)
}

// Cache is a store of previously computed results. It is consulted by
// Order and Analyze and filled by Analyze.
type Cache interface {
	Get(p *poly.Poly) (*Result, bool)
	Add(r *Result)
}

type options struct {
	strategy Strategy
	cache    Cache
}

// Option configures Order and Analyze
type Option func(*options)

// WithStrategy selects the search strategy
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithCache sets a store of known results
func WithCache(c Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

func applyOptions(opts []Option) *options {
	o := &options{strategy: StrategyAuto}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Order returns the smallest j >= 1 with t^j = 1 modulo p, or Undefined if
// there is none, which happens exactly when t divides p. p is made monic
// first and must have degree at least one.
//
// The exhaustive strategy costs O(q^d) steps; it is meant for moderate
// degrees and honours ctx cancellation.
func Order(ctx context.Context, p *poly.Poly, opts ...Option) (Value, error) {
	o := applyOptions(opts)
	if o.cache != nil {
		if r, ok := o.cache.Get(p); ok {
			return r.PolynomialOrder, nil
		}
	}
	return search(ctx, p, o.strategy, nil)
}

// search dispatches on the strategy. irreducible is nil when unknown.
func search(ctx context.Context, p *poly.Poly, strategy Strategy, irreducible *bool) (Value, error) {
	if p.Degree() < 1 {
		return Undefined, &poly.AlgebraError{Op: "order", Err: poly.ErrConstant}
	}
	m, err := p.Monic()
	if err != nil {
		return Undefined, err
	}
	if m.Coefficient(0).IsZero() {
		return Undefined, nil
	}

	if strategy != StrategyExhaustive && irreducible == nil {
		ok, err := poly.Irreducible(m)
		if err != nil {
			return Undefined, err
		}
		irreducible = &ok
	}

	switch strategy {
	case StrategyExhaustive:
		return exhaustive(ctx, m)
	case StrategyDivisor:
		if !*irreducible {
			return Undefined, fmt.Errorf("order of %s: %w", m, ErrNotIrreducible)
		}
		return divisorSearch(ctx, m)
	case StrategyAuto:
		if *irreducible {
			return divisorSearch(ctx, m)
		}
		return exhaustive(ctx, m)
	default:
		return Undefined, fmt.Errorf("unknown order strategy %d", int(strategy))
	}
}

// exhaustive computes t^j mod m for j = d .. q^d-1 by repeated
// multiplication by t and returns the first j that gives 1.
func exhaustive(ctx context.Context, m *poly.Poly) (Value, error) {
	d := m.Degree()
	size := ringSize(m)
	if size.BitLen() > 63 {
		return Undefined, fmt.Errorf("order of %s over %s: %w", m, m.Field(), ErrSearchTooLarge)
	}
	limit := size.Uint64() - 1

	ring, err := poly.NewQuotient(m)
	if err != nil {
		return Undefined, err
	}

	x := ring.PowT(big.NewInt(int64(d)))
	for j := uint64(d); j <= limit; j++ {
		if x.IsOne() {
			return FromUint64(j), nil
		}
		if j%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Undefined, fmt.Errorf("order of %s: search stopped at %d: %w", m, j, err)
			}
		}
		x = ring.MulT(x)
	}
	return Undefined, nil
}

// divisorSearch starts from q^d-1, which t^(q^d-1) = 1 satisfies for an
// irreducible m with m(0) != 0, and strips prime factors r while
// t^(ord/r) is still 1.
func divisorSearch(ctx context.Context, m *poly.Poly) (Value, error) {
	ring, err := poly.NewQuotient(m)
	if err != nil {
		return Undefined, err
	}
	bound := new(big.Int).Sub(ringSize(m), big.NewInt(1))
	if !ring.PowT(bound).IsOne() {
		return Undefined, fmt.Errorf("order of %s: t^%s is not 1: %w", m, bound, ErrNotIrreducible)
	}

	primes, err := primeFactors(ctx, bound)
	if err != nil {
		return Undefined, fmt.Errorf("order of %s: factoring %s: %w", m, bound, err)
	}

	ord := new(big.Int).Set(bound)
	quo, rem := new(big.Int), new(big.Int)
	for _, r := range primes {
		for {
			quo.QuoRem(ord, r, rem)
			if rem.Sign() != 0 || !ring.PowT(quo).IsOne() {
				break
			}
			ord.Set(quo)
		}
	}
	return NewValue(ord), nil
}

// ringSize returns q^d, the number of elements of GF(q)[t]/(m)
func ringSize(m *poly.Poly) *big.Int {
	return new(big.Int).Exp(m.Field().Order(), big.NewInt(int64(m.Degree())), nil)
}

// MaxPeriod returns q^d - 1 for a polynomial of degree d over GF(q)
func MaxPeriod(p *poly.Poly) *big.Int {
	return new(big.Int).Sub(ringSize(p), big.NewInt(1))
}
