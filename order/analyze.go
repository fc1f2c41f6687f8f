package order

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ppopth/lfsr-analysis/poly"
)

// Factor is one irreducible factor of an analysed polynomial together with
// its own order
type Factor struct {
	Poly         *poly.Poly
	Multiplicity int
	Order        Value
	// Primitive is true when Order equals q^deg(Poly) - 1
	Primitive bool
}

// Result is the analysis of one characteristic polynomial
type Result struct {
	// Polynomial is the monic form of the analysed input
	Polynomial  *poly.Poly
	FieldOrder  uint64
	Degree      int
	Irreducible bool
	// Factors is the factorization ordered by degree then coefficients.
	// For an irreducible polynomial it is the polynomial itself.
	Factors []Factor
	// PolynomialOrder is the order of the whole polynomial
	PolynomialOrder Value
	// CombinedOrder is the lcm of the factor orders. Multiplicities are not
	// taken into account, so it can be smaller than PolynomialOrder for a
	// polynomial with repeated factors.
	CombinedOrder Value
	// Primitive is true when the polynomial is irreducible and its order is
	// q^d - 1
	Primitive bool
	// TheoreticalMaxPeriod is q^d - 1
	TheoreticalMaxPeriod *big.Int
}

// Clone returns a copy of r that shares nothing mutable with it
func (r *Result) Clone() *Result {
	c := *r
	c.Factors = append([]Factor(nil), r.Factors...)
	if r.TheoreticalMaxPeriod != nil {
		c.TheoreticalMaxPeriod = new(big.Int).Set(r.TheoreticalMaxPeriod)
	}
	return &c
}

// FactorOrders returns the order of each factor in factorization order
func (r *Result) FactorOrders() []Value {
	orders := make([]Value, len(r.Factors))
	for i, f := range r.Factors {
		orders[i] = f.Order
	}
	return orders
}

// Analyze factors p, computes the order of every factor and of p itself and
// classifies p as primitive or not. p is made monic first.
func Analyze(ctx context.Context, p *poly.Poly, opts ...Option) (*Result, error) {
	o := applyOptions(opts)
	if o.cache != nil {
		if r, ok := o.cache.Get(p); ok {
			log.Debugf("analysis of %s found in cache", p)
			return r, nil
		}
	}

	if p.Degree() < 1 {
		return nil, &poly.AlgebraError{Op: "analyze", Err: poly.ErrConstant}
	}
	m, err := p.Monic()
	if err != nil {
		return nil, err
	}
	irreducible, err := poly.Irreducible(m)
	if err != nil {
		return nil, err
	}

	r := &Result{
		Polynomial:           m,
		FieldOrder:           m.Field().Size(),
		Degree:               m.Degree(),
		Irreducible:          irreducible,
		TheoreticalMaxPeriod: MaxPeriod(m),
	}

	if irreducible {
		ord, err := search(ctx, m, o.strategy, &irreducible)
		if err != nil {
			return nil, err
		}
		r.PolynomialOrder = ord
		r.Factors = []Factor{{
			Poly:         m,
			Multiplicity: 1,
			Order:        ord,
			Primitive:    ord.EqualBig(r.TheoreticalMaxPeriod),
		}}
	} else {
		factors, err := poly.Factorize(m)
		if err != nil {
			return nil, err
		}
		yes := true
		for _, fc := range factors {
			ord, err := search(ctx, fc.Poly, o.strategy, &yes)
			if err != nil {
				return nil, err
			}
			r.Factors = append(r.Factors, Factor{
				Poly:         fc.Poly,
				Multiplicity: fc.Multiplicity,
				Order:        ord,
				Primitive:    ord.EqualBig(MaxPeriod(fc.Poly)),
			})
		}

		// the divisor search only holds for irreducible input
		strategy := o.strategy
		if strategy == StrategyDivisor {
			strategy = StrategyExhaustive
		}
		no := false
		r.PolynomialOrder, err = search(ctx, m, strategy, &no)
		if err != nil {
			return nil, err
		}
	}

	r.CombinedOrder = LCM(r.FactorOrders()...)
	r.Primitive = irreducible && r.PolynomialOrder.EqualBig(r.TheoreticalMaxPeriod)

	log.Debugf("analyzed %s over GF(%d): order %s, primitive %v", m, r.FieldOrder, r.PolynomialOrder, r.Primitive)
	if o.cache != nil {
		o.cache.Add(r)
	}
	return r, nil
}

type factorJSON struct {
	Polynomial   string   `json:"polynomial"`
	Coefficients []uint64 `json:"coefficients"`
	Multiplicity int      `json:"multiplicity"`
	Order        Value    `json:"order"`
	Primitive    bool     `json:"is_primitive"`
}

type resultJSON struct {
	Polynomial           string       `json:"polynomial"`
	Coefficients         []uint64     `json:"coefficients"`
	FieldOrder           uint64       `json:"field_order"`
	Degree               int          `json:"degree"`
	Irreducible          bool         `json:"is_irreducible"`
	Factors              []factorJSON `json:"factors"`
	PolynomialOrder      Value        `json:"polynomial_order"`
	CombinedOrder        Value        `json:"combined_order"`
	Primitive            bool         `json:"is_primitive"`
	TheoreticalMaxPeriod string       `json:"theoretical_max_period"`
}

func (r *Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Polynomial:           r.Polynomial.String(),
		Coefficients:         r.Polynomial.Uint64s(),
		FieldOrder:           r.FieldOrder,
		Degree:               r.Degree,
		Irreducible:          r.Irreducible,
		Factors:              make([]factorJSON, len(r.Factors)),
		PolynomialOrder:      r.PolynomialOrder,
		CombinedOrder:        r.CombinedOrder,
		Primitive:            r.Primitive,
		TheoreticalMaxPeriod: r.TheoreticalMaxPeriod.String(),
	}
	for i, f := range r.Factors {
		out.Factors[i] = factorJSON{
			Polynomial:   f.Poly.String(),
			Coefficients: f.Poly.Uint64s(),
			Multiplicity: f.Multiplicity,
			Order:        f.Order,
			Primitive:    f.Primitive,
		}
	}
	return json.Marshal(out)
}
