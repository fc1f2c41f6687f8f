package order

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/poly"
)

// TestAnalyzePrimitive tests the t^4 + t + 1 scenario end to end
func TestAnalyzePrimitive(t *testing.T) {
	r, err := Analyze(context.Background(), mustParse(t, 2, "t^4 + t + 1"))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Irreducible || !r.Primitive {
		t.Errorf("expected irreducible and primitive, got %v and %v", r.Irreducible, r.Primitive)
	}
	if r.PolynomialOrder.String() != "15" || r.TheoreticalMaxPeriod.String() != "15" {
		t.Errorf("expected order 15 and max period 15, got %s and %s", r.PolynomialOrder, r.TheoreticalMaxPeriod)
	}
	if len(r.Factors) != 1 || !r.Factors[0].Poly.Equal(r.Polynomial) || r.Factors[0].Multiplicity != 1 {
		t.Errorf("irreducible polynomial should be its own single factor, got %v", r.Factors)
	}
	if v := r.Verify(FromUint64(15)); v.Verdict != Verified {
		t.Errorf("expected verified, got %s: %s", v.Verdict, v.Reason)
	}
}

// TestAnalyzeReducible tests factor orders and the combined order
func TestAnalyzeReducible(t *testing.T) {
	testCases := []struct {
		q        uint64
		p        string
		factors  []string
		orders   []string
		order    string
		combined string
	}{
		{2, "t^5 + t^4 + 1", []string{"t^2 + t + 1", "t^3 + t + 1"}, []string{"3", "7"}, "21", "21"},
		// repeated factors are ignored by the combined order
		{2, "t^4 + t^2 + 1", []string{"t^2 + t + 1"}, []string{"3"}, "6", "3"},
		// t has no order and drops out of the combined order
		{2, "t^4 + t^3", []string{"t", "t + 1"}, []string{"undefined", "1"}, "undefined", "1"},
		{2, "t^3 + t", []string{"t", "t + 1"}, []string{"undefined", "1"}, "undefined", "1"},
		{2, "t^6 + t^5 + t^3", []string{"t", "t^3 + t^2 + 1"}, []string{"undefined", "7"}, "undefined", "7"},
		{2, "t^3", []string{"t"}, []string{"undefined"}, "undefined", "undefined"},
		{3, "t^2 + 2", []string{"t + 1", "t + 2"}, []string{"2", "1"}, "2", "2"},
	}

	for _, tc := range testCases {
		t.Run(tc.p, func(t *testing.T) {
			r, err := Analyze(context.Background(), mustParse(t, tc.q, tc.p))
			if err != nil {
				t.Fatal(err)
			}
			if r.Irreducible || r.Primitive {
				t.Errorf("reducible polynomial classified as irreducible %v, primitive %v", r.Irreducible, r.Primitive)
			}
			var factors, orders []string
			for _, f := range r.Factors {
				factors = append(factors, f.Poly.String())
				orders = append(orders, f.Order.String())
			}
			if diff := cmp.Diff(tc.factors, factors); diff != "" {
				t.Errorf("factors mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.orders, orders); diff != "" {
				t.Errorf("factor orders mismatch (-want +got):\n%s", diff)
			}
			if r.PolynomialOrder.String() != tc.order {
				t.Errorf("expected polynomial order %s, got %s", tc.order, r.PolynomialOrder)
			}
			if r.CombinedOrder.String() != tc.combined {
				t.Errorf("expected combined order %s, got %s", tc.combined, r.CombinedOrder)
			}
		})
	}
}

// TestAnalyzeSquarefree tests that the combined order equals the
// polynomial order whenever no factor repeats and the order is defined
func TestAnalyzeSquarefree(t *testing.T) {
	f := field.NewGF2()
	for i := uint64(0); i < 1<<6; i++ {
		coeffs := []uint64{}
		for j := 0; j < 6; j++ {
			coeffs = append(coeffs, (i>>j)&1)
		}
		coeffs = append(coeffs, 1)
		p := poly.FromUint64s(f, coeffs)
		r, err := Analyze(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		squarefree := true
		for _, fc := range r.Factors {
			if fc.Multiplicity > 1 {
				squarefree = false
			}
		}
		if squarefree && r.PolynomialOrder.IsDefined() && !r.CombinedOrder.Equal(r.PolynomialOrder) {
			t.Errorf("%s: combined order %s differs from polynomial order %s", p, r.CombinedOrder, r.PolynomialOrder)
		}
		if r.Primitive != (r.Irreducible && r.PolynomialOrder.EqualBig(r.TheoreticalMaxPeriod)) {
			t.Errorf("%s: inconsistent primitive flag", p)
		}
	}
}

// TestAnalyzeDivisorStrategy tests that a reducible polynomial still gets
// an order when the divisor strategy is requested
func TestAnalyzeDivisorStrategy(t *testing.T) {
	r, err := Analyze(context.Background(), mustParse(t, 2, "t^5 + t^4 + 1"), WithStrategy(StrategyDivisor))
	if err != nil {
		t.Fatal(err)
	}
	if r.PolynomialOrder.String() != "21" {
		t.Errorf("expected 21, got %s", r.PolynomialOrder)
	}
}

// TestAnalyzePropagatesAlgebraError tests that factorization failures are
// returned unchanged
func TestAnalyzePropagatesAlgebraError(t *testing.T) {
	f := field.MustNew(65537)
	a, _ := poly.Parse(f, "t^2 + 3")
	b, _ := poly.Parse(f, "t^2 + 5")
	if ok, _ := poly.Irreducible(a); !ok {
		t.Skip("t^2 + 3 is reducible over GF(65537)")
	}
	if ok, _ := poly.Irreducible(b); !ok {
		t.Skip("t^2 + 5 is reducible over GF(65537)")
	}
	_, err := Analyze(context.Background(), a.Mul(b))
	var ae *poly.AlgebraError
	if !errors.As(err, &ae) || !errors.Is(err, poly.ErrSearchTooLarge) {
		t.Errorf("expected AlgebraError with ErrSearchTooLarge, got %v", err)
	}
}

type mapCache map[string]*Result

func (c mapCache) Get(p *poly.Poly) (*Result, bool) {
	r, ok := c[p.String()]
	return r, ok
}

func (c mapCache) Add(r *Result) {
	c[r.Polynomial.String()] = r
}

// TestAnalyzeCache tests that results are stored and reused
func TestAnalyzeCache(t *testing.T) {
	cache := mapCache{}
	p := mustParse(t, 2, "t^4 + t + 1")
	first, err := Analyze(context.Background(), p, WithCache(cache))
	if err != nil {
		t.Fatal(err)
	}
	if len(cache) != 1 {
		t.Fatalf("expected one cached result, got %d", len(cache))
	}
	second, err := Analyze(context.Background(), p, WithCache(cache))
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("expected the cached result to be returned")
	}
	ord, err := Order(context.Background(), p, WithCache(cache))
	if err != nil || ord.String() != "15" {
		t.Errorf("expected cached order 15, got %s, %v", ord, err)
	}
}

// TestCompareToTheoretical tests the three verdicts
func TestCompareToTheoretical(t *testing.T) {
	maxPeriod := big.NewInt(15)
	testCases := []struct {
		name      string
		period    Value
		primitive bool
		order     Value
		want      Verdict
	}{
		{"primitive match", FromUint64(15), true, FromUint64(15), Verified},
		{"primitive short", FromUint64(5), true, FromUint64(15), Mismatch},
		{"order match", FromUint64(5), false, FromUint64(5), Verified},
		{"order mismatch", FromUint64(3), false, FromUint64(5), Mismatch},
		{"undefined order", FromUint64(3), false, Undefined, Unverified},
		{"undefined period", Undefined, true, FromUint64(15), Mismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CompareToTheoretical(tc.period, maxPeriod, tc.primitive, tc.order)
			if got.Verdict != tc.want {
				t.Errorf("expected %s, got %s (%s)", tc.want, got.Verdict, got.Reason)
			}
			if got.Reason == "" {
				t.Errorf("empty reason")
			}
		})
	}
}

// TestResultJSON tests the plain data rendering of a result
func TestResultJSON(t *testing.T) {
	r, err := Analyze(context.Background(), mustParse(t, 2, "t^4 + t^3"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"polynomial":             "t^4 + t^3",
		"coefficients":           []interface{}{0.0, 0.0, 0.0, 1.0, 1.0},
		"field_order":            2.0,
		"degree":                 4.0,
		"is_irreducible":         false,
		"polynomial_order":       "undefined",
		"combined_order":         "1",
		"is_primitive":           false,
		"theoretical_max_period": "15",
	}
	delete(got, "factors")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}

// TestInput tests building polynomials from plain descriptions
func TestInput(t *testing.T) {
	p, err := Input{Coefficients: []uint64{1, 1, 0, 0, 1}, FieldOrder: 2, Degree: 4}.Polynomial()
	if err != nil {
		t.Fatal(err)
	}
	if p.String() != "t^4 + t + 1" {
		t.Errorf("expected t^4 + t + 1, got %s", p)
	}
	for _, in := range []Input{
		{Coefficients: []uint64{1, 1}, FieldOrder: 6},
		{Coefficients: []uint64{1, 2}, FieldOrder: 2},
		{Coefficients: []uint64{1, 1, 0, 0, 1}, FieldOrder: 2, Degree: 5},
	} {
		if _, err := in.Polynomial(); err == nil {
			t.Errorf("expected an error for %+v", in)
		}
	}
}
