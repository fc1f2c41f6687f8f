package order

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/poly"
)

func mustParse(t *testing.T, q uint64, s string) *poly.Poly {
	t.Helper()
	p, err := poly.Parse(field.MustNew(q), s)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// TestOrderKnown tests orders that can be checked by hand
func TestOrderKnown(t *testing.T) {
	testCases := []struct {
		q    uint64
		p    string
		want string
	}{
		{2, "t^4 + t + 1", "15"},
		{2, "t^4 + t^3 + t^2 + t + 1", "5"},
		{2, "t^4 + t^2 + 1", "6"},
		{2, "t^5 + t^4 + 1", "21"},
		{2, "t + 1", "1"},
		{2, "t^19 + t^5 + t^2 + t + 1", "524287"},
		{3, "t^2 + 1", "4"},
		{3, "t^2 + t + 2", "8"},
		{3, "2t^2 + 2t + 1", "8"}, // not monic; same as t^2 + t + 2
		{5, "t + 3", "4"},
		{4, "t^2 + t + 2", "15"},
		{2, "t^4 + t^3", "undefined"},
		{2, "t", "undefined"},
		{7, "t^3 + 5t", "undefined"},
	}

	for _, tc := range testCases {
		t.Run(tc.p, func(t *testing.T) {
			p := mustParse(t, tc.q, tc.p)
			for _, s := range []Strategy{StrategyAuto, StrategyExhaustive} {
				got, err := Order(context.Background(), p, WithStrategy(s))
				if err != nil {
					t.Fatalf("%s: %v", s, err)
				}
				if got.String() != tc.want {
					t.Errorf("%s: order of %s over GF(%d) = %s, expected %s", s, tc.p, tc.q, got, tc.want)
				}
			}
		})
	}
}

// TestOrderRejectsConstants tests that a degree below one is an error
func TestOrderRejectsConstants(t *testing.T) {
	f := field.NewGF2()
	for _, p := range []*poly.Poly{poly.Zero(f), poly.One(f)} {
		_, err := Order(context.Background(), p)
		var ae *poly.AlgebraError
		if !errors.As(err, &ae) {
			t.Errorf("order of %s: expected AlgebraError, got %v", p, err)
		}
	}
}

// TestStrategiesAgree tests that the divisor search gives the exhaustive
// answer on every irreducible polynomial of small degree
func TestStrategiesAgree(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		q      uint64
		degree int
	}{
		{2, 8},
		{3, 4},
		{4, 3},
		{5, 3},
	} {
		f := field.MustNew(tc.q)
		count := uint64(1)
		for i := 0; i < tc.degree; i++ {
			count *= tc.q
		}
		checked := 0
		for i := uint64(0); i < count; i++ {
			coeffs := make([]uint64, tc.degree+1)
			v := i
			for j := 0; j < tc.degree; j++ {
				coeffs[j] = v % tc.q
				v /= tc.q
			}
			coeffs[tc.degree] = 1
			p := poly.FromUint64s(f, coeffs)
			irreducible, err := poly.Irreducible(p)
			if err != nil {
				t.Fatal(err)
			}

			slow, err := Order(ctx, p, WithStrategy(StrategyExhaustive))
			if err != nil {
				t.Fatal(err)
			}
			if !irreducible {
				if p.Coefficient(0).IsZero() {
					continue
				}
				if _, err := Order(ctx, p, WithStrategy(StrategyDivisor)); !errors.Is(err, ErrNotIrreducible) {
					t.Errorf("divisor search on reducible %s: expected ErrNotIrreducible, got %v", p, err)
				}
				continue
			}
			fast, err := Order(ctx, p, WithStrategy(StrategyDivisor))
			if err != nil {
				t.Fatal(err)
			}
			if !fast.Equal(slow) {
				t.Errorf("%s over %s: divisor search gave %s, exhaustive %s", p, f, fast, slow)
			}
			if slow.IsDefined() {
				rem := new(big.Int).Mod(MaxPeriod(p), slow.BigInt())
				if rem.Sign() != 0 {
					t.Errorf("%s: order %s does not divide %s", p, slow, MaxPeriod(p))
				}
			}
			checked++
		}
		if checked == 0 {
			t.Errorf("no irreducible polynomial of degree %d over %s", tc.degree, f)
		}
	}
}

// TestDivisorLargeDegree tests a primitive trinomial far beyond the
// exhaustive search
func TestDivisorLargeDegree(t *testing.T) {
	p := mustParse(t, 2, "t^127 + t + 1")
	got, err := Order(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !got.EqualBig(MaxPeriod(p)) {
		t.Errorf("expected order 2^127-1, got %s", got)
	}
}

// TestSearchTooLarge tests the exhaustive search bound
func TestSearchTooLarge(t *testing.T) {
	p := mustParse(t, 2, "t^64 + 1")
	_, err := Order(context.Background(), p, WithStrategy(StrategyExhaustive))
	if !errors.Is(err, ErrSearchTooLarge) {
		t.Errorf("expected ErrSearchTooLarge, got %v", err)
	}
}

// TestOrderCancel tests that a long exhaustive search stops on a
// cancelled context
func TestOrderCancel(t *testing.T) {
	a := mustParse(t, 2, "t^19 + t^5 + t^2 + t + 1")
	b := mustParse(t, 2, "t^20 + t^3 + 1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Order(ctx, a.Mul(b), WithStrategy(StrategyExhaustive))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestPrimeFactors tests the integer factoring used by the divisor search
func TestPrimeFactors(t *testing.T) {
	testCases := []struct {
		n    string
		want []int64
	}{
		{"1", nil},
		{"15", []int64{3, 5}},
		{"524287", []int64{524287}},
		{"4294967295", []int64{3, 5, 17, 257, 65537}},
		// 2^64 - 1
		{"18446744073709551615", []int64{3, 5, 17, 257, 641, 65537, 6700417}},
		// 2^62 - 1 = (2^31 - 1)(2^31 + 1)
		{"4611686018427387903", []int64{3, 715827883, 2147483647}},
	}

	for _, tc := range testCases {
		t.Run(tc.n, func(t *testing.T) {
			n, _ := new(big.Int).SetString(tc.n, 10)
			got, err := primeFactors(context.Background(), n)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i].Int64() != tc.want[i] {
					t.Errorf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

// TestPrimeFactorsSemiprime tests rho on a product of two large primes
func TestPrimeFactorsSemiprime(t *testing.T) {
	// (2^31 - 1) * (2^61 - 1)
	a := big.NewInt(2147483647)
	b, _ := new(big.Int).SetString("2305843009213693951", 10)
	n := new(big.Int).Mul(a, b)
	got, err := primeFactors(context.Background(), n)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Cmp(a) != 0 || got[1].Cmp(b) != 0 {
		t.Errorf("expected [%s %s], got %v", a, b, got)
	}
}

// TestLCM tests that undefined values are left out of LCM
func TestLCM(t *testing.T) {
	if got := LCM(FromUint64(4), FromUint64(6), FromUint64(5)); got.String() != "60" {
		t.Errorf("expected 60, got %s", got)
	}
	if got := LCM(FromUint64(4), Undefined); got.String() != "4" {
		t.Errorf("expected 4, got %s", got)
	}
	if got := LCM(Undefined, FromUint64(6), Undefined, FromUint64(4)); got.String() != "12" {
		t.Errorf("expected 12, got %s", got)
	}
	if got := LCM(Undefined, Undefined); got.IsDefined() {
		t.Errorf("expected undefined, got %s", got)
	}
	if got := LCM(); got.IsDefined() {
		t.Errorf("expected undefined, got %s", got)
	}
}

// TestValueJSON tests that orders beyond 2^64 survive JSON
func TestValueJSON(t *testing.T) {
	big127 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	for _, v := range []Value{Undefined, FromUint64(15), NewValue(big127)} {
		data, err := v.MarshalJSON()
		if err != nil {
			t.Fatal(err)
		}
		var back Value
		if err := back.UnmarshalJSON(data); err != nil {
			t.Fatal(err)
		}
		if !back.Equal(v) {
			t.Errorf("expected %s, got %s", v, back)
		}
	}
}
