package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/order"
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

// TestStoreWithAnalyze tests the store as the cache of Analyze
func TestStoreWithAnalyze(t *testing.T) {
	s, err := New(16)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	p := mustParse(t, 3, "t^2 + t + 2")

	first, err := order.Analyze(ctx, p, order.WithCache(s))
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected one stored result, got %d", s.Len())
	}

	// a scaled copy has the same monic form
	scaled := p.Scale(field.MustNew(3).FromUint64(2))
	got, ok := s.Get(scaled)
	if !ok {
		t.Fatalf("expected the stored result for %s", scaled)
	}
	if diff := cmp.Diff(toJSON(t, first), toJSON(t, got)); diff != "" {
		t.Errorf("stored result mismatch (-want +got):\n%s", diff)
	}
	again, err := order.Analyze(ctx, scaled, order.WithCache(s))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(toJSON(t, first), toJSON(t, again)); diff != "" {
		t.Errorf("Analyze did not use the store (-want +got):\n%s", diff)
	}
	if s.Len() != 1 {
		t.Errorf("expected one stored result, got %d", s.Len())
	}
}

func toJSON(t *testing.T, r *order.Result) string {
	t.Helper()
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// TestStoreIsolatesResults tests that callers cannot change stored results
// through the values passed to Add or returned by Get
func TestStoreIsolatesResults(t *testing.T) {
	s, _ := New(16)
	p := mustParse(t, 2, "t^5 + t^4 + 1")
	r, err := order.Analyze(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	want := toJSON(t, r)
	s.Add(r)

	r.Factors[0].Multiplicity = 9
	r.TheoreticalMaxPeriod.SetInt64(0)

	got, ok := s.Get(p)
	if !ok {
		t.Fatal("expected a hit")
	}
	if diff := cmp.Diff(want, toJSON(t, got)); diff != "" {
		t.Errorf("Add kept the caller's result (-want +got):\n%s", diff)
	}

	got.Factors[0] = order.Factor{}
	got.Factors = got.Factors[:1]
	got.TheoreticalMaxPeriod.SetInt64(1)
	got.Primitive = true

	again, _ := s.Get(p)
	if diff := cmp.Diff(want, toJSON(t, again)); diff != "" {
		t.Errorf("Get returned the stored result (-want +got):\n%s", diff)
	}
	for _, stored := range s.Results() {
		stored.Factors[0].Multiplicity = 7
	}
	again, _ = s.Get(p)
	if diff := cmp.Diff(want, toJSON(t, again)); diff != "" {
		t.Errorf("Results returned the stored result (-want +got):\n%s", diff)
	}
}

// TestStoreSeparatesFields tests that equal coefficients over different
// fields are different entries
func TestStoreSeparatesFields(t *testing.T) {
	s, _ := New(16)
	ctx := context.Background()
	for _, q := range []uint64{2, 3, 5} {
		if _, err := order.Analyze(ctx, mustParse(t, q, "t^2 + 1"), order.WithCache(s)); err != nil {
			t.Fatal(err)
		}
	}
	if s.Len() != 3 {
		t.Fatalf("expected three results, got %d", s.Len())
	}
	r, ok := s.Get(mustParse(t, 5, "t^2 + 1"))
	if !ok || r.FieldOrder != 5 {
		t.Errorf("expected the GF(5) result, got %v", r)
	}
	if _, ok := s.Get(mustParse(t, 7, "t^2 + 1")); ok {
		t.Errorf("unexpected hit over GF(7)")
	}
	if _, ok := s.Get(mustParse(t, 2, "1")); ok {
		t.Errorf("unexpected hit for a constant")
	}
}

// TestStoreEvicts tests the LRU bound
func TestStoreEvicts(t *testing.T) {
	s, _ := New(2)
	ctx := context.Background()
	polys := []string{"t^2 + t + 1", "t^3 + t + 1", "t^4 + t + 1"}
	for _, ps := range polys {
		if _, err := order.Analyze(ctx, mustParse(t, 2, ps), order.WithCache(s)); err != nil {
			t.Fatal(err)
		}
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 results after eviction, got %d", s.Len())
	}
	if _, ok := s.Get(mustParse(t, 2, polys[0])); ok {
		t.Errorf("least recently used result was not evicted")
	}
	if len(s.Results()) != 2 {
		t.Errorf("expected 2 results, got %d", len(s.Results()))
	}
	s.Purge()
	if s.Len() != 0 {
		t.Errorf("expected an empty store after Purge")
	}
}

// TestNewRejectsSize tests the size check of the underlying LRU
func TestNewRejectsSize(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("expected an error for size 0")
	}
}
