package register

import (
	"context"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/order"
)

func bits(t *testing.T, f field.Field, s string) []field.Element {
	t.Helper()
	e, err := field.ParseBits(f, s)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

// TestClockShiftsAtFront tests the insert-at-front, drop-from-back order
func TestClockShiftsAtFront(t *testing.T) {
	f := field.NewGF2()
	r, err := New(f, 4, []int{3, 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Load(bits(t, f, "1000")); err != nil {
		t.Fatal(err)
	}

	want := []string{"0100", "0010", "1001", "1100", "0110", "1011"}
	for i, w := range want {
		r.Clock()
		if r.String() != w {
			t.Fatalf("step %d: expected %s, got %s", i+1, w, r)
		}
		if r.Output().Uint64() != uint64(w[0]-'0') {
			t.Fatalf("step %d: output is not cell 0", i+1)
		}
	}
}

// TestNewRejects tests construction errors
func TestNewRejects(t *testing.T) {
	f := field.NewGF2()
	if _, err := New(f, 0, nil); err == nil {
		t.Error("expected an error for size 0")
	}
	if _, err := New(f, 4, []int{4}); err == nil {
		t.Error("expected an error for a tap outside the register")
	}
	if _, err := New(f, 4, []int{-1}); err == nil {
		t.Error("expected an error for a negative tap")
	}
	if _, err := New(f, 4, []int{3}, WithClockControl(4)); err == nil {
		t.Error("expected an error for a clock index outside the register")
	}
	r, err := New(f, 4, []int{3, 3, 2})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{2, 3}, r.Taps()); diff != "" {
		t.Errorf("taps mismatch (-want +got):\n%s", diff)
	}
	if _, ok := r.ClockIndex(); ok {
		t.Error("register without WithClockControl reports a clock index")
	}
}

// TestLoadRejectsWrongLength tests that a failed load keeps the state
func TestLoadRejectsWrongLength(t *testing.T) {
	f := field.NewGF2()
	r, _ := New(f, 4, []int{3, 2})
	_ = r.Load(bits(t, f, "1010"))
	if err := r.Load(bits(t, f, "101")); err == nil {
		t.Fatal("expected an error")
	}
	if r.String() != "1010" {
		t.Errorf("state changed to %s", r)
	}
}

// TestCharacteristic tests the feedback polynomial of known registers
func TestCharacteristic(t *testing.T) {
	testCases := []struct {
		size int
		taps []int
		want string
	}{
		{4, []int{3, 2}, "t^4 + t + 1"},
		{19, []int{18, 17, 16, 13}, "t^19 + t^5 + t^2 + t + 1"},
		{22, []int{21, 20}, "t^22 + t + 1"},
		{23, []int{22, 21, 20, 7}, "t^23 + t^15 + t^2 + t + 1"},
	}

	for _, tc := range testCases {
		r, err := New(field.NewGF2(), tc.size, tc.taps)
		if err != nil {
			t.Fatal(err)
		}
		if got := r.Characteristic().String(); got != tc.want {
			t.Errorf("size %d taps %v: expected %s, got %s", tc.size, tc.taps, tc.want, got)
		}
	}

	// over GF(3) the feedback subtracts
	r, _ := New(field.MustNew(3), 2, []int{0, 1})
	if got := r.Characteristic().String(); got != "t^2 + 2t + 2" {
		t.Errorf("expected t^2 + 2t + 2, got %s", got)
	}
}

// TestPeriodMatchesOrder tests that a non-zero state of a register with a
// primitive characteristic polynomial has the maximum period
func TestPeriodMatchesOrder(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		q    uint64
		size int
		taps []int
	}{
		{2, 4, []int{3, 2}},
		{2, 5, []int{4, 2}},
		{3, 2, []int{0, 1}},
		{2, 19, []int{18, 17, 16, 13}},
	}

	for _, tc := range testCases {
		f := field.MustNew(tc.q)
		r, err := New(f, tc.size, tc.taps)
		if err != nil {
			t.Fatal(err)
		}
		r.Mix(0, f.One())

		res, err := order.Analyze(ctx, r.Characteristic())
		if err != nil {
			t.Fatal(err)
		}
		period, err := r.Period(ctx, 0)
		if err != nil {
			t.Fatal(err)
		}
		if !period.Equal(res.PolynomialOrder) {
			t.Errorf("%s: period %s, polynomial order %s", r.Characteristic(), period, res.PolynomialOrder)
		}
		if v := res.Verify(period); v.Verdict != order.Verified {
			t.Errorf("%s: %s", r.Characteristic(), v.Reason)
		}
	}
}

// TestPeriodUndefined tests a register whose last cell is not a tap; a
// state that is shifted out never comes back
func TestPeriodUndefined(t *testing.T) {
	f := field.NewGF2()
	r, _ := New(f, 4, []int{0})
	_ = r.Load(bits(t, f, "0001"))
	period, err := r.Period(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	if period.IsDefined() {
		t.Errorf("expected undefined period, got %s", period)
	}
}

// TestJump tests that a jump equals repeated clocking
func TestJump(t *testing.T) {
	f := field.NewGF2()
	r, _ := New(f, 19, []int{18, 17, 16, 13})
	_ = r.Load(bits(t, f, "1011001110001111000"))
	jumped := r.Clone()
	for i := 0; i < 1000; i++ {
		r.Clock()
	}
	jumped.Jump(big.NewInt(1000))
	if r.String() != jumped.String() {
		t.Errorf("expected %s, got %s", r, jumped)
	}

	// a full period returns to the start
	start := jumped.String()
	jumped.Jump(big.NewInt(1<<19 - 1))
	if jumped.String() != start {
		t.Errorf("expected %s after a full period, got %s", start, jumped)
	}
}

// TestRecoverState tests solving for a state from its outputs
func TestRecoverState(t *testing.T) {
	f := field.MustNew(5)
	r, _ := New(f, 3, []int{0, 2})
	state := field.FromUint64s(f, []uint64{3, 1, 4})
	_ = r.Load(state)

	var outputs []field.Element
	c := r.Clone()
	for i := 0; i < 3; i++ {
		c.Clock()
		outputs = append(outputs, c.Output())
	}
	got, err := r.RecoverState(outputs)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint64{3, 1, 4}, field.ToUint64s(got)); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	singular, _ := New(f, 3, []int{0})
	if _, err := singular.RecoverState(outputs); err == nil {
		t.Error("expected an error when the last cell is not a tap")
	}
}
