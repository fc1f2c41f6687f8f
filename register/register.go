// Package register implements a single clocked linear feedback shift
// register over a finite field.
//
// Cell 0 holds the most recently inserted value. Clocking computes the
// field sum of the tap cells, drops the last cell and inserts the sum at
// the front.
package register

import (
	"fmt"
	"sort"

	"github.com/ppopth/lfsr-analysis/field"
)

// Register is a linear feedback shift register. It is not safe for
// concurrent use.
type Register struct {
	f          field.Field
	taps       []int
	clockIndex int // -1 when the register has no clock-control cell
	state      []field.Element
}

// Option configures a register at construction
type Option func(*Register) error

// WithClockControl designates the cell read by irregular clocking rules
func WithClockControl(i int) Option {
	return func(r *Register) error {
		if i < 0 || i >= len(r.state) {
			return fmt.Errorf("clock-control index %d outside [0,%d)", i, len(r.state))
		}
		r.clockIndex = i
		return nil
	}
}

// New returns a register of size cells, all zero, whose feedback is the sum
// of the cells at taps. Duplicate taps are merged.
func New(f field.Field, size int, taps []int, opts ...Option) (*Register, error) {
	if size < 1 {
		return nil, fmt.Errorf("register size must be positive, got %d", size)
	}

	seen := make(map[int]bool)
	var sorted []int
	for _, tap := range taps {
		if tap < 0 || tap >= size {
			return nil, fmt.Errorf("tap %d outside [0,%d)", tap, size)
		}
		if !seen[tap] {
			seen[tap] = true
			sorted = append(sorted, tap)
		}
	}
	sort.Ints(sorted)

	r := &Register{
		f:          f,
		taps:       sorted,
		clockIndex: -1,
		state:      make([]field.Element, size),
	}
	r.Reset()
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Field returns the field of the cells
func (r *Register) Field() field.Field {
	return r.f
}

// Size returns the number of cells
func (r *Register) Size() int {
	return len(r.state)
}

// Taps returns the sorted tap positions
func (r *Register) Taps() []int {
	return append([]int(nil), r.taps...)
}

// ClockIndex returns the clock-control cell, if any
func (r *Register) ClockIndex() (int, bool) {
	return r.clockIndex, r.clockIndex >= 0
}

// Feedback returns the field sum of the tap cells
func (r *Register) Feedback() field.Element {
	sum := r.f.Zero()
	for _, tap := range r.taps {
		sum = sum.Add(r.state[tap])
	}
	return sum
}

// Clock advances the register by one step
func (r *Register) Clock() {
	fb := r.Feedback()
	copy(r.state[1:], r.state[:len(r.state)-1])
	r.state[0] = fb
}

// Output returns cell 0
func (r *Register) Output() field.Element {
	return r.state[0]
}

// ClockValue returns the clock-control cell. It panics if the register has
// none.
func (r *Register) ClockValue() field.Element {
	if r.clockIndex < 0 {
		panic("register has no clock-control cell")
	}
	return r.state[r.clockIndex]
}

// Load replaces the state
func (r *Register) Load(state []field.Element) error {
	if len(state) != len(r.state) {
		return fmt.Errorf("state has %d cells, register has %d", len(state), len(r.state))
	}
	for i, v := range state {
		if v.Uint64() >= r.f.Size() {
			return fmt.Errorf("cell %d is %d, not an element of %s", i, v.Uint64(), r.f)
		}
	}
	for i, v := range state {
		r.state[i] = r.f.FromUint64(v.Uint64())
	}
	return nil
}

// Reset sets every cell to zero
func (r *Register) Reset() {
	for i := range r.state {
		r.state[i] = r.f.Zero()
	}
}

// Mix adds v into cell i
func (r *Register) Mix(i int, v field.Element) {
	r.state[i] = r.state[i].Add(v)
}

// State returns a copy of the cells
func (r *Register) State() []field.Element {
	out := make([]field.Element, len(r.state))
	for i, v := range r.state {
		out[i] = v.Clone()
	}
	return out
}

// Clone returns an independent copy of the register
func (r *Register) Clone() *Register {
	return &Register{
		f:          r.f,
		taps:       r.taps,
		clockIndex: r.clockIndex,
		state:      r.State(),
	}
}

func (r *Register) sameState(state []field.Element) bool {
	for i, v := range r.state {
		if !v.Equal(state[i]) {
			return false
		}
	}
	return true
}

func (r *Register) String() string {
	return field.FormatElements(r.state)
}
