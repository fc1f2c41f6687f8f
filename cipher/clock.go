package cipher

import (
	"fmt"

	"github.com/ppopth/lfsr-analysis/field"
)

// Majority returns 1 iff at least two of a, b, c are 1
func Majority(a, b, c uint8) uint8 {
	return (a & b) | (a & c) | (b & c)
}

// ClockControl decides which registers advance in one irregular step from
// the values of their clock-control cells. The returned slice has one
// entry per value.
type ClockControl interface {
	Decide(f field.Field, values []field.Element) []bool
	String() string
}

// MajorityRule clocks the registers whose control value agrees with the
// majority. Three binary values use Majority directly, so at least two
// registers always advance. For other inputs the majority is the value
// held by more than half of the registers; without one every register
// advances.
type MajorityRule struct{}

func (MajorityRule) Decide(f field.Field, values []field.Element) []bool {
	if len(values) == 3 && f.Size() == 2 {
		m := Majority(uint8(values[0].Uint64()), uint8(values[1].Uint64()), uint8(values[2].Uint64()))
		return agreeing(values, f.FromUint64(uint64(m)))
	}
	if v, ok := mostCommon(values, len(values)/2+1); ok {
		return agreeing(values, v)
	}
	return all(len(values))
}

func (MajorityRule) String() string {
	return "majority"
}

// ThresholdRule clocks the registers holding a value shared by at least
// Threshold registers. When several values qualify the one found first in
// register order wins; when none does every register advances.
type ThresholdRule struct {
	Threshold int
}

func (r ThresholdRule) Decide(f field.Field, values []field.Element) []bool {
	if v, ok := mostCommon(values, r.Threshold); ok {
		return agreeing(values, v)
	}
	return all(len(values))
}

func (r ThresholdRule) String() string {
	return fmt.Sprintf("threshold(%d)", r.Threshold)
}

// RegularRule clocks every register on every step
type RegularRule struct{}

func (RegularRule) Decide(f field.Field, values []field.Element) []bool {
	return all(len(values))
}

func (RegularRule) String() string {
	return "regular"
}

// mostCommon returns the first value in order that occurs at least
// threshold times
func mostCommon(values []field.Element, threshold int) (field.Element, bool) {
	if threshold < 1 {
		threshold = 1
	}
	for i, v := range values {
		count := 0
		for _, w := range values[i:] {
			if v.Equal(w) {
				count++
			}
		}
		if count >= threshold {
			return v, true
		}
	}
	return nil, false
}

func agreeing(values []field.Element, m field.Element) []bool {
	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = v.Equal(m)
	}
	return out
}

func all(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

// Combiner maps the outputs of all registers to one keystream element
type Combiner interface {
	Combine(f field.Field, outputs []field.Element) field.Element
	String() string
}

// FieldSum adds the register outputs, which is XOR over GF(2)
type FieldSum struct{}

func (FieldSum) Combine(f field.Field, outputs []field.Element) field.Element {
	sum := f.Zero()
	for _, o := range outputs {
		sum = sum.Add(o)
	}
	return sum
}

func (FieldSum) String() string {
	return "field-sum"
}
