package order

import (
	"fmt"

	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/poly"
)

// Input is a polynomial description as it arrives from outside: ascending
// coefficient indices over GF(FieldOrder). Degree is optional; when set it
// must agree with the coefficients.
type Input struct {
	Coefficients []uint64 `json:"coefficients"`
	FieldOrder   uint64   `json:"field_order"`
	Degree       int      `json:"degree,omitempty"`
}

// Polynomial builds the described polynomial
func (in Input) Polynomial() (*poly.Poly, error) {
	f, err := field.New(in.FieldOrder)
	if err != nil {
		return nil, err
	}
	for i, c := range in.Coefficients {
		if c >= f.Size() {
			return nil, fmt.Errorf("coefficient %d is %d, not an element of %s", i, c, f)
		}
	}
	p := poly.FromUint64s(f, in.Coefficients)
	if in.Degree != 0 && in.Degree != p.Degree() {
		return nil, fmt.Errorf("declared degree %d but coefficients give degree %d", in.Degree, p.Degree())
	}
	return p, nil
}
