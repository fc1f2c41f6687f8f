package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/poly"
)

// polyFlags selects a polynomial either from the positional arguments,
// read as an expression like "t^4 + t + 1", or from --coefficients
type polyFlags struct {
	FieldOrder   uint64
	Coefficients []uint
	Degree       int
}

func (pf *polyFlags) AddFlags(f *pflag.FlagSet) {
	f.Uint64VarP(&pf.FieldOrder, "field", "q", 2, "order `q` of the coefficient field GF(q)")
	f.UintSliceVar(&pf.Coefficients, "coefficients", nil, "ascending coefficient indices, instead of an expression")
	f.IntVar(&pf.Degree, "degree", 0, "expected degree, checked against the coefficients")
}

// input returns the selected polynomial as an order.Input
func (pf *polyFlags) input(args []string) (order.Input, error) {
	in := order.Input{FieldOrder: pf.FieldOrder, Degree: pf.Degree}
	expr := strings.TrimSpace(strings.Join(args, " "))
	switch {
	case expr != "" && len(pf.Coefficients) > 0:
		return in, fmt.Errorf("give either an expression or --coefficients, not both")
	case expr != "":
		f, err := field.New(pf.FieldOrder)
		if err != nil {
			return in, err
		}
		p, err := poly.Parse(f, expr)
		if err != nil {
			return in, err
		}
		in.Coefficients = p.Uint64s()
	case len(pf.Coefficients) > 0:
		for _, c := range pf.Coefficients {
			in.Coefficients = append(in.Coefficients, uint64(c))
		}
	default:
		return in, fmt.Errorf("no polynomial given")
	}
	return in, nil
}

func (pf *polyFlags) polynomial(args []string) (*poly.Poly, error) {
	in, err := pf.input(args)
	if err != nil {
		return nil, err
	}
	return in.Polynomial()
}

// parseElements reads a bit string, or comma separated indices for fields
// larger than GF(2). An empty string gives nil.
func parseElements(f field.Field, s string) ([]field.Element, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.Contains(s, ",") {
		return field.ParseBits(f, s)
	}
	var values []uint64
	for _, part := range strings.Split(s, ",") {
		var v uint64
		if _, err := fmt.Sscan(strings.TrimSpace(part), &v); err != nil {
			return nil, fmt.Errorf("invalid element %q", part)
		}
		if v >= f.Size() {
			return nil, fmt.Errorf("%d is not an element of %s", v, f)
		}
		values = append(values, v)
	}
	return field.FromUint64s(f, values), nil
}
