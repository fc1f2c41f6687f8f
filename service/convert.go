package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ppopth/lfsr-analysis/cipher"
	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/pb"
	"github.com/ppopth/lfsr-analysis/poly"
)

// resultToPB flattens an analysis into its wire form
func resultToPB(r *order.Result) *pb.OrderResult {
	out := &pb.OrderResult{
		FieldOrder:           r.FieldOrder,
		Coefficients:         r.Polynomial.Uint64s(),
		Irreducible:          r.Irreducible,
		PolynomialOrder:      r.PolynomialOrder.String(),
		CombinedOrder:        r.CombinedOrder.String(),
		Primitive:            r.Primitive,
		TheoreticalMaxPeriod: r.TheoreticalMaxPeriod.String(),
	}
	for _, f := range r.Factors {
		out.Factors = append(out.Factors, &pb.Factor{
			Coefficients: f.Poly.Uint64s(),
			Multiplicity: uint32(f.Multiplicity),
			Order:        f.Order.String(),
			Primitive:    f.Primitive,
		})
	}
	return out
}

// resultFromPB rebuilds an analysis received from a server
func resultFromPB(m *pb.OrderResult) (*order.Result, error) {
	if m == nil {
		return nil, fmt.Errorf("response carries no result")
	}
	f, err := field.New(m.FieldOrder)
	if err != nil {
		return nil, err
	}
	p := poly.FromUint64s(f, m.Coefficients)
	r := &order.Result{
		Polynomial:  p,
		FieldOrder:  m.FieldOrder,
		Degree:      p.Degree(),
		Irreducible: m.Irreducible,
		Primitive:   m.Primitive,
	}
	if r.PolynomialOrder, err = order.ParseValue(m.PolynomialOrder); err != nil {
		return nil, err
	}
	if r.CombinedOrder, err = order.ParseValue(m.CombinedOrder); err != nil {
		return nil, err
	}
	maxPeriod, ok := new(big.Int).SetString(m.TheoreticalMaxPeriod, 10)
	if !ok {
		return nil, fmt.Errorf("invalid theoretical max period %q", m.TheoreticalMaxPeriod)
	}
	r.TheoreticalMaxPeriod = maxPeriod

	for i, fm := range m.Factors {
		ord, err := order.ParseValue(fm.Order)
		if err != nil {
			return nil, fmt.Errorf("factor %d: %w", i, err)
		}
		r.Factors = append(r.Factors, order.Factor{
			Poly:         poly.FromUint64s(f, fm.Coefficients),
			Multiplicity: int(fm.Multiplicity),
			Order:        ord,
			Primitive:    fm.Primitive,
		})
	}
	return r, nil
}

// elements converts wire values to field elements, rejecting values
// outside the field
func elements(f field.Field, name string, values []uint64) ([]field.Element, error) {
	for i, v := range values {
		if v >= f.Size() {
			return nil, &InvalidRequestError{Reason: fmt.Sprintf("%s[%d] = %d is not an element of %s", name, i, v, f)}
		}
	}
	return field.FromUint64s(f, values), nil
}

// InvalidRequestError reports a request the server could not interpret
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// errorKind classifies err for the response
func errorKind(err error) pb.Response_ErrorKind {
	var (
		algebra *poly.AlgebraError
		keyLen  *cipher.KeyLengthError
		ivLen   *cipher.IVLengthError
	)
	switch {
	case err == nil:
		return pb.Response_NONE
	case errors.Is(err, context.DeadlineExceeded):
		return pb.Response_TIMEOUT
	case errors.As(err, &keyLen):
		return pb.Response_KEY_LENGTH
	case errors.As(err, &ivLen):
		return pb.Response_IV_LENGTH
	case errors.As(err, &algebra),
		errors.Is(err, order.ErrSearchTooLarge),
		errors.Is(err, order.ErrNotIrreducible),
		errors.Is(err, poly.ErrSearchTooLarge):
		return pb.Response_ALGEBRA
	default:
		return pb.Response_INVALID
	}
}

// ResponseError is a failure reported by a server
type ResponseError struct {
	Kind    pb.Response_ErrorKind
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Timeout reports whether the server gave up on the request
func (e *ResponseError) Timeout() bool {
	return e.Kind == pb.Response_TIMEOUT
}

func responseError(resp *pb.Response) error {
	if resp.ErrorKind == pb.Response_NONE {
		return nil
	}
	return &ResponseError{Kind: resp.ErrorKind, Message: resp.Error}
}
