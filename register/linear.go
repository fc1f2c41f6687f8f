package register

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/order"
	"github.com/ppopth/lfsr-analysis/poly"
)

// Characteristic returns t^n - sum of t^(n-1-i) over the taps i. The
// output sequence of the register satisfies the recurrence it describes,
// so its order bounds the period of every state.
func (r *Register) Characteristic() *poly.Poly {
	n := len(r.state)
	coeffs := make([]field.Element, n+1)
	for i := range coeffs {
		coeffs[i] = r.f.Zero()
	}
	coeffs[n] = r.f.One()
	for _, tap := range r.taps {
		coeffs[n-1-tap] = coeffs[n-1-tap].Sub(r.f.One())
	}
	return poly.New(r.f, coeffs)
}

// TransitionMatrix returns M with state' = M * state for one clock
func (r *Register) TransitionMatrix() [][]field.Element {
	n := len(r.state)
	m := make([][]field.Element, n)
	for i := range m {
		m[i] = make([]field.Element, n)
		for j := range m[i] {
			m[i][j] = r.f.Zero()
		}
	}
	for _, tap := range r.taps {
		m[0][tap] = r.f.One()
	}
	for i := 1; i < n; i++ {
		m[i][i-1] = r.f.One()
	}
	return m
}

// Jump advances the register by k clocks in O(n^3 log k)
func (r *Register) Jump(k *big.Int) {
	if k.Sign() < 0 {
		panic("negative jump")
	}
	m := field.Power(r.TransitionMatrix(), k, r.f)
	r.state = field.Apply(m, r.state, r.f)
}

// RecoverState returns the state that, clocked once before each
// observation, produces outputs. It needs exactly Size outputs and fails
// when they do not determine the state, which happens when the last cell
// is not a tap.
func (r *Register) RecoverState(outputs []field.Element) ([]field.Element, error) {
	n := len(r.state)
	if len(outputs) != n {
		return nil, fmt.Errorf("need %d outputs, got %d", n, len(outputs))
	}
	m := r.TransitionMatrix()
	power := m
	rows := make([][]field.Element, n)
	for j := 0; j < n; j++ {
		rows[j] = power[0]
		power = field.Multiply(m, power, r.f)
	}
	state, err := field.Solve(rows, outputs, r.f)
	if err != nil {
		return nil, fmt.Errorf("outputs do not determine the state: %w", err)
	}
	return state, nil
}

// Period clocks a copy of the register until its state recurs and returns
// the number of clocks. At most min(limit, q^n) clocks are tried; if the
// state has not recurred by then the result is Undefined. A limit of zero
// means q^n.
func (r *Register) Period(ctx context.Context, limit uint64) (order.Value, error) {
	bound := new(big.Int).Exp(r.f.Order(), big.NewInt(int64(len(r.state))), nil)
	if limit == 0 || (bound.IsUint64() && bound.Uint64() < limit) {
		if !bound.IsUint64() {
			return order.Undefined, fmt.Errorf("state space %s is too large to walk", bound)
		}
		limit = bound.Uint64()
	}

	start := r.State()
	c := r.Clone()
	for j := uint64(1); j <= limit; j++ {
		c.Clock()
		if c.sameState(start) {
			return order.FromUint64(j), nil
		}
		if j%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return order.Undefined, err
			}
		}
	}
	return order.Undefined, nil
}
