package order

import (
	"fmt"
	"math/big"
)

// Verdict is the outcome of comparing a measured period against theory
type Verdict int

const (
	Unverified Verdict = iota
	Verified
	Mismatch
)

func (v Verdict) String() string {
	switch v {
	case Verified:
		return "verified"
	case Mismatch:
		return "mismatch"
	default:
		return "unverified"
	}
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Verification is a diagnostic verdict with a human readable reason
type Verification struct {
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
}

// CompareToTheoretical checks a measured period against what the analysis
// predicts. A primitive polynomial must reach theoreticalMax; otherwise a
// known polynomial order must equal the period. Anything else is
// unverified.
func CompareToTheoretical(period Value, theoreticalMax *big.Int, primitive bool, polynomialOrder Value) Verification {
	if primitive {
		if period.EqualBig(theoreticalMax) {
			return Verification{
				Verdict: Verified,
				Reason:  fmt.Sprintf("primitive polynomial reaches the maximum period %s", theoreticalMax),
			}
		}
		return Verification{
			Verdict: Mismatch,
			Reason:  fmt.Sprintf("primitive polynomial should have period %s, measured %s", theoreticalMax, period),
		}
	}
	if polynomialOrder.IsDefined() {
		if period.Equal(polynomialOrder) {
			return Verification{
				Verdict: Verified,
				Reason:  fmt.Sprintf("period equals the polynomial order %s", polynomialOrder),
			}
		}
		return Verification{
			Verdict: Mismatch,
			Reason:  fmt.Sprintf("polynomial order is %s, measured period %s", polynomialOrder, period),
		}
	}
	return Verification{
		Verdict: Unverified,
		Reason:  "polynomial is not primitive and its order is undefined",
	}
}

// Verify compares a measured period against r
func (r *Result) Verify(period Value) Verification {
	return CompareToTheoretical(period, r.TheoreticalMaxPeriod, r.Primitive, r.PolynomialOrder)
}
