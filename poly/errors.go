package poly

import (
	"errors"
	"fmt"
)

var (
	// ErrDivisionByZero is returned when dividing by the zero polynomial
	ErrDivisionByZero = errors.New("division by zero polynomial")
	// ErrZeroPolynomial is returned when an operation needs a non-zero polynomial
	ErrZeroPolynomial = errors.New("zero polynomial")
	// ErrConstant is returned when an operation needs a polynomial of degree at least one
	ErrConstant = errors.New("polynomial has degree zero")
	// ErrSearchTooLarge is returned when a factor search exceeds MaxCandidates
	ErrSearchTooLarge = errors.New("candidate search space too large")
)

// AlgebraError reports a failure of a polynomial algebra operation
type AlgebraError struct {
	Op  string
	Err error
}

func (e *AlgebraError) Error() string {
	return fmt.Sprintf("algebra: %s: %v", e.Op, e.Err)
}

func (e *AlgebraError) Unwrap() error {
	return e.Err
}
