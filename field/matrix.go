package field

import (
	"fmt"
	"math/big"
)

// Matrix operations over finite fields. A matrix is a slice of rows.

// Identity returns the n x n identity matrix
func Identity(f Field, n int) [][]Element {
	id := make([][]Element, n)
	for i := range id {
		id[i] = make([]Element, n)
		for j := range id[i] {
			if i == j {
				id[i][j] = f.One()
			} else {
				id[i][j] = f.Zero()
			}
		}
	}
	return id
}

// Multiply computes A × B matrix multiplication over the field
// A is m×n, B is n×p, result is m×p
func Multiply(A, B [][]Element, f Field) [][]Element {
	if len(A) == 0 || len(B) == 0 {
		return nil
	}

	m := len(A)    // rows of A
	n := len(A[0]) // cols of A = rows of B
	p := len(B[0]) // cols of B

	if len(B) != n {
		panic(fmt.Sprintf("matrix dimensions mismatch: A is %d×%d, B is %d×%d", m, n, len(B), p))
	}

	C := make([][]Element, m)
	for i := range C {
		C[i] = make([]Element, p)
		for j := 0; j < p; j++ {
			sum := f.Zero()
			for k := 0; k < n; k++ {
				if A[i][k].IsZero() {
					continue
				}
				sum = sum.Add(A[i][k].Mul(B[k][j]))
			}
			C[i][j] = sum
		}
	}
	return C
}

// Apply computes the matrix-vector product A·v
func Apply(A [][]Element, v []Element, f Field) []Element {
	out := make([]Element, len(A))
	for i, row := range A {
		if len(row) != len(v) {
			panic(fmt.Sprintf("matrix row %d has %d columns, vector has %d entries", i, len(row), len(v)))
		}
		sum := f.Zero()
		for j, a := range row {
			if a.IsZero() {
				continue
			}
			sum = sum.Add(a.Mul(v[j]))
		}
		out[i] = sum
	}
	return out
}

// Power computes A^e for a square matrix by square-and-multiply
func Power(A [][]Element, e *big.Int, f Field) [][]Element {
	if e.Sign() < 0 {
		panic("negative matrix exponent")
	}
	result := Identity(f, len(A))
	base := A
	for i := 0; i < e.BitLen(); i++ {
		if e.Bit(i) == 1 {
			result = Multiply(result, base, f)
		}
		if i+1 < e.BitLen() {
			base = Multiply(base, base, f)
		}
	}
	return result
}

// Rank returns the rank of A using forward elimination
func Rank(A [][]Element) int {
	n := len(A)
	if n == 0 {
		return 0
	}
	m := len(A[0])

	B := clone(A)
	rank := 0
	for col := 0; col < m && rank < n; col++ {
		pivot := -1
		for i := rank; i < n; i++ {
			if !B[i][col].IsZero() {
				pivot = i
				break
			}
		}
		if pivot == -1 {
			continue
		}
		B[rank], B[pivot] = B[pivot], B[rank]

		for i := rank + 1; i < n; i++ {
			if B[i][col].IsZero() {
				continue
			}
			factor := B[i][col].Mul(B[rank][col].Inv())
			for j := col; j < m; j++ {
				B[i][j] = B[i][j].Sub(factor.Mul(B[rank][j]))
			}
		}
		rank++
	}
	return rank
}

// Invert computes the inverse of an n x n matrix over the field using Gaussian elimination.
func Invert(A [][]Element, f Field) ([][]Element, error) {
	n := len(A)
	inv := Identity(f, n)
	B := clone(A)

	for i := 0; i < n; i++ {
		// Find pivot: look for a non-zero element in column i
		pivot := -1
		for k := i; k < n; k++ {
			if !B[k][i].IsZero() {
				pivot = k
				break
			}
		}

		// If no pivot found, matrix is singular
		if pivot == -1 {
			return nil, fmt.Errorf("matrix not invertible")
		}

		if pivot != i {
			B[i], B[pivot] = B[pivot], B[i]
			inv[i], inv[pivot] = inv[pivot], inv[i]
		}

		// Normalize the pivot row
		invPivot := B[i][i].Inv()
		for j := 0; j < n; j++ {
			B[i][j] = B[i][j].Mul(invPivot)
			inv[i][j] = inv[i][j].Mul(invPivot)
		}

		// Eliminate other rows
		for k := 0; k < n; k++ {
			if k == i || B[k][i].IsZero() {
				continue
			}
			factor := B[k][i]
			for j := 0; j < n; j++ {
				B[k][j] = B[k][j].Sub(factor.Mul(B[i][j]))
				inv[k][j] = inv[k][j].Sub(factor.Mul(inv[i][j]))
			}
		}
	}
	return inv, nil
}

// Solve returns x with A·x = b for a square, invertible A
func Solve(A [][]Element, b []Element, f Field) ([]Element, error) {
	if len(A) != len(b) {
		return nil, fmt.Errorf("matrix has %d rows, right-hand side has %d entries", len(A), len(b))
	}
	Ainv, err := Invert(A, f)
	if err != nil {
		return nil, err
	}
	return Apply(Ainv, b, f), nil
}

func clone(A [][]Element) [][]Element {
	B := make([][]Element, len(A))
	for i := range A {
		B[i] = make([]Element, len(A[i]))
		for j := range A[i] {
			B[i][j] = A[i][j].Clone()
		}
	}
	return B
}
