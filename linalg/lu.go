// Package linalg solves dense complex linear systems arising from boundary
// element discretizations, directly or iteratively.
package linalg

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Solver solves A x = b for square complex A
type Solver interface {
	Solve(a *mat.CDense, b []complex128) ([]complex128, error)
}

// DefaultTolerance bounds the accepted condition number at 1/DefaultTolerance
const DefaultTolerance = 1e-13

// LU is the direct solver. The complex system is factored through its real
// equivalent form [[Re A, -Im A], [Im A, Re A]].
type LU struct {
	Tolerance float64
	Logger    *zap.Logger
}

func (s *LU) Solve(a *mat.CDense, b []complex128) ([]complex128, error) {
	n, c := a.Dims()
	if n != c || len(b) != n {
		return nil, fmt.Errorf("%w: matrix %dx%d, rhs %d", ErrDimension, n, c, len(b))
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	var lu mat.LU
	lu.Factorize(RealEquivalent(a))
	cond := lu.Cond()
	if cond > 1/tol {
		return nil, &NumericalError{Kind: Singular, Condition: cond}
	}

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, mat.NewVecDense(2*n, splitComplex(b))); err != nil {
		return nil, &NumericalError{Kind: Singular, Condition: cond}
	}
	if s.Logger != nil {
		s.Logger.Debug("lu solve", zap.Int("n", n), zap.Float64("condition", cond))
	}
	return joinComplex(x.RawVector().Data, n), nil
}

// RealEquivalent expands complex A (n×m) into the real 2n×2m block matrix
func RealEquivalent(a *mat.CDense) *mat.Dense {
	n, m := a.Dims()
	out := mat.NewDense(2*n, 2*m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			v := a.At(i, j)
			out.Set(i, j, real(v))
			out.Set(i, m+j, -imag(v))
			out.Set(n+i, j, imag(v))
			out.Set(n+i, m+j, real(v))
		}
	}
	return out
}

func splitComplex(b []complex128) []float64 {
	n := len(b)
	out := make([]float64, 2*n)
	for i, v := range b {
		out[i], out[n+i] = real(v), imag(v)
	}
	return out
}

func joinComplex(x []float64, n int) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(x[i], x[n+i])
	}
	return out
}
