package linalg

import (
	"fmt"
	"math"
	"math/cmplx"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/mat"
)

// Preconditioner applies an approximate inverse: dst = M⁻¹ r
type Preconditioner interface {
	Apply(dst, r []complex128)
}

// Identity is the trivial preconditioner
type Identity struct{}

func (Identity) Apply(dst, r []complex128) { copy(dst, r) }

// GMRES is restarted GMRES(m) with right preconditioning, so the monitored
// residual is the true residual of the original system.
type GMRES struct {
	Restart        int     // Krylov dimension per cycle, default 50
	MaxIterations  int     // total inner iterations, default 1000
	Tolerance      float64 // relative residual target, default 1e-8
	Preconditioner Preconditioner
	Logger         *zap.Logger
}

func (s *GMRES) Solve(a *mat.CDense, b []complex128) ([]complex128, error) {
	n, c := a.Dims()
	if n != c || len(b) != n {
		return nil, fmt.Errorf("%w: matrix %dx%d, rhs %d", ErrDimension, n, c, len(b))
	}
	m, maxIter, tol := s.Restart, s.MaxIterations, s.Tolerance
	if m <= 0 {
		m = 50
	}
	m = min(m, n)
	if maxIter <= 0 {
		maxIter = 1000
	}
	if tol <= 0 {
		tol = 1e-8
	}
	var prec Preconditioner = Identity{}
	if s.Preconditioner != nil {
		prec = s.Preconditioner
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	x := make([]complex128, n)
	bnorm := cmplxs.Norm(b, 2)
	if bnorm == 0 {
		return x, nil
	}

	A := a.RawCMatrix()
	matvec := func(dst, v []complex128) {
		cblas128.Gemv(blas.NoTrans, 1, A,
			cblas128.Vector{N: n, Data: v, Inc: 1}, 0,
			cblas128.Vector{N: n, Data: dst, Inc: 1})
	}

	V := make([][]complex128, m+1)
	Z := make([][]complex128, m)
	for i := range V {
		V[i] = make([]complex128, n)
	}
	for i := range Z {
		Z[i] = make([]complex128, n)
	}
	H := make([][]complex128, m+1)
	for i := range H {
		H[i] = make([]complex128, m)
	}
	cs := make([]float64, m)
	sn := make([]complex128, m)
	g := make([]complex128, m+1)
	r := make([]complex128, n)

	var (
		iter  int
		resid float64
	)
	for iter < maxIter {
		matvec(r, x)
		for i := range r {
			r[i] = b[i] - r[i]
		}
		beta := cmplxs.Norm(r, 2)
		resid = beta / bnorm
		if resid <= tol {
			break
		}

		copy(V[0], r)
		cmplxs.Scale(complex(1/beta, 0), V[0])
		clear(g)
		g[0] = complex(beta, 0)

		j := 0
		for ; j < m && iter < maxIter; j++ {
			iter++
			w := V[j+1]
			prec.Apply(Z[j], V[j])
			matvec(w, Z[j])
			// modified Gram-Schmidt
			for i := 0; i <= j; i++ {
				H[i][j] = cmplxs.Dot(V[i], w)
				cmplxs.AddScaled(w, -H[i][j], V[i])
			}
			hn := cmplxs.Norm(w, 2)
			H[j+1][j] = complex(hn, 0)
			if hn > 0 {
				cmplxs.Scale(complex(1/hn, 0), w)
			}

			for i := 0; i < j; i++ {
				H[i][j], H[i+1][j] = rotate(cs[i], sn[i], H[i][j], H[i+1][j])
			}
			cs[j], sn[j] = givens(H[j][j], H[j+1][j])
			H[j][j], H[j+1][j] = rotate(cs[j], sn[j], H[j][j], H[j+1][j])
			g[j], g[j+1] = rotate(cs[j], sn[j], g[j], g[j+1])

			resid = cmplx.Abs(g[j+1]) / bnorm
			if resid <= tol || hn == 0 {
				j++
				break
			}
		}

		// back substitution on the j×j triangle, then x += Z y
		y := make([]complex128, j)
		for i := j - 1; i >= 0; i-- {
			sum := g[i]
			for l := i + 1; l < j; l++ {
				sum -= H[i][l] * y[l]
			}
			y[i] = sum / H[i][i]
		}
		for i := 0; i < j; i++ {
			cmplxs.AddScaled(x, y[i], Z[i])
		}
		logger.Debug("gmres cycle", zap.Int("iterations", iter), zap.Float64("residual", resid))
	}

	// the estimate may drift from the true residual, check it directly
	matvec(r, x)
	for i := range r {
		r[i] = b[i] - r[i]
	}
	resid = cmplxs.Norm(r, 2) / bnorm
	if resid > tol || math.IsNaN(resid) {
		return x, &NumericalError{Kind: NotConverged, Iterations: iter, Residual: resid}
	}
	logger.Info("gmres converged", zap.Int("iterations", iter), zap.Float64("residual", resid))
	return x, nil
}

// givens returns the rotation annihilating b against a
func givens(a, b complex128) (c float64, s complex128) {
	if a == 0 {
		return 0, 1
	}
	aa := cmplx.Abs(a)
	d := math.Hypot(aa, cmplx.Abs(b))
	return aa / d, a / complex(aa, 0) * cmplx.Conj(b) / complex(d, 0)
}

func rotate(c float64, s, x, y complex128) (complex128, complex128) {
	cc := complex(c, 0)
	return cc*x + s*y, -cmplx.Conj(s)*x + cc*y
}
