package assembly

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/notargets/BEMKernel/quadrature"
	"github.com/notargets/BEMKernel/space"
	"gonum.org/v1/gonum/mat"
)

// gramOrder integrates products of affine shape functions exactly
const gramOrder = 2

// GramMatrix assembles ⟨φⱼ, ψᵢ⟩ for domain basis φ and dual basis ψ on the
// same grid, rows indexed by dual DOFs.
func GramMatrix(domain, dual space.Space) (*sparse.CSR, error) {
	if domain.Grid().ID() != dual.Grid().ID() {
		return nil, fmt.Errorf("%w: gram matrix needs spaces on one grid", ErrIncompatibleDomain)
	}
	if domain.Codomain() != dual.Codomain() {
		return nil, fmt.Errorf("%w: cannot pair %v with %v", ErrIncompatibleDomain, domain.Kind(), dual.Kind())
	}
	rule, err := quadrature.Triangle(gramOrder)
	if err != nil {
		return nil, err
	}

	g := domain.Grid()
	dok := sparse.NewDOK(dual.GlobalDofCount(), domain.GlobalDofCount())
	for e := 0; e < g.NumElements(); e++ {
		jac := 2 * g.Area(e)
		for i := 0; i < dual.LocalSize(); i++ {
			di, ok := dual.LocalDof(e, i)
			if !ok {
				continue
			}
			for j := 0; j < domain.LocalSize(); j++ {
				dj, ok := domain.LocalDof(e, j)
				if !ok {
					continue
				}
				var sum float64
				for q, st := range rule.Points {
					psi := dual.Evaluate(e, i, st[0], st[1]).Value
					phi := domain.Evaluate(e, j, st[0], st[1]).Value
					sum += rule.Weights[q] * jac * psi.Dot(phi)
				}
				dok.Set(di, dj, dok.At(di, dj)+sum)
			}
		}
	}
	return dok.ToCSR(), nil
}

// DenseFromSparse copies a real sparse matrix into a complex dense one
func DenseFromSparse(m *sparse.CSR) *mat.CDense {
	r, c := m.Dims()
	out := mat.NewCDense(r, c, nil)
	m.DoNonZero(func(i, j int, v float64) {
		out.Set(i, j, complex(v, 0))
	})
	return out
}

// sparseApply returns m x for real sparse m and complex x
func sparseApply(m *sparse.CSR, x []complex128) []complex128 {
	r, _ := m.Dims()
	out := make([]complex128, r)
	m.DoNonZero(func(i, j int, v float64) {
		out[i] += complex(v, 0) * x[j]
	})
	return out
}
