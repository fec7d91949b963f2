package assembly

import (
	"fmt"
	"sync"

	"github.com/notargets/BEMKernel/linalg"
	"github.com/notargets/BEMKernel/quadrature"
	"github.com/notargets/BEMKernel/space"
	"github.com/notargets/BEMKernel/utils"
)

// Func samples boundary data at point x with unit normal n on an element
// with the given domain index, writing Codomain components into result
type Func func(x, n utils.Vec3, domainIndex int, result []complex128)

// DefaultProjectionOrder is the quadrature degree used to project functions
const DefaultProjectionOrder = 6

// GridFunction is a function on a space, known through its coefficients,
// through its projections onto a dual space, or through a callable from which
// both are computed on demand.
type GridFunction struct {
	space space.Space
	dual  space.Space // nil when only coefficients are known
	fn    Func
	order int

	mu           sync.Mutex
	coefficients []complex128
	projections  []complex128 // onto dual
}

// NewGridFunction wraps a coefficient vector; coeffs is copied
func NewGridFunction(sp space.Space, coeffs []complex128) (*GridFunction, error) {
	if n := sp.GlobalDofCount(); len(coeffs) != n {
		return nil, fmt.Errorf("%w: %d coefficients for a space with %d dofs",
			ErrDimensionMismatch, len(coeffs), n)
	}
	return &GridFunction{space: sp, order: DefaultProjectionOrder,
		coefficients: append([]complex128(nil), coeffs...)}, nil
}

// NewGridFunctionFromProjections wraps the projections ⟨f, ψᵢ⟩ of a function
// onto the basis ψ of dual
func NewGridFunctionFromProjections(sp, dual space.Space, projections []complex128) (*GridFunction, error) {
	if n := dual.GlobalDofCount(); len(projections) != n {
		return nil, fmt.Errorf("%w: %d projections for a dual space with %d dofs",
			ErrDimensionMismatch, len(projections), n)
	}
	return &GridFunction{space: sp, dual: dual, order: DefaultProjectionOrder,
		projections: append([]complex128(nil), projections...)}, nil
}

// NewGridFunctionFromFunc projects fn onto the basis of dual. The callable is
// kept so that coefficients and other projections can be computed later.
func NewGridFunctionFromFunc(sp, dual space.Space, fn Func) (*GridFunction, error) {
	return NewGridFunctionFromFuncOrder(sp, dual, fn, DefaultProjectionOrder)
}

// NewGridFunctionFromFuncOrder is NewGridFunctionFromFunc with an explicit
// quadrature degree
func NewGridFunctionFromFuncOrder(sp, dual space.Space, fn Func, order int) (*GridFunction, error) {
	if fn == nil {
		return nil, fmt.Errorf("grid function: nil callable")
	}
	if dual.Grid().ID() != sp.Grid().ID() {
		return nil, fmt.Errorf("%w: space and dual space live on different grids", ErrIncompatibleDomain)
	}
	proj, err := project(fn, dual, order)
	if err != nil {
		return nil, err
	}
	return &GridFunction{space: sp, dual: dual, fn: fn, order: order, projections: proj}, nil
}

func (g *GridFunction) Space() space.Space { return g.space }

// DualSpace is the space projections are stored against, nil if none
func (g *GridFunction) DualSpace() space.Space { return g.dual }

// Coefficients returns the expansion coefficients in the basis of Space,
// solving with the Gram matrix when only projections are known
func (g *GridFunction) Coefficients() ([]complex128, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.coefficients != nil {
		return append([]complex128(nil), g.coefficients...), nil
	}

	dual, proj := g.dual, g.projections
	if g.fn != nil {
		// L2 projection onto the space itself has a symmetric positive Gram matrix
		var err error
		if proj, err = project(g.fn, g.space, g.order); err != nil {
			return nil, err
		}
		dual = g.space
	}
	gram, err := GramMatrix(g.space, dual)
	if err != nil {
		return nil, err
	}
	coeffs, err := (&linalg.LU{}).Solve(DenseFromSparse(gram), proj)
	if err != nil {
		return nil, fmt.Errorf("grid function coefficients: %w", err)
	}
	g.coefficients = coeffs
	return append([]complex128(nil), coeffs...), nil
}

// Projections returns ⟨f, ψᵢ⟩ for the basis ψ of dual
func (g *GridFunction) Projections(dual space.Space) ([]complex128, error) {
	g.mu.Lock()
	if g.projections != nil && space.Same(dual, g.dual) {
		defer g.mu.Unlock()
		return append([]complex128(nil), g.projections...), nil
	}
	fn, order, known := g.fn, g.order, g.coefficients != nil
	g.mu.Unlock()

	if fn != nil {
		return project(fn, dual, order)
	}
	if !known {
		return nil, fmt.Errorf("%w: projections are only known against %v",
			ErrIncompatibleDomain, g.dual)
	}
	gram, err := GramMatrix(g.space, dual)
	if err != nil {
		return nil, err
	}
	coeffs, err := g.Coefficients()
	if err != nil {
		return nil, err
	}
	return sparseApply(gram, coeffs), nil
}

// project integrates ⟨fn, ψᵢ⟩ over every element of dual's grid
func project(fn Func, dual space.Space, order int) ([]complex128, error) {
	rule, err := quadrature.Triangle(order)
	if err != nil {
		return nil, err
	}
	g := dual.Grid()
	out := make([]complex128, dual.GlobalDofCount())
	val := make([]complex128, dual.Codomain())
	for e := 0; e < g.NumElements(); e++ {
		jac := 2 * g.Area(e)
		n := g.Normal(e)
		for q, st := range rule.Points {
			clear(val)
			fn(g.Global(e, st[0], st[1]), n, g.DomainIndices[e], val)
			w := complex(rule.Weights[q]*jac, 0)
			for j := 0; j < dual.LocalSize(); j++ {
				dof, ok := dual.LocalDof(e, j)
				if !ok {
					continue
				}
				psi := dual.Evaluate(e, j, st[0], st[1]).Value
				var dot complex128
				for c, v := range val {
					dot += v * complex(psi[c], 0)
				}
				out[dof] += w * dot
			}
		}
	}
	return out, nil
}
