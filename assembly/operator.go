package assembly

import (
	"fmt"

	"github.com/notargets/BEMKernel/operators"
	"github.com/notargets/BEMKernel/space"
	"gonum.org/v1/gonum/mat"
)

// BoundaryOperator is a discretized boundary operator. Its weak form has one
// row per basis function of the dual-to-range space and one column per basis
// function of the domain space.
type BoundaryOperator interface {
	DomainSpace() space.Space
	RangeSpace() space.Space
	DualToRangeSpace() space.Space
	// Descriptor is nil for composite operators
	Descriptor() *operators.Descriptor
	WeakForm() (*mat.CDense, error)
}

// WeakFormFunc assembles the dual × domain weak form of an operator
type WeakFormFunc func() (*mat.CDense, error)

// ElementaryOperator is a boundary operator backed by a single assembly
// routine, run lazily and at most once
type ElementaryOperator struct {
	domain, rng, dual space.Space
	descriptor        *operators.Descriptor
	build             WeakFormFunc

	lazy lazyMatrix
}

func NewElementaryOperator(domain, rng, dual space.Space, d *operators.Descriptor,
	build WeakFormFunc) (*ElementaryOperator, error) {
	if domain == nil || rng == nil || dual == nil {
		return nil, fmt.Errorf("%w: domain, range and dual spaces are required",
			operators.ErrInvalidConfiguration)
	}
	if build == nil {
		return nil, fmt.Errorf("%w: no assembly routine", operators.ErrInvalidConfiguration)
	}
	return &ElementaryOperator{domain: domain, rng: rng, dual: dual, descriptor: d, build: build}, nil
}

func (op *ElementaryOperator) DomainSpace() space.Space          { return op.domain }
func (op *ElementaryOperator) RangeSpace() space.Space           { return op.rng }
func (op *ElementaryOperator) DualToRangeSpace() space.Space     { return op.dual }
func (op *ElementaryOperator) Descriptor() *operators.Descriptor { return op.descriptor }
func (op *ElementaryOperator) State() State                      { return op.lazy.current() }

func (op *ElementaryOperator) WeakForm() (*mat.CDense, error) {
	return op.lazy.get(func() (*mat.CDense, error) {
		m, err := op.build()
		if err != nil {
			return nil, err
		}
		r, c := m.Dims()
		if r != op.dual.GlobalDofCount() || c != op.domain.GlobalDofCount() {
			return nil, fmt.Errorf("%w: weak form is %dx%d, spaces need %dx%d", ErrShapeMismatch,
				r, c, op.dual.GlobalDofCount(), op.domain.GlobalDofCount())
		}
		return m, nil
	})
}

type scaledTerm struct {
	alpha complex128
	op    BoundaryOperator
}

// combination is Σ αᵢ Aᵢ over operators sharing all three spaces
type combination struct {
	terms []scaledTerm
	lazy  lazyMatrix
}

func (c *combination) DomainSpace() space.Space          { return c.terms[0].op.DomainSpace() }
func (c *combination) RangeSpace() space.Space           { return c.terms[0].op.RangeSpace() }
func (c *combination) DualToRangeSpace() space.Space     { return c.terms[0].op.DualToRangeSpace() }
func (c *combination) Descriptor() *operators.Descriptor { return nil }

func (c *combination) WeakForm() (*mat.CDense, error) {
	return c.lazy.get(func() (*mat.CDense, error) {
		var out *mat.CDense
		for _, t := range c.terms {
			m, err := t.op.WeakForm()
			if err != nil {
				return nil, err
			}
			if out == nil {
				r, cols := m.Dims()
				out = mat.NewCDense(r, cols, nil)
			}
			addScaled(out, t.alpha, m)
		}
		return out, nil
	})
}

// addScaled sets dst += alpha·m
func addScaled(dst *mat.CDense, alpha complex128, m *mat.CDense) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(i, j, dst.At(i, j)+alpha*m.At(i, j))
		}
	}
}

func termsOf(op BoundaryOperator) []scaledTerm {
	if c, ok := op.(*combination); ok {
		return c.terms
	}
	return []scaledTerm{{alpha: 1, op: op}}
}

// Scale returns alpha·op
func Scale(alpha complex128, op BoundaryOperator) BoundaryOperator {
	src := termsOf(op)
	terms := make([]scaledTerm, len(src))
	for i, t := range src {
		terms[i] = scaledTerm{alpha: alpha * t.alpha, op: t.op}
	}
	return &combination{terms: terms}
}

// Sum returns the sum of ops, which must share domain, range and dual spaces
func Sum(ops ...BoundaryOperator) (BoundaryOperator, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: empty sum", ErrShapeMismatch)
	}
	var terms []scaledTerm
	for _, op := range ops {
		if err := sameSpaces(ops[0], op); err != nil {
			return nil, err
		}
		terms = append(terms, termsOf(op)...)
	}
	return &combination{terms: terms}, nil
}

func sameSpaces(a, b BoundaryOperator) error {
	switch {
	case !space.Same(a.DomainSpace(), b.DomainSpace()):
		return fmt.Errorf("%w: domain spaces differ", ErrIncompatibleDomain)
	case !space.Same(a.RangeSpace(), b.RangeSpace()):
		return fmt.Errorf("%w: range spaces differ", ErrIncompatibleDomain)
	case !space.Same(a.DualToRangeSpace(), b.DualToRangeSpace()):
		return fmt.Errorf("%w: dual to range spaces differ", ErrIncompatibleDomain)
	}
	return nil
}
