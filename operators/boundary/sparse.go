// Package boundary builds boundary operators on triangulated surfaces:
// sparse identity (Gram) operators and the Maxwell electric, magnetic and
// multitrace operators.
package boundary

import (
	"fmt"
	"sync"

	"github.com/james-bowman/sparse"
	"github.com/notargets/BEMKernel/assembly"
	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/kernels"
	"github.com/notargets/BEMKernel/operators"
	"github.com/notargets/BEMKernel/space"
	"gonum.org/v1/gonum/mat"
)

// Spaces are the domain, range and dual-to-range spaces of an operator
type Spaces struct {
	Domain, Range, Dual space.Space
}

// MaxwellSpaces returns one RWG space used as domain and range and an SNC
// dual space on g
func MaxwellSpaces(g *grid.Grid) Spaces {
	rwg := space.NewRWG(g)
	return Spaces{Domain: rwg, Range: rwg, Dual: space.NewSNC(g)}
}

// SparseOperator is an identity operator whose weak form is the Gram matrix
type SparseOperator struct {
	*assembly.ElementaryOperator

	once sync.Once
	csr  *sparse.CSR
	err  error
}

// Identity is the L2 identity pairing domain functions with the dual basis
func Identity(domain, rng, dual space.Space, opts ...operators.Option) (*SparseOperator, error) {
	o, err := operators.NewOptions(opts...)
	if err != nil {
		return nil, err
	}
	if domain.Grid().ID() != dual.Grid().ID() {
		return nil, fmt.Errorf("%w: identity needs domain and dual on one grid",
			operators.ErrInvalidConfiguration)
	}
	d, err := operators.NewDescriptor("l2_identity", nil, kernels.L2Identity, kernels.DefaultSparse,
		o.Precision, false, nil, 1)
	if err != nil {
		return nil, err
	}
	op := &SparseOperator{}
	op.ElementaryOperator, err = assembly.NewElementaryOperator(domain, rng, dual, d,
		func() (*mat.CDense, error) {
			csr, err := op.Sparse()
			if err != nil {
				return nil, err
			}
			return assembly.DenseFromSparse(csr), nil
		})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// Sparse returns the Gram matrix in compressed row form
func (op *SparseOperator) Sparse() (*sparse.CSR, error) {
	op.once.Do(func() {
		op.csr, op.err = assembly.GramMatrix(op.DomainSpace(), op.DualToRangeSpace())
	})
	return op.csr, op.err
}

// MultitraceIdentity is diag(I, I) acting on a pair of traces
func MultitraceIdentity(sp Spaces, opts ...operators.Option) (*assembly.BlockedOperator, error) {
	id, err := Identity(sp.Domain, sp.Range, sp.Dual, opts...)
	if err != nil {
		return nil, err
	}
	return assembly.NewBlockedOperator([][]assembly.BoundaryOperator{
		{id, nil},
		{nil, id},
	})
}
