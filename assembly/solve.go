package assembly

import (
	"fmt"
	"time"

	"github.com/notargets/BEMKernel/linalg"
	"github.com/notargets/BEMKernel/space"
	"go.uber.org/zap"
)

// Solve solves the blocked system op·x = rhs in weak form. rhs[i] must live on
// range space i and provide projections onto dual space i. The result holds
// one grid function per block column, on that column's domain space. A nil
// solver selects the direct LU solver.
func Solve(op *BlockedOperator, rhs []*GridFunction, solver linalg.Solver) ([]*GridFunction, error) {
	rows, _ := op.Dims()
	if len(rhs) != rows {
		return nil, fmt.Errorf("%w: %d right-hand sides for %d block rows", ErrShapeMismatch, len(rhs), rows)
	}
	if solver == nil {
		solver = &linalg.LU{Logger: zap.L()}
	}

	ranges, duals := op.RangeSpaces(), op.DualToRangeSpaces()
	ro := op.RowOffsets()
	b := make([]complex128, ro[rows])
	for i, g := range rhs {
		if g == nil {
			return nil, fmt.Errorf("%w: right-hand side %d is nil", ErrShapeMismatch, i)
		}
		if !space.Same(g.Space(), ranges[i]) {
			return nil, fmt.Errorf("%w: right-hand side %d lives on %v, row range is %v",
				ErrIncompatibleDomain, i, g.Space(), ranges[i])
		}
		if d := g.DualSpace(); d != nil && !space.Same(d, duals[i]) {
			return nil, fmt.Errorf("%w: right-hand side %d is projected onto %v, row dual is %v",
				ErrIncompatibleDomain, i, d, duals[i])
		}
		p, err := g.Projections(duals[i])
		if err != nil {
			return nil, fmt.Errorf("right-hand side %d: %w", i, err)
		}
		copy(b[ro[i]:ro[i+1]], p)
	}

	start := time.Now()
	a, err := op.WeakForm()
	if err != nil {
		return nil, err
	}
	zap.L().Info("blocked weak form assembled", zap.Int("rows", ro[rows]),
		zap.Duration("elapsed", time.Since(start)))

	start = time.Now()
	x, err := solver.Solve(a, b)
	if err != nil {
		return nil, fmt.Errorf("blocked solve: %w", err)
	}
	zap.L().Info("blocked system solved", zap.Duration("elapsed", time.Since(start)))

	co := op.ColumnOffsets()
	domains := op.DomainSpaces()
	out := make([]*GridFunction, len(domains))
	for j, sp := range domains {
		if out[j], err = NewGridFunction(sp, x[co[j]:co[j+1]]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
