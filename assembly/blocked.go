package assembly

import (
	"fmt"

	"github.com/notargets/BEMKernel/space"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Term is an entry of a generalized blocked operator: a BoundaryOperator,
// a *BlockedOperator that is expanded in place, or nil for a zero block
type Term interface {
	WeakForm() (*mat.CDense, error)
}

// BlockedOperator is an R×C matrix of boundary operators. Nil blocks are
// zero. All blocks in a row share range and dual spaces, all blocks in a
// column share the domain space.
type BlockedOperator struct {
	blocks  [][]BoundaryOperator
	ranges  []space.Space
	duals   []space.Space
	domains []space.Space

	lazy lazyMatrix
}

// NewBlockedOperator validates blocks; the outer and inner slices are copied
func NewBlockedOperator(blocks [][]BoundaryOperator) (*BlockedOperator, error) {
	rows := len(blocks)
	if rows == 0 || len(blocks[0]) == 0 {
		return nil, fmt.Errorf("%w: blocked operator needs at least one block", ErrShapeMismatch)
	}
	cols := len(blocks[0])
	b := &BlockedOperator{
		blocks:  make([][]BoundaryOperator, rows),
		ranges:  make([]space.Space, rows),
		duals:   make([]space.Space, rows),
		domains: make([]space.Space, cols),
	}
	for i, row := range blocks {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d blocks, row 0 has %d",
				ErrShapeMismatch, i, len(row), cols)
		}
		b.blocks[i] = append([]BoundaryOperator(nil), row...)
	}

	for i, row := range b.blocks {
		for j, op := range row {
			if op == nil {
				continue
			}
			if b.ranges[i] == nil {
				b.ranges[i], b.duals[i] = op.RangeSpace(), op.DualToRangeSpace()
			} else if !space.Same(b.ranges[i], op.RangeSpace()) || !space.Same(b.duals[i], op.DualToRangeSpace()) {
				return nil, fmt.Errorf("%w: block (%d,%d) disagrees with row %d on range or dual space",
					ErrShapeMismatch, i, j, i)
			}
			if b.domains[j] == nil {
				b.domains[j] = op.DomainSpace()
			} else if !space.Same(b.domains[j], op.DomainSpace()) {
				return nil, fmt.Errorf("%w: block (%d,%d) disagrees with column %d on domain space",
					ErrShapeMismatch, i, j, j)
			}
		}
	}
	for i, r := range b.ranges {
		if r == nil {
			return nil, fmt.Errorf("%w: row %d has only zero blocks", ErrShapeMismatch, i)
		}
	}
	for j, d := range b.domains {
		if d == nil {
			return nil, fmt.Errorf("%w: column %d has only zero blocks", ErrShapeMismatch, j)
		}
	}
	return b, nil
}

// NewGeneralizedBlockedOperator builds a blocked operator from a matrix of
// terms, flattening nested blocked operators: a 2×2 matrix of 2×2 blocked
// operators becomes a 4×4 operator. Nested operators in one row must have the
// same number of rows, those in one column the same number of columns.
func NewGeneralizedBlockedOperator(terms [][]Term) (*BlockedOperator, error) {
	rows := len(terms)
	if rows == 0 || len(terms[0]) == 0 {
		return nil, fmt.Errorf("%w: blocked operator needs at least one block", ErrShapeMismatch)
	}
	cols := len(terms[0])
	heights := make([]int, rows)
	widths := make([]int, cols)

	fit := func(have *int, want int, what string, idx int) error {
		if *have == 0 {
			*have = want
		} else if *have != want {
			return fmt.Errorf("%w: %s %d mixes sizes %d and %d", ErrShapeMismatch, what, idx, *have, want)
		}
		return nil
	}
	for i, row := range terms {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d terms, row 0 has %d", ErrShapeMismatch, i, len(row), cols)
		}
		for j, t := range row {
			h, w, err := termSize(t)
			if err != nil {
				return nil, fmt.Errorf("term (%d,%d): %w", i, j, err)
			}
			if h == 0 {
				continue
			}
			if err := fit(&heights[i], h, "row", i); err != nil {
				return nil, err
			}
			if err := fit(&widths[j], w, "column", j); err != nil {
				return nil, err
			}
		}
	}
	for i, h := range heights {
		if h == 0 {
			return nil, fmt.Errorf("%w: row %d has only zero blocks", ErrShapeMismatch, i)
		}
	}
	for j, w := range widths {
		if w == 0 {
			return nil, fmt.Errorf("%w: column %d has only zero blocks", ErrShapeMismatch, j)
		}
	}

	rowOffsets, colOffsets := prefix(heights), prefix(widths)
	flat := make([][]BoundaryOperator, rowOffsets[rows])
	for i := range flat {
		flat[i] = make([]BoundaryOperator, colOffsets[cols])
	}
	for i, row := range terms {
		for j, t := range row {
			switch t := t.(type) {
			case nil:
			case *BlockedOperator:
				if t == nil {
					continue
				}
				for bi, brow := range t.blocks {
					copy(flat[rowOffsets[i]+bi][colOffsets[j]:], brow)
				}
			case BoundaryOperator:
				flat[rowOffsets[i]][colOffsets[j]] = t
			}
		}
	}
	return NewBlockedOperator(flat)
}

// termSize returns the block rows and columns a term occupies, 0×0 for zero
func termSize(t Term) (int, int, error) {
	switch t := t.(type) {
	case nil:
		return 0, 0, nil
	case *BlockedOperator:
		if t == nil {
			return 0, 0, nil
		}
		r, c := t.Dims()
		return r, c, nil
	case BoundaryOperator:
		return 1, 1, nil
	}
	return 0, 0, fmt.Errorf("%w: unsupported term %T", ErrShapeMismatch, t)
}

func prefix(sizes []int) []int {
	out := make([]int, len(sizes)+1)
	for i, s := range sizes {
		out[i+1] = out[i] + s
	}
	return out
}

// Dims returns the number of block rows and columns
func (b *BlockedOperator) Dims() (rows, cols int) { return len(b.blocks), len(b.domains) }

// Block returns block (i,j), nil for a zero block
func (b *BlockedOperator) Block(i, j int) BoundaryOperator { return b.blocks[i][j] }

func (b *BlockedOperator) RangeSpaces() []space.Space { return append([]space.Space(nil), b.ranges...) }

func (b *BlockedOperator) DualToRangeSpaces() []space.Space {
	return append([]space.Space(nil), b.duals...)
}

func (b *BlockedOperator) DomainSpaces() []space.Space { return append([]space.Space(nil), b.domains...) }

// RowOffsets are the first global rows of every block row, plus the total
func (b *BlockedOperator) RowOffsets() []int {
	sizes := make([]int, len(b.duals))
	for i, s := range b.duals {
		sizes[i] = s.GlobalDofCount()
	}
	return prefix(sizes)
}

// ColumnOffsets are the first global columns of every block column, plus the total
func (b *BlockedOperator) ColumnOffsets() []int {
	sizes := make([]int, len(b.domains))
	for j, s := range b.domains {
		sizes[j] = s.GlobalDofCount()
	}
	return prefix(sizes)
}

func (b *BlockedOperator) State() State { return b.lazy.current() }

// WeakForm assembles the global matrix. Blocks are assembled concurrently,
// each into its own sub-matrix.
func (b *BlockedOperator) WeakForm() (*mat.CDense, error) {
	return b.lazy.get(func() (*mat.CDense, error) {
		ro, co := b.RowOffsets(), b.ColumnOffsets()
		out := mat.NewCDense(ro[len(ro)-1], co[len(co)-1], nil)

		var eg errgroup.Group
		for i, row := range b.blocks {
			for j, op := range row {
				if op == nil {
					continue
				}
				dst := out.Slice(ro[i], ro[i+1], co[j], co[j+1]).(*mat.CDense)
				eg.Go(func() error {
					m, err := op.WeakForm()
					if err != nil {
						return fmt.Errorf("block (%d,%d): %w", i, j, err)
					}
					if r, c := m.Dims(); r != ro[i+1]-ro[i] || c != co[j+1]-co[j] {
						return fmt.Errorf("%w: block (%d,%d) is %dx%d", ErrShapeMismatch, i, j, r, c)
					}
					dst.Copy(m)
					return nil
				})
			}
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Scale returns alpha·b
func (b *BlockedOperator) Scale(alpha complex128) *BlockedOperator {
	blocks := make([][]BoundaryOperator, len(b.blocks))
	for i, row := range b.blocks {
		blocks[i] = make([]BoundaryOperator, len(row))
		for j, op := range row {
			if op != nil {
				blocks[i][j] = Scale(alpha, op)
			}
		}
	}
	out, _ := NewBlockedOperator(blocks)
	return out
}

// Add returns b + o blockwise
func (b *BlockedOperator) Add(o *BlockedOperator) (*BlockedOperator, error) {
	r1, c1 := b.Dims()
	r2, c2 := o.Dims()
	if r1 != r2 || c1 != c2 {
		return nil, fmt.Errorf("%w: cannot add %dx%d and %dx%d blocked operators", ErrShapeMismatch, r1, c1, r2, c2)
	}
	blocks := make([][]BoundaryOperator, r1)
	for i := range blocks {
		blocks[i] = make([]BoundaryOperator, c1)
		for j := range blocks[i] {
			x, y := b.blocks[i][j], o.blocks[i][j]
			switch {
			case x == nil:
				blocks[i][j] = y
			case y == nil:
				blocks[i][j] = x
			default:
				s, err := Sum(x, y)
				if err != nil {
					return nil, fmt.Errorf("block (%d,%d): %w", i, j, err)
				}
				blocks[i][j] = s
			}
		}
	}
	return NewBlockedOperator(blocks)
}

// Sub returns b - o blockwise
func (b *BlockedOperator) Sub(o *BlockedOperator) (*BlockedOperator, error) {
	return b.Add(o.Scale(-1))
}
