package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// BlockJacobi inverts the diagonal blocks of a blocked system. Block k covers
// rows and columns [offsets[k], offsets[k+1]).
type BlockJacobi struct {
	offsets []int
	factors []*mat.LU
}

func NewBlockJacobi(a *mat.CDense, offsets []int) (*BlockJacobi, error) {
	n, c := a.Dims()
	if n != c {
		return nil, fmt.Errorf("%w: block jacobi needs a square matrix, got %dx%d", ErrDimension, n, c)
	}
	if len(offsets) < 2 || offsets[0] != 0 || offsets[len(offsets)-1] != n {
		return nil, fmt.Errorf("%w: block offsets %v do not cover %d rows", ErrDimension, offsets, n)
	}
	bj := &BlockJacobi{offsets: append([]int(nil), offsets...)}
	for k := 0; k+1 < len(offsets); k++ {
		i0, i1 := offsets[k], offsets[k+1]
		if i1 <= i0 {
			return nil, fmt.Errorf("%w: empty block %d in %v", ErrDimension, k, offsets)
		}
		block := a.Slice(i0, i1, i0, i1).(*mat.CDense)
		lu := &mat.LU{}
		lu.Factorize(RealEquivalent(block))
		if cond := lu.Cond(); cond > 1/DefaultTolerance {
			return nil, &NumericalError{Kind: Singular, Condition: cond}
		}
		bj.factors = append(bj.factors, lu)
	}
	return bj, nil
}

func (bj *BlockJacobi) Apply(dst, r []complex128) {
	var x mat.VecDense
	for k, lu := range bj.factors {
		i0, i1 := bj.offsets[k], bj.offsets[k+1]
		nb := i1 - i0
		if err := lu.SolveVecTo(&x, false, mat.NewVecDense(2*nb, splitComplex(r[i0:i1]))); err != nil {
			// factorization was checked on construction; fall back to identity
			copy(dst[i0:i1], r[i0:i1])
			continue
		}
		copy(dst[i0:i1], joinComplex(x.RawVector().Data, nb))
		x.Reset()
	}
}
