package assembly

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"
)

// FieldValues holds a Dim-component complex field sampled at N points
type FieldValues struct {
	dim, npts int
	data      []complex128 // component c of point p at p*dim+c
}

func NewFieldValues(dim, npts int) *FieldValues {
	return &FieldValues{dim: dim, npts: npts, data: make([]complex128, dim*npts)}
}

// Dims returns the number of components and the number of points
func (f *FieldValues) Dims() (dim, npts int) { return f.dim, f.npts }

func (f *FieldValues) At(c, p int) complex128 { return f.data[p*f.dim+c] }

func (f *FieldValues) Set(c, p int, v complex128) { f.data[p*f.dim+c] = v }

// Point returns a copy of all components at point p
func (f *FieldValues) Point(p int) []complex128 {
	return append([]complex128(nil), f.data[p*f.dim:(p+1)*f.dim]...)
}

// Norm is the Euclidean norm of the field at point p
func (f *FieldValues) Norm(p int) float64 {
	return cmplxs.Norm(f.data[p*f.dim:(p+1)*f.dim], 2)
}

// SquaredNorms returns Σ_c |f_c(p)|² per point
func (f *FieldValues) SquaredNorms() []float64 {
	out := make([]float64, f.npts)
	for p := range out {
		for _, v := range f.data[p*f.dim : (p+1)*f.dim] {
			a := cmplx.Abs(v)
			out[p] += a * a
		}
	}
	return out
}

// MaxAbs is the largest component magnitude over all points
func (f *FieldValues) MaxAbs() float64 {
	var m float64
	for _, v := range f.data {
		m = math.Max(m, cmplx.Abs(v))
	}
	return m
}

func (f *FieldValues) compatible(o *FieldValues) error {
	if f.dim != o.dim || f.npts != o.npts {
		return fmt.Errorf("%w: field values %dx%d and %dx%d",
			ErrDimensionMismatch, f.dim, f.npts, o.dim, o.npts)
	}
	return nil
}

// Add returns f + o
func (f *FieldValues) Add(o *FieldValues) (*FieldValues, error) {
	if err := f.compatible(o); err != nil {
		return nil, err
	}
	out := NewFieldValues(f.dim, f.npts)
	cmplxs.AddTo(out.data, f.data, o.data)
	return out, nil
}

// Sub returns f - o
func (f *FieldValues) Sub(o *FieldValues) (*FieldValues, error) {
	if err := f.compatible(o); err != nil {
		return nil, err
	}
	out := NewFieldValues(f.dim, f.npts)
	cmplxs.SubTo(out.data, f.data, o.data)
	return out, nil
}

// Scale returns alpha f
func (f *FieldValues) Scale(alpha complex128) *FieldValues {
	out := NewFieldValues(f.dim, f.npts)
	cmplxs.ScaleTo(out.data, alpha, f.data)
	return out
}
