package farfield_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/notargets/BEMKernel/assembly"
	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/operators"
	"github.com/notargets/BEMKernel/operators/farfield"
	"github.com/notargets/BEMKernel/operators/potential"
	"github.com/notargets/BEMKernel/space"
	"github.com/notargets/BEMKernel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestDirections(t *testing.T) {
	d := farfield.Directions(5)
	r, c := d.Dims()
	require.Equal(t, 3, r)
	require.Equal(t, 5, c)
	for j := 0; j < c; j++ {
		assert.InDelta(t, 1, mat.Norm(d.ColView(j), 2), 1e-15)
		assert.Zero(t, d.At(2, j))
	}
	assert.InDelta(t, -1, d.At(0, 0), 1e-15)
	assert.InDelta(t, -1, d.At(1, 2), 1e-15)
	assert.InDelta(t, 1, d.At(0, 4), 1e-15)

	one := farfield.Directions(1)
	assert.Equal(t, -1., one.At(0, 0))
}

func TestDirectionValidation(t *testing.T) {
	g, err := grid.SphereRefined(1, utils.Vec3{}, 0)
	require.NoError(t, err)
	rwg := space.NewRWG(g)

	_, err = farfield.ElectricField(rwg, mat.NewDense(3, 1, []float64{2, 0, 0}), 1)
	assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)
	_, err = farfield.MagneticField(rwg, mat.NewDense(3, 1, []float64{0, 0, 0}), 1)
	assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)
	_, err = farfield.MagneticField(space.NewDP0(g), farfield.Directions(3), 1)
	assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)
}

type factory func(space.Space, *mat.Dense, complex128, ...operators.Option) (*assembly.PotentialOperator, error)

// The far-field pattern is the limit of r e^{-ikr} times the near field
func TestFarFieldLimit(t *testing.T) {
	g, err := grid.SphereRefined(0.5, utils.Vec3{}, 1)
	require.NoError(t, err)
	rwg := space.NewRWG(g)
	coeffs := make([]complex128, rwg.GlobalDofCount())
	for i := range coeffs {
		coeffs[i] = complex(math.Cos(float64(i)), math.Sin(0.5*float64(i)))
	}

	const (
		k = complex(2, 0)
		R = 2000.
	)
	dirs := farfield.Directions(4)
	_, n := dirs.Dims()
	points := mat.NewDense(3, n, nil)
	points.Scale(R, dirs)

	for _, tc := range []struct {
		name string
		far  factory
		near factory
	}{
		{"electric", farfield.ElectricField, potential.ElectricField},
		{"magnetic", farfield.MagneticField, potential.MagneticField},
	} {
		t.Run(tc.name, func(t *testing.T) {
			far, err := tc.far(rwg, dirs, k)
			require.NoError(t, err)
			near, err := tc.near(rwg, points, k)
			require.NoError(t, err)
			ff, err := far.Apply(coeffs)
			require.NoError(t, err)
			nf, err := near.Apply(coeffs)
			require.NoError(t, err)

			phase := complex(R, 0) * cmplx.Exp(-1i*k*complex(R, 0))
			for p := 0; p < n; p++ {
				var diff, scale float64
				for c := 0; c < 3; c++ {
					diff += math.Pow(cmplx.Abs(phase*nf.At(c, p)-ff.At(c, p)), 2)
					scale += math.Pow(cmplx.Abs(ff.At(c, p)), 2)
				}
				require.Greater(t, scale, 0.)
				assert.Less(t, math.Sqrt(diff/scale), 1e-2, "direction %d", p)
			}
		})
	}
}
