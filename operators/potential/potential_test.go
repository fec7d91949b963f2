package potential_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/operators"
	"github.com/notargets/BEMKernel/operators/potential"
	"github.com/notargets/BEMKernel/space"
	"github.com/notargets/BEMKernel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func ones(n int) []complex128 {
	c := make([]complex128, n)
	for i := range c {
		c[i] = 1
	}
	return c
}

func totalArea(g *grid.Grid) float64 {
	var a float64
	for e := 0; e < g.NumElements(); e++ {
		a += g.Area(e)
	}
	return a
}

func point(x, y, z float64) *mat.Dense { return mat.NewDense(3, 1, []float64{x, y, z}) }

func TestLaplaceSingleLayerMonopole(t *testing.T) {
	g, err := grid.SphereRefined(1, utils.Vec3{}, 2)
	require.NoError(t, err)
	dp0 := space.NewDP0(g)

	// a uniform density looks like a point charge of the total area from afar
	sl, err := potential.LaplaceSingleLayer(dp0, point(10, 0, 0))
	require.NoError(t, err)
	v, err := sl.Apply(ones(dp0.GlobalDofCount()))
	require.NoError(t, err)
	want := totalArea(g) / (4 * math.Pi * 10)
	assert.InEpsilon(t, want, real(v.At(0, 0)), 1e-4)
	assert.Zero(t, imag(v.At(0, 0)))

	// a small wavenumber recovers the static potential
	hl, err := potential.HelmholtzSingleLayer(dp0, point(10, 0, 0), 1e-6)
	require.NoError(t, err)
	hv, err := hl.Apply(ones(dp0.GlobalDofCount()))
	require.NoError(t, err)
	assert.InDelta(t, 0, cmplx.Abs(hv.At(0, 0)-v.At(0, 0)), 1e-6)
}

func TestLaplaceDoubleLayerJump(t *testing.T) {
	g, err := grid.SphereRefined(1, utils.Vec3{}, 2)
	require.NoError(t, err)
	dp0 := space.NewDP0(g)
	points := mat.NewDense(3, 2, []float64{
		0, 3,
		0, 0,
		0, 0,
	})
	dl, err := potential.LaplaceDoubleLayer(dp0, points)
	require.NoError(t, err)
	v, err := dl.Apply(ones(dp0.GlobalDofCount()))
	require.NoError(t, err)

	// a closed surface subtends the full solid angle from inside, none from outside
	assert.InDelta(t, 1, cmplx.Abs(v.At(0, 0)), 1e-3)
	assert.InDelta(t, 0, cmplx.Abs(v.At(0, 1)), 1e-3)
}

func TestFactoryValidation(t *testing.T) {
	g, err := grid.SphereRefined(1, utils.Vec3{}, 0)
	require.NoError(t, err)
	dp0, rwg := space.NewDP0(g), space.NewRWG(g)
	pts := point(2, 0, 0)

	_, err = potential.ElectricField(dp0, pts, 1)
	assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)
	_, err = potential.MagneticField(dp0, pts, 1)
	assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)
	_, err = potential.LaplaceSingleLayer(dp0, mat.NewDense(2, 1, nil))
	assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)
	_, err = potential.HelmholtzDoubleLayer(dp0, point(math.Inf(1), 0, 0), 1)
	assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)
	_, err = potential.LaplaceDoubleLayer(dp0, pts, operators.WithAssembler("missing"))
	assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)

	e, err := potential.ElectricField(rwg, pts, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Dimension())
	assert.Equal(t, 1, e.NumPoints())
	assert.True(t, space.Same(rwg, e.Space()))
	d := e.Assemblers()[0].Descriptor()
	assert.Equal(t, "maxwell_electric_field_potential", d.Identifier())
	assert.Equal(t, complex128(1), d.Wavenumber())
}
