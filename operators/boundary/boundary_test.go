package boundary_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/notargets/BEMKernel/assembly"
	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/operators"
	"github.com/notargets/BEMKernel/operators/boundary"
	"github.com/notargets/BEMKernel/space"
	"github.com/notargets/BEMKernel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func icosphere(t *testing.T, levels int) *grid.Grid {
	g, err := grid.SphereRefined(1, utils.Vec3{}, levels)
	require.NoError(t, err)
	return g
}

func weakForm(t *testing.T, op assembly.BoundaryOperator) *mat.CDense {
	t.Helper()
	w, err := op.WeakForm()
	require.NoError(t, err)
	return w
}

// assertScaled checks got ≈ alpha·want entrywise, relative to the largest entry
func assertScaled(t *testing.T, want, got *mat.CDense, alpha complex128, tol float64) {
	t.Helper()
	r, c := want.Dims()
	gr, gc := got.Dims()
	require.Equal(t, r, gr)
	require.Equal(t, c, gc)
	var scale, worst float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			scale = math.Max(scale, cmplx.Abs(alpha*want.At(i, j)))
			worst = math.Max(worst, cmplx.Abs(got.At(i, j)-alpha*want.At(i, j)))
		}
	}
	require.Greater(t, scale, 0.)
	assert.LessOrEqual(t, worst, tol*scale)
}

func TestMaxwellValidation(t *testing.T) {
	g := icosphere(t, 0)
	sp := boundary.MaxwellSpaces(g)
	dp0 := space.NewDP0(g)

	tests := []struct {
		name              string
		domain, rng, dual space.Space
		k                 complex128
	}{
		{"zero wavenumber", sp.Domain, sp.Range, sp.Dual, 0},
		{"nan wavenumber", sp.Domain, sp.Range, sp.Dual, cmplx.NaN()},
		{"scalar domain", dp0, sp.Range, sp.Dual, 1},
		{"unrotated dual", sp.Domain, sp.Range, sp.Range, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := boundary.ElectricField(tc.domain, tc.rng, tc.dual, tc.k)
			assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)
			_, err = boundary.MagneticField(tc.domain, tc.rng, tc.dual, tc.k)
			assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)
		})
	}

	_, err := boundary.Multitrace(sp, 1, boundary.EpsilonR(0))
	assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)
	_, err = boundary.Multitrace(sp, 1, boundary.WithOptions(operators.WithAssembler("nope")))
	assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)

	other := space.NewDP0(icosphere(t, 0))
	_, err = boundary.Identity(dp0, dp0, other)
	assert.ErrorIs(t, err, operators.ErrInvalidConfiguration)
}

func TestMaxwellDescriptors(t *testing.T) {
	sp := boundary.MaxwellSpaces(icosphere(t, 0))
	k := complex(2, 0.5)

	e, err := boundary.ElectricField(sp.Domain, sp.Range, sp.Dual, k)
	require.NoError(t, err)
	m, err := boundary.MagneticField(sp.Domain, sp.Range, sp.Dual, k)
	require.NoError(t, err)

	tests := []struct {
		op       *assembly.ElementaryOperator
		name     string
		singular string
	}{
		{e, "maxwell_electric_field_boundary", "laplace_single_layer"},
		{m, "maxwell_magnetic_field_boundary", "laplace_double_layer"},
	}
	for _, tc := range tests {
		d := tc.op.Descriptor()
		assert.Equal(t, tc.name, d.Identifier())
		assert.Equal(t, k, d.Wavenumber())
		assert.Equal(t, 3, d.KernelDimension())
		assert.True(t, d.IsComplex())
		require.NotNil(t, d.SingularPart())
		assert.Equal(t, tc.singular, d.SingularPart().Identifier())
		assert.Equal(t, assembly.Unassembled, tc.op.State())
	}
	assert.False(t, e.Descriptor().Equal(m.Descriptor()))
}

func TestMultitraceBlocks(t *testing.T) {
	sp := boundary.MaxwellSpaces(icosphere(t, 0))
	const k = complex(1.3, 0)

	mt, err := boundary.Multitrace(sp, k, boundary.EpsilonR(4))
	require.NoError(t, err)
	e, err := boundary.ElectricField(sp.Domain, sp.Range, sp.Dual, k)
	require.NoError(t, err)
	m, err := boundary.MagneticField(sp.Domain, sp.Range, sp.Dual, k)
	require.NoError(t, err)

	we, wm := weakForm(t, e), weakForm(t, m)
	// ρ = √εr/√μr = 2
	assertScaled(t, wm, weakForm(t, mt.Block(0, 0)), 1, 1e-12)
	assertScaled(t, we, weakForm(t, mt.Block(0, 1)), 0.5, 1e-12)
	assertScaled(t, we, weakForm(t, mt.Block(1, 0)), -2, 1e-12)
	assertScaled(t, wm, weakForm(t, mt.Block(1, 1)), 1, 1e-12)

	for j, d := range mt.DomainSpaces() {
		assert.True(t, space.Same(sp.Domain, d), "column %d", j)
	}
	for i, d := range mt.DualToRangeSpaces() {
		assert.True(t, space.Same(sp.Dual, d), "row %d", i)
	}
}

func TestMultitraceTarget(t *testing.T) {
	g0 := icosphere(t, 0)
	g1, err := grid.SphereRefined(0.5, utils.Vec3{3, 0, 0}, 0)
	require.NoError(t, err)
	s0, s1 := boundary.MaxwellSpaces(g0), boundary.MaxwellSpaces(g1)

	a10, err := boundary.Multitrace(s0, 1, boundary.Target(s1))
	require.NoError(t, err)
	assert.True(t, space.Same(s0.Domain, a10.DomainSpaces()[0]))
	assert.True(t, space.Same(s1.Range, a10.RangeSpaces()[0]))
	assert.True(t, space.Same(s1.Dual, a10.DualToRangeSpaces()[1]))

	w, err := a10.WeakForm()
	require.NoError(t, err)
	r, c := w.Dims()
	assert.Equal(t, 2*s1.Dual.GlobalDofCount(), r)
	assert.Equal(t, 2*s0.Domain.GlobalDofCount(), c)

	// well separated surfaces interact weakly but not trivially
	var largest float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			largest = math.Max(largest, cmplx.Abs(w.At(i, j)))
		}
	}
	assert.Greater(t, largest, 0.)
	assert.False(t, cmplx.IsNaN(w.At(0, 0)))
}

func TestMaxwellAssemblyWorkers(t *testing.T) {
	sp := boundary.MaxwellSpaces(icosphere(t, 1))
	serial := operators.DefaultParameters()
	serial.Workers = 1

	for _, build := range []func(domain, rng, dual space.Space, k complex128, opts ...operators.Option) (*assembly.ElementaryOperator, error){
		boundary.ElectricField, boundary.MagneticField,
	} {
		a, err := build(sp.Domain, sp.Range, sp.Dual, 2, operators.WithParameters(serial))
		require.NoError(t, err)
		b, err := build(sp.Domain, sp.Range, sp.Dual, 2)
		require.NoError(t, err)
		assert.True(t, mat.CEqual(weakForm(t, a), weakForm(t, b)))
		assert.Equal(t, assembly.Assembled, a.State())
	}
}

func TestMaxwellSinglePrecision(t *testing.T) {
	sp := boundary.MaxwellSpaces(icosphere(t, 0))
	double, err := boundary.ElectricField(sp.Domain, sp.Range, sp.Dual, 1.5)
	require.NoError(t, err)
	single, err := boundary.ElectricField(sp.Domain, sp.Range, sp.Dual, 1.5,
		operators.WithPrecision(operators.PrecisionSingle))
	require.NoError(t, err)
	assertScaled(t, weakForm(t, double), weakForm(t, single), 1, 1e-6)
}

func TestIdentity(t *testing.T) {
	g := icosphere(t, 1)
	dp0 := space.NewDP0(g)
	id, err := boundary.Identity(dp0, dp0, dp0)
	require.NoError(t, err)
	csr, err := id.Sparse()
	require.NoError(t, err)
	r, c := csr.Dims()
	require.Equal(t, g.NumElements(), r)
	require.Equal(t, g.NumElements(), c)
	assert.Equal(t, g.NumElements(), csr.NNZ())
	for e := 0; e < g.NumElements(); e++ {
		assert.InDelta(t, g.Area(e), csr.At(e, e), 1e-14)
	}

	// the RWG Gram matrix is symmetric with a positive diagonal
	rwg := space.NewRWG(g)
	rid, err := boundary.Identity(rwg, rwg, rwg)
	require.NoError(t, err)
	w := weakForm(t, rid)
	n, _ := w.Dims()
	for i := 0; i < n; i++ {
		assert.Greater(t, real(w.At(i, i)), 0.)
		for j := 0; j < i; j++ {
			assert.InDelta(t, 0, cmplx.Abs(w.At(i, j)-w.At(j, i)), 1e-14)
		}
	}

	mi, err := boundary.MultitraceIdentity(boundary.MaxwellSpaces(g))
	require.NoError(t, err)
	rows, cols := mi.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Nil(t, mi.Block(0, 1))
	assert.Nil(t, mi.Block(1, 0))
}
