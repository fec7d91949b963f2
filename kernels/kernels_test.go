package kernels

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/notargets/BEMKernel/quadrature"
	"github.com/notargets/BEMKernel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestTagsRoundTrip(t *testing.T) {
	for k, tag := range kernelTags {
		got, err := ParseKernelType(tag)
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.Equal(t, tag, k.String())
	}
	for a, tag := range assemblyTags {
		got, err := ParseAssemblyType(tag)
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := ParseKernelType("yukawa")
	assert.Error(t, err)
	_, err = ParseAssemblyType("")
	assert.Error(t, err)
	assert.False(t, KernelType(0).Valid())
}

func TestCompatibility(t *testing.T) {
	assert.True(t, Compatible(HelmholtzSingleLayer, MaxwellElectricField))
	assert.True(t, Compatible(HelmholtzSingleLayer, MaxwellMagneticField))
	assert.False(t, Compatible(LaplaceSingleLayer, MaxwellElectricField))
	assert.True(t, Compatible(HelmholtzFarField, MaxwellElectricFarField))
	assert.True(t, Compatible(L2Identity, DefaultSparse))
	assert.False(t, Compatible(L2Identity, DefaultScalar))
	assert.Equal(t, 3, MaxwellMagneticField.Dimension())
	assert.Equal(t, 1, DefaultScalar.Dimension())
}

func TestGreensFunctions(t *testing.T) {
	k := complex(2., .1)
	r := .7
	g, dgdr := Helmholtz(k, r)
	assert.InDelta(t, 0, cmplx.Abs(g-cmplx.Exp(1i*k*complex(r, 0))/complex(4*math.Pi*r, 0)), 1e-15)

	// central difference check of the radial derivative
	h := 1e-6
	gp, _ := Helmholtz(k, r+h)
	gm, _ := Helmholtz(k, r-h)
	assert.InDelta(t, 0, cmplx.Abs(dgdr-(gp-gm)/complex(2*h, 0)), 1e-7)

	// the regular part continues smoothly through the series switch
	for _, rr := range []float64{1e-6, 1e-5, 1e-3, .5} {
		want := g0(k, rr)
		assert.InDelta(t, 0, cmplx.Abs(HelmholtzRegular(k, rr)-want), 1e-9, "r=%g", rr)
	}
	assert.InDelta(t, 0, cmplx.Abs(HelmholtzRegular(k, 0)-1i*k/complex(4*math.Pi, 0)), 1e-15)

	lg, ldg := Laplace(2)
	assert.InDelta(t, 1/(8*math.Pi), lg, 1e-15)
	assert.InDelta(t, -1/(16*math.Pi), ldg, 1e-15)
}

// g0 evaluates (e^{ikr}-1)/(4πr) in extended form for reference
func g0(k complex128, r float64) complex128 {
	var sum, term complex128 = 0, 1
	z := 1i * k * complex(r, 0)
	for n := 1; n < 30; n++ {
		term *= z / complex(float64(n), 0)
		sum += term
	}
	return sum / complex(4*math.Pi*r, 0)
}

func triangleQuad(t *testing.T, corners [3]utils.Vec3, order int, f func(y utils.Vec3) float64) float64 {
	rule, err := quadrature.Triangle(order)
	require.NoError(t, err)
	area2 := corners[1].Sub(corners[0]).Cross(corners[2].Sub(corners[0])).Norm()
	var sum float64
	for q, p := range rule.Points {
		y := corners[0].Scale(1 - p[0] - p[1]).Add(corners[1].Scale(p[0])).Add(corners[2].Scale(p[1]))
		sum += rule.Weights[q] * area2 * f(y)
	}
	return sum
}

func TestStaticIntegrals(t *testing.T) {
	corners := [3]utils.Vec3{{0, 0, 0}, {1, 0, 0}, {0.2, 0.9, 0}}
	n := utils.Vec3{0, 0, 1}

	targets := []utils.Vec3{
		{0.3, 0.3, 0.6},  // above
		{0.3, 0.3, -0.4}, // below
		{1.5, 1.2, 0},    // in plane, outside
		{-0.5, 0.2, 0.3}, // off to the side
	}
	for _, x := range targets {
		I, Irho, rho := StaticIntegrals(x, corners, n)
		want := triangleQuad(t, corners, 40, func(y utils.Vec3) float64 { return 1 / x.Sub(y).Norm() })
		assert.InDelta(t, want, I, 1e-8, "I at %v", x)
		for c := 0; c < 3; c++ {
			wantC := triangleQuad(t, corners, 40, func(y utils.Vec3) float64 {
				return (y[c] - rho[c]) / x.Sub(y).Norm()
			})
			assert.InDelta(t, wantC, Irho[c], 1e-8, "Irho[%d] at %v", c, x)
		}
	}
}

func TestStaticIntegralsContinuity(t *testing.T) {
	corners := [3]utils.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	n := utils.Vec3{0, 0, 1}
	in := utils.Vec3{0.25, 0.3, 0}

	I0, Irho0, _ := StaticIntegrals(in, corners, n)
	I1, Irho1, _ := StaticIntegrals(in.Add(utils.Vec3{0, 0, 1e-7}), corners, n)
	assert.Greater(t, I0, 0.)
	assert.InDelta(t, I0, I1, 1e-5)
	assert.InDelta(t, 0, Irho0.Sub(Irho1).Norm(), 1e-5)

	// in-plane Irho has no normal component
	assert.InDelta(t, 0, Irho0[2], 1e-14)
}

func TestEvaluateRangeLaplace(t *testing.T) {
	// a single unit-weight point source at the origin
	job := &PotentialJob{
		Kernel:      LaplaceSingleLayer,
		Assembly:    DefaultScalar,
		Dim:         1,
		NumDofs:     1,
		Points:      []float64{2, 0, 0, 0, 4, 0},
		Sources3:    []float64{0, 0, 0},
		Normals3:    []float64{0, 0, 1},
		Basis3:      []float64{1, 0, 0},
		Divergences: []float64{0},
		Weights:     []float64{1},
		Dofs:        []int{0},
	}
	require.NoError(t, job.Validate())
	out := mat.NewCDense(job.Rows(), job.NumDofs, nil)
	job.EvaluateRange(out, 0, job.NumPoints())
	assert.InDelta(t, 1/(8*math.Pi), real(out.At(0, 0)), 1e-15)
	assert.InDelta(t, 1/(16*math.Pi), real(out.At(1, 0)), 1e-15)

	job.Dofs[0] = 3
	assert.Error(t, job.Validate())
	job.Dofs[0] = 0
	job.Assembly = MaxwellElectricField
	assert.Error(t, job.Validate())
}
