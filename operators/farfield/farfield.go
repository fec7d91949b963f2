// Package farfield builds Maxwell far-field operators. Evaluation points are
// unit observation directions d; the returned pattern omits the e^{ikr}/r
// factor.
package farfield

import (
	"fmt"
	"math"

	"github.com/notargets/BEMKernel/assembly"
	"github.com/notargets/BEMKernel/kernels"
	"github.com/notargets/BEMKernel/operators"
	"github.com/notargets/BEMKernel/space"
	"gonum.org/v1/gonum/mat"
)

// directionTolerance bounds | |d| - 1 | for observation directions
const directionTolerance = 1e-8

// ElectricField is the far-field pattern of the electric potential
func ElectricField(sp space.Space, directions *mat.Dense, k complex128, opts ...operators.Option) (*assembly.PotentialOperator, error) {
	return build(sp, directions, "maxwell_electric_far_field", k, kernels.MaxwellElectricFarField, opts)
}

// MagneticField is the far-field pattern of the magnetic potential
func MagneticField(sp space.Space, directions *mat.Dense, k complex128, opts ...operators.Option) (*assembly.PotentialOperator, error) {
	return build(sp, directions, "maxwell_magnetic_far_field", k, kernels.MaxwellMagneticFarField, opts)
}

// Directions returns n unit vectors in the plane z = 0 at angles
// θᵢ = i·π/(n-1), pointing along (-cos θ, -sin θ, 0)
func Directions(n int) *mat.Dense {
	d := mat.NewDense(3, n, nil)
	for i := 0; i < n; i++ {
		theta := 0.
		if n > 1 {
			theta = math.Pi * float64(i) / float64(n-1)
		}
		d.Set(0, i, -math.Cos(theta))
		d.Set(1, i, -math.Sin(theta))
	}
	return d
}

func build(sp space.Space, directions *mat.Dense, identifier string, k complex128,
	assemblyType kernels.AssemblyType, opts []operators.Option) (*assembly.PotentialOperator, error) {

	if err := operators.ValidatePoints(directions); err != nil {
		return nil, err
	}
	_, n := directions.Dims()
	for j := 0; j < n; j++ {
		norm := mat.Norm(directions.ColView(j), 2)
		if math.Abs(norm-1) > directionTolerance {
			return nil, fmt.Errorf("%w: direction %d has length %g",
				operators.ErrInvalidConfiguration, j, norm)
		}
	}
	o, err := operators.NewOptions(opts...)
	if err != nil {
		return nil, err
	}
	d, err := operators.NewDescriptor(identifier, []float64{real(k), imag(k)},
		kernels.HelmholtzFarField, assemblyType, o.Precision, true, nil, 3)
	if err != nil {
		return nil, err
	}
	a, err := assembly.NewPotentialAssembler(sp, directions, d, o)
	if err != nil {
		return nil, err
	}
	return assembly.NewPotentialOperator(a), nil
}
