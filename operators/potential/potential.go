// Package potential builds potential operators that evaluate fields
// generated by boundary densities at points away from the surface.
package potential

import (
	"github.com/notargets/BEMKernel/assembly"
	"github.com/notargets/BEMKernel/kernels"
	"github.com/notargets/BEMKernel/operators"
	"github.com/notargets/BEMKernel/space"
	"gonum.org/v1/gonum/mat"
)

// ElectricField is the Maxwell electric potential
// ik∫G φ - (1/ik)∇∫G div φ of an RWG density, evaluated at the columns of points
func ElectricField(sp space.Space, points *mat.Dense, k complex128, opts ...operators.Option) (*assembly.PotentialOperator, error) {
	return build(sp, points, "maxwell_electric_field_potential", []float64{real(k), imag(k)},
		kernels.HelmholtzSingleLayer, kernels.MaxwellElectricField, opts)
}

// MagneticField is the Maxwell magnetic potential ∫∇G × φ of an RWG density
func MagneticField(sp space.Space, points *mat.Dense, k complex128, opts ...operators.Option) (*assembly.PotentialOperator, error) {
	return build(sp, points, "maxwell_magnetic_field_potential", []float64{real(k), imag(k)},
		kernels.HelmholtzSingleLayer, kernels.MaxwellMagneticField, opts)
}

func HelmholtzSingleLayer(sp space.Space, points *mat.Dense, k complex128, opts ...operators.Option) (*assembly.PotentialOperator, error) {
	return build(sp, points, "helmholtz_single_layer_potential", []float64{real(k), imag(k)},
		kernels.HelmholtzSingleLayer, kernels.DefaultScalar, opts)
}

func HelmholtzDoubleLayer(sp space.Space, points *mat.Dense, k complex128, opts ...operators.Option) (*assembly.PotentialOperator, error) {
	return build(sp, points, "helmholtz_double_layer_potential", []float64{real(k), imag(k)},
		kernels.HelmholtzDoubleLayer, kernels.DefaultScalar, opts)
}

func LaplaceSingleLayer(sp space.Space, points *mat.Dense, opts ...operators.Option) (*assembly.PotentialOperator, error) {
	return build(sp, points, "laplace_single_layer_potential", nil,
		kernels.LaplaceSingleLayer, kernels.DefaultScalar, opts)
}

func LaplaceDoubleLayer(sp space.Space, points *mat.Dense, opts ...operators.Option) (*assembly.PotentialOperator, error) {
	return build(sp, points, "laplace_double_layer_potential", nil,
		kernels.LaplaceDoubleLayer, kernels.DefaultScalar, opts)
}

func build(sp space.Space, points *mat.Dense, identifier string, options []float64,
	kernel kernels.KernelType, assemblyType kernels.AssemblyType, opts []operators.Option) (*assembly.PotentialOperator, error) {

	o, err := operators.NewOptions(opts...)
	if err != nil {
		return nil, err
	}
	d, err := operators.NewDescriptor(identifier, options, kernel, assemblyType, o.Precision,
		kernel.IsComplex(), nil, assemblyType.Dimension())
	if err != nil {
		return nil, err
	}
	a, err := assembly.NewPotentialAssembler(sp, points, d, o)
	if err != nil {
		return nil, err
	}
	return assembly.NewPotentialOperator(a), nil
}
