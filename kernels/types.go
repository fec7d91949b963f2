package kernels

import (
	"fmt"
)

// KernelType names the Green's function family an operator integrates
type KernelType uint8

const (
	LaplaceSingleLayer KernelType = iota + 1
	LaplaceDoubleLayer
	HelmholtzSingleLayer
	HelmholtzDoubleLayer
	HelmholtzFarField
	L2Identity
)

var kernelTags = map[KernelType]string{
	LaplaceSingleLayer:   "laplace_single_layer",
	LaplaceDoubleLayer:   "laplace_double_layer",
	HelmholtzSingleLayer: "helmholtz_single_layer",
	HelmholtzDoubleLayer: "helmholtz_double_layer",
	HelmholtzFarField:    "helmholtz_far_field",
	L2Identity:           "l2_identity",
}

func (k KernelType) String() string {
	if tag, ok := kernelTags[k]; ok {
		return tag
	}
	return fmt.Sprintf("KernelType(%d)", uint8(k))
}

func (k KernelType) Valid() bool {
	_, ok := kernelTags[k]
	return ok
}

// IsComplex reports whether the kernel depends on a complex wavenumber
func (k KernelType) IsComplex() bool {
	return k == HelmholtzSingleLayer || k == HelmholtzDoubleLayer || k == HelmholtzFarField
}

// ParseKernelType resolves a kernel tag such as "helmholtz_single_layer"
func ParseKernelType(tag string) (KernelType, error) {
	for k, t := range kernelTags {
		if t == tag {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kernel type %q", tag)
}

// AssemblyType names the post-processing applied to the kernel, distinguishing
// operators that share a Green's function
type AssemblyType uint8

const (
	DefaultScalar AssemblyType = iota + 1
	DefaultSparse
	MaxwellElectricField
	MaxwellMagneticField
	MaxwellElectricFarField
	MaxwellMagneticFarField
)

var assemblyTags = map[AssemblyType]string{
	DefaultScalar:           "default_scalar",
	DefaultSparse:           "default_sparse",
	MaxwellElectricField:    "maxwell_electric_field",
	MaxwellMagneticField:    "maxwell_magnetic_field",
	MaxwellElectricFarField: "maxwell_electric_far_field",
	MaxwellMagneticFarField: "maxwell_magnetic_far_field",
}

func (a AssemblyType) String() string {
	if tag, ok := assemblyTags[a]; ok {
		return tag
	}
	return fmt.Sprintf("AssemblyType(%d)", uint8(a))
}

func (a AssemblyType) Valid() bool {
	_, ok := assemblyTags[a]
	return ok
}

// Dimension is the number of field components the assembly produces per point
func (a AssemblyType) Dimension() int {
	switch a {
	case MaxwellElectricField, MaxwellMagneticField,
		MaxwellElectricFarField, MaxwellMagneticFarField:
		return 3
	default:
		return 1
	}
}

// IsMaxwell reports whether the assembly consumes div-conforming vector bases
func (a AssemblyType) IsMaxwell() bool { return a.Dimension() == 3 }

// ParseAssemblyType resolves an assembly tag such as "maxwell_electric_field"
func ParseAssemblyType(tag string) (AssemblyType, error) {
	for a, t := range assemblyTags {
		if t == tag {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown assembly type %q", tag)
}

// Compatible reports whether kernel k can be assembled with assembly type a
func Compatible(k KernelType, a AssemblyType) bool {
	switch a {
	case DefaultScalar:
		return k == LaplaceSingleLayer || k == LaplaceDoubleLayer ||
			k == HelmholtzSingleLayer || k == HelmholtzDoubleLayer
	case DefaultSparse:
		return k == L2Identity
	case MaxwellElectricField, MaxwellMagneticField:
		return k == HelmholtzSingleLayer
	case MaxwellElectricFarField, MaxwellMagneticFarField:
		return k == HelmholtzFarField
	}
	return false
}
