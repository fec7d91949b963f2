package boundary

import (
	"fmt"
	"math/cmplx"

	"github.com/notargets/BEMKernel/assembly"
	"github.com/notargets/BEMKernel/operators"
)

type multitraceConfig struct {
	target   *Spaces
	epsilonR complex128
	muR      complex128
	options  []operators.Option
}

// MultitraceOption configures Multitrace
type MultitraceOption func(*multitraceConfig)

// Target places range and dual spaces on another surface, giving the
// interaction operator from the domain surface to the target surface
func Target(t Spaces) MultitraceOption {
	return func(c *multitraceConfig) { c.target = &t }
}

// EpsilonR sets the relative permittivity of the medium, default 1
func EpsilonR(e complex128) MultitraceOption {
	return func(c *multitraceConfig) { c.epsilonR = e }
}

// MuR sets the relative permeability of the medium, default 1
func MuR(m complex128) MultitraceOption {
	return func(c *multitraceConfig) { c.muR = m }
}

// WithOptions forwards assembly options to every block
func WithOptions(opts ...operators.Option) MultitraceOption {
	return func(c *multitraceConfig) { c.options = append(c.options, opts...) }
}

// Multitrace is the scaled Maxwell multitrace operator
//
//	A = [ M      T/ρ ]
//	    [ -ρT    M   ]
//
// with ρ = √εr/√μr, acting on the pair (γₜE, ρ γ_N E). Both columns use
// sp.Domain; rows use the target's range and dual spaces (sp by default).
// k is the wavenumber of the medium.
func Multitrace(sp Spaces, k complex128, opts ...MultitraceOption) (*assembly.BlockedOperator, error) {
	cfg := multitraceConfig{epsilonR: 1, muR: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.epsilonR == 0 || cfg.muR == 0 {
		return nil, fmt.Errorf("%w: material parameters must be nonzero (εr=%v, μr=%v)",
			operators.ErrInvalidConfiguration, cfg.epsilonR, cfg.muR)
	}
	target := sp
	if cfg.target != nil {
		target = *cfg.target
	}
	rho := cmplx.Sqrt(cfg.epsilonR) / cmplx.Sqrt(cfg.muR)

	magnetic, err := MagneticField(sp.Domain, target.Range, target.Dual, k, cfg.options...)
	if err != nil {
		return nil, err
	}
	electric, err := ElectricField(sp.Domain, target.Range, target.Dual, k, cfg.options...)
	if err != nil {
		return nil, err
	}
	return assembly.NewBlockedOperator([][]assembly.BoundaryOperator{
		{magnetic, assembly.Scale(1/rho, electric)},
		{assembly.Scale(-rho, electric), magnetic},
	})
}
