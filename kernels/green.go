package kernels

import (
	"math"
	"math/cmplx"
)

const inv4Pi = 1 / (4 * math.Pi)

// Helmholtz returns G = e^{ikr}/(4πr) and dG/dr = G (ik - 1/r)
func Helmholtz(k complex128, r float64) (g, dgdr complex128) {
	ik := 1i * k
	g = cmplx.Exp(ik*complex(r, 0)) * complex(inv4Pi/r, 0)
	dgdr = g * (ik - complex(1/r, 0))
	return
}

// Laplace returns G = 1/(4πr) and dG/dr = -G/r
func Laplace(r float64) (g, dgdr float64) {
	g = inv4Pi / r
	dgdr = -g / r
	return
}

// HelmholtzFarFieldKernel returns e^{-ik d·y}/(4π) for unit direction d
func HelmholtzFarFieldKernel(k complex128, dDotY float64) complex128 {
	return cmplx.Exp(-1i*k*complex(dDotY, 0)) * complex(inv4Pi, 0)
}

// HelmholtzRegular returns (e^{ikr}-1)/(4πr), the Helmholtz kernel with its
// static singularity removed, continuous at r = 0 with limit ik/(4π)
func HelmholtzRegular(k complex128, r float64) complex128 {
	z := 1i * k * complex(r, 0)
	if cmplx.Abs(z) < 1e-4 {
		// e^z - 1 = z (1 + z/2 + z²/6 + ...)
		return 1i * k * (1 + z/2 + z*z/6) * complex(inv4Pi, 0)
	}
	return (cmplx.Exp(z) - 1) * complex(inv4Pi/r, 0)
}
