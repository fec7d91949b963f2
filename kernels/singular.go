package kernels

import (
	"math"

	"github.com/notargets/BEMKernel/utils"
)

// StaticIntegrals evaluates in closed form, for a target x and a flat triangle
// T with counter-clockwise corners about the unit normal n,
//
//	I    = ∫_T 1/|x-y| dy
//	Irho = ∫_T (y-ρ)/|x-y| dy
//
// where ρ is the projection of x onto the plane of T. Then
// ∫_T y/|x-y| dy = Irho + ρ I. Both integrals are finite for x on T.
func StaticIntegrals(x utils.Vec3, corners [3]utils.Vec3, n utils.Vec3) (I float64, Irho, rho utils.Vec3) {
	h := x.Sub(corners[0]).Dot(n)
	rho = x.Sub(n.Scale(h))
	absH := math.Abs(h)

	scale := corners[1].Sub(corners[0]).Norm()
	eps := 1e-12 * scale

	for i := 0; i < 3; i++ {
		a, b := corners[i], corners[(i+1)%3]
		edge := b.Sub(a)
		lHat := edge.Unit()
		uHat := lHat.Cross(n)

		lPlus := b.Sub(rho).Dot(lHat)
		lMinus := a.Sub(rho).Dot(lHat)
		p0 := a.Sub(rho).Dot(uHat)
		r02 := p0*p0 + h*h
		rPlus := b.Sub(x).Norm()
		rMinus := a.Sub(x).Norm()

		var f float64
		if math.Sqrt(r02) > eps {
			f = math.Log((rPlus + lPlus) / (rMinus + lMinus))
		}

		I += p0 * f
		if math.Abs(p0) > eps {
			I -= absH * (math.Atan(p0*lPlus/(r02+absH*rPlus)) -
				math.Atan(p0*lMinus/(r02+absH*rMinus)))
		}
		Irho = Irho.Add(uHat.Scale(0.5 * (r02*f + lPlus*rPlus - lMinus*rMinus)))
	}
	return
}
