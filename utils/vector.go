package utils

import (
	"math"
	"math/cmplx"
)

// Vec3 is a point or direction in physical space
type Vec3 [3]float64

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }

func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func (a Vec3) Scale(s float64) Vec3 { return Vec3{s * a[0], s * a[1], s * a[2]} }

func (a Vec3) Dot(b Vec3) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a Vec3) Norm() float64 { return math.Sqrt(a.Dot(a)) }

// Unit returns a/|a|, or the zero vector when |a| == 0
func (a Vec3) Unit() Vec3 {
	n := a.Norm()
	if n == 0 {
		return Vec3{}
	}
	return a.Scale(1 / n)
}

func (a Vec3) IsFinite() bool {
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Complex promotes a to a complex vector
func (a Vec3) Complex() CVec3 { return CVec3{complex(a[0], 0), complex(a[1], 0), complex(a[2], 0)} }

// CVec3 is a complex valued vector field sample
type CVec3 [3]complex128

func (a CVec3) Add(b CVec3) CVec3 { return CVec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }

func (a CVec3) Scale(s complex128) CVec3 { return CVec3{s * a[0], s * a[1], s * a[2]} }

// DotReal returns Σ a_i b_i with a real right operand
func (a CVec3) DotReal(b Vec3) complex128 {
	return a[0]*complex(b[0], 0) + a[1]*complex(b[1], 0) + a[2]*complex(b[2], 0)
}

// CrossReal returns a × b with a real right operand
func (a CVec3) CrossReal(b Vec3) CVec3 {
	b0, b1, b2 := complex(b[0], 0), complex(b[1], 0), complex(b[2], 0)
	return CVec3{
		a[1]*b2 - a[2]*b1,
		a[2]*b0 - a[0]*b2,
		a[0]*b1 - a[1]*b0,
	}
}

// Norm2 returns Σ|a_i|²
func (a CVec3) Norm2() float64 {
	var s float64
	for _, v := range a {
		av := cmplx.Abs(v)
		s += av * av
	}
	return s
}
