package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3(t *testing.T) {
	a := Vec3{1, 0, 0}
	b := Vec3{0, 1, 0}

	assert.Equal(t, Vec3{0, 0, 1}, a.Cross(b))
	assert.Equal(t, 0.0, a.Dot(b))
	assert.Equal(t, Vec3{1, -1, 0}, a.Sub(b))
	assert.InDelta(t, math.Sqrt(2), a.Add(b).Norm(), 1e-15)
	assert.Equal(t, Vec3{}, Vec3{}.Unit())
	assert.False(t, Vec3{math.NaN(), 0, 0}.IsFinite())
}

func TestCVec3(t *testing.T) {
	v := CVec3{1i, 0, 0}
	c := v.CrossReal(Vec3{0, 1, 0})
	assert.Equal(t, CVec3{0, 0, 1i}, c)
	assert.Equal(t, 1i, v.DotReal(Vec3{1, 0, 0}))
	assert.InDelta(t, 4.0, v.Scale(2).Norm2(), 1e-15)
}

func TestComplexPromotion(t *testing.T) {
	c := Vec3{1, -2, 3}.Complex()
	assert.Equal(t, CVec3{1, -2, 3}, c)
	assert.Equal(t, complex(14, 0), c.DotReal(Vec3{1, -2, 3}))
}
