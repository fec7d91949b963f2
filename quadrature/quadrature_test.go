package quadrature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factorial(n int) float64 {
	f := 1.
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

func TestJacobiGQ(t *testing.T) {
	// Gauss-Legendre, 3 points: exact through degree 5
	x, w := JacobiGQ(0, 0, 2)
	require.Len(t, x, 3)
	assert.InDelta(t, -math.Sqrt(3./5.), x[0], 1e-14)
	assert.InDelta(t, 0, x[1], 1e-14)
	assert.InDelta(t, 5./9., w[0], 1e-14)
	assert.InDelta(t, 8./9., w[1], 1e-14)

	// Gauss-Jacobi(1,0): Σw = ∫(1-x) = 2, Σw x = ∫(1-x)x = -2/3
	x, w = JacobiGQ(1, 0, 3)
	var s0, s1 float64
	for i := range x {
		s0 += w[i]
		s1 += w[i] * x[i]
	}
	assert.InDelta(t, 2., s0, 1e-13)
	assert.InDelta(t, -2./3., s1, 1e-13)

	x, w = JacobiGQ(1, 0, 0)
	assert.InDelta(t, -1./3., x[0], 1e-15)
	assert.InDelta(t, 2., w[0], 1e-15)
}

func TestTriangleExactness(t *testing.T) {
	for _, order := range []int{0, 1, 2, 4, 6, 9} {
		rule, err := Triangle(order)
		require.NoError(t, err)

		// ∫_T s^a t^b = a! b! / (a+b+2)!
		for a := 0; a <= order; a++ {
			for b := 0; a+b <= order; b++ {
				var sum float64
				for q, p := range rule.Points {
					sum += rule.Weights[q] * math.Pow(p[0], float64(a)) * math.Pow(p[1], float64(b))
				}
				exact := factorial(a) * factorial(b) / factorial(a+b+2)
				assert.InDelta(t, exact, sum, 1e-13, "order %d monomial s^%d t^%d", order, a, b)
			}
		}
		for _, p := range rule.Points {
			assert.True(t, p[0] >= 0 && p[1] >= 0 && p[0]+p[1] <= 1)
		}
	}
}

func TestTriangleCache(t *testing.T) {
	r1, err := Triangle(4)
	require.NoError(t, err)
	r2, err := Triangle(4)
	require.NoError(t, err)
	assert.Same(t, r1, r2)

	_, err = Triangle(-1)
	assert.Error(t, err)
}
