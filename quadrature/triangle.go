package quadrature

import (
	"fmt"
	"sync"
)

// TriangleRule integrates over the reference triangle {s,t >= 0, s+t <= 1}.
// Weights sum to the reference area 1/2.
type TriangleRule struct {
	Order   int          // polynomial degree integrated exactly
	Points  [][2]float64 // (s,t) reference coordinates
	Weights []float64
}

func (r *TriangleRule) NumPoints() int { return len(r.Weights) }

var (
	rulesMu sync.Mutex
	rules   = make(map[int]*TriangleRule)
)

// Triangle returns a collapsed-coordinate Gauss rule exact for polynomials of
// total degree <= order. Rules are cached and must be treated as read-only.
func Triangle(order int) (*TriangleRule, error) {
	if order < 0 || order > 40 {
		return nil, fmt.Errorf("quadrature: triangle order %d outside [0,40]", order)
	}

	rulesMu.Lock()
	defer rulesMu.Unlock()
	if r, ok := rules[order]; ok {
		return r, nil
	}
	r := newTriangleRule(order)
	rules[order] = r
	return r, nil
}

// newTriangleRule maps the square [-1,1]² onto the triangle with
// s = (1+u)/2, t = (1-s)(1+v)/2, so dA = (1-u)/8 du dv. The (1-u) factor is
// absorbed by a Gauss-Jacobi(1,0) rule in u.
func newTriangleRule(order int) *TriangleRule {
	n := (order + 2) / 2 // points per direction, exact to degree 2n-1
	if n < 1 {
		n = 1
	}
	u, wu := JacobiGQ(1, 0, n-1)
	v, wv := JacobiGQ(0, 0, n-1)

	r := &TriangleRule{
		Order:   order,
		Points:  make([][2]float64, 0, n*n),
		Weights: make([]float64, 0, n*n),
	}
	for i := range u {
		s := (1 + u[i]) / 2
		for j := range v {
			t := (1 - s) * (1 + v[j]) / 2
			r.Points = append(r.Points, [2]float64{s, t})
			r.Weights = append(r.Weights, wu[i]*wv[j]/8)
		}
	}
	return r
}
