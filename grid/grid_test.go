package grid

import (
	"math"
	"testing"

	"github.com/notargets/BEMKernel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSphereTopology(t *testing.T) {
	for levels := 0; levels < 3; levels++ {
		g, err := SphereRefined(1, utils.Vec3{}, levels)
		require.NoError(t, err)

		nElem := 20 * int(math.Pow(4, float64(levels)))
		assert.Equal(t, nElem, g.NumElements())
		// Closed genus-0 surface: V - E + F = 2, every edge interior
		ec := g.Edges()
		assert.Equal(t, 2, g.NumVertices()-ec.NumEdges()+g.NumElements())
		assert.Len(t, ec.InteriorEdges(), ec.NumEdges())
		assert.NoError(t, ec.Verify())
	}
}

func TestSphereGeometry(t *testing.T) {
	origin := utils.Vec3{-1, 0, 0}
	g, err := Sphere(.4, origin, .2)
	require.NoError(t, err)

	var area float64
	for e := 0; e < g.NumElements(); e++ {
		area += g.Area(e)
		// outward normals
		assert.Greater(t, g.Normal(e).Dot(g.Centroid(e).Sub(origin)), 0.)
		assert.LessOrEqual(t, g.Diameter(e), .2+1e-12)
	}
	// inscribed polyhedron area approaches 4πr² from below
	exact := 4 * math.Pi * .4 * .4
	assert.Less(t, area, exact)
	assert.InDelta(t, exact, area, .05*exact)
}

func TestGridValidation(t *testing.T) {
	V := mat.NewDense(3, 3, []float64{
		0, 1, 0,
		0, 0, 1,
		0, 0, 0,
	})
	t.Run("BadRows", func(t *testing.T) {
		_, err := NewGrid(mat.NewDense(2, 3, nil), [][3]int{{0, 1, 2}}, nil)
		assert.Error(t, err)
	})
	t.Run("VertexOutOfRange", func(t *testing.T) {
		_, err := NewGrid(V, [][3]int{{0, 1, 3}}, nil)
		assert.Error(t, err)
	})
	t.Run("Degenerate", func(t *testing.T) {
		_, err := NewGrid(V, [][3]int{{0, 1, 1}}, nil)
		assert.Error(t, err)
	})
	t.Run("SingleTriangle", func(t *testing.T) {
		g, err := NewGrid(V, [][3]int{{0, 1, 2}}, nil)
		require.NoError(t, err)
		assert.InDelta(t, .5, g.Area(0), 1e-15)
		assert.Equal(t, utils.Vec3{0, 0, 1}, g.Normal(0))
		assert.Empty(t, g.Edges().InteriorEdges())
		assert.Equal(t, utils.Vec3{.5, .5, 0}, g.Global(0, .5, .5))
	})
	t.Run("NonManifold", func(t *testing.T) {
		V4 := mat.NewDense(3, 5, []float64{
			0, 1, 0, 0, 1,
			0, 0, 1, -1, 1,
			0, 0, 0, 0, 1,
		})
		_, err := NewGrid(V4, [][3]int{{0, 1, 2}, {1, 0, 3}, {0, 1, 4}}, nil)
		assert.Error(t, err)
	})
}

func TestUnionAndDisjoint(t *testing.T) {
	g0, err := SphereRefined(.4, utils.Vec3{-1, 0, 0}, 1)
	require.NoError(t, err)
	g1, err := SphereRefined(.4, utils.Vec3{1, 0, 0}, 1)
	require.NoError(t, err)

	assert.True(t, g0.Disjoint(g1))
	assert.False(t, g0.Disjoint(g0))
	assert.NotEqual(t, g0.ID(), g1.ID())

	u, err := Union(g0, g1)
	require.NoError(t, err)
	assert.Equal(t, g0.NumElements()+g1.NumElements(), u.NumElements())
	assert.Equal(t, 1, u.DomainIndices[u.NumElements()-1])
	assert.Equal(t, 0, u.DomainIndices[0])
}

func TestColorElements(t *testing.T) {
	g, err := SphereRefined(1, utils.Vec3{}, 2)
	require.NoError(t, err)
	groups := g.ColorElements()
	assert.LessOrEqual(t, len(groups), 4)

	seen := make([]bool, g.NumElements())
	for _, group := range groups {
		edgesInGroup := map[int]bool{}
		for _, e := range group {
			assert.False(t, seen[e])
			seen[e] = true
			for _, idx := range g.Edges().EToEdge[e] {
				assert.False(t, edgesInGroup[idx], "edge %d touched twice in one color", idx)
				edgesInGroup[idx] = true
			}
		}
	}
	for e, ok := range seen {
		assert.True(t, ok, "element %d uncolored", e)
	}
}
