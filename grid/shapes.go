package grid

import (
	"fmt"
	"math"

	"github.com/notargets/BEMKernel/utils"
	"gonum.org/v1/gonum/mat"
)

// icosahedronEdge is the edge length of the unit-radius icosahedron
var icosahedronEdge = 4 / math.Sqrt(10+2*math.Sqrt(5))

// Sphere returns a sphere of radius r centred at origin whose element edge
// length does not exceed h. The triangulation is a refined icosahedron.
func Sphere(r float64, origin utils.Vec3, h float64) (*Grid, error) {
	if r <= 0 || h <= 0 {
		return nil, fmt.Errorf("grid: sphere needs r > 0 and h > 0, got r=%g h=%g", r, h)
	}
	levels := 0
	for edge := r * icosahedronEdge; edge > h; edge /= 2 {
		levels++
	}
	return SphereRefined(r, origin, levels)
}

// SphereRefined returns an icosahedron refined levels times and projected onto
// the sphere of radius r centred at origin
func SphereRefined(r float64, origin utils.Vec3, levels int) (*Grid, error) {
	if levels < 0 || levels > 7 {
		return nil, fmt.Errorf("grid: refinement level %d outside [0,7]", levels)
	}

	verts, tris := icosahedron()
	for l := 0; l < levels; l++ {
		verts, tris = refine(verts, tris)
	}

	V := mat.NewDense(3, len(verts), nil)
	for i, v := range verts {
		p := v.Unit().Scale(r).Add(origin)
		V.Set(0, i, p[0])
		V.Set(1, i, p[1])
		V.Set(2, i, p[2])
	}

	// Orient every element so the normal points away from the centre
	for k, t := range tris {
		a, b, c := verts[t[0]], verts[t[1]], verts[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Dot(a.Add(b).Add(c)) < 0 {
			tris[k] = [3]int{t[0], t[2], t[1]}
		}
	}

	return NewGrid(V, tris, nil)
}

func icosahedron() ([]utils.Vec3, [][3]int) {
	p := (1 + math.Sqrt(5)) / 2
	verts := []utils.Vec3{
		{-1, p, 0}, {1, p, 0}, {-1, -p, 0}, {1, -p, 0},
		{0, -1, p}, {0, 1, p}, {0, -1, -p}, {0, 1, -p},
		{p, 0, -1}, {p, 0, 1}, {-p, 0, -1}, {-p, 0, 1},
	}
	for i := range verts {
		verts[i] = verts[i].Unit()
	}
	tris := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	return verts, tris
}

// refine splits every triangle into four, projecting new midpoints to the unit sphere
func refine(verts []utils.Vec3, tris [][3]int) ([]utils.Vec3, [][3]int) {
	mid := make(map[edgeKey]int, 3*len(tris)/2)
	midpoint := func(a, b int) int {
		key := newEdgeKey(a, b)
		if idx, ok := mid[key]; ok {
			return idx
		}
		idx := len(verts)
		verts = append(verts, verts[a].Add(verts[b]).Unit())
		mid[key] = idx
		return idx
	}

	out := make([][3]int, 0, 4*len(tris))
	for _, t := range tris {
		ab := midpoint(t[0], t[1])
		bc := midpoint(t[1], t[2])
		ca := midpoint(t[2], t[0])
		out = append(out,
			[3]int{t[0], ab, ca},
			[3]int{t[1], bc, ab},
			[3]int{t[2], ca, bc},
			[3]int{ab, bc, ca},
		)
	}
	return verts, out
}

// Union merges grids into a single grid, tagging elements of grids[i] with
// domain index i
func Union(grids ...*Grid) (*Grid, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("grid: union of zero grids")
	}
	var (
		nv, ne int
	)
	for _, g := range grids {
		nv += g.NumVertices()
		ne += g.NumElements()
	}
	V := mat.NewDense(3, nv, nil)
	elements := make([][3]int, 0, ne)
	domains := make([]int, 0, ne)

	offset := 0
	for i, g := range grids {
		n := g.NumVertices()
		V.Slice(0, 3, offset, offset+n).(*mat.Dense).Copy(g.Vertices)
		for _, el := range g.Elements {
			elements = append(elements, [3]int{el[0] + offset, el[1] + offset, el[2] + offset})
			domains = append(domains, i)
		}
		offset += n
	}
	return NewGrid(V, elements, domains)
}
