package grid

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/notargets/BEMKernel/utils"
	"gonum.org/v1/gonum/mat"
)

// Grid is a triangulated surface in three dimensions. All per-element
// geometry is computed once at construction and is read-only afterwards,
// so a Grid may be shared by any number of spaces and assemblers.
type Grid struct {
	id uuid.UUID

	// Vertex coordinates, column i holds vertex i [3 × Nv]
	Vertices *mat.Dense
	// Element connectivity, counter-clockwise seen from the outward normal
	Elements [][3]int
	// Domain index per element, passed through to boundary data callbacks
	DomainIndices []int

	normals   []utils.Vec3
	areas     []float64
	diameters []float64
	centroids []utils.Vec3

	edges    *EdgeConnectivity
	vertexTo [][]int // vertex -> elements sharing it
}

// NewGrid validates connectivity and precomputes element geometry.
// vertices must be [3 × Nv]; domainIndices may be nil.
func NewGrid(vertices *mat.Dense, elements [][3]int, domainIndices []int) (*Grid, error) {
	if vertices == nil {
		return nil, fmt.Errorf("grid: vertices cannot be nil")
	}
	r, nv := vertices.Dims()
	if r != 3 {
		return nil, fmt.Errorf("grid: vertices must have 3 rows, got %d", r)
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("grid: at least one element is required")
	}
	if domainIndices != nil && len(domainIndices) != len(elements) {
		return nil, fmt.Errorf("grid: %d domain indices for %d elements",
			len(domainIndices), len(elements))
	}

	g := &Grid{
		id:            uuid.New(),
		Vertices:      mat.DenseCopyOf(vertices),
		Elements:      make([][3]int, len(elements)),
		DomainIndices: make([]int, len(elements)),
		normals:       make([]utils.Vec3, len(elements)),
		areas:         make([]float64, len(elements)),
		diameters:     make([]float64, len(elements)),
		centroids:     make([]utils.Vec3, len(elements)),
		vertexTo:      make([][]int, nv),
	}
	copy(g.Elements, elements)
	if domainIndices != nil {
		copy(g.DomainIndices, domainIndices)
	}

	for e, el := range g.Elements {
		for _, v := range el {
			if v < 0 || v >= nv {
				return nil, fmt.Errorf("grid: element %d references vertex %d outside [0,%d)", e, v, nv)
			}
			g.vertexTo[v] = append(g.vertexTo[v], e)
		}
		c := g.Corners(e)
		cr := c[1].Sub(c[0]).Cross(c[2].Sub(c[0]))
		twiceArea := cr.Norm()
		if twiceArea == 0 || math.IsNaN(twiceArea) {
			return nil, fmt.Errorf("grid: element %d is degenerate", e)
		}
		g.areas[e] = 0.5 * twiceArea
		g.normals[e] = cr.Scale(1 / twiceArea)
		g.centroids[e] = c[0].Add(c[1]).Add(c[2]).Scale(1. / 3.)
		g.diameters[e] = math.Max(c[1].Sub(c[0]).Norm(),
			math.Max(c[2].Sub(c[1]).Norm(), c[0].Sub(c[2]).Norm()))
	}

	edges, err := NewEdgeConnectivity(g.Elements, nv)
	if err != nil {
		return nil, err
	}
	g.edges = edges
	return g, nil
}

// ID identifies the grid; two grids are the same grid iff their IDs match
func (g *Grid) ID() uuid.UUID { return g.id }

func (g *Grid) NumVertices() int {
	_, nv := g.Vertices.Dims()
	return nv
}

func (g *Grid) NumElements() int { return len(g.Elements) }

func (g *Grid) Vertex(i int) utils.Vec3 {
	return utils.Vec3{g.Vertices.At(0, i), g.Vertices.At(1, i), g.Vertices.At(2, i)}
}

// Corners returns the three vertex coordinates of element e
func (g *Grid) Corners(e int) [3]utils.Vec3 {
	el := g.Elements[e]
	return [3]utils.Vec3{g.Vertex(el[0]), g.Vertex(el[1]), g.Vertex(el[2])}
}

func (g *Grid) Normal(e int) utils.Vec3   { return g.normals[e] }
func (g *Grid) Area(e int) float64        { return g.areas[e] }
func (g *Grid) Diameter(e int) float64    { return g.diameters[e] }
func (g *Grid) Centroid(e int) utils.Vec3 { return g.centroids[e] }

// Global maps reference coordinates (s,t) on the unit triangle
// {s,t >= 0, s+t <= 1} of element e to physical space
func (g *Grid) Global(e int, s, t float64) utils.Vec3 {
	c := g.Corners(e)
	return c[0].Scale(1 - s - t).Add(c[1].Scale(s)).Add(c[2].Scale(t))
}

func (g *Grid) Edges() *EdgeConnectivity { return g.edges }

// SharesVertex reports whether elements a and b have at least one common vertex
func (g *Grid) SharesVertex(a, b int) bool {
	for _, va := range g.Elements[a] {
		for _, vb := range g.Elements[b] {
			if va == vb {
				return true
			}
		}
	}
	return false
}

// BoundingBox returns the coordinate-wise minimum and maximum over all vertices
func (g *Grid) BoundingBox() (lo, hi utils.Vec3) {
	for d := 0; d < 3; d++ {
		row := mat.Row(nil, d, g.Vertices)
		lo[d], hi[d] = row[0], row[0]
		for _, v := range row[1:] {
			lo[d] = math.Min(lo[d], v)
			hi[d] = math.Max(hi[d], v)
		}
	}
	return
}

// Disjoint reports whether the bounding boxes of g and other do not overlap
func (g *Grid) Disjoint(other *Grid) bool {
	lo1, hi1 := g.BoundingBox()
	lo2, hi2 := other.BoundingBox()
	for d := 0; d < 3; d++ {
		if hi1[d] < lo2[d] || hi2[d] < lo1[d] {
			return true
		}
	}
	return false
}

func (g *Grid) String() string {
	return fmt.Sprintf("Grid %s: %d vertices, %d elements, %d edges",
		g.id.String()[:8], g.NumVertices(), g.NumElements(), g.edges.NumEdges())
}
