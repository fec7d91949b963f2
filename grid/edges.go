package grid

import (
	"fmt"
)

// Edge is an undirected edge of the surface triangulation
type Edge struct {
	V0, V1 int // V0 < V1
	// Elements sharing this edge; Elements[1] is -1 for a boundary edge
	Elements [2]int
	// Local edge number within each element, local edge j is opposite local vertex j
	LocalIndex [2]int
}

func (e Edge) IsBoundary() bool { return e.Elements[1] < 0 }

// EdgeConnectivity maps elements to edges and edges to elements
type EdgeConnectivity struct {
	Edges []Edge
	// EToEdge[k][j] is the global edge opposite local vertex j of element k
	EToEdge [][3]int
}

type edgeKey struct{ a, b int }

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// NewEdgeConnectivity builds the edge list from triangle connectivity.
// Edges shared by more than two triangles are rejected.
func NewEdgeConnectivity(elements [][3]int, numVertices int) (*EdgeConnectivity, error) {
	if numVertices <= 0 {
		return nil, fmt.Errorf("invalid vertex count %d", numVertices)
	}

	ec := &EdgeConnectivity{
		Edges:   make([]Edge, 0, 3*len(elements)/2+1),
		EToEdge: make([][3]int, len(elements)),
	}
	lookup := make(map[edgeKey]int, 3*len(elements)/2+1)

	for k, el := range elements {
		for j := 0; j < 3; j++ {
			key := newEdgeKey(el[(j+1)%3], el[(j+2)%3])
			idx, found := lookup[key]
			if !found {
				idx = len(ec.Edges)
				lookup[key] = idx
				ec.Edges = append(ec.Edges, Edge{
					V0:         key.a,
					V1:         key.b,
					Elements:   [2]int{k, -1},
					LocalIndex: [2]int{j, -1},
				})
			} else {
				edge := &ec.Edges[idx]
				if edge.Elements[1] >= 0 {
					return nil, fmt.Errorf("edge (%d,%d) is shared by more than two elements",
						key.a, key.b)
				}
				edge.Elements[1] = k
				edge.LocalIndex[1] = j
			}
			ec.EToEdge[k][j] = idx
		}
	}

	return ec, nil
}

func (ec *EdgeConnectivity) NumEdges() int { return len(ec.Edges) }

// InteriorEdges returns the indices of edges shared by two elements
func (ec *EdgeConnectivity) InteriorEdges() []int {
	interior := make([]int, 0, len(ec.Edges))
	for i, e := range ec.Edges {
		if !e.IsBoundary() {
			interior = append(interior, i)
		}
	}
	return interior
}

// Verify checks that every element references three distinct edges and that
// every edge points back at the elements that reference it
func (ec *EdgeConnectivity) Verify() error {
	for k, edges := range ec.EToEdge {
		if edges[0] == edges[1] || edges[1] == edges[2] || edges[0] == edges[2] {
			return fmt.Errorf("element %d has repeated edges %v", k, edges)
		}
		for j, idx := range edges {
			e := ec.Edges[idx]
			switch {
			case e.Elements[0] == k && e.LocalIndex[0] == j:
			case e.Elements[1] == k && e.LocalIndex[1] == j:
			default:
				return fmt.Errorf("edge %d does not reference element %d local edge %d", idx, k, j)
			}
		}
	}
	return nil
}
