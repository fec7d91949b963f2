package space

import (
	"github.com/google/uuid"
	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/utils"
)

// edgeBasis holds the DOF numbering shared by RWG and SNC spaces. Only
// interior edges carry a DOF; the element listed first on an edge gets the
// positive sign.
type edgeBasis struct {
	grid      *grid.Grid
	edgeToDof []int        // -1 for boundary edges
	signs     [][3]float64 // per element, per local edge
	ndofs     int
}

func newEdgeBasis(g *grid.Grid) edgeBasis {
	ec := g.Edges()
	eb := edgeBasis{
		grid:      g,
		edgeToDof: make([]int, ec.NumEdges()),
		signs:     make([][3]float64, g.NumElements()),
	}
	for i := range eb.edgeToDof {
		eb.edgeToDof[i] = -1
	}
	for _, idx := range ec.InteriorEdges() {
		eb.edgeToDof[idx] = eb.ndofs
		eb.ndofs++
		edge := ec.Edges[idx]
		eb.signs[edge.Elements[0]][edge.LocalIndex[0]] = 1
		eb.signs[edge.Elements[1]][edge.LocalIndex[1]] = -1
	}
	return eb
}

func (eb *edgeBasis) localDof(e, j int) (int, bool) {
	dof := eb.edgeToDof[eb.grid.Edges().EToEdge[e][j]]
	return dof, dof >= 0
}

// rwg evaluates φ(y) = σ l/(2A) (y - v_j), div φ = σ l/A
func (eb *edgeBasis) rwg(e, j int, s, t float64) ShapeValue {
	sign := eb.signs[e][j]
	if sign == 0 {
		return ShapeValue{}
	}
	c := eb.grid.Corners(e)
	l := c[(j+1)%3].Sub(c[(j+2)%3]).Norm()
	area := eb.grid.Area(e)
	y := eb.grid.Global(e, s, t)
	fac := sign * l / (2 * area)
	return ShapeValue{
		Value: y.Sub(c[j]).Scale(fac),
		Div:   2 * fac,
	}
}

// RWGSpace is the lowest order Rao-Wilton-Glisson space
type RWGSpace struct {
	id uuid.UUID
	edgeBasis
}

func NewRWG(g *grid.Grid) *RWGSpace {
	return &RWGSpace{id: uuid.New(), edgeBasis: newEdgeBasis(g)}
}

func (sp *RWGSpace) ID() uuid.UUID                 { return sp.id }
func (sp *RWGSpace) Kind() Kind                    { return RWG }
func (sp *RWGSpace) Grid() *grid.Grid              { return sp.grid }
func (sp *RWGSpace) GlobalDofCount() int           { return sp.ndofs }
func (sp *RWGSpace) LocalSize() int                { return 3 }
func (sp *RWGSpace) Codomain() int                 { return 3 }
func (sp *RWGSpace) LocalDof(e, j int) (int, bool) { return sp.localDof(e, j) }
func (sp *RWGSpace) String() string                { return describe(sp) }

func (sp *RWGSpace) Evaluate(e, j int, s, t float64) ShapeValue {
	return sp.rwg(e, j, s, t)
}

// SNCSpace is the rotated RWG space ψ = n × φ, the natural dual of RWG
// for Maxwell traces
type SNCSpace struct {
	id uuid.UUID
	edgeBasis
}

func NewSNC(g *grid.Grid) *SNCSpace {
	return &SNCSpace{id: uuid.New(), edgeBasis: newEdgeBasis(g)}
}

func (sp *SNCSpace) ID() uuid.UUID                 { return sp.id }
func (sp *SNCSpace) Kind() Kind                    { return SNC }
func (sp *SNCSpace) Grid() *grid.Grid              { return sp.grid }
func (sp *SNCSpace) GlobalDofCount() int           { return sp.ndofs }
func (sp *SNCSpace) LocalSize() int                { return 3 }
func (sp *SNCSpace) Codomain() int                 { return 3 }
func (sp *SNCSpace) LocalDof(e, j int) (int, bool) { return sp.localDof(e, j) }
func (sp *SNCSpace) String() string                { return describe(sp) }

func (sp *SNCSpace) Evaluate(e, j int, s, t float64) ShapeValue {
	phi := sp.rwg(e, j, s, t)
	return ShapeValue{Value: sp.grid.Normal(e).Cross(phi.Value)}
}

func (sp *SNCSpace) Unrotated(e, j int, s, t float64) ShapeValue {
	return sp.rwg(e, j, s, t)
}

// DP0Space has one constant basis function per element
type DP0Space struct {
	id   uuid.UUID
	grid *grid.Grid
}

func NewDP0(g *grid.Grid) *DP0Space {
	return &DP0Space{id: uuid.New(), grid: g}
}

func (sp *DP0Space) ID() uuid.UUID       { return sp.id }
func (sp *DP0Space) Kind() Kind          { return DP0 }
func (sp *DP0Space) Grid() *grid.Grid    { return sp.grid }
func (sp *DP0Space) GlobalDofCount() int { return sp.grid.NumElements() }
func (sp *DP0Space) LocalSize() int      { return 1 }
func (sp *DP0Space) Codomain() int       { return 1 }
func (sp *DP0Space) String() string      { return describe(sp) }

func (sp *DP0Space) LocalDof(e, j int) (int, bool) { return e, j == 0 }

func (sp *DP0Space) Evaluate(e, j int, s, t float64) ShapeValue {
	return ShapeValue{Value: utils.Vec3{1, 0, 0}}
}
