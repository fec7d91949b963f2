// Package space defines boundary function spaces on triangulated surfaces.
//
// A space couples a grid with a set of global basis functions. Each basis
// function restricted to an element is a local shape function; the local to
// global map carries the orientation sign so that assembly can sum element
// contributions directly.
package space

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/utils"
)

type Kind uint8

const (
	RWG Kind = iota // Raviart-Thomas-Nédélec lowest order, div-conforming
	SNC             // scaled n-cross: n × RWG, curl-conforming
	DP0             // discontinuous piecewise constant scalar
)

func (k Kind) String() string {
	switch k {
	case RWG:
		return "RWG"
	case SNC:
		return "SNC"
	case DP0:
		return "DP0"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind resolves a space tag such as "RWG" (case-insensitive)
func ParseKind(tag string) (Kind, error) {
	switch strings.ToUpper(tag) {
	case "RWG":
		return RWG, nil
	case "SNC":
		return SNC, nil
	case "DP0", "DP":
		return DP0, nil
	}
	return 0, fmt.Errorf("space: unknown space type %q", tag)
}

// ShapeValue is a local shape function sampled at a point of an element
type ShapeValue struct {
	Value utils.Vec3 // vector value; scalar spaces use Value[0]
	Div   float64    // surface divergence, zero for spaces without one
}

// Space is a discretized boundary function space
type Space interface {
	ID() uuid.UUID
	Kind() Kind
	Grid() *grid.Grid
	// GlobalDofCount is the number of global basis functions
	GlobalDofCount() int
	// LocalSize is the number of local shape functions per element
	LocalSize() int
	// Codomain is 3 for vector valued spaces, 1 for scalar ones
	Codomain() int
	// LocalDof maps local shape function j of element e to its global basis
	// function, ok is false when the shape function carries no DOF
	LocalDof(e, j int) (dof int, ok bool)
	// Evaluate samples local shape function j of element e at reference
	// coordinates (s,t), including the orientation sign
	Evaluate(e, j int, s, t float64) ShapeValue
	String() string
}

// Rotated is implemented by spaces defined as n × (div-conforming space).
// Unrotated returns the underlying div-conforming shape function.
type Rotated interface {
	Space
	Unrotated(e, j int, s, t float64) ShapeValue
}

// New builds a space of the given kind on g
func New(g *grid.Grid, kind Kind) (Space, error) {
	if g == nil {
		return nil, fmt.Errorf("space: grid cannot be nil")
	}
	switch kind {
	case RWG:
		return NewRWG(g), nil
	case SNC:
		return NewSNC(g), nil
	case DP0:
		return NewDP0(g), nil
	}
	return nil, fmt.Errorf("space: unsupported kind %v", kind)
}

// Same reports whether a and b are the same space instance
func Same(a, b Space) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

func describe(s Space) string {
	return fmt.Sprintf("%s space %s: %d dofs on %d elements",
		s.Kind(), s.ID().String()[:8], s.GlobalDofCount(), s.Grid().NumElements())
}
