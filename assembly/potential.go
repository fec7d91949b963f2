package assembly

import (
	"fmt"

	"github.com/notargets/BEMKernel/space"
	"gonum.org/v1/gonum/mat"
)

type potentialTerm struct {
	alpha     complex128
	assembler *PotentialAssembler
}

// PotentialOperator is a linear combination Σ αᵢ Pᵢ of potential assemblers
// sharing one domain space and one set of evaluation points. Operators are
// values: Scale, Add and Sub return new operators and leave their operands
// untouched, while the underlying assemblers (and their cached matrices)
// are shared.
type PotentialOperator struct {
	terms []potentialTerm
}

func NewPotentialOperator(a *PotentialAssembler) *PotentialOperator {
	return &PotentialOperator{terms: []potentialTerm{{alpha: 1, assembler: a}}}
}

func (op *PotentialOperator) first() *PotentialAssembler { return op.terms[0].assembler }

func (op *PotentialOperator) Space() space.Space { return op.first().Space() }
func (op *PotentialOperator) Points() *mat.Dense { return op.first().Points() }
func (op *PotentialOperator) Dimension() int     { return op.first().Dimension() }
func (op *PotentialOperator) NumPoints() int     { return op.first().NumPoints() }

// Assemblers returns the assemblers behind the operator in term order
func (op *PotentialOperator) Assemblers() []*PotentialAssembler {
	out := make([]*PotentialAssembler, len(op.terms))
	for i, t := range op.terms {
		out[i] = t.assembler
	}
	return out
}

// Evaluate applies the operator to g, which must live on the domain space
func (op *PotentialOperator) Evaluate(g *GridFunction) (*FieldValues, error) {
	if !space.Same(g.Space(), op.Space()) {
		return nil, fmt.Errorf("%w: grid function on %v, operator domain %v",
			ErrIncompatibleDomain, g.Space(), op.Space())
	}
	coeffs, err := g.Coefficients()
	if err != nil {
		return nil, err
	}
	return op.Apply(coeffs)
}

// Apply evaluates Σ αᵢ Pᵢ coeffs
func (op *PotentialOperator) Apply(coeffs []complex128) (*FieldValues, error) {
	var out *FieldValues
	for _, t := range op.terms {
		fv, err := t.assembler.Apply(coeffs)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = fv.Scale(t.alpha)
			continue
		}
		if out, err = out.Add(fv.Scale(t.alpha)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Scale returns alpha·op
func (op *PotentialOperator) Scale(alpha complex128) *PotentialOperator {
	out := &PotentialOperator{terms: make([]potentialTerm, len(op.terms))}
	for i, t := range op.terms {
		out.terms[i] = potentialTerm{alpha: alpha * t.alpha, assembler: t.assembler}
	}
	return out
}

// Add returns op + other. Both must share the domain space, the
// evaluation points and the field dimension.
func (op *PotentialOperator) Add(other *PotentialOperator) (*PotentialOperator, error) {
	if !space.Same(op.Space(), other.Space()) {
		return nil, fmt.Errorf("%w: cannot add potentials on %v and %v",
			ErrIncompatibleDomain, op.Space(), other.Space())
	}
	if !mat.Equal(op.Points(), other.Points()) {
		return nil, fmt.Errorf("%w: potentials are evaluated at different points", ErrIncompatibleDomain)
	}
	if op.Dimension() != other.Dimension() {
		return nil, fmt.Errorf("%w: field dimensions %d and %d",
			ErrDimensionMismatch, op.Dimension(), other.Dimension())
	}
	out := &PotentialOperator{terms: make([]potentialTerm, 0, len(op.terms)+len(other.terms))}
	out.terms = append(out.terms, op.terms...)
	out.terms = append(out.terms, other.terms...)
	return out, nil
}

// Sub returns op - other
func (op *PotentialOperator) Sub(other *PotentialOperator) (*PotentialOperator, error) {
	return op.Add(other.Scale(-1))
}
