package assembly

import (
	"github.com/notargets/BEMKernel/kernels"
	"github.com/notargets/BEMKernel/operators"
	"github.com/notargets/BEMKernel/quadrature"
	"github.com/notargets/BEMKernel/space"
	"gonum.org/v1/gonum/mat"
)

// flattenPoints packs a 3×N matrix point by point
func flattenPoints(points *mat.Dense) []float64 {
	_, n := points.Dims()
	out := make([]float64, 3*n)
	for p := 0; p < n; p++ {
		for c := 0; c < 3; c++ {
			out[3*p+c] = points.At(c, p)
		}
	}
	return out
}

// newPotentialJob samples every local shape function of sp at the quadrature
// points of every element
func newPotentialJob(sp space.Space, points *mat.Dense, d *operators.Descriptor,
	order int, precision operators.Precision) (*kernels.PotentialJob, error) {

	rule, err := quadrature.Triangle(order)
	if err != nil {
		return nil, err
	}
	g := sp.Grid()
	ne, nl := g.NumElements(), sp.LocalSize()
	capacity := ne * rule.NumPoints() * nl

	job := &kernels.PotentialJob{
		Kernel:          d.Kernel(),
		Assembly:        d.Assembly(),
		Wavenumber:      d.Wavenumber(),
		Dim:             d.KernelDimension(),
		NumDofs:         sp.GlobalDofCount(),
		Points:          flattenPoints(points),
		Sources3:        make([]float64, 0, 3*capacity),
		Normals3:        make([]float64, 0, 3*capacity),
		Basis3:          make([]float64, 0, 3*capacity),
		Divergences:     make([]float64, 0, capacity),
		Weights:         make([]float64, 0, capacity),
		Dofs:            make([]int, 0, capacity),
		SinglePrecision: precision == operators.PrecisionSingle,
	}
	for e := 0; e < ne; e++ {
		jac := 2 * g.Area(e)
		n := g.Normal(e)
		for q, st := range rule.Points {
			y := g.Global(e, st[0], st[1])
			w := rule.Weights[q] * jac
			for j := 0; j < nl; j++ {
				dof, ok := sp.LocalDof(e, j)
				if !ok {
					continue
				}
				v := sp.Evaluate(e, j, st[0], st[1])
				job.Sources3 = append(job.Sources3, y[:]...)
				job.Normals3 = append(job.Normals3, n[:]...)
				job.Basis3 = append(job.Basis3, v.Value[:]...)
				job.Divergences = append(job.Divergences, v.Div)
				job.Weights = append(job.Weights, w)
				job.Dofs = append(job.Dofs, dof)
			}
		}
	}
	return job, job.Validate()
}
