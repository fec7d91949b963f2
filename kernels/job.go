package kernels

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PotentialJob is the flattened description of a potential assembly. Every
// quadrature point of every local shape function becomes one contribution m;
// arrays suffixed 3 hold three consecutive components per entry.
//
// The assembled matrix has NumPoints*Dim rows (row p*Dim+c is component c at
// evaluation point p) and NumDofs columns.
type PotentialJob struct {
	Kernel     KernelType
	Assembly   AssemblyType
	Wavenumber complex128
	Dim        int
	NumDofs    int

	// Evaluation points (or unit directions for far-field kernels) [3*NumPoints]
	Points []float64

	Sources3    []float64 // quadrature point in physical space
	Normals3    []float64 // element normal at the source
	Basis3      []float64 // shape function value; scalar spaces use the first component
	Divergences []float64 // shape function surface divergence
	Weights     []float64 // quadrature weight times surface Jacobian
	Dofs        []int     // global DOF receiving the contribution

	SinglePrecision bool
}

func (job *PotentialJob) NumPoints() int { return len(job.Points) / 3 }

func (job *PotentialJob) NumContributions() int { return len(job.Weights) }

func (job *PotentialJob) Rows() int { return job.NumPoints() * job.Dim }

// Validate checks array lengths and kernel/assembly compatibility
func (job *PotentialJob) Validate() error {
	if !Compatible(job.Kernel, job.Assembly) {
		return fmt.Errorf("kernel %v cannot be assembled as %v", job.Kernel, job.Assembly)
	}
	if job.Dim != job.Assembly.Dimension() {
		return fmt.Errorf("dimension %d does not match assembly %v", job.Dim, job.Assembly)
	}
	if len(job.Points) == 0 || len(job.Points)%3 != 0 {
		return fmt.Errorf("points length %d is not a positive multiple of 3", len(job.Points))
	}
	m := len(job.Weights)
	if len(job.Sources3) != 3*m || len(job.Normals3) != 3*m || len(job.Basis3) != 3*m ||
		len(job.Divergences) != m || len(job.Dofs) != m {
		return fmt.Errorf("inconsistent contribution arrays for %d contributions", m)
	}
	for _, d := range job.Dofs {
		if d < 0 || d >= job.NumDofs {
			return fmt.Errorf("contribution dof %d outside [0,%d)", d, job.NumDofs)
		}
	}
	return nil
}

// Device evaluates potential jobs on an accelerator or alternate runtime.
// It is the device_interface collaborator: nil means CPU evaluation.
type Device interface {
	Name() string
	AssemblePotential(job *PotentialJob) (*mat.CDense, error)
}

// EvaluateRange fills the matrix rows of evaluation points [p0,p1). Each call
// writes only its own rows, so disjoint ranges may run concurrently.
func (job *PotentialJob) EvaluateRange(out *mat.CDense, p0, p1 int) {
	raw := out.RawCMatrix()
	rows := make([][]complex128, job.Dim)
	for p := p0; p < p1; p++ {
		for c := 0; c < job.Dim; c++ {
			r := p*job.Dim + c
			rows[c] = raw.Data[r*raw.Stride : r*raw.Stride+job.NumDofs]
		}
		x := [3]float64{job.Points[3*p], job.Points[3*p+1], job.Points[3*p+2]}
		job.accumulate(x, rows)
	}
}

// accumulate adds every contribution of the job at target x into rows
func (job *PotentialJob) accumulate(x [3]float64, rows [][]complex128) {
	k := job.Wavenumber
	ik := 1i * k
	for m, w := range job.Weights {
		y := job.Sources3[3*m : 3*m+3]
		phi := job.Basis3[3*m : 3*m+3]
		dof := job.Dofs[m]
		cw := complex(w, 0)

		switch job.Assembly {
		case MaxwellElectricFarField, MaxwellMagneticFarField:
			dy := x[0]*y[0] + x[1]*y[1] + x[2]*y[2]
			g := HelmholtzFarFieldKernel(k, dy) * cw
			if job.Assembly == MaxwellElectricFarField {
				div := complex(job.Divergences[m], 0)
				for c := 0; c < 3; c++ {
					rows[c][dof] += g * (ik*complex(phi[c], 0) - complex(x[c], 0)*div)
				}
			} else {
				dxphi := cross(x, phi)
				for c := 0; c < 3; c++ {
					rows[c][dof] += g * ik * complex(dxphi[c], 0)
				}
			}
			continue
		}

		d := [3]float64{x[0] - y[0], x[1] - y[1], x[2] - y[2]}
		r := norm(d)
		if r < 1e-14 {
			continue
		}

		switch job.Kernel {
		case LaplaceSingleLayer:
			g, _ := Laplace(r)
			rows[0][dof] += complex(g*w*phi[0], 0)
		case LaplaceDoubleLayer:
			n := job.Normals3[3*m : 3*m+3]
			g, _ := Laplace(r)
			dn := (d[0]*n[0] + d[1]*n[1] + d[2]*n[2]) / (r * r)
			rows[0][dof] += complex(g*dn*w*phi[0], 0)
		case HelmholtzDoubleLayer:
			n := job.Normals3[3*m : 3*m+3]
			_, dgdr := Helmholtz(k, r)
			// ∂G/∂n_y = dG/dr (y-x)·n / r
			dn := -(d[0]*n[0] + d[1]*n[1] + d[2]*n[2]) / r
			rows[0][dof] += dgdr * complex(dn*w*phi[0], 0)
		case HelmholtzSingleLayer:
			g, dgdr := Helmholtz(k, r)
			switch job.Assembly {
			case DefaultScalar:
				rows[0][dof] += g * complex(w*phi[0], 0)
			case MaxwellElectricField:
				// ik G φ - (1/ik) ∇ₓG div φ
				div := complex(job.Divergences[m], 0)
				grad := dgdr / complex(r, 0)
				for c := 0; c < 3; c++ {
					rows[c][dof] += cw * (ik*g*complex(phi[c], 0) - grad*complex(d[c], 0)*div/ik)
				}
			case MaxwellMagneticField:
				// ∇ₓG × φ
				grad := dgdr / complex(r, 0) * cw
				dxphi := cross(d, phi)
				for c := 0; c < 3; c++ {
					rows[c][dof] += grad * complex(dxphi[c], 0)
				}
			}
		}
	}
}

func cross(a [3]float64, b []float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm(a [3]float64) float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
}
