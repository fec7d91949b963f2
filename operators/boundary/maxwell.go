package boundary

import (
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"time"

	"github.com/notargets/BEMKernel/assembly"
	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/kernels"
	"github.com/notargets/BEMKernel/operators"
	"github.com/notargets/BEMKernel/quadrature"
	"github.com/notargets/BEMKernel/space"
	"github.com/notargets/BEMKernel/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const inv4Pi = 1 / (4 * math.Pi)

// ElectricField is the Maxwell electric field boundary operator tested with
// the rotated basis of dual:
//
//	E_ij = -∫∫ G(x,y) [ ik ρᵢ(x)·φⱼ(y) + (1/ik) div ρᵢ(x) div φⱼ(y) ]
//
// where ψᵢ = n × ρᵢ. The static part of G is integrated analytically on near
// element pairs.
func ElectricField(domain, rng, dual space.Space, k complex128, opts ...operators.Option) (*assembly.ElementaryOperator, error) {
	return newMaxwell(domain, rng, dual, k, true, opts)
}

// MagneticField is the Maxwell magnetic field boundary operator
//
//	M_ij = -∫∫ ρᵢ(x)·(∇ₓG(x,y) × φⱼ(y))
//
// Coincident flat elements contribute nothing.
func MagneticField(domain, rng, dual space.Space, k complex128, opts ...operators.Option) (*assembly.ElementaryOperator, error) {
	return newMaxwell(domain, rng, dual, k, false, opts)
}

func newMaxwell(domain, rng, dual space.Space, k complex128, electric bool,
	opts []operators.Option) (*assembly.ElementaryOperator, error) {

	o, err := operators.NewOptions(opts...)
	if err != nil {
		return nil, err
	}
	if k == 0 || cmplx.IsNaN(k) || cmplx.IsInf(k) {
		return nil, fmt.Errorf("%w: invalid wavenumber %v", operators.ErrInvalidConfiguration, k)
	}
	if domain == nil || dual == nil || domain.Kind() != space.RWG {
		return nil, fmt.Errorf("%w: Maxwell boundary operators need an RWG domain",
			operators.ErrInvalidConfiguration)
	}
	rotated, ok := dual.(space.Rotated)
	if !ok {
		return nil, fmt.Errorf("%w: Maxwell boundary operators need a rotated (SNC) dual, got %v",
			operators.ErrInvalidConfiguration, dual.Kind())
	}

	identifier, assemblyType := "maxwell_magnetic_field_boundary", kernels.MaxwellMagneticField
	staticKernel, staticTag := kernels.LaplaceDoubleLayer, "laplace_double_layer"
	if electric {
		identifier, assemblyType = "maxwell_electric_field_boundary", kernels.MaxwellElectricField
		staticKernel, staticTag = kernels.LaplaceSingleLayer, "laplace_single_layer"
	}
	static, err := operators.NewDescriptor(staticTag, nil, staticKernel, kernels.DefaultScalar,
		o.Precision, false, nil, 1)
	if err != nil {
		return nil, err
	}
	d, err := operators.NewDescriptor(identifier, []float64{real(k), imag(k)},
		kernels.HelmholtzSingleLayer, assemblyType, o.Precision, true, static, 3)
	if err != nil {
		return nil, err
	}

	mi := &maxwellIntegrator{
		domain:     domain,
		dual:       rotated,
		k:          k,
		electric:   electric,
		params:     o.Parameters,
		descriptor: d,
		single:     o.ResolvePrecision(d) == operators.PrecisionSingle,
	}
	return assembly.NewElementaryOperator(domain, rng, dual, d, mi.assemble)
}

// samples holds the quadrature data of one element for one rule
type samples struct {
	x   []utils.Vec3
	w   []float64       // weight × surface jacobian
	val [][3]utils.Vec3 // [point][local] div-conforming shape values
	div [3]float64      // constant divergence per local function
	at0 [3]utils.Vec3   // shape value at the first corner
	dof [3]int          // -1 when the local function has no DOF
}

type evaluator func(e, j int, s, t float64) space.ShapeValue

func sampleElements(g *grid.Grid, sp space.Space, eval evaluator, rule *quadrature.TriangleRule) []samples {
	out := make([]samples, g.NumElements())
	for e := range out {
		s := &out[e]
		jac := 2 * g.Area(e)
		for j := 0; j < 3; j++ {
			s.dof[j] = -1
			if dof, ok := sp.LocalDof(e, j); ok {
				s.dof[j] = dof
			}
			v := eval(e, j, 0, 0)
			s.at0[j], s.div[j] = v.Value, v.Div
		}
		for q, st := range rule.Points {
			s.x = append(s.x, g.Global(e, st[0], st[1]))
			s.w = append(s.w, rule.Weights[q]*jac)
			var vals [3]utils.Vec3
			for j := 0; j < 3; j++ {
				vals[j] = eval(e, j, st[0], st[1]).Value
			}
			s.val = append(s.val, vals)
		}
	}
	return out
}

type maxwellIntegrator struct {
	domain     space.Space
	dual       space.Rotated
	k          complex128
	electric   bool
	single     bool
	params     *operators.Parameters
	descriptor *operators.Descriptor
}

// ruleSamples are the test and source samples of one quadrature rule
type ruleSamples struct {
	test, source []samples
}

func (mi *maxwellIntegrator) assemble() (*mat.CDense, error) {
	start := time.Now()
	tg, sg := mi.dual.Grid(), mi.domain.Grid()
	sets := make([]ruleSamples, 2)
	for i, order := range []int{mi.params.RegularOrder, mi.params.NearFieldOrder} {
		rule, err := quadrature.Triangle(order)
		if err != nil {
			return nil, err
		}
		sets[i] = ruleSamples{
			test:   sampleElements(tg, mi.dual, mi.dual.Unrotated, rule),
			source: sampleElements(sg, mi.domain, mi.domain.Evaluate, rule),
		}
	}

	out := mat.NewCDense(mi.dual.GlobalDofCount(), mi.domain.GlobalDofCount(), nil)
	raw := out.RawCMatrix()
	workers := mi.params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sameGrid := tg.ID() == sg.ID()

	// elements of one color share no test DOF, so their rows never overlap
	for _, group := range tg.ColorElements() {
		var eg errgroup.Group
		eg.SetLimit(workers)
		for _, et := range group {
			eg.Go(func() error {
				for es := 0; es < sg.NumElements(); es++ {
					coincident := sameGrid && et == es
					near := coincident ||
						tg.Centroid(et).Sub(sg.Centroid(es)).Norm() < mi.params.NearFieldRatio*sg.Diameter(es)
					set := sets[0]
					if near {
						set = sets[1]
					}
					if mi.electric {
						mi.electricPair(raw.Data, raw.Stride, &set.test[et], &set.source[es], sg, es, near)
					} else if !coincident {
						mi.magneticPair(raw.Data, raw.Stride, &set.test[et], &set.source[es])
					}
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}
	if mi.single {
		kernels.RoundToSingle(out)
	}
	mi.params.Logger.Info("boundary operator assembled",
		zap.String("operator", mi.descriptor.Identifier()),
		zap.Int("rows", raw.Rows), zap.Int("cols", raw.Cols),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

func (mi *maxwellIntegrator) electricPair(data []complex128, stride int, test, src *samples,
	sg *grid.Grid, es int, near bool) {

	k := mi.k
	ik := 1i * k
	corners, n := sg.Corners(es), sg.Normal(es)
	for q, x := range test.x {
		// S[j] = ∫ G φⱼ, D[j] = ∫ G div φⱼ over the source element
		var S [3]utils.CVec3
		var D [3]complex128
		for qs, y := range src.x {
			r := x.Sub(y).Norm()
			var g complex128
			if near {
				g = kernels.HelmholtzRegular(k, r)
			} else {
				g, _ = kernels.Helmholtz(k, r)
			}
			g *= complex(src.w[qs], 0)
			for j := 0; j < 3; j++ {
				if src.dof[j] < 0 {
					continue
				}
				S[j] = S[j].Add(src.val[qs][j].Complex().Scale(g))
				D[j] += g * complex(src.div[j], 0)
			}
		}
		if near {
			I, Irho, rho := kernels.StaticIntegrals(x, corners, n)
			for j := 0; j < 3; j++ {
				if src.dof[j] < 0 {
					continue
				}
				c := src.div[j] / 2
				phiRho := src.at0[j].Add(rho.Sub(corners[0]).Scale(c))
				static := phiRho.Scale(I).Add(Irho.Scale(c)).Scale(inv4Pi)
				S[j] = S[j].Add(static.Complex())
				D[j] += complex(src.div[j]*I*inv4Pi, 0)
			}
		}

		wx := complex(test.w[q], 0)
		for i := 0; i < 3; i++ {
			di := test.dof[i]
			if di < 0 {
				continue
			}
			rhoI := test.val[q][i]
			divI := complex(test.div[i], 0)
			row := data[di*stride:]
			for j := 0; j < 3; j++ {
				dj := src.dof[j]
				if dj < 0 {
					continue
				}
				row[dj] -= wx * (ik*S[j].DotReal(rhoI) + divI*D[j]/ik)
			}
		}
	}
}

func (mi *maxwellIntegrator) magneticPair(data []complex128, stride int, test, src *samples) {
	for q, x := range test.x {
		wx := test.w[q]
		for qs, y := range src.x {
			d := x.Sub(y)
			r := d.Norm()
			if r < 1e-14 {
				continue
			}
			_, dgdr := kernels.Helmholtz(mi.k, r)
			f := dgdr * complex(wx*src.w[qs]/r, 0)
			for i := 0; i < 3; i++ {
				di := test.dof[i]
				if di < 0 {
					continue
				}
				rhoI := test.val[q][i]
				row := data[di*stride:]
				for j := 0; j < 3; j++ {
					dj := src.dof[j]
					if dj < 0 {
						continue
					}
					row[dj] -= f * complex(rhoI.Dot(d.Cross(src.val[qs][j])), 0)
				}
			}
		}
	}
}
