package assembly

import (
	"fmt"
	"time"

	"github.com/notargets/BEMKernel/kernels"
	"github.com/notargets/BEMKernel/operators"
	"github.com/notargets/BEMKernel/space"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// PotentialAssembler maps coefficients of a space to field values at a fixed
// set of evaluation points. The dense map is assembled on first use, at most
// once, and reused read-only afterwards.
type PotentialAssembler struct {
	space      space.Space
	points     *mat.Dense
	descriptor *operators.Descriptor
	options    operators.Options
	precision  operators.Precision

	lazy lazyMatrix
}

// NewPotentialAssembler validates its inputs and normalizes opts. Nothing is
// computed until Apply or Matrix is called.
func NewPotentialAssembler(sp space.Space, points *mat.Dense, d *operators.Descriptor,
	opts operators.Options) (*PotentialAssembler, error) {

	if sp == nil || d == nil {
		return nil, fmt.Errorf("%w: space and descriptor are required", operators.ErrInvalidConfiguration)
	}
	if err := operators.ValidatePoints(points); err != nil {
		return nil, err
	}
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	if d.KernelDimension() != d.Assembly().Dimension() {
		return nil, fmt.Errorf("%w: kernel dimension %d for assembly %v",
			operators.ErrInvalidConfiguration, d.KernelDimension(), d.Assembly())
	}
	switch {
	case d.Assembly() == kernels.MaxwellElectricField || d.Assembly() == kernels.MaxwellMagneticField ||
		d.Assembly() == kernels.MaxwellElectricFarField || d.Assembly() == kernels.MaxwellMagneticFarField:
		if sp.Kind() != space.RWG {
			return nil, fmt.Errorf("%w: %s needs a div-conforming RWG space, got %v",
				operators.ErrInvalidConfiguration, d.Identifier(), sp.Kind())
		}
	case d.Assembly() == kernels.DefaultScalar:
		if sp.Codomain() != 1 {
			return nil, fmt.Errorf("%w: %s needs a scalar space, got %v",
				operators.ErrInvalidConfiguration, d.Identifier(), sp.Kind())
		}
	default:
		return nil, fmt.Errorf("%w: %v is not a potential assembly",
			operators.ErrInvalidConfiguration, d.Assembly())
	}

	return &PotentialAssembler{
		space:      sp,
		points:     mat.DenseCopyOf(points),
		descriptor: d,
		options:    opts,
		precision:  opts.ResolvePrecision(d),
	}, nil
}

func (pa *PotentialAssembler) Space() space.Space                { return pa.space }
func (pa *PotentialAssembler) Descriptor() *operators.Descriptor { return pa.descriptor }
func (pa *PotentialAssembler) Options() operators.Options        { return pa.options }
func (pa *PotentialAssembler) Precision() operators.Precision    { return pa.precision }
func (pa *PotentialAssembler) Dimension() int                    { return pa.descriptor.KernelDimension() }
func (pa *PotentialAssembler) State() State                      { return pa.lazy.current() }

// Points returns the evaluation points; the matrix must not be modified
func (pa *PotentialAssembler) Points() *mat.Dense { return pa.points }

func (pa *PotentialAssembler) NumPoints() int {
	_, n := pa.points.Dims()
	return n
}

// Matrix returns the assembled (NumPoints·Dimension) × DOF map, assembling it
// on first call. Row p*Dimension+c is component c at point p.
func (pa *PotentialAssembler) Matrix() (*mat.CDense, error) {
	return pa.lazy.get(pa.assemble)
}

// Apply evaluates the field generated by coefficient vector coeffs
func (pa *PotentialAssembler) Apply(coeffs []complex128) (*FieldValues, error) {
	if n := pa.space.GlobalDofCount(); len(coeffs) != n {
		return nil, fmt.Errorf("%w: %d coefficients for a space with %d dofs",
			ErrDimensionMismatch, len(coeffs), n)
	}
	m, err := pa.Matrix()
	if err != nil {
		return nil, err
	}
	fv := NewFieldValues(pa.Dimension(), pa.NumPoints())
	gemv(fv.data, 1, m, coeffs, 0)
	return fv, nil
}

func (pa *PotentialAssembler) assemble() (*mat.CDense, error) {
	params := pa.options.Parameters
	log := params.Logger.With(zap.String("operator", pa.descriptor.Identifier()))

	job, err := newPotentialJob(pa.space, pa.points, pa.descriptor, params.RegularOrder, pa.precision)
	if err != nil {
		return nil, fmt.Errorf("preparing %s: %w", pa.descriptor.Identifier(), err)
	}

	start := time.Now()
	var m *mat.CDense
	if dev := pa.options.Device; dev != nil {
		log.Debug("assembling potential on device", zap.String("device", dev.Name()))
		m, err = dev.AssemblePotential(job)
	} else {
		backend, ok := kernels.LookupBackend(pa.options.Assembler)
		if !ok {
			return nil, fmt.Errorf("%w: assembler %q is not registered",
				operators.ErrInvalidConfiguration, pa.options.Assembler)
		}
		log.Debug("assembling potential", zap.String("assembler", pa.options.Assembler),
			zap.Int("points", job.NumPoints()), zap.Int("contributions", job.NumContributions()))
		m, err = backend.Assemble(job, params.Workers)
	}
	if err != nil {
		return nil, fmt.Errorf("assembling %s: %w", pa.descriptor.Identifier(), err)
	}
	if r, c := m.Dims(); r != job.Rows() || c != job.NumDofs {
		return nil, fmt.Errorf("%w: backend returned %dx%d, want %dx%d",
			ErrDimensionMismatch, r, c, job.Rows(), job.NumDofs)
	}
	log.Info("potential assembled", zap.Int("rows", job.Rows()), zap.Int("dofs", job.NumDofs),
		zap.Stringer("precision", pa.precision), zap.Duration("elapsed", time.Since(start)))
	return m, nil
}
