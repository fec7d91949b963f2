package operators

import (
	"fmt"
	"math"

	"github.com/notargets/BEMKernel/kernels"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// DefaultAssembler is used when no assembler name is given
const DefaultAssembler = "dense"

// Parameters holds numerical settings shared by all assemblies
type Parameters struct {
	// Quadrature degree for well separated element pairs and for potentials
	RegularOrder int
	// Quadrature degree for element pairs closer than NearFieldRatio diameters
	NearFieldOrder int
	// Pairs with centroid distance below NearFieldRatio × source diameter are near
	NearFieldRatio float64
	// Worker goroutines for host assembly, 0 means GOMAXPROCS
	Workers int
	// Logger receives assembly and solve diagnostics, nil disables logging
	Logger *zap.Logger
}

func DefaultParameters() *Parameters {
	return &Parameters{
		RegularOrder:   4,
		NearFieldOrder: 8,
		NearFieldRatio: 2,
		Workers:        0,
	}
}

// Options is the configuration surface of every operator factory
type Options struct {
	Assembler  string
	Precision  Precision
	Device     kernels.Device // nil selects host assembly
	Parameters *Parameters
}

// Option mutates Options in factory calls
type Option func(*Options)

func WithAssembler(name string) Option {
	return func(o *Options) { o.Assembler = name }
}

func WithPrecision(p Precision) Option {
	return func(o *Options) { o.Precision = p }
}

func WithDevice(d kernels.Device) Option {
	return func(o *Options) { o.Device = d }
}

func WithParameters(p *Parameters) Option {
	return func(o *Options) { o.Parameters = p }
}

// NewOptions applies opts to zero Options and normalizes the result
func NewOptions(opts ...Option) (Options, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o.Normalize()
}

// Normalize resolves every "unspecified" value to its default in one place:
// empty assembler → "dense", default precision → double, nil parameters →
// DefaultParameters, nil logger → no-op logger. Unknown names are rejected.
func (o Options) Normalize() (Options, error) {
	if o.Assembler == "" {
		o.Assembler = DefaultAssembler
	}
	if _, ok := kernels.LookupBackend(o.Assembler); !ok {
		return o, fmt.Errorf("%w: unknown assembler %q (registered: %v)",
			ErrInvalidConfiguration, o.Assembler, kernels.BackendNames())
	}

	switch o.Precision {
	case PrecisionDefault:
		o.Precision = PrecisionDouble
	case PrecisionSingle, PrecisionDouble:
	default:
		return o, fmt.Errorf("%w: invalid precision %v", ErrInvalidConfiguration, o.Precision)
	}

	params := DefaultParameters()
	if o.Parameters != nil {
		*params = *o.Parameters
	}
	if params.RegularOrder <= 0 {
		params.RegularOrder = DefaultParameters().RegularOrder
	}
	if params.NearFieldOrder < params.RegularOrder {
		params.NearFieldOrder = params.RegularOrder
	}
	if params.NearFieldRatio < 0 {
		return o, fmt.Errorf("%w: negative near field ratio %g",
			ErrInvalidConfiguration, params.NearFieldRatio)
	}
	if params.Workers < 0 {
		return o, fmt.Errorf("%w: negative worker count %d", ErrInvalidConfiguration, params.Workers)
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	o.Parameters = params
	return o, nil
}

// ResolvePrecision picks the descriptor precision when set, else the option's
func (o Options) ResolvePrecision(d *Descriptor) Precision {
	if d.Precision() != PrecisionDefault {
		return d.Precision()
	}
	return o.Precision
}

// ValidatePoints checks that points is a 3×N matrix of finite coordinates
// with at least one column
func ValidatePoints(points *mat.Dense) error {
	if points == nil || points.IsEmpty() {
		return fmt.Errorf("%w: no evaluation points", ErrInvalidConfiguration)
	}
	r, c := points.Dims()
	if r != 3 {
		return fmt.Errorf("%w: evaluation points need 3 rows, got %dx%d", ErrInvalidConfiguration, r, c)
	}
	for j := 0; j < c; j++ {
		for i := 0; i < 3; i++ {
			if v := points.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite coordinate %v in point %d", ErrInvalidConfiguration, v, j)
			}
		}
	}
	return nil
}
