package operators

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/notargets/BEMKernel/kernels"
)

// Precision selects the floating point width of assembled entries
type Precision uint8

const (
	PrecisionDefault Precision = iota // resolved by Options.Normalize
	PrecisionSingle
	PrecisionDouble
)

func (p Precision) String() string {
	switch p {
	case PrecisionDefault:
		return "default"
	case PrecisionSingle:
		return "single"
	case PrecisionDouble:
		return "double"
	}
	return fmt.Sprintf("Precision(%d)", uint8(p))
}

// ParsePrecision resolves "", "single", "double" (also "float32", "float64")
func ParsePrecision(tag string) (Precision, error) {
	switch strings.ToLower(tag) {
	case "", "default":
		return PrecisionDefault, nil
	case "single", "float32":
		return PrecisionSingle, nil
	case "double", "float64":
		return PrecisionDouble, nil
	}
	return 0, fmt.Errorf("%w: unknown precision %q", ErrInvalidConfiguration, tag)
}

// Descriptor identifies a physical operator and the kernel routine that
// assembles it. Descriptors are immutable and may be shared freely.
type Descriptor struct {
	identifier      string
	options         []float64
	kernel          kernels.KernelType
	assembly        kernels.AssemblyType
	precision       Precision
	isComplex       bool
	singularPart    *Descriptor
	kernelDimension int
}

// NewDescriptor validates and builds a descriptor. The options slice is copied.
func NewDescriptor(identifier string, options []float64, kernel kernels.KernelType,
	assembly kernels.AssemblyType, precision Precision, isComplex bool,
	singularPart *Descriptor, kernelDimension int) (*Descriptor, error) {

	switch {
	case identifier == "":
		return nil, fmt.Errorf("%w: empty operator identifier", ErrInvalidConfiguration)
	case !kernel.Valid():
		return nil, fmt.Errorf("%w: invalid kernel type %v", ErrInvalidConfiguration, kernel)
	case !assembly.Valid():
		return nil, fmt.Errorf("%w: invalid assembly type %v", ErrInvalidConfiguration, assembly)
	case !kernels.Compatible(kernel, assembly):
		return nil, fmt.Errorf("%w: kernel %v cannot be assembled as %v",
			ErrInvalidConfiguration, kernel, assembly)
	case precision > PrecisionDouble:
		return nil, fmt.Errorf("%w: invalid precision %v", ErrInvalidConfiguration, precision)
	case kernelDimension <= 0:
		return nil, fmt.Errorf("%w: kernel dimension %d must be positive",
			ErrInvalidConfiguration, kernelDimension)
	}
	for _, o := range options {
		if math.IsNaN(o) || math.IsInf(o, 0) {
			return nil, fmt.Errorf("%w: non-finite option %v in %s", ErrInvalidConfiguration, o, identifier)
		}
	}

	d := &Descriptor{
		identifier:      identifier,
		options:         append([]float64(nil), options...),
		kernel:          kernel,
		assembly:        assembly,
		precision:       precision,
		isComplex:       isComplex,
		singularPart:    singularPart,
		kernelDimension: kernelDimension,
	}
	return d, nil
}

// ParseDescriptor builds a descriptor from string tags, resolving them once
// into the closed kernel and assembly enumerations
func ParseDescriptor(identifier string, options []float64, kernelTag, assemblyTag,
	precisionTag string, isComplex bool, singularPart *Descriptor, kernelDimension int) (*Descriptor, error) {

	kernel, err := kernels.ParseKernelType(kernelTag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	assembly, err := kernels.ParseAssemblyType(assemblyTag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	precision, err := ParsePrecision(precisionTag)
	if err != nil {
		return nil, err
	}
	return NewDescriptor(identifier, options, kernel, assembly, precision, isComplex,
		singularPart, kernelDimension)
}

func (d *Descriptor) Identifier() string             { return d.identifier }
func (d *Descriptor) Kernel() kernels.KernelType     { return d.kernel }
func (d *Descriptor) Assembly() kernels.AssemblyType { return d.assembly }
func (d *Descriptor) Precision() Precision           { return d.precision }
func (d *Descriptor) IsComplex() bool                { return d.isComplex }
func (d *Descriptor) SingularPart() *Descriptor      { return d.singularPart }
func (d *Descriptor) KernelDimension() int           { return d.kernelDimension }
func (d *Descriptor) NumOptions() int                { return len(d.options) }
func (d *Descriptor) Option(i int) float64           { return d.options[i] }
func (d *Descriptor) Options() []float64             { return append([]float64(nil), d.options...) }

// Wavenumber reads options [Re k, Im k]; kernels without a wavenumber return 0
func (d *Descriptor) Wavenumber() complex128 {
	if len(d.options) < 2 {
		return 0
	}
	return complex(d.options[0], d.options[1])
}

// WithPrecision returns a copy of d with a different precision
func (d *Descriptor) WithPrecision(p Precision) *Descriptor {
	c := *d
	c.options = d.Options()
	c.precision = p
	return &c
}

// Equal reports value equality, including the singular part
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.identifier != o.identifier || d.kernel != o.kernel || d.assembly != o.assembly ||
		d.precision != o.precision || d.isComplex != o.isComplex ||
		d.kernelDimension != o.kernelDimension || len(d.options) != len(o.options) {
		return false
	}
	for i := range d.options {
		if d.options[i] != o.options[i] {
			return false
		}
	}
	return d.singularPart.Equal(o.singularPart)
}

// Key is a canonical string form; equal descriptors have equal keys
func (d *Descriptor) Key() string {
	var sb strings.Builder
	sb.WriteString(d.identifier)
	sb.WriteString("|")
	for i, o := range d.options {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(strconv.FormatFloat(o, 'g', -1, 64))
	}
	fmt.Fprintf(&sb, "|%s|%s|%s|%t|%d", d.kernel, d.assembly, d.precision,
		d.isComplex, d.kernelDimension)
	if d.singularPart != nil {
		sb.WriteString("|{")
		sb.WriteString(d.singularPart.Key())
		sb.WriteString("}")
	}
	return sb.String()
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s (kernel=%s, assembly=%s, dim=%d)",
		d.identifier, d.kernel, d.assembly, d.kernelDimension)
}
