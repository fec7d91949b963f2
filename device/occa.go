// Package device evaluates potential jobs through OCCA, on whichever backend
// (OpenMP, CUDA, Serial) the host provides.
package device

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/notargets/BEMKernel/kernels"
	"github.com/notargets/gocca"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// DefaultModes are tried in order by Create when no properties are given
var DefaultModes = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

type programKey struct {
	kernel   kernels.KernelType
	assembly kernels.AssemblyType
	single   bool
}

// OCCA is a kernels.Device running generated OKL kernels. Kernels are
// compiled once per kernel, assembly type and precision. An OCCA is safe for
// concurrent use; launches are serialized.
type OCCA struct {
	dev    *gocca.OCCADevice
	logger *zap.Logger

	mu       sync.Mutex
	programs map[programKey]*gocca.OCCAKernel
}

// Create opens the first device that accepts one of props, DefaultModes when
// props is empty
func Create(logger *zap.Logger, props ...string) (*OCCA, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(props) == 0 {
		props = DefaultModes
	}
	var errs []error
	for _, p := range props {
		dev, err := gocca.NewDevice(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Info("device created", zap.String("mode", dev.Mode()))
		return &OCCA{dev: dev, logger: logger, programs: make(map[programKey]*gocca.OCCAKernel)}, nil
	}
	return nil, fmt.Errorf("no OCCA device available for %v: %v", props, errs)
}

func (o *OCCA) Name() string { return "occa:" + o.dev.Mode() }

// Register makes the device selectable as a named assembler backend
func (o *OCCA) Register(name string) error {
	return kernels.RegisterBackend(name, o)
}

// Assemble implements kernels.Backend; the device schedules its own threads
func (o *OCCA) Assemble(job *kernels.PotentialJob, _ int) (*mat.CDense, error) {
	return o.AssemblePotential(job)
}

// Close releases compiled kernels and the device
func (o *OCCA) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, k := range o.programs {
		k.Free()
	}
	o.programs = nil
	o.dev.Free()
}

func (o *OCCA) program(key programKey) (*gocca.OCCAKernel, error) {
	if k, ok := o.programs[key]; ok {
		return k, nil
	}
	src := Source(key.kernel, key.assembly, key.single)
	var (
		k   *gocca.OCCAKernel
		err error
	)
	if o.dev.Mode() == "OpenMP" {
		// OpenMP builds without optimization unless asked
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		k, err = o.dev.BuildKernelFromString(src, kernelName, props)
	} else {
		k, err = o.dev.BuildKernelFromString(src, kernelName, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel for %v/%v: %w", key.kernel, key.assembly, err)
	}
	if k == nil {
		return nil, fmt.Errorf("kernel build returned nil for %v/%v", key.kernel, key.assembly)
	}
	o.programs[key] = k
	return k, nil
}

// AssemblePotential evaluates job on the device
func (o *OCCA) AssemblePotential(job *kernels.PotentialJob) (*mat.CDense, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if job.Assembly == kernels.DefaultSparse {
		return nil, fmt.Errorf("device cannot assemble %v", job.Assembly)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.programs == nil {
		return nil, fmt.Errorf("device %s is closed", o.dev.Mode())
	}

	key := programKey{kernel: job.Kernel, assembly: job.Assembly, single: job.SinglePrecision}
	k, err := o.program(key)
	if err != nil {
		return nil, err
	}

	rows, cols := job.Rows(), job.NumDofs
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("empty potential job: %d rows, %d dofs", rows, cols)
	}
	if job.SinglePrecision {
		return launch[float32](o, k, job, rows, cols)
	}
	return launch[float64](o, k, job, rows, cols)
}

type scalar interface{ ~float32 | ~float64 }

// upload copies data to a new device buffer, converting to T
func upload[T scalar](dev *gocca.OCCADevice, data []float64) *gocca.OCCAMemory {
	buf := make([]T, max(len(data), 1))
	for i, v := range data {
		buf[i] = T(v)
	}
	var zero T
	return dev.Malloc(int64(len(buf))*int64(unsafe.Sizeof(zero)), unsafe.Pointer(&buf[0]), nil)
}

func launch[T scalar](o *OCCA, k *gocca.OCCAKernel, job *kernels.PotentialJob, rows, cols int) (*mat.CDense, error) {
	dofs := make([]int32, max(len(job.Dofs), 1))
	for i, d := range job.Dofs {
		dofs[i] = int32(d)
	}
	mems := []*gocca.OCCAMemory{
		upload[T](o.dev, job.Points),
		upload[T](o.dev, job.Sources3),
		upload[T](o.dev, job.Normals3),
		upload[T](o.dev, job.Basis3),
		upload[T](o.dev, job.Divergences),
		upload[T](o.dev, job.Weights),
		o.dev.Malloc(int64(len(dofs)*4), unsafe.Pointer(&dofs[0]), nil),
		upload[T](o.dev, make([]float64, rows*cols)),
		upload[T](o.dev, make([]float64, rows*cols)),
	}
	defer func() {
		for _, m := range mems {
			m.Free()
		}
	}()

	args := []interface{}{
		int32(job.NumPoints()), int32(job.NumContributions()), int32(job.NumDofs),
		T(real(job.Wavenumber)), T(imag(job.Wavenumber)),
	}
	for _, m := range mems {
		args = append(args, m)
	}
	if err := k.RunWithArgs(args...); err != nil {
		return nil, fmt.Errorf("potential kernel: %w", err)
	}
	o.dev.Finish()

	re, im := make([]T, rows*cols), make([]T, rows*cols)
	var zero T
	size := int64(rows*cols) * int64(unsafe.Sizeof(zero))
	mems[7].CopyTo(unsafe.Pointer(&re[0]), size)
	mems[8].CopyTo(unsafe.Pointer(&im[0]), size)

	data := make([]complex128, rows*cols)
	for i := range data {
		data[i] = complex(float64(re[i]), float64(im[i]))
	}
	o.logger.Debug("potential assembled on device",
		zap.String("device", o.dev.Mode()), zap.Stringer("assembly", job.Assembly),
		zap.Int("rows", rows), zap.Int("cols", cols))
	return mat.NewCDense(rows, cols, data), nil
}
