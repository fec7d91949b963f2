package kernels

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Backend assembles a potential job on the host
type Backend interface {
	Assemble(job *PotentialJob, workers int) (*mat.CDense, error)
}

// BackendFunc adapts a function to the Backend interface
type BackendFunc func(job *PotentialJob, workers int) (*mat.CDense, error)

func (f BackendFunc) Assemble(job *PotentialJob, workers int) (*mat.CDense, error) {
	return f(job, workers)
}

var (
	backendsMu sync.RWMutex
	backends   = map[string]Backend{
		"dense": BackendFunc(AssembleDense),
	}
)

// RegisterBackend makes a backend available under name. Registering an
// existing name is an error.
func RegisterBackend(name string, b Backend) error {
	if name == "" || b == nil {
		return fmt.Errorf("backend name and implementation are required")
	}
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, exists := backends[name]; exists {
		return fmt.Errorf("backend %q already registered", name)
	}
	backends[name] = b
	return nil
}

// LookupBackend returns the backend registered under name
func LookupBackend(name string) (Backend, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	b, ok := backends[name]
	return b, ok
}

// BackendNames lists registered backends in sorted order
func BackendNames() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// pointsPerTask bounds the rows a single worker claims at once
const pointsPerTask = 32

// AssembleDense evaluates the full dense matrix, splitting evaluation points
// into chunks processed by up to workers goroutines (0 means GOMAXPROCS).
// Every chunk owns its rows, so the result does not depend on scheduling.
func AssembleDense(job *PotentialJob, workers int) (*mat.CDense, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := mat.NewCDense(job.Rows(), job.NumDofs, nil)
	npts := job.NumPoints()

	var eg errgroup.Group
	eg.SetLimit(workers)
	for p0 := 0; p0 < npts; p0 += pointsPerTask {
		p1 := min(p0+pointsPerTask, npts)
		eg.Go(func() error {
			job.EvaluateRange(out, p0, p1)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if job.SinglePrecision {
		RoundToSingle(out)
	}
	return out, nil
}

// RoundToSingle rounds every entry to complex64 precision in place
func RoundToSingle(m *mat.CDense) {
	raw := m.RawCMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j, v := range row {
			row[j] = complex128(complex64(v))
		}
	}
}
