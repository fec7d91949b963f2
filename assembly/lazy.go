package assembly

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// State of a lazily assembled operator
type State uint8

const (
	Unassembled State = iota
	Assembled
	Faulted
)

func (s State) String() string {
	switch s {
	case Unassembled:
		return "unassembled"
	case Assembled:
		return "assembled"
	case Faulted:
		return "faulted"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// lazyMatrix runs a build function at most once. A failed build is sticky:
// every later call returns the same error without rebuilding.
type lazyMatrix struct {
	mu     sync.Mutex
	state  State
	matrix *mat.CDense
	err    error
}

func (l *lazyMatrix) get(build func() (*mat.CDense, error)) (*mat.CDense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case Assembled:
		return l.matrix, nil
	case Faulted:
		return nil, l.err
	}
	m, err := build()
	if err != nil {
		l.state, l.err = Faulted, err
		return nil, err
	}
	l.state, l.matrix = Assembled, m
	return m, nil
}

func (l *lazyMatrix) current() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// gemv computes dst = alpha m x + beta dst
func gemv(dst []complex128, alpha complex128, m *mat.CDense, x []complex128, beta complex128) {
	raw := m.RawCMatrix()
	cblas128.Gemv(blas.NoTrans, alpha, raw,
		cblas128.Vector{N: raw.Cols, Data: x, Inc: 1}, beta,
		cblas128.Vector{N: raw.Rows, Data: dst, Inc: 1})
}
