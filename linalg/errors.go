package linalg

import (
	"errors"
	"fmt"
)

var (
	ErrSingularMatrix = errors.New("linalg: singular matrix")
	ErrNotConverged   = errors.New("linalg: iteration did not converge")
	ErrDimension      = errors.New("linalg: dimension mismatch")
)

type ErrorKind uint8

const (
	Singular ErrorKind = iota
	NotConverged
)

// NumericalError reports a failed solve together with the diagnostics
// available at the point of failure
type NumericalError struct {
	Kind       ErrorKind
	Iterations int
	Residual   float64 // relative residual ||b - Ax|| / ||b||
	Condition  float64 // condition estimate, 0 when not computed
}

func (e *NumericalError) Error() string {
	switch e.Kind {
	case Singular:
		return fmt.Sprintf("%v: condition estimate %.3g", ErrSingularMatrix, e.Condition)
	default:
		return fmt.Sprintf("%v: relative residual %.3g after %d iterations",
			ErrNotConverged, e.Residual, e.Iterations)
	}
}

func (e *NumericalError) Unwrap() error {
	if e.Kind == Singular {
		return ErrSingularMatrix
	}
	return ErrNotConverged
}
