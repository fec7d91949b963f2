package assembly

import "errors"

var (
	// ErrDimensionMismatch: coefficient or field value lengths do not fit
	ErrDimensionMismatch = errors.New("assembly: dimension mismatch")
	// ErrShapeMismatch: blocked operator rows, columns or right-hand sides do not fit
	ErrShapeMismatch = errors.New("assembly: shape mismatch")
	// ErrIncompatibleDomain: a function or operator lives on a different space
	ErrIncompatibleDomain = errors.New("assembly: incompatible domain")
)
