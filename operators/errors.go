package operators

import "errors"

// ErrInvalidConfiguration is returned for unknown assembler, precision or
// backend names, malformed evaluation points and incompatible descriptor
// fields. Wrap with fmt.Errorf("ctx: %w", ErrInvalidConfiguration) to add context.
var ErrInvalidConfiguration = errors.New("operators: invalid configuration")
