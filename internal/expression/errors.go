package expression

import "errors"

// Errors returned by expression compilation and evaluation.
var (
	// ErrAssignment indicates the source contains a bare assignment operator.
	ErrAssignment = errors.New("expressions cannot assign")

	// ErrEmptySource indicates an empty expression source.
	ErrEmptySource = errors.New("empty expression")

	// ErrUndefined indicates an expression evaluated to no value.
	ErrUndefined = errors.New("expression result is undefined")
)
