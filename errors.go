package goocclusion

import "errors"

var (
	// ErrAxisMismatch is returned when two operands do not share the same frequency axis.
	ErrAxisMismatch = errors.New("goocclusion: frequency axis mismatch")
	// ErrInvalidAxis is returned for axes that are not strictly increasing.
	ErrInvalidAxis = errors.New("goocclusion: frequency axis must be strictly increasing")
	// ErrLengthMismatch is returned when samples and frequencies differ in length.
	ErrLengthMismatch = errors.New("goocclusion: samples and frequencies differ in length")
	// ErrNonPositiveArea is returned for duct segments with area <= 0.
	ErrNonPositiveArea = errors.New("goocclusion: cross-sectional area must be positive")
	// ErrNegativeLength is returned for duct segments with length < 0.
	ErrNegativeLength = errors.New("goocclusion: segment length must not be negative")
	// ErrNonPositiveFrequency is returned when a lumped model is evaluated at f <= 0.
	ErrNonPositiveFrequency = errors.New("goocclusion: frequencies must be positive")
	// ErrUnsupportedPorts is returned for port indices other than 0 and 1.
	ErrUnsupportedPorts = errors.New("goocclusion: unsupported io ports")
	// ErrEmptyCollection is returned when aggregating an empty set of series.
	ErrEmptyCollection = errors.New("goocclusion: empty series collection")
	// ErrInvalidCircuit is returned for malformed circuit description codes.
	ErrInvalidCircuit = errors.New("goocclusion: invalid circuit code")
)
