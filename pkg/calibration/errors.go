package calibration

import "errors"

var (
	// ErrPropertyNotFound reports a gate/qubit/property lookup miss. Lookups
	// never fall back to defaults; callers handle this per query.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrAttributeNotFound reports access to an extension field that was
	// never recorded.
	ErrAttributeNotFound = errors.New("attribute not defined")

	// ErrUnknownUnit reports a unit string that could not be resolved while
	// building the snapshot indices.
	ErrUnknownUnit = errors.New("unrecognized unit")

	// ErrNotConvertible reports a capability map carrying neither gate
	// timing/error data nor complete readout data.
	ErrNotConvertible = errors.New("target carries no calibration data")
)
