package types

import "errors"

var (
	// ErrInvalidSpecification marks configuration that would otherwise divide
	// by zero or produce NaN: non-positive rated power, voltage, current,
	// specific gravity or design head.
	ErrInvalidSpecification = errors.New("invalid specification")

	// ErrMeasurementOutOfRange marks readings that cannot be physical, such as
	// negative vibration velocity, temperature, voltage or current.
	ErrMeasurementOutOfRange = errors.New("measurement out of range")

	// ErrUnknownAsset is returned by catalog lookups for an unregistered tag.
	ErrUnknownAsset = errors.New("unknown asset")
)
