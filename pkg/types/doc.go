// Package types defines the small set of values shared by every diagnostic
// domain: the three-level Status scale and the sentinel errors that separate
// malformed input from unhealthy machinery.
//
// An unhealthy asset is never an error. Analyzers return faults and a Status
// for elevated vibration, unbalance or degraded head; errors are reserved for
// configuration that cannot be computed (ErrInvalidSpecification) and readings
// that cannot be physical (ErrMeasurementOutOfRange).
package types
