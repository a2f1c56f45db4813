package telemetry

import "errors"

var (
	// ErrMalformedInput indicates an unparseable payload field.
	ErrMalformedInput = errors.New("telemetry: malformed input")
	// ErrVesselNotPermitted indicates an unknown or inactive vessel.
	ErrVesselNotPermitted = errors.New("telemetry: vessel not permitted")
	// ErrPersistence indicates a storage failure.
	ErrPersistence = errors.New("telemetry: persistence failure")

	ErrEmptySignalName     = errors.New("telemetry: empty signal name")
	ErrInvalidSignalKind   = errors.New("telemetry: invalid signal kind")
	ErrConflictingSignal   = errors.New("telemetry: conflicting signal declaration")
	ErrNilDefinitionSource = errors.New("telemetry: nil definition source")
)
