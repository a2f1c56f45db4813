package telemetry

const (
	// AnalogMin is the inclusive lower bound for analog values.
	AnalogMin = 1.0
	// AnalogMax is the inclusive upper bound for analog values.
	AnalogMax = 65535.0
)

// Reason is the storage code attached to a rejected signal.
type Reason string

const (
	ReasonTypeMismatch Reason = "type_mismatch"
	ReasonOutOfRange   Reason = "out_of_range"
)

// Outcome is the classification of a single signal.
type Outcome struct {
	Accepted bool
	Value    float64
	Reason   Reason
	// Known is false when the signal name is not in the registry.
	Known bool
}

// Accept returns an accepted outcome.
func Accept(value float64) Outcome {
	return Outcome{Accepted: true, Value: value, Known: true}
}

// Reject returns a rejected outcome.
func Reject(reason Reason, known bool) Outcome {
	return Outcome{Reason: reason, Known: known}
}

// Classify decides whether raw is a legal value for def.
// Unknown names are rejected as type mismatches.
func Classify(def SignalDefinition, known bool, raw RawValue) Outcome {
	if !known {
		return Reject(ReasonTypeMismatch, false)
	}
	if raw.Type != ValueNumber {
		return Reject(ReasonTypeMismatch, true)
	}

	switch def.Kind {
	case SignalKindDigital:
		if raw.Number == 0 || raw.Number == 1 {
			return Accept(raw.Number)
		}
		return Reject(ReasonTypeMismatch, true)
	case SignalKindAnalog:
		if raw.Number >= AnalogMin && raw.Number <= AnalogMax {
			return Accept(raw.Number)
		}
		return Reject(ReasonOutOfRange, true)
	default:
		return Reject(ReasonTypeMismatch, true)
	}
}
