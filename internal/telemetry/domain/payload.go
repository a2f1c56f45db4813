package telemetry

import (
	"fmt"
	"time"
)

// Payload is a single vessel telemetry submission.
type Payload struct {
	VesselID     string              `json:"vesselId"`
	TimestampUTC string              `json:"timestampUTC"`
	EpochUTC     *int64              `json:"epochUTC,omitempty"`
	Signals      map[string]RawValue `json:"signals"`
}

// ParseTimestamp parses an RFC 3339 timestamp and normalizes it to UTC.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestampUTC", ErrMalformedInput)
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestampUTC %q", ErrMalformedInput, value)
	}
	return ts.UTC(), nil
}
