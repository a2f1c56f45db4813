package telemetry

import (
	"context"
	"time"
)

// AcceptedRow is a validated signal routed to raw storage.
type AcceptedRow struct {
	VesselID   string
	TS         time.Time
	SignalName string
	Value      float64
}

// RejectedRow is a signal routed to filtered storage.
type RejectedRow struct {
	VesselID   string
	TS         time.Time
	SignalName string
	Value      *float64
	Reason     Reason
}

// Batch holds both partitions of one payload.
type Batch struct {
	Accepted []AcceptedRow
	Rejected []RejectedRow
}

// Len returns the total number of rows.
func (b Batch) Len() int {
	return len(b.Accepted) + len(b.Rejected)
}

// MetricsRow records request timings in milliseconds.
type MetricsRow struct {
	VesselID     string
	ValidationMs int64
	IngestionMs  int64
	TotalMs      int64
}

// SignalStore persists ingestion output.
type SignalStore interface {
	SaveSignals(ctx context.Context, batch Batch) error
	SaveMetrics(ctx context.Context, row MetricsRow) error
}

// RejectionRecord is a stored rejected signal.
type RejectionRecord struct {
	VesselID   string
	TS         time.Time
	SignalName string
	Value      *float64
	Reason     Reason
	CreatedAt  time.Time
}

// RejectionQuery reads filtered signals back for reporting.
type RejectionQuery interface {
	ListRejections(ctx context.Context, vesselID string, from, to time.Time, limit int) ([]RejectionRecord, error)
}
