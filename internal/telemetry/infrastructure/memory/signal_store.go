package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	telemetry "vessel-ingestor/internal/telemetry/domain"
)

// SignalStore is an in-memory test double for the service and HTTP tests.
// It implements both SignalStore and RejectionQuery; main always uses Postgres.
type SignalStore struct {
	mu       sync.RWMutex
	accepted []telemetry.AcceptedRow
	rejected []telemetry.RejectionRecord
	metrics  []telemetry.MetricsRow
	now      func() time.Time
}

// NewSignalStore constructs a store.
func NewSignalStore() *SignalStore {
	return &SignalStore{now: func() time.Time { return time.Now().UTC() }}
}

// SaveSignals appends both partitions.
func (s *SignalStore) SaveSignals(ctx context.Context, batch telemetry.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accepted = append(s.accepted, batch.Accepted...)
	createdAt := s.now()
	for _, row := range batch.Rejected {
		s.rejected = append(s.rejected, telemetry.RejectionRecord{
			VesselID:   row.VesselID,
			TS:         row.TS,
			SignalName: row.SignalName,
			Value:      row.Value,
			Reason:     row.Reason,
			CreatedAt:  createdAt,
		})
	}
	return nil
}

// SaveMetrics appends a timing row.
func (s *SignalStore) SaveMetrics(ctx context.Context, row telemetry.MetricsRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, row)
	return nil
}

// ListRejections returns rejected rows for a vessel in [from, to), newest first.
func (s *SignalStore) ListRejections(ctx context.Context, vesselID string, from, to time.Time, limit int) ([]telemetry.RejectionRecord, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []telemetry.RejectionRecord
	for _, record := range s.rejected {
		if record.VesselID != vesselID {
			continue
		}
		if record.TS.Before(from) || !record.TS.Before(to) {
			continue
		}
		result = append(result, record)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TS.After(result[j].TS)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Accepted returns a copy of stored accepted rows.
func (s *SignalStore) Accepted() []telemetry.AcceptedRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]telemetry.AcceptedRow(nil), s.accepted...)
}

// Rejected returns a copy of stored rejected rows.
func (s *SignalStore) Rejected() []telemetry.RejectionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]telemetry.RejectionRecord(nil), s.rejected...)
}

// Metrics returns a copy of stored timing rows.
func (s *SignalStore) Metrics() []telemetry.MetricsRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]telemetry.MetricsRow(nil), s.metrics...)
}
