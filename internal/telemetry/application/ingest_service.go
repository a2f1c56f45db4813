package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"vessel-ingestor/internal/observability/metrics"
	telemetry "vessel-ingestor/internal/telemetry/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Summary reports the result of one ingested payload.
type Summary struct {
	VesselID          string
	AcceptedCount     int
	RejectedCount     int
	ValidationElapsed time.Duration
	IngestionElapsed  time.Duration
	TotalElapsed      time.Duration
}

// OutcomeCounts tallies classification results of one payload.
type OutcomeCounts struct {
	Accepted      int
	TypeMismatch  int
	OutOfRange    int
	UnknownSignal int
}

// IngestService validates telemetry payloads and routes signals to storage.
type IngestService struct {
	registry *telemetry.Registry
	vessels  telemetry.VesselChecker
	store    telemetry.SignalStore
	clock    Clock
}

// IngestOption customizes the ingest service.
type IngestOption func(*IngestService)

// WithClock assigns a clock.
func WithClock(clock Clock) IngestOption {
	return func(s *IngestService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewIngestService constructs an ingest service.
func NewIngestService(registry *telemetry.Registry, vessels telemetry.VesselChecker, store telemetry.SignalStore, opts ...IngestOption) (*IngestService, error) {
	if registry == nil {
		return nil, errors.New("ingest: nil signal registry")
	}
	if vessels == nil {
		return nil, errors.New("ingest: nil vessel checker")
	}
	if store == nil {
		return nil, errors.New("ingest: nil signal store")
	}
	service := &IngestService{
		registry: registry,
		vessels:  vessels,
		store:    store,
		clock:    systemClock{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Ingest validates a payload and persists both signal partitions and the timing row.
// Signal rejections are not errors; the returned error is one of
// ErrMalformedInput, ErrVesselNotPermitted or ErrPersistence.
func (s *IngestService) Ingest(ctx context.Context, payload telemetry.Payload) (Summary, error) {
	if s == nil {
		return Summary{}, errors.New("ingest: nil service")
	}
	start := s.clock.Now()

	ts, err := telemetry.ParseTimestamp(payload.TimestampUTC)
	if err != nil {
		return Summary{}, err
	}

	validationStart := s.clock.Now()
	admitted, err := telemetry.Admit(ctx, payload.VesselID, s.vessels)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: vessel lookup: %v", telemetry.ErrPersistence, err)
	}
	if !admitted {
		return Summary{}, fmt.Errorf("%w: %q", telemetry.ErrVesselNotPermitted, payload.VesselID)
	}

	batch, counts := Partition(payload.VesselID, ts, payload.Signals, s.registry)
	validationElapsed := s.clock.Now().Sub(validationStart)
	metrics.ObserveSignalOutcomes(counts.Accepted, counts.TypeMismatch, counts.OutOfRange, counts.UnknownSignal)
	metrics.ObservePhase(metrics.PhaseValidation, validationElapsed)

	ingestionStart := s.clock.Now()
	if err := s.store.SaveSignals(ctx, batch); err != nil {
		return Summary{}, fmt.Errorf("%w: save signals: %v", telemetry.ErrPersistence, err)
	}
	ingestionElapsed := s.clock.Now().Sub(ingestionStart)
	metrics.ObservePhase(metrics.PhaseIngestion, ingestionElapsed)

	row := telemetry.MetricsRow{
		VesselID:     payload.VesselID,
		ValidationMs: validationElapsed.Milliseconds(),
		IngestionMs:  ingestionElapsed.Milliseconds(),
		TotalMs:      s.clock.Now().Sub(start).Milliseconds(),
	}
	if err := s.store.SaveMetrics(ctx, row); err != nil {
		return Summary{}, fmt.Errorf("%w: save metrics: %v", telemetry.ErrPersistence, err)
	}

	return Summary{
		VesselID:          payload.VesselID,
		AcceptedCount:     len(batch.Accepted),
		RejectedCount:     len(batch.Rejected),
		ValidationElapsed: validationElapsed,
		IngestionElapsed:  ingestionElapsed,
		TotalElapsed:      s.clock.Now().Sub(start),
	}, nil
}

// Partition classifies every signal and splits them into accepted and rejected rows.
// Rows are ordered by signal name so the result does not depend on map iteration order.
func Partition(vesselID string, ts time.Time, signals map[string]telemetry.RawValue, registry *telemetry.Registry) (telemetry.Batch, OutcomeCounts) {
	names := make([]string, 0, len(signals))
	for name := range signals {
		names = append(names, name)
	}
	sort.Strings(names)

	var batch telemetry.Batch
	var counts OutcomeCounts
	for _, name := range names {
		raw := signals[name]
		outcome := registry.Classify(name, raw)
		if outcome.Accepted {
			counts.Accepted++
			batch.Accepted = append(batch.Accepted, telemetry.AcceptedRow{
				VesselID:   vesselID,
				TS:         ts,
				SignalName: name,
				Value:      outcome.Value,
			})
			continue
		}

		switch {
		case !outcome.Known:
			counts.UnknownSignal++
		case outcome.Reason == telemetry.ReasonOutOfRange:
			counts.OutOfRange++
		default:
			counts.TypeMismatch++
		}
		batch.Rejected = append(batch.Rejected, telemetry.RejectedRow{
			VesselID:   vesselID,
			TS:         ts,
			SignalName: name,
			Value:      raw.NumberOrNil(),
			Reason:     outcome.Reason,
		})
	}
	return batch, counts
}
