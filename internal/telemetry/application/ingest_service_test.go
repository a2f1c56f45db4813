package application

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	telemetry "vessel-ingestor/internal/telemetry/domain"
	"vessel-ingestor/internal/telemetry/infrastructure/memory"
)

type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

type failingStore struct {
	signalsErr error
	metricsErr error
	saved      int
}

func (s *failingStore) SaveSignals(_ context.Context, batch telemetry.Batch) error {
	if s.signalsErr != nil {
		return s.signalsErr
	}
	s.saved += batch.Len()
	return nil
}

func (s *failingStore) SaveMetrics(_ context.Context, _ telemetry.MetricsRow) error {
	return s.metricsErr
}

func activeVessels(ids ...string) telemetry.VesselChecker {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return telemetry.VesselCheckerFunc(func(_ context.Context, vesselID string) (bool, error) {
		_, ok := set[vesselID]
		return ok, nil
	})
}

func newRegistry(t *testing.T) *telemetry.Registry {
	t.Helper()
	registry, err := telemetry.NewRegistry([]telemetry.SignalDefinition{
		{Name: "Signal_1", Kind: telemetry.SignalKindDigital},
		{Name: "Signal_2", Kind: telemetry.SignalKindDigital},
		{Name: "Signal_70", Kind: telemetry.SignalKindAnalog},
		{Name: "Signal_71", Kind: telemetry.SignalKindAnalog},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registry
}

func newService(t *testing.T, store telemetry.SignalStore, vessels telemetry.VesselChecker) *IngestService {
	t.Helper()
	clock := &stepClock{now: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), step: time.Millisecond}
	service, err := NewIngestService(newRegistry(t), vessels, store, WithClock(clock))
	if err != nil {
		t.Fatalf("new ingest service: %v", err)
	}
	return service
}

func payload(vesselID string, signals map[string]telemetry.RawValue) telemetry.Payload {
	return telemetry.Payload{
		VesselID:     vesselID,
		TimestampUTC: "2025-03-01T10:15:30Z",
		Signals:      signals,
	}
}

func TestIngestMixedPayload(t *testing.T) {
	store := memory.NewSignalStore()
	service := newService(t, store, activeVessels("1001"))

	summary, err := service.Ingest(context.Background(), payload("1001", map[string]telemetry.RawValue{
		"Signal_1":   telemetry.NumberValue(1),
		"Signal_70":  telemetry.NumberValue(123.4),
		"Signal_999": telemetry.NumberValue(3.14),
	}))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.AcceptedCount != 2 || summary.RejectedCount != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	accepted := store.Accepted()
	if len(accepted) != 2 || accepted[0].SignalName != "Signal_1" || accepted[1].SignalName != "Signal_70" {
		t.Fatalf("unexpected accepted rows %+v", accepted)
	}
	if accepted[1].Value != 123.4 {
		t.Fatalf("expected 123.4, got %v", accepted[1].Value)
	}
	wantTS := time.Date(2025, 3, 1, 10, 15, 30, 0, time.UTC)
	if !accepted[0].TS.Equal(wantTS) {
		t.Fatalf("expected ts %s, got %s", wantTS, accepted[0].TS)
	}

	rejected := store.Rejected()
	if len(rejected) != 1 || rejected[0].SignalName != "Signal_999" || rejected[0].Reason != telemetry.ReasonTypeMismatch {
		t.Fatalf("unexpected rejected rows %+v", rejected)
	}
	if rejected[0].Value == nil || *rejected[0].Value != 3.14 {
		t.Fatalf("expected numeric value kept for unknown signal")
	}

	rows := store.Metrics()
	if len(rows) != 1 || rows[0].VesselID != "1001" {
		t.Fatalf("expected one metrics row, got %+v", rows)
	}
}

func TestIngestAllRejectedIsSuccess(t *testing.T) {
	store := memory.NewSignalStore()
	service := newService(t, store, activeVessels("1001"))

	summary, err := service.Ingest(context.Background(), payload("1001", map[string]telemetry.RawValue{
		"Signal_1":  telemetry.BoolValue(true),
		"Signal_70": telemetry.TextValue("123.4"),
	}))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.AcceptedCount != 0 {
		t.Fatalf("expected 0 accepted, got %d", summary.AcceptedCount)
	}
	rejected := store.Rejected()
	if len(rejected) != 2 {
		t.Fatalf("expected 2 rejected, got %d", len(rejected))
	}
	for _, row := range rejected {
		if row.Reason != telemetry.ReasonTypeMismatch {
			t.Fatalf("expected type_mismatch, got %s", row.Reason)
		}
		if row.Value != nil {
			t.Fatalf("expected nil value for non-numeric input")
		}
	}
	if len(store.Metrics()) != 1 {
		t.Fatalf("expected metrics row for all-rejected payload")
	}
}

func TestIngestDeniedVesselWritesNothing(t *testing.T) {
	store := memory.NewSignalStore()
	service := newService(t, store, activeVessels("1001"))

	_, err := service.Ingest(context.Background(), payload("unknown-xyz", map[string]telemetry.RawValue{
		"Signal_1": telemetry.NumberValue(1),
	}))
	if !errors.Is(err, telemetry.ErrVesselNotPermitted) {
		t.Fatalf("expected ErrVesselNotPermitted, got %v", err)
	}
	if len(store.Accepted())+len(store.Rejected())+len(store.Metrics()) != 0 {
		t.Fatalf("expected no rows written")
	}
}

func TestIngestAnalogBounds(t *testing.T) {
	store := memory.NewSignalStore()
	service := newService(t, store, activeVessels("1001"))

	summary, err := service.Ingest(context.Background(), payload("1001", map[string]telemetry.RawValue{
		"Signal_70": telemetry.NumberValue(0.5),
		"Signal_71": telemetry.NumberValue(65535.0),
	}))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.AcceptedCount != 1 {
		t.Fatalf("expected 1 accepted, got %d", summary.AcceptedCount)
	}
	if accepted := store.Accepted(); accepted[0].SignalName != "Signal_71" {
		t.Fatalf("expected upper bound accepted, got %+v", accepted)
	}
	rejected := store.Rejected()
	if rejected[0].SignalName != "Signal_70" || rejected[0].Reason != telemetry.ReasonOutOfRange {
		t.Fatalf("expected out_of_range for Signal_70, got %+v", rejected)
	}
}

func TestIngestMalformedTimestamp(t *testing.T) {
	called := false
	vessels := telemetry.VesselCheckerFunc(func(_ context.Context, _ string) (bool, error) {
		called = true
		return true, nil
	})
	store := memory.NewSignalStore()
	service := newService(t, store, vessels)

	p := payload("1001", map[string]telemetry.RawValue{"Signal_1": telemetry.NumberValue(1)})
	p.TimestampUTC = "not-a-date"
	if _, err := service.Ingest(context.Background(), p); !errors.Is(err, telemetry.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
	if called {
		t.Fatalf("vessel check should not run for malformed input")
	}
	if len(store.Metrics()) != 0 {
		t.Fatalf("expected no writes")
	}
}

func TestIngestPersistenceFailures(t *testing.T) {
	boom := errors.New("connection reset")
	cases := []struct {
		name  string
		store *failingStore
	}{
		{"signals", &failingStore{signalsErr: boom}},
		{"metrics", &failingStore{metricsErr: boom}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := newService(t, tc.store, activeVessels("1001"))
			_, err := service.Ingest(context.Background(), payload("1001", map[string]telemetry.RawValue{
				"Signal_1": telemetry.NumberValue(0),
			}))
			if !errors.Is(err, telemetry.ErrPersistence) {
				t.Fatalf("expected ErrPersistence, got %v", err)
			}
		})
	}
}

func TestIngestVesselLookupFailure(t *testing.T) {
	vessels := telemetry.VesselCheckerFunc(func(_ context.Context, _ string) (bool, error) {
		return false, errors.New("db down")
	})
	service := newService(t, memory.NewSignalStore(), vessels)
	_, err := service.Ingest(context.Background(), payload("1001", nil))
	if !errors.Is(err, telemetry.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestIngestTimings(t *testing.T) {
	store := memory.NewSignalStore()
	service := newService(t, store, activeVessels("1001"))

	summary, err := service.Ingest(context.Background(), payload("1001", map[string]telemetry.RawValue{
		"Signal_1": telemetry.NumberValue(1),
	}))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	// Each clock read advances one millisecond.
	if summary.ValidationElapsed != time.Millisecond || summary.IngestionElapsed != time.Millisecond {
		t.Fatalf("unexpected phase timings %+v", summary)
	}
	if summary.TotalElapsed <= summary.ValidationElapsed+summary.IngestionElapsed {
		t.Fatalf("total should cover both phases: %+v", summary)
	}
	row := store.Metrics()[0]
	if row.ValidationMs != 1 || row.IngestionMs != 1 || row.TotalMs < 2 {
		t.Fatalf("unexpected metrics row %+v", row)
	}
}

func TestPartitionCompleteAndOrderIndependent(t *testing.T) {
	registry := newRegistry(t)
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"Signal_1", "Signal_2", "Signal_70", "Signal_71", "Signal_999", "Signal_1000"}
	values := []telemetry.RawValue{
		telemetry.NumberValue(1),
		telemetry.NumberValue(2),
		telemetry.NumberValue(500),
		telemetry.NumberValue(70000),
		telemetry.TextValue("x"),
		telemetry.NullValue(),
	}

	var first telemetry.Batch
	for attempt := 0; attempt < 10; attempt++ {
		signals := make(map[string]telemetry.RawValue, len(names))
		for i := range names {
			idx := (i + attempt) % len(names)
			signals[names[idx]] = values[idx]
		}
		batch, counts := Partition("1001", ts, signals, registry)
		if batch.Len() != len(signals) {
			t.Fatalf("expected %d rows, got %d", len(signals), batch.Len())
		}
		if counts.Accepted+counts.TypeMismatch+counts.OutOfRange+counts.UnknownSignal != len(signals) {
			t.Fatalf("counts do not cover payload: %+v", counts)
		}
		if counts.UnknownSignal != 2 || counts.OutOfRange != 1 || counts.TypeMismatch != 1 || counts.Accepted != 2 {
			t.Fatalf("unexpected counts %+v", counts)
		}

		seen := make(map[string]struct{})
		for _, row := range batch.Accepted {
			seen[row.SignalName] = struct{}{}
		}
		for _, row := range batch.Rejected {
			if _, dup := seen[row.SignalName]; dup {
				t.Fatalf("%s in both partitions", row.SignalName)
			}
			seen[row.SignalName] = struct{}{}
		}
		if len(seen) != len(names) {
			t.Fatalf("expected %d distinct names, got %d", len(names), len(seen))
		}

		if attempt == 0 {
			first = batch
			continue
		}
		if !reflect.DeepEqual(first, batch) {
			t.Fatalf("partition changed with iteration order")
		}
	}

	rejectedNames := make([]string, 0, len(first.Rejected))
	for _, row := range first.Rejected {
		rejectedNames = append(rejectedNames, row.SignalName)
	}
	if !sort.StringsAreSorted(rejectedNames) {
		t.Fatalf("rejected rows should be ordered by name: %v", rejectedNames)
	}
}

func TestNewIngestServiceValidatesDependencies(t *testing.T) {
	registry := newRegistry(t)
	store := memory.NewSignalStore()
	vessels := activeVessels()
	if _, err := NewIngestService(nil, vessels, store); err == nil {
		t.Fatalf("expected error for nil registry")
	}
	if _, err := NewIngestService(registry, nil, store); err == nil {
		t.Fatalf("expected error for nil vessel checker")
	}
	if _, err := NewIngestService(registry, vessels, nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestIngestEmptySignalNameIsRejectedNotFailed(t *testing.T) {
	store := memory.NewSignalStore()
	service := newService(t, store, activeVessels("1001"))

	summary, err := service.Ingest(context.Background(), payload("1001", map[string]telemetry.RawValue{
		"":         telemetry.NumberValue(5),
		"Signal_1": telemetry.NumberValue(1),
	}))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.AcceptedCount != 1 || summary.RejectedCount != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	rejected := store.Rejected()
	if len(rejected) != 1 || rejected[0].SignalName != "" || rejected[0].Reason != telemetry.ReasonTypeMismatch {
		t.Fatalf("unexpected rejected rows %+v", rejected)
	}
}

func TestIngestYearOneTimestamp(t *testing.T) {
	store := memory.NewSignalStore()
	service := newService(t, store, activeVessels("1001"))

	p := payload("1001", map[string]telemetry.RawValue{
		"Signal_1":   telemetry.NumberValue(0),
		"Signal_999": telemetry.NumberValue(2),
	})
	p.TimestampUTC = "0001-01-01T00:00:00Z"

	summary, err := service.Ingest(context.Background(), p)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.AcceptedCount != 1 || summary.RejectedCount != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if accepted := store.Accepted(); len(accepted) != 1 || !accepted[0].TS.IsZero() {
		t.Fatalf("expected year-1 timestamp stored, got %+v", accepted)
	}
}
