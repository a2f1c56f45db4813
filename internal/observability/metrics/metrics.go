package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "vessel_ingest_"

	resultSuccess = "success"
	resultError   = "error"

	outcomeAccepted      = "accepted"
	outcomeTypeMismatch  = "type_mismatch"
	outcomeOutOfRange    = "out_of_range"
	outcomeUnknownSignal = "unknown_signal"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec
	phaseLatency   *prometheus.HistogramVec

	signalOutcomes *prometheus.CounterVec
	registrySize   prometheus.Gauge

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers ingest metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "requests_total",
				Help: "Total telemetry ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "errors_total",
				Help: "Total failed ingest requests by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "latency_seconds",
				Help:    "Ingest request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		phaseLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "phase_latency_seconds",
				Help:    "Ingest phase latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"phase"},
		)

		signalOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "signals_total",
				Help: "Total classified signals by outcome",
			},
			[]string{"outcome"},
		)
		registrySize = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "registry_signals",
				Help: "Signals declared in the loaded registry",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rejection_export_total",
				Help: "Total rejection report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "rejection_export_latency_seconds",
				Help:    "Rejection report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			phaseLatency,
			signalOutcomes,
			registrySize,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// ObservePhase records the duration of one ingest phase.
func ObservePhase(phase string, duration time.Duration) {
	if phase == "" {
		phase = "unknown"
	}
	if phaseLatency != nil {
		phaseLatency.WithLabelValues(phase).Observe(duration.Seconds())
	}
}

// ObserveSignalOutcomes adds per-outcome signal counts of one payload.
func ObserveSignalOutcomes(accepted, typeMismatch, outOfRange, unknownSignal int) {
	if signalOutcomes == nil {
		return
	}
	add := func(outcome string, count int) {
		if count > 0 {
			signalOutcomes.WithLabelValues(outcome).Add(float64(count))
		}
	}
	add(outcomeAccepted, accepted)
	add(outcomeTypeMismatch, typeMismatch)
	add(outcomeOutOfRange, outOfRange)
	add(outcomeUnknownSignal, unknownSignal)
}

// SetRegistrySize records the number of loaded signal declarations.
func SetRegistrySize(count int) {
	if registrySize != nil {
		registrySize.Set(float64(count))
	}
}

// ObserveRejectionExport records export latency and result.
func ObserveRejectionExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	PhaseValidation = "validation"
	PhaseIngestion  = "ingestion"

	ErrorReasonDecode         = "decode"
	ErrorReasonMalformedInput = "malformed_input"
	ErrorReasonVesselDenied   = "vessel_not_permitted"
	ErrorReasonPersistence    = "persistence"
)
