package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"vessel-ingestor/internal/observability/metrics"
	"vessel-ingestor/internal/telemetry/application"
	telemetry "vessel-ingestor/internal/telemetry/domain"
)

const defaultMaxBodyBytes = 1 << 20

// Ingester runs the ingestion use case.
type Ingester interface {
	Ingest(ctx context.Context, payload telemetry.Payload) (application.Summary, error)
}

// IngestHandler handles POST /api/v1/telemetry.
type IngestHandler struct {
	service      Ingester
	logger       *log.Logger
	maxBodyBytes int64
}

// IngestHandlerOption customizes the handler.
type IngestHandlerOption func(*IngestHandler)

// WithMaxBodyBytes limits the accepted request body size.
func WithMaxBodyBytes(limit int64) IngestHandlerOption {
	return func(h *IngestHandler) {
		if limit > 0 {
			h.maxBodyBytes = limit
		}
	}
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service Ingester, logger *log.Logger, opts ...IngestHandlerOption) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("telemetry ingest: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	handler := &IngestHandler{service: service, logger: logger, maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

type ingestResponse struct {
	OK           bool   `json:"ok"`
	VesselID     string `json:"vesselId"`
	ValidSignals int    `json:"validSignals"`
	ValidationMs int64  `json:"validationMs"`
	IngestionMs  int64  `json:"ingestionMs"`
	TotalMs      int64  `json:"totalMs"`
}

// ServeHTTP ingests one telemetry payload.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	var payload telemetry.Payload
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err := decoder.Decode(&payload); err != nil {
		h.logger.Printf("telemetry ingest: decode error: %v", err)
		metrics.IncIngestError(metrics.ErrorReasonDecode)
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	summary, err := h.service.Ingest(r.Context(), payload)
	if err != nil {
		status, message, reason := classifyError(err)
		if status == http.StatusInternalServerError {
			h.logger.Printf("telemetry ingest: vessel=%s internal error: %v", payload.VesselID, err)
		} else {
			h.logger.Printf("telemetry ingest: vessel=%s rejected: %v", payload.VesselID, err)
		}
		metrics.IncIngestError(reason)
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, message, status)
		return
	}

	h.logger.Printf("telemetry ingested: vessel=%s valid=%d rejected=%d validation_ms=%d ingestion_ms=%d total_ms=%d",
		summary.VesselID,
		summary.AcceptedCount,
		summary.RejectedCount,
		summary.ValidationElapsed.Milliseconds(),
		summary.IngestionElapsed.Milliseconds(),
		summary.TotalElapsed.Milliseconds(),
	)
	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))

	resp := ingestResponse{
		OK:           true,
		VesselID:     summary.VesselID,
		ValidSignals: summary.AcceptedCount,
		ValidationMs: summary.ValidationElapsed.Milliseconds(),
		IngestionMs:  summary.IngestionElapsed.Milliseconds(),
		TotalMs:      summary.TotalElapsed.Milliseconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, telemetry.ErrMalformedInput):
		return http.StatusBadRequest, "Invalid timestampUTC", metrics.ErrorReasonMalformedInput
	case errors.Is(err, telemetry.ErrVesselNotPermitted):
		return http.StatusForbidden, "Unknown or inactive vessel", metrics.ErrorReasonVesselDenied
	default:
		return http.StatusInternalServerError, "Internal Server Error", metrics.ErrorReasonPersistence
	}
}
