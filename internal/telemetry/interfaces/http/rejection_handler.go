package http

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"vessel-ingestor/internal/audit"
	"vessel-ingestor/internal/auth"
	"vessel-ingestor/internal/observability/metrics"
	telemetry "vessel-ingestor/internal/telemetry/domain"
)

const (
	rejectionsPathPrefix = "/api/v1/vessels/"
	maxReportRows        = 10000
)

// RejectionExportHandler serves GET /api/v1/vessels/{vesselId}/rejections.{csv,xlsx,pdf}.
type RejectionExportHandler struct {
	query   telemetry.RejectionQuery
	auditor audit.Logger
	logger  *log.Logger
}

// RejectionExportOption customizes the export handler.
type RejectionExportOption func(*RejectionExportHandler)

// WithAuditLogger records every successful export.
func WithAuditLogger(auditor audit.Logger) RejectionExportOption {
	return func(h *RejectionExportHandler) {
		h.auditor = auditor
	}
}

// NewRejectionExportHandler constructs the export handler.
func NewRejectionExportHandler(query telemetry.RejectionQuery, logger *log.Logger, opts ...RejectionExportOption) (*RejectionExportHandler, error) {
	if query == nil {
		return nil, errors.New("rejection export: nil query")
	}
	if logger == nil {
		logger = log.Default()
	}
	handler := &RejectionExportHandler{query: query, logger: logger}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

// ServeHTTP renders the rejection report in the requested format.
func (h *RejectionExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	vesselID, format, ok := parseRejectionsPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	from, err := parseTimeQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}

	records, err := h.query.ListRejections(r.Context(), vesselID, from, to, maxReportRows)
	if err != nil {
		h.logger.Printf("rejection export: query error: %v", err)
		metrics.ObserveRejectionExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "query rejections error", http.StatusInternalServerError)
		return
	}

	report := RejectionReport{VesselID: vesselID, From: from, To: to, Records: records}
	var (
		body        []byte
		contentType string
	)
	switch format {
	case "csv":
		body, err = BuildRejectionsCSV(report)
		contentType = "text/csv; charset=utf-8"
	case "xlsx":
		body, err = BuildRejectionsXLSX(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		body, err = BuildRejectionsPDF(report)
		contentType = "application/pdf"
	}
	if err != nil {
		h.logger.Printf("rejection export: render %s error: %v", format, err)
		metrics.ObserveRejectionExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	h.logger.Printf("rejection export: subject=%s vessel=%s format=%s rows=%d", auth.SubjectFromContext(r.Context()), vesselID, format, len(records))
	metrics.ObserveRejectionExport(format, metrics.ResultSuccess, time.Since(start))
	h.recordAudit(r, vesselID, format, from, to, len(records))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachmentHeader("rejections-"+vesselID+"."+format))
	_, _ = w.Write(body)
}

func (h *RejectionExportHandler) recordAudit(r *http.Request, vesselID, format string, from, to time.Time, rows int) {
	if h.auditor == nil {
		return
	}
	metadata, _ := json.Marshal(map[string]any{
		"format": format,
		"from":   formatTime(from),
		"to":     formatTime(to),
		"rows":   rows,
	})
	entry := audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       audit.ActionRejectionExport,
		ResourceType: audit.ResourceVessel,
		ResourceID:   vesselID,
		Metadata:     metadata,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.auditor.Log(r.Context(), entry); err != nil {
		h.logger.Printf("rejection export: audit error: %v", err)
	}
}

func attachmentHeader(filename string) string {
	if header := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); header != "" {
		return header
	}
	return "attachment"
}

// parseRejectionsPath extracts vessel id and format from
// /api/v1/vessels/{vesselId}/rejections.{format}.
func parseRejectionsPath(path string) (string, string, bool) {
	rest := strings.TrimPrefix(path, rejectionsPathPrefix)
	if rest == path {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", false
	}
	format, found := strings.CutPrefix(parts[1], "rejections.")
	if !found {
		return "", "", false
	}
	switch format {
	case "csv", "xlsx", "pdf":
		return parts[0], format, true
	default:
		return "", "", false
	}
}

func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, errors.New(key + " is required")
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.New(key + " must be RFC3339")
	}
	return parsed.UTC(), nil
}
