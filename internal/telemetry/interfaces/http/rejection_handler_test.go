package http

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"vessel-ingestor/internal/audit"
	"vessel-ingestor/internal/auth"
	telemetry "vessel-ingestor/internal/telemetry/domain"
	"vessel-ingestor/internal/telemetry/infrastructure/memory"
)

func seededStore(t *testing.T) *memory.SignalStore {
	t.Helper()
	store := memory.NewSignalStore()
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	value := 0.5
	err := store.SaveSignals(context.Background(), telemetry.Batch{
		Rejected: []telemetry.RejectedRow{
			{VesselID: "1001", TS: ts, SignalName: "Signal_70", Value: &value, Reason: telemetry.ReasonOutOfRange},
			{VesselID: "1001", TS: ts, SignalName: "Signal_999", Reason: telemetry.ReasonTypeMismatch},
		},
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func exportRequest(t *testing.T, store *memory.SignalStore, path string) *httptest.ResponseRecorder {
	t.Helper()
	handler, err := NewRejectionExportHandler(store, quietLogger())
	if err != nil {
		t.Fatalf("new export handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

const window = "?from=2025-03-01T00:00:00Z&to=2025-03-02T00:00:00Z"

func TestRejectionExportCSV(t *testing.T) {
	resp := exportRequest(t, seededStore(t), "/api/v1/vessels/1001/rejections.csv"+window)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}
	lines := strings.Split(strings.TrimSpace(resp.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(lines))
	}
	if !strings.Contains(resp.Body.String(), "Signal_70,0.5,out_of_range") {
		t.Fatalf("missing out_of_range row: %s", resp.Body.String())
	}
}

func TestRejectionExportXLSX(t *testing.T) {
	resp := exportRequest(t, seededStore(t), "/api/v1/vessels/1001/rejections.xlsx"+window)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	total, err := f.GetCellValue("summary", "B6")
	if err != nil {
		t.Fatalf("read total: %v", err)
	}
	if total != "2" {
		t.Fatalf("expected total 2, got %q", total)
	}
}

func TestRejectionExportPDF(t *testing.T) {
	resp := exportRequest(t, seededStore(t), "/api/v1/vessels/1001/rejections.pdf"+window)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected PDF output")
	}
}

func TestRejectionExportBadRequests(t *testing.T) {
	store := seededStore(t)
	cases := []struct {
		path   string
		status int
	}{
		{"/api/v1/vessels/1001/rejections.txt" + window, http.StatusNotFound},
		{"/api/v1/vessels//rejections.csv" + window, http.StatusNotFound},
		{"/api/v1/vessels/1001/rejections.csv", http.StatusBadRequest},
		{"/api/v1/vessels/1001/rejections.csv?from=2025-03-02T00:00:00Z&to=2025-03-01T00:00:00Z", http.StatusBadRequest},
		{"/api/v1/vessels/1001/rejections.csv?from=yesterday&to=2025-03-01T00:00:00Z", http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp := exportRequest(t, store, tc.path)
		if resp.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.status, resp.Code)
		}
	}
}

func TestParseRejectionsPath(t *testing.T) {
	vesselID, format, ok := parseRejectionsPath("/api/v1/vessels/1001/rejections.xlsx")
	if !ok || vesselID != "1001" || format != "xlsx" {
		t.Fatalf("unexpected parse %q %q %v", vesselID, format, ok)
	}
	if _, _, ok := parseRejectionsPath("/api/v1/vessels/1001/metrics.csv"); ok {
		t.Fatalf("expected unknown resource to fail")
	}
}

type recordingAuditor struct {
	entries []audit.Entry
}

func (a *recordingAuditor) Log(_ context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func TestRejectionExportAudited(t *testing.T) {
	auditor := &recordingAuditor{}
	handler, err := NewRejectionExportHandler(seededStore(t), quietLogger(), WithAuditLogger(auditor))
	if err != nil {
		t.Fatalf("new export handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vessels/1001/rejections.csv"+window, nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.RoleViewer, "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(auditor.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(auditor.entries))
	}
	entry := auditor.entries[0]
	if entry.Actor != "user-1" || entry.Role != "viewer" || entry.ResourceID != "1001" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
}

func TestRejectionExportQuotesFilename(t *testing.T) {
	resp := exportRequest(t, memory.NewSignalStore(), `/api/v1/vessels/a%22b;x/rejections.csv`+window)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	disposition, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("parse content disposition %q: %v", resp.Header().Get("Content-Disposition"), err)
	}
	if disposition != "attachment" || params["filename"] != `rejections-a"b;x.csv` {
		t.Fatalf("unexpected disposition %q %v", disposition, params)
	}
}
