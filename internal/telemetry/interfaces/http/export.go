package http

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	telemetry "vessel-ingestor/internal/telemetry/domain"
)

// RejectionReport is the input of the rejection export renderers.
type RejectionReport struct {
	VesselID string
	From     time.Time
	To       time.Time
	Records  []telemetry.RejectionRecord
}

func (r RejectionReport) countByReason() map[telemetry.Reason]int {
	counts := make(map[telemetry.Reason]int)
	for _, record := range r.Records {
		counts[record.Reason]++
	}
	return counts
}

var reportHeader = []string{"timestamp_utc", "signal_name", "signal_value", "reason", "created_at"}

// BuildRejectionsCSV renders rejected signals as CSV.
func BuildRejectionsCSV(report RejectionReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(append([]string{"vessel_id"}, reportHeader...)); err != nil {
		return nil, err
	}
	for _, record := range report.Records {
		if err := writer.Write([]string{
			record.VesselID,
			formatTime(record.TS),
			record.SignalName,
			formatValue(record.Value),
			string(record.Reason),
			formatTime(record.CreatedAt),
		}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildRejectionsXLSX renders a summary sheet and a row-per-signal sheet.
func BuildRejectionsXLSX(report RejectionReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	rowsSheet := "rejections"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(rowsSheet); err != nil {
		return nil, err
	}

	counts := report.countByReason()
	_ = f.SetCellValue(summarySheet, "A1", "Rejected Signals")
	_ = f.SetCellValue(summarySheet, "A3", "Vessel")
	_ = f.SetCellValue(summarySheet, "B3", report.VesselID)
	_ = f.SetCellValue(summarySheet, "A4", "From")
	_ = f.SetCellValue(summarySheet, "B4", formatTime(report.From))
	_ = f.SetCellValue(summarySheet, "A5", "To")
	_ = f.SetCellValue(summarySheet, "B5", formatTime(report.To))
	_ = f.SetCellValue(summarySheet, "A6", "Total")
	_ = f.SetCellValue(summarySheet, "B6", len(report.Records))
	_ = f.SetCellValue(summarySheet, "A7", string(telemetry.ReasonTypeMismatch))
	_ = f.SetCellValue(summarySheet, "B7", counts[telemetry.ReasonTypeMismatch])
	_ = f.SetCellValue(summarySheet, "A8", string(telemetry.ReasonOutOfRange))
	_ = f.SetCellValue(summarySheet, "B8", counts[telemetry.ReasonOutOfRange])

	for i, title := range reportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(rowsSheet, cell, title)
	}
	for i, record := range report.Records {
		row := i + 2
		_ = f.SetCellValue(rowsSheet, fmt.Sprintf("A%d", row), formatTime(record.TS))
		_ = f.SetCellValue(rowsSheet, fmt.Sprintf("B%d", row), record.SignalName)
		if record.Value != nil {
			_ = f.SetCellValue(rowsSheet, fmt.Sprintf("C%d", row), *record.Value)
		}
		_ = f.SetCellValue(rowsSheet, fmt.Sprintf("D%d", row), string(record.Reason))
		_ = f.SetCellValue(rowsSheet, fmt.Sprintf("E%d", row), formatTime(record.CreatedAt))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildRejectionsPDF renders a minimal PDF report.
func BuildRejectionsPDF(report RejectionReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Rejected Signals")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Vessel: %s", report.VesselID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Window: %s - %s", formatTime(report.From), formatTime(report.To)))
	pdf.Ln(5)
	counts := report.countByReason()
	pdf.Cell(0, 6, fmt.Sprintf("Total: %d (type_mismatch %d, out_of_range %d)",
		len(report.Records), counts[telemetry.ReasonTypeMismatch], counts[telemetry.ReasonOutOfRange]))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(55, 6, "Timestamp (UTC)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Signal", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Value", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Reason", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, record := range report.Records {
		pdf.CellFormat(55, 6, formatTime(record.TS), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, record.SignalName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, formatValue(record.Value), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, string(record.Reason), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func formatValue(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
