package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/records"
)

// LeadLister is the part of the record store the exporter reads from.
type LeadLister interface {
	List(kind constants.RecordType) ([]records.Lead, error)
}

// Service produces XLSX bytes for lead exports.
type Service struct {
	records LeadLister
	logger  *slog.Logger
}

func NewService(recs LeadLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: recs, logger: logger}
}

// ExportLeadsXLSX returns a workbook with one row per record of kind, in the same
// order and with the same columns as the lead list.
func (s *Service) ExportLeadsXLSX(ctx context.Context, kind constants.RecordType) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	leads, err := s.records.List(kind)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", kind, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetNames[kind]
	if sheet == "" {
		sheet = kind.Label()
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	issued := "Issued"
	if kind == constants.Enquiry {
		issued = "Submitted"
	}
	headers := []string{
		"Record ID",
		"Client",
		"Destination",
		"Travel Dates",
		issued,
		"Grand Total",
		"Currency",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	for i, l := range leads {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		sum := l.Summary
		write(1, l.ID)
		write(2, orNA(sum.Name))
		write(3, orNA(sum.Destination))
		write(4, orNA(sum.TravelDates))
		write(5, sum.Issued)
		if sum.GrandTotal != nil && sum.GrandTotal.Amount != nil {
			write(6, float64(*sum.GrandTotal.Amount))
			write(7, sum.GrandTotal.Currency)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 44) // enquiry ids are long
	_ = f.SetColWidth(sheet, "B", "C", 28)
	_ = f.SetColWidth(sheet, "D", "D", 26)
	_ = f.SetColWidth(sheet, "E", "E", 22)
	_ = f.SetColWidth(sheet, "F", "G", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"kind", string(kind),
		"rows", len(leads),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

var sheetNames = map[constants.RecordType]string{
	constants.Enquiry: "Enquiries",
	constants.Quote:   "Quotes",
	constants.Booking: "Bookings",
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
