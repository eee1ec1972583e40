package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/zoobzio/clockz"

	"github.com/joseph-ayodele/payment-desk/internal/entity"
	"github.com/joseph-ayodele/payment-desk/internal/repository"
	"github.com/joseph-ayodele/payment-desk/internal/utils"
)

// SheetName is the worksheet holding exported receipts.
const SheetName = "Receipts"

var headers = []string{"Payment ID", "Date", "Time (UTC)", "Amount", "Card"}

// Service produces XLSX workbooks from stored receipts.
type Service struct {
	receiptsRepo repository.ReceiptRepository
	clock        clockz.Clock
	logger       *slog.Logger
}

func NewService(repo repository.ReceiptRepository, clock clockz.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Service{receiptsRepo: repo, clock: clock, logger: logger}
}

// ExportReceiptsXLSX returns an XLSX workbook (as bytes) for the given date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all receipts.
// Dates are compared by UTC calendar day.
func (s *Service) ExportReceiptsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := s.clock.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := utcDay(*from)
		fromDate = &f
	}
	if to != nil {
		t := utcDay(*to)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		t := utcDay(s.clock.Now())
		toDate = &t
	}

	all, err := s.receiptsRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	recs := filterByDay(all, fromDate, toDate)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for i, r := range recs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		ts := r.Timestamp.UTC()
		write(1, r.PaymentID)
		write(2, ts.Format("2006-01-02"))
		write(3, ts.Format("15:04:05"))
		// kept as text so the stored scale survives ("42.50")
		write(4, utils.FormatAmount(r.Amount))
		write(5, r.MaskedCard)
	}

	_ = f.SetColWidth(SheetName, "A", "A", 14)
	_ = f.SetColWidth(SheetName, "B", "C", 12)
	_ = f.SetColWidth(SheetName, "D", "D", 14)
	_ = f.SetColWidth(SheetName, "E", "E", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", s.clock.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func filterByDay(recs []*entity.Receipt, from, to *time.Time) []*entity.Receipt {
	out := make([]*entity.Receipt, 0, len(recs))
	for _, r := range recs {
		day := utcDay(r.Timestamp)
		if from != nil && day.Before(*from) {
			continue
		}
		if to != nil && day.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out
}
