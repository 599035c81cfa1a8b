package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tolu-adebayo/finsight/constants"
	"github.com/tolu-adebayo/finsight/internal/inspect"
	"github.com/tolu-adebayo/finsight/internal/objectstore"
	"github.com/tolu-adebayo/finsight/internal/repository"
)

// Service produces XLSX workbooks from completed jobs' extracted
// transactions.
type Service struct {
	jobs    repository.JobStore
	objects objectstore.Store
	logger  *slog.Logger
}

func NewService(jobs repository.JobStore, objects objectstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, objects: objects, logger: logger}
}

// transaction columns pulled from each extracted entry, in sheet order.
var columns = []string{"date", "description", "amount", "balance", "category"}

// ExportTransactionsXLSX returns an XLSX workbook (as bytes) with one row
// per extracted transaction across the user's completed documents.
func (s *Service) ExportTransactionsXLSX(ctx context.Context, userID string) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobs.ListByUserState(ctx, userID, constants.StateCompleted)
	if err != nil {
		return nil, fmt.Errorf("list completed jobs: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Transactions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"Date", "Description", "Amount", "Balance", "Category", "Source Document"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, job := range jobs {
		if job.Storage.JSONKey == "" {
			continue
		}
		data, err := s.objects.Get(ctx, job.Storage.JSONKey)
		if err != nil {
			s.logger.Warn("skipping job, result unreadable", "job_id", job.ID, "error", err)
			continue
		}
		val, err := inspect.Parse(data)
		if err != nil {
			s.logger.Warn("skipping job, result unparseable", "job_id", job.ID, "error", err)
			continue
		}
		txns, ok := val.Member("transactions")
		if !ok {
			continue
		}
		for _, txn := range txns.Items() {
			for col, name := range columns {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				_ = f.SetCellValue(sheet, cell, memberString(txn, name))
			}
			cell, _ := excelize.CoordinatesToCellName(len(columns)+1, row)
			_ = f.SetCellValue(sheet, cell, job.Filename)
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export finished",
		"user_id", userID, "jobs", len(jobs), "rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// memberString renders one transaction field for the sheet, tolerating
// missing members and non-string values.
func memberString(txn *inspect.Value, name string) string {
	m, ok := txn.Member(name)
	if !ok {
		return ""
	}
	if s, ok := m.StringValue(); ok {
		return s
	}
	b, err := m.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}
