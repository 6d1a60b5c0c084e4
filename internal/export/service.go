package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/scandocx/internal/repository"
)

// Service is a tiny facade over the job store that produces an XLSX report
// of recent jobs for operators.
type Service struct {
	store  repository.JobStore
	logger *slog.Logger
}

func NewService(store repository.JobStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

var reportHeader = []string{
	"Job ID", "Status", "Step", "Progress", "Created", "Updated", "Expires",
	"Filename", "Pages", "Blocks", "Artifact", "Error",
}

// ExportJobsXLSX returns an XLSX workbook (as bytes) listing up to limit of
// the most recently created jobs.
func (s *Service) ExportJobsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	jobs, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Jobs"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for col, h := range reportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for row, j := range jobs {
		values := []any{
			j.ID,
			string(j.Status),
			string(j.Step),
			j.Progress,
			j.CreatedAt.UTC().Format(time.RFC3339),
			j.UpdatedAt.UTC().Format(time.RFC3339),
			j.ExpiresAt.UTC().Format(time.RFC3339),
			j.Input.Filename,
			j.Input.PageCount,
			j.Output.TotalBlocks,
			j.Output.ArtifactPath,
			j.Error.Message,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("exported job report", "jobs", len(jobs), "duration_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}
