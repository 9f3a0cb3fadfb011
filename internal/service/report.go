package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"
)

// buildRunReport writes an XLSX listing the run's executions and returns a
// download URL: a 48h presigned S3 URL when S3 is configured, otherwise a
// local /files URL. An empty run produces no report.
func (e *Engine) buildRunReport(ctx context.Context, runID string) (string, error) {
	execs, err := e.executions.ListByRun(ctx, runID)
	if err != nil {
		return "", fmt.Errorf("list run executions: %w", err)
	}
	if len(execs) == 0 {
		return "", nil
	}

	f := excelize.NewFile()
	sheet := "Executions"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{
		"Rule", "Debt", "Customer", "Action", "Offset", "Status", "Error", "Executed At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowIdx := 2
	for _, ex := range execs {
		values := []any{
			ex.RuleID,
			ex.DebtID,
			ex.CustomerID,
			string(ex.ActionType),
			ex.DaysOffset,
			ex.Status,
			strPtr(ex.Error),
			timePtr(ex.ExecutedAt),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			_ = f.SetCellValue(sheet, cell, v)
		}
		rowIdx++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("write report workbook: %w", err)
	}
	data := buf.Bytes()

	fileName := fmt.Sprintf("engine_run_%s.xlsx", e.now().Format("20060102_150405"))

	if e.s3 != nil {
		key, err := e.s3.UploadXLSX(ctx, fileName, data)
		if err == nil {
			url, err2 := e.s3.GetTemporaryURL(ctx, key, 48*time.Hour)
			if err2 == nil {
				return url, nil
			}
			log.Printf("[ENGINE] presign report %q: %v", key, err2)
		} else {
			log.Printf("[ENGINE] upload report %q: %v", fileName, err)
		}
	}

	if e.storage != nil {
		saved, err := e.storage.Save(ctx, fileName, data)
		if err != nil {
			return "", fmt.Errorf("save report: %w", err)
		}
		return e.storage.GetURL(saved), nil
	}

	return "", nil
}

func strPtr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func timePtr(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.Format("2006-01-02 15:04:05")
}
