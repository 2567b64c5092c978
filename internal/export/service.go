// Package export renders batch results as an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alisoncf/gscan/constants"
	"github.com/alisoncf/gscan/internal/fields"
)

const sheet = "Documents"

// Row is one processed document in the report.
type Row struct {
	Document string
	Status   constants.JobStatus
	Method   string
	OCRPages int
	Duration time.Duration
	Error    string
	Fields   fields.Fields
}

// Service produces XLSX bytes for batch reports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var fixedHeaders = []string{"Document", "Status", "Method", "OCR Pages", "Duration (ms)", "Error"}

// ExportBatchXLSX returns a workbook with one row per document. Field columns
// follow the fixed ones, in order of first appearance across rows; a field
// that was not found is left blank.
func (s *Service) ExportBatchXLSX(ctx context.Context, rows []Row) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fieldCols := fieldColumns(rows)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := append(append([]string{}, fixedHeaders...), fieldCols...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}

	for r, doc := range rows {
		row := r + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, doc.Document)
		write(2, string(doc.Status))
		write(3, doc.Method)
		write(4, doc.OCRPages)
		write(5, doc.Duration.Milliseconds())
		write(6, truncate(doc.Error, 300))
		for i, name := range fieldCols {
			if v, ok := doc.Fields.Get(name); ok && v != nil {
				write(len(fixedHeaders)+i+1, *v)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 40) // document
	_ = f.SetColWidth(sheet, "B", "E", 12)
	_ = f.SetColWidth(sheet, "F", "F", 48) // error
	if len(fieldCols) > 0 {
		first, _ := excelize.ColumnNumberToName(len(fixedHeaders) + 1)
		last, _ := excelize.ColumnNumberToName(len(headers))
		_ = f.SetColWidth(sheet, first, last, 28)
	}
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"field_columns", len(fieldCols),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func fieldColumns(rows []Row) []string {
	var cols []string
	seen := map[string]struct{}{}
	for _, r := range rows {
		for _, e := range r.Fields.Entries() {
			if _, ok := seen[e.Name]; ok {
				continue
			}
			seen[e.Name] = struct{}{}
			cols = append(cols, e.Name)
		}
	}
	return cols
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
