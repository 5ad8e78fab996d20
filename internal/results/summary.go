package results

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doceval/internal/common"
)

var baseColumns = []string{
	"run_id",
	"pipeline_name",
	"category",
	"document_id",
	"status",
	"success",
	"total_cost",
	"total_latency",
	"failed_stage",
	"error",
}

// SummaryPath returns <base>/aggregated/summary_<run_id>.<format>.
func SummaryPath(baseDir, runID, format string) string {
	return filepath.Join(baseDir, "aggregated", fmt.Sprintf("summary_%s.%s", runID, format))
}

// SummaryColumns returns the fixed columns followed by every flattened metric
// column present in records, sorted.
func SummaryColumns(records []DocumentRecord) []string {
	seen := map[string]struct{}{}
	for _, r := range records {
		for k := range r.Metrics.Flatten() {
			seen[k] = struct{}{}
		}
	}
	metricCols := make([]string, 0, len(seen))
	for k := range seen {
		metricCols = append(metricCols, k)
	}
	sort.Strings(metricCols)
	return append(append([]string{}, baseColumns...), metricCols...)
}

// summaryRow returns one cell per column; metric cells are float64 or nil when absent.
func summaryRow(r DocumentRecord, columns []string) []any {
	flat := r.Metrics.Flatten()
	row := []any{
		r.RunID,
		r.PipelineName,
		r.Category,
		r.DocumentID,
		string(r.Status),
		r.Success,
		r.TotalCost,
		r.TotalLatency,
		r.FailedStage,
		r.Error,
	}
	for _, col := range columns[len(baseColumns):] {
		if v, ok := flat[col]; ok {
			row = append(row, v)
		} else {
			row = append(row, nil)
		}
	}
	return row
}

// WriteCSV writes one row per record.
func WriteCSV(path string, records []DocumentRecord) error {
	columns := SummaryColumns(records)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, r := range records {
		cells := summaryRow(r, columns)
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = csvCell(c)
		}
		if err := w.Write(out); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

func csvCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// WriteXLSX writes the same table as WriteCSV to a single "Summary" sheet.
func WriteXLSX(path string, records []DocumentRecord) error {
	columns := SummaryColumns(records)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for ri, r := range records {
		for ci, v := range summaryRow(r, columns) {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 18) // run id
	_ = f.SetColWidth(sheet, "B", "D", 24) // pipeline, category, document
	_ = f.SetColWidth(sheet, "J", "J", 48) // error
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

// WriteSummaries writes the aggregated summary once per requested format and
// returns the paths written.
func WriteSummaries(baseDir, runID string, formats []string, records []DocumentRecord, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var paths []string
	for _, format := range formats {
		path := SummaryPath(baseDir, runID, format)
		var err error
		switch format {
		case common.SummaryCSV:
			err = WriteCSV(path, records)
		case common.SummaryXLSX:
			err = WriteXLSX(path, records)
		default:
			err = fmt.Errorf("unknown summary format %q", format)
		}
		if err != nil {
			return paths, common.WrapError(err, "write "+format+" summary")
		}
		logger.Info("results.summary_written", "path", path, "rows", len(records))
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return nil
}
