package results

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doceval/constants"
	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/core/metric"
	"github.com/joseph-ayodele/doceval/internal/core/pipeline"
	"github.com/joseph-ayodele/doceval/internal/document"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRun() RunInfo {
	return RunInfo{
		RunID:     "20250101_120000",
		RunKey:    uuid.NewString(),
		StartedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func succeededResult() pipeline.RunResult {
	return pipeline.RunResult{
		PipelineName:   "baseline",
		FinalOutput:    "hello world",
		DeclaredStages: 1,
		TotalCost:      0.25,
		TotalLatency:   1500 * time.Millisecond,
		Success:        true,
		Trace: []pipeline.StageTrace{
			{Name: "extract", Tool: "pdftotext", Status: constants.StageStatusCompleted, Cost: 0.25, Latency: 1.5},
		},
	}
}

func editMetrics() metric.Results {
	return metric.Results{
		"text_edit_distance": metric.Scores(map[string]float64{
			"raw_text_distance":   2,
			"normalized_distance": 0.2,
		}),
		"broken": metric.Failed(),
	}
}

func TestNewDocumentRecord(t *testing.T) {
	doc := DocumentInfo{ID: "doc1", Path: "/data/invoices/doc1.pdf", Category: "invoices"}
	partial := pipeline.RunResult{
		PipelineName: "baseline",
		FailedStage:  "structure",
		Err:          errors.New("boom"),
	}

	tests := []struct {
		name    string
		res     pipeline.RunResult
		hasGT   bool
		status  constants.RunStatus
		errText string
	}{
		{name: "succeeded", res: succeededResult(), hasGT: true, status: constants.RunStatusSucceeded},
		{name: "partial", res: partial, hasGT: true, status: constants.RunStatusPartial, errText: "boom"},
		{name: "no ground truth", res: succeededResult(), hasGT: false, status: constants.RunStatusUnscored},
		{name: "unresolved stays unresolved", res: pipeline.RunResult{PipelineName: "baseline", Unresolved: true}, hasGT: false, status: constants.RunStatusUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewDocumentRecord(testRun(), doc, tt.res, nil, tt.hasGT)
			assert.Equal(t, tt.status, rec.Status)
			assert.Equal(t, tt.errText, rec.Error)
			assert.Equal(t, "invoices", rec.Category)
			assert.NotNil(t, rec.Metrics)
			assert.NotNil(t, rec.Stages)
		})
	}

	rec := NewDocumentRecord(testRun(), doc, succeededResult(), nil, true)
	assert.InDelta(t, 1.5, rec.TotalLatency, 1e-9)
}

func TestArtifactWriter_Write(t *testing.T) {
	doc := DocumentInfo{ID: "doc1", Category: "invoices"}

	tests := []struct {
		name     string
		output   any
		wantFile string
		want     string
	}{
		{name: "string", output: "plain text", wantFile: FinalOutputText, want: "plain text"},
		{name: "plain text prediction", output: document.PlainText("typed text"), wantFile: FinalOutputText, want: "typed text"},
		{name: "map", output: map[string]any{"a": 1}, wantFile: FinalOutputJSON, want: "{\n  \"a\": 1\n}"},
		{name: "not encodable", output: func() {}, wantFile: FinalOutputText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			w := NewArtifactWriter(base, quietLogger())
			rec := NewDocumentRecord(testRun(), doc, succeededResult(), editMetrics(), true)

			dir, err := w.Write(rec, tt.output)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(base, "raw", "baseline", "20250101_120000", "invoices", "doc1"), dir)

			got, err := os.ReadFile(filepath.Join(dir, tt.wantFile))
			require.NoError(t, err)
			if tt.want != "" {
				assert.Equal(t, tt.want, string(got))
			}
		})
	}
}

func TestArtifactWriter_Metadata(t *testing.T) {
	w := NewArtifactWriter(t.TempDir(), quietLogger())
	rec := NewDocumentRecord(testRun(), DocumentInfo{ID: "doc1"}, succeededResult(), editMetrics(), true)

	dir, err := w.Write(rec, "x")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	require.NoError(t, err)

	var back DocumentRecord
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, constants.RunStatusSucceeded, back.Status)
	assert.Equal(t, "baseline", back.PipelineName)
	require.Len(t, back.Stages, 1)
	assert.Equal(t, constants.StageStatusCompleted, back.Stages[0].Status)
	assert.True(t, back.Metrics["broken"].IsFailed())
	d, ok := back.Metrics["text_edit_distance"].Score("normalized_distance")
	require.True(t, ok)
	assert.InDelta(t, 0.2, d, 1e-9)

	// stage outputs are never persisted in metadata
	assert.NotContains(t, string(raw), "hello world")
}

func TestArtifactWriter_SameNameDifferentCategories(t *testing.T) {
	w := NewArtifactWriter(t.TempDir(), quietLogger())
	run := testRun()

	first := NewDocumentRecord(run, DocumentInfo{ID: "scan", Category: "invoices"}, succeededResult(), nil, true)
	second := NewDocumentRecord(run, DocumentInfo{ID: "scan", Category: "letters"}, succeededResult(), nil, true)

	dir1, err := w.Write(first, "invoice text")
	require.NoError(t, err)
	dir2, err := w.Write(second, "letter text")
	require.NoError(t, err)
	assert.NotEqual(t, dir1, dir2)

	got, err := os.ReadFile(filepath.Join(dir1, FinalOutputText))
	require.NoError(t, err)
	assert.Equal(t, "invoice text", string(got))

	raw, err := os.ReadFile(filepath.Join(dir1, MetadataFile))
	require.NoError(t, err)
	var meta DocumentRecord
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "invoices", meta.Category)
}

func TestArtifactWriter_UnwritableBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(base, []byte("x"), 0o644))

	w := NewArtifactWriter(base, quietLogger())
	_, err := w.Write(NewDocumentRecord(testRun(), DocumentInfo{ID: "d"}, succeededResult(), nil, true), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPersistence)
}

func summaryRecords() []DocumentRecord {
	run := testRun()
	a := NewDocumentRecord(run, DocumentInfo{ID: "a", Category: "c1"}, succeededResult(), editMetrics(), true)
	b := NewDocumentRecord(run, DocumentInfo{ID: "b", Category: "c1"}, succeededResult(), metric.Results{"score": metric.Scalar(0.5)}, true)
	return []DocumentRecord{a, b}
}

func TestSummaryColumns(t *testing.T) {
	cols := SummaryColumns(summaryRecords())
	assert.Equal(t, baseColumns, cols[:len(baseColumns)])
	assert.Equal(t, []string{
		"score",
		"text_edit_distance.normalized_distance",
		"text_edit_distance.raw_text_distance",
	}, cols[len(baseColumns):])
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.csv")
	require.NoError(t, WriteCSV(path, summaryRecords()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	header := rows[0]
	assert.Equal(t, "run_id", header[0])

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %s", name)
		return -1
	}
	assert.Equal(t, "a", rows[1][col("document_id")])
	assert.Equal(t, "0.2", rows[1][col("text_edit_distance.normalized_distance")])
	assert.Equal(t, "", rows[1][col("score")])
	assert.Equal(t, "0.5", rows[2][col("score")])
	assert.Equal(t, "true", rows[2][col("success")])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, WriteXLSX(path, summaryRecords()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Summary"}, f.GetSheetList())
	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "run_id", rows[0][0])
	assert.Equal(t, "a", rows[1][3])
	assert.Equal(t, "b", rows[2][3])
}

func TestWriteSummaries(t *testing.T) {
	base := t.TempDir()
	paths, err := WriteSummaries(base, "20250101_120000", []string{common.SummaryCSV, common.SummaryXLSX}, summaryRecords(), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(base, "aggregated", "summary_20250101_120000.csv"),
		filepath.Join(base, "aggregated", "summary_20250101_120000.xlsx"),
	}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
	}

	_, err = WriteSummaries(base, "x", []string{"parquet"}, nil, quietLogger())
	assert.Error(t, err)
}

func TestOpenIndex_Disabled(t *testing.T) {
	idx, err := OpenIndex(context.Background(), common.IndexConfig{}, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, idx)

	_, err = OpenIndex(context.Background(), common.IndexConfig{Driver: "mongo"}, quietLogger())
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestSQLiteIndex(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenIndex(ctx, common.IndexConfig{Driver: common.IndexDriverSQLite, DSN: dsn}, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, idx)
	defer idx.Close()

	recs := summaryRecords()
	for _, r := range recs {
		require.NoError(t, idx.Record(ctx, r))
	}
	// re-recording a document replaces its row
	recs[0].Status = constants.RunStatusPartial
	recs[0].Success = false
	require.NoError(t, idx.Record(ctx, recs[0]))

	got, err := idx.List(ctx, recs[0].RunKey)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].DocumentID)
	assert.Equal(t, constants.RunStatusPartial, got[0].Status)
	assert.False(t, got[0].Success)
	assert.InDelta(t, 0.2, got[0].Metrics["text_edit_distance.normalized_distance"], 1e-9)
	assert.NotContains(t, got[0].Metrics, "broken")
	assert.True(t, got[1].Success)

	none, err := idx.List(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostgresIndex(t *testing.T) {
	dsn := os.Getenv("DOCEVAL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DOCEVAL_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	idx, err := OpenPostgresIndex(ctx, PostgresConfig{DSN: dsn}, quietLogger())
	require.NoError(t, err)
	defer idx.Close()

	recs := summaryRecords()
	for _, r := range recs {
		require.NoError(t, idx.Record(ctx, r))
	}
	got, err := idx.List(ctx, recs[0].RunKey)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[0].RunKey, got[0].RunKey)
	assert.Equal(t, constants.RunStatusSucceeded, got[1].Status)
}
