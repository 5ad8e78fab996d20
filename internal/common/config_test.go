package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
data_base_path: data
ground_truth_base_path: gt
results_base_path: results
pipeline_configs_dir: pipelines
dataset_categories: [invoices]
metrics:
  - metric: text_edit_distance
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "results", cfg.ResultsBasePath)
	assert.Equal(t, []string{"invoices"}, cfg.DatasetCategories)
	assert.Nil(t, cfg.PDFLimitPerCategory)
	assert.Equal(t, []string{SummaryCSV}, cfg.SummaryFormats)
	require.Len(t, cfg.Metrics, 1)
	assert.Equal(t, "text_edit_distance", cfg.Metrics[0].Metric)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("DOCEVAL_RESULTS_BASE_PATH", "/override")
	t.Setenv("DOCEVAL_PDF_LIMIT_PER_CATEGORY", "2")
	t.Setenv("DOCEVAL_DATASET_CATEGORIES", "letters,forms")
	t.Setenv("DOCEVAL_SUMMARY_FORMATS", "csv,xlsx")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "/override", cfg.ResultsBasePath)
	require.NotNil(t, cfg.PDFLimitPerCategory)
	assert.Equal(t, 2, *cfg.PDFLimitPerCategory)
	assert.Equal(t, []string{"letters", "forms"}, cfg.DatasetCategories)
	assert.Equal(t, []string{SummaryCSV, SummaryXLSX}, cfg.SummaryFormats)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	neg := -1
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing results path", mutate: func(c *Config) { c.ResultsBasePath = "" }},
		{name: "negative limit", mutate: func(c *Config) { c.PDFLimitPerCategory = &neg }},
		{name: "bad summary format", mutate: func(c *Config) { c.SummaryFormats = []string{"parquet"} }},
		{name: "index without dsn", mutate: func(c *Config) { c.Index.Driver = IndexDriverSQLite }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, sampleConfig))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
		})
	}
}
