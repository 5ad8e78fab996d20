package common

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DOCEVAL_RESULTS_BASE_PATH.
const EnvPrefix = "DOCEVAL"

// Config holds the evaluation run configuration
type Config struct {
	DataBasePath          string       `mapstructure:"data_base_path"`
	GroundTruthBasePath   string       `mapstructure:"ground_truth_base_path"`
	ResultsBasePath       string       `mapstructure:"results_base_path"`
	PipelineConfigsDir    string       `mapstructure:"pipeline_configs_dir"`
	DatasetCategories     []string     `mapstructure:"dataset_categories"`
	PDFLimitPerCategory   *int         `mapstructure:"pdf_limit_per_category"`
	RunWithoutGroundTruth bool         `mapstructure:"run_without_ground_truth"`
	Metrics               []MetricSpec `mapstructure:"metrics"`
	SummaryFormats        []string     `mapstructure:"summary_formats"`
	Index                 IndexConfig  `mapstructure:"index"`
	LLM                   LLMConfig    `mapstructure:"llm"`
}

// MetricSpec selects a registered metric and its parameters.
type MetricSpec struct {
	Metric string         `mapstructure:"metric"`
	Params map[string]any `mapstructure:"params"`
}

// IndexConfig configures the optional run index database.
type IndexConfig struct {
	Driver string `mapstructure:"driver"` // "" | "sqlite" | "postgres"
	DSN    string `mapstructure:"dsn"`
}

// LLMConfig holds defaults for LLM-backed tools
type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

const (
	IndexDriverSQLite   = "sqlite"
	IndexDriverPostgres = "postgres"

	SummaryCSV  = "csv"
	SummaryXLSX = "xlsx"
)

// LoadConfig reads the evaluation config file at path and applies DOCEVAL_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, NewConfigurationError("", "config path is required", nil)
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, NewConfigurationError(path, "read config", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewConfigurationError(path, "decode config", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", "")
	}
	if len(cfg.DatasetCategories) == 0 {
		cfg.DatasetCategories = []string{"*"}
	}
	if len(cfg.SummaryFormats) == 0 {
		cfg.SummaryFormats = []string{SummaryCSV}
	}
	return &cfg, nil
}

// envOnlyKeys have no default but still accept DOCEVAL_* overrides.
// List values are comma separated, e.g. DOCEVAL_SUMMARY_FORMATS=csv,xlsx.
var envOnlyKeys = []string{
	"dataset_categories",
	"pdf_limit_per_category",
	"summary_formats",
}

// setDefaults registers every key so AutomaticEnv overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	for _, k := range envOnlyKeys {
		_ = v.BindEnv(k)
	}
	v.SetDefault("data_base_path", "")
	v.SetDefault("ground_truth_base_path", "")
	v.SetDefault("results_base_path", "")
	v.SetDefault("pipeline_configs_dir", "")
	v.SetDefault("run_without_ground_truth", false)
	v.SetDefault("index.driver", "")
	v.SetDefault("index.dsn", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", 45*time.Second)
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	required := []struct{ key, val string }{
		{"data_base_path", c.DataBasePath},
		{"ground_truth_base_path", c.GroundTruthBasePath},
		{"results_base_path", c.ResultsBasePath},
		{"pipeline_configs_dir", c.PipelineConfigsDir},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return NewConfigurationError(r.key, "is required", nil)
		}
	}
	if c.PDFLimitPerCategory != nil && *c.PDFLimitPerCategory < 0 {
		return NewConfigurationError("pdf_limit_per_category", "must be >= 0", nil)
	}
	for i, m := range c.Metrics {
		if strings.TrimSpace(m.Metric) == "" {
			return NewConfigurationError(fmt.Sprintf("metrics[%d]", i), "metric is required", nil)
		}
	}
	for _, f := range c.SummaryFormats {
		if !slices.Contains([]string{SummaryCSV, SummaryXLSX}, f) {
			return NewConfigurationError("summary_formats", fmt.Sprintf("unsupported format %q", f), nil)
		}
	}
	switch c.Index.Driver {
	case "":
	case IndexDriverSQLite, IndexDriverPostgres:
		if c.Index.DSN == "" {
			return NewConfigurationError("index.dsn", "is required when index.driver is set", nil)
		}
	default:
		return NewConfigurationError("index.driver", fmt.Sprintf("unsupported driver %q", c.Index.Driver), nil)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
