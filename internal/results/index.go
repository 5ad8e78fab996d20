package results

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/doceval/constants"
	"github.com/joseph-ayodele/doceval/internal/common"
)

// Index records one row per evaluated document so runs can be queried later.
type Index interface {
	Record(ctx context.Context, rec DocumentRecord) error
	List(ctx context.Context, runKey string) ([]IndexedResult, error)
	Close() error
}

// IndexedResult is a row read back from the index.
type IndexedResult struct {
	RunKey       string
	RunID        string
	PipelineName string
	Category     string
	DocumentID   string
	Status       constants.RunStatus
	Success      bool
	TotalCost    float64
	TotalLatency float64
	Metrics      map[string]float64
	ArtifactDir  string
}

// OpenIndex opens the configured index. It returns nil, nil when no driver is configured.
func OpenIndex(ctx context.Context, cfg common.IndexConfig, logger *slog.Logger) (Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "":
		return nil, nil
	case common.IndexDriverSQLite:
		idx, err := OpenSQLiteIndex(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case common.IndexDriverPostgres:
		idx, err := OpenPostgresIndex(ctx, PostgresConfig{DSN: cfg.DSN}, logger)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, common.NewConfigurationError("index.driver", fmt.Sprintf("unknown driver %q", cfg.Driver), nil)
	}
}

// flatMetricsJSON stores metrics in their flattened column form.
func flatMetricsJSON(rec DocumentRecord) (string, error) {
	b, err := json.Marshal(rec.Metrics.Flatten())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetrics(raw []byte) (map[string]float64, error) {
	out := map[string]float64{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	return out, nil
}
