package results

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/doceval/constants"
	"github.com/joseph-ayodele/doceval/internal/common"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS document_results (
	run_key       TEXT             NOT NULL,
	run_id        TEXT             NOT NULL,
	pipeline_name TEXT             NOT NULL,
	category      TEXT             NOT NULL DEFAULT '',
	document_id   TEXT             NOT NULL,
	document_path TEXT             NOT NULL DEFAULT '',
	status        TEXT             NOT NULL,
	success       BOOLEAN          NOT NULL,
	total_cost    DOUBLE PRECISION NOT NULL,
	total_latency DOUBLE PRECISION NOT NULL,
	failed_stage  TEXT             NOT NULL DEFAULT '',
	error         TEXT             NOT NULL DEFAULT '',
	metrics       JSONB            NOT NULL DEFAULT '{}'::jsonb,
	artifact_dir  TEXT             NOT NULL DEFAULT '',
	recorded_at   TIMESTAMPTZ      NOT NULL DEFAULT now(),
	PRIMARY KEY (run_key, pipeline_name, category, document_id)
);
CREATE INDEX IF NOT EXISTS document_results_run_id ON document_results (run_id);
`

type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	DialTimeout time.Duration
}

// PostgresIndex stores the run index in PostgreSQL.
type PostgresIndex struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgresIndex creates a pgx pool and ensures the schema exists.
func OpenPostgresIndex(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*PostgresIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 4
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	logger.Info("connecting to postgres index")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, common.NewConfigurationError("index.dsn", "parse postgres dsn", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.ConnConfig.RuntimeParams["application_name"] = "doceval"

	dctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dctx, pc)
	if err != nil {
		logger.Error("failed to connect to postgres index", "error", err)
		return nil, common.NewAppError("PERSISTENCE", "connect postgres index", err)
	}
	if err := pool.Ping(dctx); err != nil {
		pool.Close()
		return nil, common.NewAppError("PERSISTENCE", "ping postgres index", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, common.NewAppError("PERSISTENCE", "create postgres schema", err)
	}
	logger.Info("connected to postgres index")
	return &PostgresIndex{pool: pool, logger: logger}, nil
}

func (p *PostgresIndex) Record(ctx context.Context, rec DocumentRecord) error {
	metrics, err := flatMetricsJSON(rec)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
INSERT INTO document_results
	(run_key, run_id, pipeline_name, category, document_id, document_path, status, success,
	 total_cost, total_latency, failed_stage, error, metrics, artifact_dir)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14)
ON CONFLICT (run_key, pipeline_name, category, document_id) DO UPDATE SET
	status = EXCLUDED.status,
	success = EXCLUDED.success,
	total_cost = EXCLUDED.total_cost,
	total_latency = EXCLUDED.total_latency,
	failed_stage = EXCLUDED.failed_stage,
	error = EXCLUDED.error,
	metrics = EXCLUDED.metrics,
	artifact_dir = EXCLUDED.artifact_dir,
	recorded_at = now()`,
		rec.RunKey, rec.RunID, rec.PipelineName, rec.Category, rec.DocumentID, rec.DocumentPath,
		string(rec.Status), rec.Success, rec.TotalCost, rec.TotalLatency, rec.FailedStage, rec.Error,
		metrics, rec.ArtifactDir,
	)
	if err != nil {
		return fmt.Errorf("%w: postgres insert: %v", common.ErrPersistence, err)
	}
	return nil
}

func (p *PostgresIndex) List(ctx context.Context, runKey string) ([]IndexedResult, error) {
	rows, err := p.pool.Query(ctx, `
SELECT run_key, run_id, pipeline_name, category, document_id, status, success,
       total_cost, total_latency, metrics::text, artifact_dir
FROM document_results WHERE run_key = $1
ORDER BY pipeline_name, category, document_id`, runKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IndexedResult
	for rows.Next() {
		var r IndexedResult
		var status, metrics string
		if err := rows.Scan(&r.RunKey, &r.RunID, &r.PipelineName, &r.Category, &r.DocumentID, &status,
			&r.Success, &r.TotalCost, &r.TotalLatency, &metrics, &r.ArtifactDir); err != nil {
			return nil, err
		}
		r.Status = constants.RunStatus(status)
		if r.Metrics, err = decodeMetrics([]byte(metrics)); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresIndex) Close() error {
	p.logger.Info("closing postgres index")
	p.pool.Close()
	return nil
}
