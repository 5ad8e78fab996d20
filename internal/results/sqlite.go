package results

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/doceval/constants"
	"github.com/joseph-ayodele/doceval/internal/common"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS document_results (
	run_key       TEXT    NOT NULL,
	run_id        TEXT    NOT NULL,
	pipeline_name TEXT    NOT NULL,
	category      TEXT    NOT NULL DEFAULT '',
	document_id   TEXT    NOT NULL,
	document_path TEXT    NOT NULL DEFAULT '',
	status        TEXT    NOT NULL,
	success       INTEGER NOT NULL,
	total_cost    REAL    NOT NULL,
	total_latency REAL    NOT NULL,
	failed_stage  TEXT    NOT NULL DEFAULT '',
	error         TEXT    NOT NULL DEFAULT '',
	metrics       TEXT    NOT NULL DEFAULT '{}',
	artifact_dir  TEXT    NOT NULL DEFAULT '',
	recorded_at   TEXT    NOT NULL,
	PRIMARY KEY (run_key, pipeline_name, category, document_id)
);
CREATE INDEX IF NOT EXISTS document_results_run_id ON document_results (run_id);
`

// SQLiteIndex stores the run index in a local SQLite file.
type SQLiteIndex struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLiteIndex opens (creating if needed) the database at dsn, e.g. "results/index.db".
func OpenSQLiteIndex(ctx context.Context, dsn string, logger *slog.Logger) (*SQLiteIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening sqlite index", "dsn", dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.NewAppError("PERSISTENCE", "open sqlite index", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, common.NewAppError("PERSISTENCE", "create sqlite schema", err)
	}
	return &SQLiteIndex{db: db, logger: logger}, nil
}

func (s *SQLiteIndex) Record(ctx context.Context, rec DocumentRecord) error {
	metrics, err := flatMetricsJSON(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO document_results
	(run_key, run_id, pipeline_name, category, document_id, document_path, status, success,
	 total_cost, total_latency, failed_stage, error, metrics, artifact_dir, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunKey, rec.RunID, rec.PipelineName, rec.Category, rec.DocumentID, rec.DocumentPath,
		string(rec.Status), rec.Success, rec.TotalCost, rec.TotalLatency, rec.FailedStage, rec.Error,
		metrics, rec.ArtifactDir, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("%w: sqlite insert: %v", common.ErrPersistence, err)
	}
	return nil
}

func (s *SQLiteIndex) List(ctx context.Context, runKey string) ([]IndexedResult, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_key, run_id, pipeline_name, category, document_id, status, success,
       total_cost, total_latency, metrics, artifact_dir
FROM document_results WHERE run_key = ?
ORDER BY pipeline_name, category, document_id`, runKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IndexedResult
	for rows.Next() {
		var r IndexedResult
		var status string
		var metrics []byte
		if err := rows.Scan(&r.RunKey, &r.RunID, &r.PipelineName, &r.Category, &r.DocumentID, &status,
			&r.Success, &r.TotalCost, &r.TotalLatency, &metrics, &r.ArtifactDir); err != nil {
			return nil, err
		}
		r.Status = constants.RunStatus(status)
		if r.Metrics, err = decodeMetrics(metrics); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) Close() error {
	s.logger.Debug("closing sqlite index")
	return s.db.Close()
}
