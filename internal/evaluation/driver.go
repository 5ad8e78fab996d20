// Package evaluation is the outer evaluation loop: it runs each selected pipeline
// over every dataset document, scores the final output and persists the results.
package evaluation

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/core/metric"
	"github.com/joseph-ayodele/doceval/internal/core/pipeline"
	"github.com/joseph-ayodele/doceval/internal/core/tool"
	"github.com/joseph-ayodele/doceval/internal/document"
	"github.com/joseph-ayodele/doceval/internal/results"
)

// RunIDLayout formats the run timestamp used in artifact paths and summaries.
const RunIDLayout = "20060102_150405"

// Driver evaluates pipelines over the configured dataset.
type Driver struct {
	cfg         *common.Config
	tools       *tool.Registry
	runner      *metric.Runner
	groundTruth *document.GroundTruthLoader
	artifacts   *results.ArtifactWriter
	index       results.Index
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*Driver)

// WithIndex records every document result in idx as well as on disk.
func WithIndex(idx results.Index) Option {
	return func(d *Driver) { d.index = idx }
}

// WithClock overrides the clock used for the run timestamp.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// NewDriver validates cfg and resolves the configured metrics.
func NewDriver(cfg *common.Config, tools *tool.Registry, metrics *metric.Registry, logger *slog.Logger, opts ...Option) (*Driver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		return nil, common.NewConfigurationError("", "config is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tools == nil || metrics == nil {
		return nil, common.NewAppError("INVALID_INPUT", "tool and metric registries are required", common.ErrInvalidInput)
	}
	runner, err := metric.BuildRunner(metrics, cfg.Metrics, logger)
	if err != nil {
		return nil, err
	}
	if len(runner.Names()) == 0 {
		return nil, common.NewConfigurationError("metrics", "no metrics configured", nil)
	}

	d := &Driver{
		cfg:         cfg,
		tools:       tools,
		runner:      runner,
		groundTruth: document.NewGroundTruthLoader(cfg.GroundTruthBasePath, logger),
		artifacts:   results.NewArtifactWriter(cfg.ResultsBasePath, logger),
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Report summarizes one evaluation run.
type Report struct {
	Run                results.RunInfo
	Records            []results.DocumentRecord
	SummaryPaths       []string
	Pipelines          []string // evaluated
	SkippedPipelines   []string // failed to load or validate
	MissingGroundTruth int
	PersistFailures    int
}

// Run evaluates the named pipelines, or every definition in the configured
// directory when names is empty. Pipelines that fail to load are skipped; every
// other failure is confined to the document it happened on. The aggregated
// summary is written once at the end, including after cancellation.
func (d *Driver) Run(ctx context.Context, names []string) (*Report, error) {
	started := d.now().UTC()
	report := &Report{Run: results.RunInfo{
		RunID:     started.Format(RunIDLayout),
		RunKey:    uuid.NewString(),
		StartedAt: started,
	}}
	logger := d.logger.With("run_id", report.Run.RunID)
	ctx = common.WithLogger(common.WithRunID(ctx, report.Run.RunID), d.logger)

	files, err := SelectPipelines(d.cfg.PipelineConfigsDir, names, logger)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		return report, common.NewConfigurationError(d.cfg.PipelineConfigsDir, "no pipeline configurations found", nil)
	}
	categories, err := ResolveCategories(d.cfg.DataBasePath, d.cfg.DatasetCategories, logger)
	if err != nil {
		return report, common.NewConfigurationError("dataset_categories", "resolve categories", err)
	}

	logger.Info("evaluation.started",
		"run_key", report.Run.RunKey,
		"pipelines", len(files),
		"categories", strings.Join(categories, ","),
		"metrics", strings.Join(d.runner.Names(), ","),
	)

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		exec, err := d.loadPipeline(file, logger)
		if err != nil {
			logger.Error("pipeline.setup_failed", "file", file, "error", err)
			report.SkippedPipelines = append(report.SkippedPipelines, stem(file))
			continue
		}
		report.Pipelines = append(report.Pipelines, exec.Name())
		d.runPipeline(ctx, exec, categories, report)
	}

	if len(report.Records) > 0 {
		paths, err := results.WriteSummaries(d.cfg.ResultsBasePath, report.Run.RunID, d.cfg.SummaryFormats, report.Records, logger)
		report.SummaryPaths = paths
		if err != nil {
			logger.Error("evaluation.summary_failed", "error", err)
			return report, err
		}
	} else {
		logger.Warn("evaluation.no_results")
	}

	logger.Info("evaluation.completed",
		"documents", len(report.Records),
		"skipped_pipelines", len(report.SkippedPipelines),
		"missing_ground_truth", report.MissingGroundTruth,
		"persist_failures", report.PersistFailures,
		"elapsed_ms", d.now().UTC().Sub(started).Milliseconds(),
	)
	return report, ctx.Err()
}

func (d *Driver) loadPipeline(file string, logger *slog.Logger) (*pipeline.Executor, error) {
	def, err := pipeline.LoadDefinitionFile(file)
	if err != nil {
		return nil, err
	}
	return pipeline.NewExecutor(def, d.tools, logger)
}

// runPipeline evaluates one pipeline over every category, honoring the per-category limit.
func (d *Driver) runPipeline(ctx context.Context, exec *pipeline.Executor, categories []string, report *Report) {
	logger := d.logger.With("run_id", report.Run.RunID, "pipeline", exec.Name())
	logger.Info("pipeline.evaluating", "stages", len(exec.Definition().Stages))

	for _, category := range categories {
		docs, stats, err := ListDocuments(d.cfg.DataBasePath, category)
		if err != nil {
			logger.Error("dataset.list_failed", "category", category, "error", err)
			continue
		}
		if len(docs) == 0 {
			logger.Warn("dataset.no_documents", "category", category, "dir", filepath.Join(d.cfg.DataBasePath, category))
			continue
		}
		logger.Info("dataset.category", "category", category, "scanned", stats.Scanned, "matched", stats.Matched)

		remaining := -1
		if d.cfg.PDFLimitPerCategory != nil {
			remaining = *d.cfg.PDFLimitPerCategory
		}
		for _, doc := range docs {
			if ctx.Err() != nil {
				logger.Warn("evaluation.cancelled", "error", ctx.Err())
				return
			}
			if remaining == 0 {
				break
			}
			rec, ok := d.evaluateDocument(ctx, exec, doc, report)
			if !ok {
				continue
			}
			report.Records = append(report.Records, rec)
			if remaining > 0 {
				remaining--
			}
		}
	}
}

// evaluateDocument runs the pipeline on one document, scores it and persists the
// outcome. It reports false when the document was skipped for lack of ground truth.
func (d *Driver) evaluateDocument(ctx context.Context, exec *pipeline.Executor, doc Document, report *Report) (results.DocumentRecord, bool) {
	ctx = common.WithDocument(ctx, doc.ID)
	logger := common.LoggerFromContext(ctx).With("pipeline", exec.Name(), "category", doc.Category)

	gt, err := d.groundTruth.Load(doc.Path)
	hasGT := err == nil
	if err != nil {
		if errors.Is(err, common.ErrGroundTruthInvalid) {
			logger.Error("ground_truth.invalid", "error", err)
		} else {
			logger.Warn("ground_truth.missing", "error", err)
		}
		if !d.cfg.RunWithoutGroundTruth {
			report.MissingGroundTruth++
			return results.DocumentRecord{}, false
		}
	}

	ectx := tool.NewExecutionContext(map[string]string{
		tool.KeyDocumentPath: doc.Path,
		tool.KeyRunID:        report.Run.RunID,
		tool.KeyPipelineName: exec.Name(),
	})
	res, err := exec.Run(ctx, doc.Path, ectx)
	if err != nil {
		logger.Error("pipeline.run_aborted", "error", err)
	}

	var scores metric.Results
	if hasGT && !res.Unresolved {
		scores = d.runner.CalculateAll(document.PredictionFrom(res.FinalOutput), gt)
		if failed := scores.Failed(); len(failed) > 0 {
			logger.Warn("metric.sentinels", "metrics", strings.Join(failed, ","))
		}
	}

	rec := results.NewDocumentRecord(report.Run, results.DocumentInfo{
		ID:       doc.ID,
		Path:     doc.Path,
		Category: doc.Category,
	}, res, scores, hasGT)

	dir, err := d.artifacts.Write(rec, res.FinalOutput)
	if err != nil {
		report.PersistFailures++
		logger.Error("results.persist_failed", "error", err)
	}
	rec.ArtifactDir = dir

	if d.index != nil {
		if err := d.index.Record(ctx, rec); err != nil {
			report.PersistFailures++
			logger.Error("results.index_failed", "error", err)
		}
	}

	logger.Info("document.evaluated",
		"status", rec.Status,
		"total_cost", rec.TotalCost,
		"total_latency", rec.TotalLatency,
	)
	return rec, true
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
