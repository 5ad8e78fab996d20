// Package results persists evaluation outcomes: per-document artifacts, the
// aggregated run summary and the optional run index.
package results

import (
	"time"

	"github.com/joseph-ayodele/doceval/constants"
	"github.com/joseph-ayodele/doceval/internal/core/metric"
	"github.com/joseph-ayodele/doceval/internal/core/pipeline"
)

// RunInfo identifies one evaluation run.
type RunInfo struct {
	RunID     string    // timestamp, 20060102_150405
	RunKey    string    // uuid
	StartedAt time.Time // UTC
}

// DocumentRecord is the persisted outcome of one pipeline over one document.
// Stage outputs are not included.
type DocumentRecord struct {
	RunID          string                `json:"run_id"`
	RunKey         string                `json:"run_key"`
	Timestamp      time.Time             `json:"timestamp"`
	PipelineName   string                `json:"pipeline_name"`
	Category       string                `json:"category"`
	DocumentID     string                `json:"document_id"`
	DocumentPath   string                `json:"document_path"`
	Status         constants.RunStatus   `json:"status"`
	Success        bool                  `json:"success"`
	TotalCost      float64               `json:"total_cost"`
	TotalLatency   float64               `json:"total_latency"` // seconds
	FailedStage    string                `json:"failed_stage,omitempty"`
	Error          string                `json:"error,omitempty"`
	HasGroundTruth bool                  `json:"has_ground_truth"`
	Metrics        metric.Results        `json:"metrics"`
	Stages         []pipeline.StageTrace `json:"stages"`

	ArtifactDir string `json:"-"`
}

// DocumentInfo identifies the evaluated document.
type DocumentInfo struct {
	ID       string
	Path     string
	Category string
}

// NewDocumentRecord flattens a run result into its persisted form. Runs of a
// document without ground truth are recorded as UNSCORED unless the pipeline
// itself could not be resolved.
func NewDocumentRecord(run RunInfo, doc DocumentInfo, res pipeline.RunResult, metrics metric.Results, hasGroundTruth bool) DocumentRecord {
	status := res.Status()
	if !hasGroundTruth && status != constants.RunStatusUnresolved {
		status = constants.RunStatusUnscored
	}
	if metrics == nil {
		metrics = metric.Results{}
	}
	stages := res.Trace
	if stages == nil {
		stages = []pipeline.StageTrace{}
	}
	return DocumentRecord{
		RunID:          run.RunID,
		RunKey:         run.RunKey,
		Timestamp:      run.StartedAt,
		PipelineName:   res.PipelineName,
		Category:       doc.Category,
		DocumentID:     doc.ID,
		DocumentPath:   doc.Path,
		Status:         status,
		Success:        res.Success,
		TotalCost:      res.TotalCost,
		TotalLatency:   res.TotalLatency.Seconds(),
		FailedStage:    res.FailedStage,
		Error:          res.ErrorMessage(),
		HasGroundTruth: hasGroundTruth,
		Metrics:        metrics,
		Stages:         stages,
	}
}
