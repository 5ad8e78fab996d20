package pipeline

import (
	"time"

	"github.com/joseph-ayodele/doceval/constants"
)

// StageResult is one completed stage execution.
type StageResult struct {
	Name    string
	Tool    string
	Output  any
	Cost    float64
	Latency time.Duration
}

// StageTrace records what happened to a declared stage, without its output.
type StageTrace struct {
	Name    string                `json:"name"`
	Tool    string                `json:"tool"`
	Status  constants.StageStatus `json:"status"`
	Cost    float64               `json:"cost"`
	Latency float64               `json:"latency"` // seconds
	Error   string                `json:"error,omitempty"`
}

// RunResult is the outcome of running one pipeline over one input.
type RunResult struct {
	PipelineName   string
	FinalOutput    any
	Stages         []StageResult // completed stages only, in declared order
	Trace          []StageTrace  // every stage reached, including skipped and failed
	DeclaredStages int
	TotalCost      float64
	TotalLatency   time.Duration
	Success        bool
	FailedStage    string
	Unresolved     bool
	Err            error
}

// Status maps the run outcome onto its persisted status.
func (r RunResult) Status() constants.RunStatus {
	switch {
	case r.Unresolved:
		return constants.RunStatusUnresolved
	case r.Success:
		return constants.RunStatusSucceeded
	default:
		return constants.RunStatusPartial
	}
}

// ErrorMessage returns the failure message, or "".
func (r RunResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
