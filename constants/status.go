package constants

// RunStatus is the canonical status recorded for a pipeline run on one document.
type RunStatus string

// Stable values (stored as-is in the run index).
const (
	RunStatusSucceeded  RunStatus = "SUCCEEDED"  // every declared stage completed
	RunStatusPartial    RunStatus = "PARTIAL"    // a stage failed or was skipped
	RunStatusUnresolved RunStatus = "UNRESOLVED" // a stage's tool could not be resolved
	RunStatusUnscored   RunStatus = "UNSCORED"   // ran for telemetry only, no ground truth
)

// StageStatus is recorded per stage in persisted metadata.
type StageStatus string

const (
	StageStatusCompleted StageStatus = "COMPLETED"
	StageStatusFailed    StageStatus = "FAILED"
	StageStatusSkipped   StageStatus = "SKIPPED"
)
