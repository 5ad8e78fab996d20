package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error taxonomy. Typed errors below match these through errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrConfiguration      = errors.New("configuration error")
	ErrToolResolution     = errors.New("tool resolution error")
	ErrStageExecution     = errors.New("stage execution error")
	ErrMetricComputation  = errors.New("metric computation error")
	ErrGroundTruthMissing = errors.New("ground truth missing")
	ErrGroundTruthInvalid = errors.New("ground truth invalid")
	ErrPersistence        = errors.New("persistence error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ConfigurationError reports a malformed or incomplete pipeline or run configuration.
type ConfigurationError struct {
	Source string // file path or config key, may be empty
	Reason string
	Cause  error
}

func NewConfigurationError(source, reason string, cause error) *ConfigurationError {
	return &ConfigurationError{Source: source, Reason: reason, Cause: cause}
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Source != "" {
		msg += " in " + e.Source
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ToolResolutionError reports that a stage's tool key is unknown or its factory failed.
type ToolResolutionError struct {
	Stage string
	Tool  string
	Cause error
}

func (e *ToolResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resolve tool %q for stage %q: %v", e.Tool, e.Stage, e.Cause)
	}
	return fmt.Sprintf("resolve tool %q for stage %q", e.Tool, e.Stage)
}

func (e *ToolResolutionError) Unwrap() error { return e.Cause }

func (e *ToolResolutionError) Is(target error) bool { return target == ErrToolResolution }

// StageExecutionError reports a tool failure surfaced through a stage run.
type StageExecutionError struct {
	Stage string
	Tool  string
	Cause error
}

func (e *StageExecutionError) Error() string {
	return fmt.Sprintf("stage %q (%s) failed: %v", e.Stage, e.Tool, e.Cause)
}

func (e *StageExecutionError) Unwrap() error { return e.Cause }

func (e *StageExecutionError) Is(target error) bool { return target == ErrStageExecution }

// MetricComputationError reports a metric that failed to compute for one document.
type MetricComputationError struct {
	Metric string
	Cause  error
}

func (e *MetricComputationError) Error() string {
	return fmt.Sprintf("metric %q failed: %v", e.Metric, e.Cause)
}

func (e *MetricComputationError) Unwrap() error { return e.Cause }

func (e *MetricComputationError) Is(target error) bool { return target == ErrMetricComputation }
