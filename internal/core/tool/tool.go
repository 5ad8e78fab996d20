// Package tool defines the contract every pipeline processing unit implements
// and the registry that resolves tools by key.
package tool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// Context keys carried in an ExecutionContext.
const (
	KeyDocumentPath = "pdf_path"
	KeyRunID        = "run_id"
	KeyPipelineName = "pipeline_name"
)

// ExecutionContext holds run-scoped facts shared by every stage of one pipeline run.
// Tools read it; nothing writes to it after NewExecutionContext returns.
type ExecutionContext struct {
	facts map[string]string
}

// NewExecutionContext copies facts into a new context.
func NewExecutionContext(facts map[string]string) ExecutionContext {
	c := ExecutionContext{facts: make(map[string]string, len(facts))}
	for k, v := range facts {
		c.facts[k] = v
	}
	return c
}

// Get returns the fact stored under key.
func (c ExecutionContext) Get(key string) (string, bool) {
	v, ok := c.facts[key]
	return v, ok
}

// Value returns the fact stored under key, or "".
func (c ExecutionContext) Value(key string) string { return c.facts[key] }

func (c ExecutionContext) DocumentPath() string { return c.facts[KeyDocumentPath] }
func (c ExecutionContext) RunID() string        { return c.facts[KeyRunID] }
func (c ExecutionContext) PipelineName() string { return c.facts[KeyPipelineName] }

// Facts returns a copy of every fact.
func (c ExecutionContext) Facts() map[string]string {
	out := make(map[string]string, len(c.facts))
	for k, v := range c.facts {
		out[k] = v
	}
	return out
}

// Output is what a tool's Process returns: the data handed to the next stage and
// the cost the call incurred (e.g. API spend). Cost must be non-negative.
type Output struct {
	Data any
	Cost float64
}

// Tool is implemented by every extractor, transformer and formatter.
type Tool interface {
	// Name is a short label used in logs and stage metadata.
	Name() string
	// Process transforms input into output. Implementations must not retain input.
	Process(ctx context.Context, input any, ectx ExecutionContext) (Output, error)
}

// SpendError is returned by a tool that incurred cost before failing, so the
// spend can still be recorded against the failed stage.
type SpendError struct {
	Cost float64
	Err  error
}

func (e *SpendError) Error() string { return e.Err.Error() }
func (e *SpendError) Unwrap() error { return e.Err }

// SpentCost returns the cost carried by a SpendError in err's chain, or 0.
func SpentCost(err error) float64 {
	var se *SpendError
	if errors.As(err, &se) && se.Cost > 0 {
		return se.Cost
	}
	return 0
}

// Result is one timed tool invocation.
type Result struct {
	Output  any
	Cost    float64
	Latency time.Duration
}

// Run invokes t.Process and measures wall-clock latency, on success and on failure.
// Errors from Process are returned unchanged alongside the measured latency and any
// cost carried by a SpendError; a panic inside Process is converted into an error.
func Run(ctx context.Context, t Tool, input any, ectx ExecutionContext) (res Result, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v\n%s", t.Name(), r, debug.Stack())
		}
		res.Latency = time.Since(start)
	}()

	out, err := t.Process(ctx, input, ectx)
	if err != nil {
		return Result{Cost: SpentCost(err)}, err
	}
	if out.Cost < 0 {
		return Result{}, fmt.Errorf("tool %s reported negative cost %f", t.Name(), out.Cost)
	}
	return Result{Output: out.Data, Cost: out.Cost}, nil
}
