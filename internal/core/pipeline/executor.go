package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/doceval/constants"
	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/core/tool"
)

// Executor runs a pipeline definition's stages sequentially.
type Executor struct {
	def      Definition
	registry *tool.Registry
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[int]tool.Tool
}

// NewExecutor validates def and binds it to registry.
func NewExecutor(def Definition, registry *tool.Registry, logger *slog.Logger) (*Executor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		return nil, common.NewConfigurationError(def.Source, "tool registry is required", nil)
	}
	def = def.Normalized()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &Executor{
		def:      def,
		registry: registry,
		logger:   logger.With("pipeline", def.PipelineName),
		cache:    map[int]tool.Tool{},
	}, nil
}

// Name returns the pipeline name.
func (e *Executor) Name() string { return e.def.PipelineName }

// Definition returns the normalized definition the executor runs.
func (e *Executor) Definition() Definition { return e.def }

// Run feeds input through every stage in order.
//
// A stage without a tool key is skipped. A stage failure (error, panic or timeout)
// stops the run and keeps the completed stages; Run still returns a nil error.
// A tool that cannot be resolved stops the run and is returned as a
// *common.ToolResolutionError alongside the partial result.
func (e *Executor) Run(ctx context.Context, input any, ectx tool.ExecutionContext) (RunResult, error) {
	res := RunResult{
		PipelineName:   e.def.PipelineName,
		DeclaredStages: len(e.def.Stages),
	}
	current := input
	logger := e.logger.With("document", ectx.DocumentPath())

	finish := func() RunResult {
		res.FinalOutput = current
		res.Success = len(res.Stages) == res.DeclaredStages && res.Err == nil
		return res
	}

	for i, stage := range e.def.Stages {
		if stage.Tool == "" {
			logger.Warn("stage.skipped", "stage", stage.Name, "reason", "no tool configured")
			res.Trace = append(res.Trace, StageTrace{Name: stage.Name, Status: constants.StageStatusSkipped})
			continue
		}

		t, err := e.toolFor(i, stage)
		if err != nil {
			rerr := &common.ToolResolutionError{Stage: stage.Name, Tool: stage.Tool, Cause: err}
			logger.Error("stage.resolve_failed", "stage", stage.Name, "tool", stage.Tool, "error", err)
			res.Trace = append(res.Trace, StageTrace{
				Name:   stage.Name,
				Tool:   stage.Tool,
				Status: constants.StageStatusFailed,
				Error:  rerr.Error(),
			})
			res.FailedStage = stage.Name
			res.Unresolved = true
			res.Err = rerr
			return finish(), rerr
		}

		sr, err := e.runStage(ctx, i, stage, t, current, ectx)
		if err != nil {
			serr := &common.StageExecutionError{Stage: stage.Name, Tool: stage.Tool, Cause: err}
			logger.Error("stage.failed",
				"stage", stage.Name,
				"tool", stage.Tool,
				"latency_ms", sr.Latency.Milliseconds(),
				"spent_cost", sr.Cost,
				"error", err,
			)
			// spend on a failed stage is recorded in the trace but not in TotalCost
			res.Trace = append(res.Trace, StageTrace{
				Name:    stage.Name,
				Tool:    stage.Tool,
				Status:  constants.StageStatusFailed,
				Cost:    sr.Cost,
				Latency: sr.Latency.Seconds(),
				Error:   serr.Error(),
			})
			res.FailedStage = stage.Name
			res.Err = serr
			return finish(), nil
		}

		res.Stages = append(res.Stages, StageResult{
			Name:    stage.Name,
			Tool:    stage.Tool,
			Output:  sr.Output,
			Cost:    sr.Cost,
			Latency: sr.Latency,
		})
		res.Trace = append(res.Trace, StageTrace{
			Name:    stage.Name,
			Tool:    stage.Tool,
			Status:  constants.StageStatusCompleted,
			Cost:    sr.Cost,
			Latency: sr.Latency.Seconds(),
		})
		res.TotalCost += sr.Cost
		res.TotalLatency += sr.Latency
		current = sr.Output

		logger.Debug("stage.completed",
			"stage", stage.Name,
			"tool", stage.Tool,
			"cost", sr.Cost,
			"latency_ms", sr.Latency.Milliseconds(),
		)
	}

	out := finish()
	logger.Info("pipeline.completed",
		"success", out.Success,
		"stages", len(out.Stages),
		"declared", out.DeclaredStages,
		"total_cost", out.TotalCost,
		"total_latency_ms", out.TotalLatency.Milliseconds(),
	)
	return out, nil
}

// toolFor constructs the stage's tool, or returns the memoized instance when cache_tools is set.
func (e *Executor) toolFor(idx int, stage StageSpec) (tool.Tool, error) {
	if !e.def.CacheTools {
		return e.registry.Resolve(stage.Tool, stage.Params)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.cache[idx]; ok {
		return t, nil
	}
	t, err := e.registry.Resolve(stage.Tool, stage.Params)
	if err != nil {
		return nil, err
	}
	e.cache[idx] = t
	return t, nil
}

// evict drops the memoized tool for stage idx so the next run constructs a fresh instance.
func (e *Executor) evict(idx int, stage StageSpec) {
	if !e.def.CacheTools {
		return
	}
	e.mu.Lock()
	delete(e.cache, idx)
	e.mu.Unlock()
	e.logger.Warn("stage.tool_evicted", "stage", stage.Name, "tool", stage.Tool, "reason", "timed out")
}

// runStage invokes the tool, bounded by the stage (or pipeline) timeout when one is set.
// A tool that ignores ctx keeps its goroutine until Process returns; its cached
// instance is evicted so no later run calls into it concurrently.
func (e *Executor) runStage(ctx context.Context, idx int, stage StageSpec, t tool.Tool, input any, ectx tool.ExecutionContext) (tool.Result, error) {
	if err := ctx.Err(); err != nil {
		return tool.Result{}, err
	}

	timeout := stage.Timeout
	if timeout == 0 {
		timeout = e.def.StageTimeout
	}
	if timeout <= 0 {
		return tool.Run(ctx, t, input, ectx)
	}

	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res tool.Result
		err error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		r, err := tool.Run(sctx, t, input, ectx)
		done <- outcome{res: r, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-sctx.Done():
		e.evict(idx, stage)
		return tool.Result{Latency: time.Since(start)}, fmt.Errorf("stage timed out after %s: %w", timeout, sctx.Err())
	}
}
