package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcTool struct {
	name string
	fn   func(ctx context.Context, input any) (Output, error)
}

func (f funcTool) Name() string { return f.name }

func (f funcTool) Process(ctx context.Context, input any, _ ExecutionContext) (Output, error) {
	return f.fn(ctx, input)
}

func TestRunReturnsOutputCostAndLatency(t *testing.T) {
	tl := funcTool{name: "sleepy", fn: func(_ context.Context, input any) (Output, error) {
		time.Sleep(5 * time.Millisecond)
		return Output{Data: input.(string) + "!", Cost: 0.25}, nil
	}}

	res, err := Run(context.Background(), tl, "hi", ExecutionContext{})
	require.NoError(t, err)
	assert.Equal(t, "hi!", res.Output)
	assert.Equal(t, 0.25, res.Cost)
	assert.GreaterOrEqual(t, res.Latency, 5*time.Millisecond)
}

func TestRunPropagatesErrorWithLatency(t *testing.T) {
	boom := errors.New("boom")
	tl := funcTool{name: "failing", fn: func(context.Context, any) (Output, error) {
		time.Sleep(2 * time.Millisecond)
		return Output{}, boom
	}}

	res, err := Run(context.Background(), tl, nil, ExecutionContext{})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, res.Output)
	assert.GreaterOrEqual(t, res.Latency, 2*time.Millisecond)
}

func TestRunKeepsSpendOfFailedCall(t *testing.T) {
	boom := errors.New("bad reply")
	tl := funcTool{name: "paid", fn: func(context.Context, any) (Output, error) {
		return Output{}, fmt.Errorf("paid: %w", &SpendError{Cost: 0.02, Err: boom})
	}}

	res, err := Run(context.Background(), tl, nil, ExecutionContext{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0.02, res.Cost)
	assert.Equal(t, 0.02, SpentCost(err))
	assert.Zero(t, SpentCost(boom))
	assert.Zero(t, SpentCost(&SpendError{Cost: -1, Err: boom}))
}

func TestRunRecoversPanic(t *testing.T) {
	tl := funcTool{name: "panicky", fn: func(context.Context, any) (Output, error) {
		panic("kaboom")
	}}

	res, err := Run(context.Background(), tl, nil, ExecutionContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Greater(t, res.Latency, time.Duration(0))
}

func TestRunRejectsNegativeCost(t *testing.T) {
	tl := funcTool{name: "refund", fn: func(context.Context, any) (Output, error) {
		return Output{Data: "x", Cost: -1}, nil
	}}

	_, err := Run(context.Background(), tl, nil, ExecutionContext{})
	require.Error(t, err)
}

func TestExecutionContextIsACopy(t *testing.T) {
	facts := map[string]string{KeyRunID: "r1", KeyDocumentPath: "/a.pdf", KeyPipelineName: "p"}
	ectx := NewExecutionContext(facts)
	facts[KeyRunID] = "mutated"

	assert.Equal(t, "r1", ectx.RunID())
	assert.Equal(t, "/a.pdf", ectx.DocumentPath())
	assert.Equal(t, "p", ectx.PipelineName())

	copied := ectx.Facts()
	copied[KeyRunID] = "again"
	assert.Equal(t, "r1", ectx.RunID())

	_, ok := ectx.Get("missing")
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	factory := func(p Params) (Tool, error) {
		return funcTool{name: p.String("label", "default")}, nil
	}
	require.NoError(t, r.Register("echo", factory))
	require.Error(t, r.Register("echo", factory), "duplicate key")
	require.Error(t, r.Register("", factory))
	require.Error(t, r.Register("nilfactory", nil))
	require.NoError(t, r.Register("broken", func(Params) (Tool, error) { return nil, errors.New("bad params") }))

	tl, err := r.Resolve("echo", Params{"label": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", tl.Name())

	tl, err = r.Resolve("echo", nil)
	require.NoError(t, err)
	assert.Equal(t, "default", tl.Name())

	_, err = r.Resolve("missing", nil)
	assert.Error(t, err)

	_, err = r.Resolve("broken", nil)
	assert.ErrorContains(t, err, "bad params")

	assert.Equal(t, []string{"broken", "echo"}, r.Keys())
	assert.True(t, r.Has("echo"))
}

func TestParams(t *testing.T) {
	p := Params{
		"s":   "str",
		"n":   3,
		"f":   1.5,
		"fs":  "2.5",
		"b":   true,
		"bs":  "false",
		"d":   "2s",
		"dn":  3,
		"nil": nil,
	}
	assert.Equal(t, "str", p.String("s", "x"))
	assert.Equal(t, "x", p.String("nil", "x"))
	assert.Equal(t, "3", p.String("n", ""))
	assert.Equal(t, 3, p.Int("n", 0))
	assert.Equal(t, 1, p.Int("f", 0))
	assert.Equal(t, 9, p.Int("missing", 9))
	assert.Equal(t, 1.5, p.Float("f", 0))
	assert.Equal(t, 2.5, p.Float("fs", 0))
	assert.Equal(t, 3.0, p.Float("n", 0))
	assert.True(t, p.Bool("b", false))
	assert.False(t, p.Bool("bs", true))
	assert.Equal(t, 2*time.Second, p.Duration("d", 0))
	assert.Equal(t, 3*time.Second, p.Duration("dn", 0))
	assert.Equal(t, time.Minute, p.Duration("missing", time.Minute))
}
