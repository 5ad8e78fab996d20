package metric

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/document"
)

type fakeMetric struct {
	name string
	fn   func() (Value, error)
}

func (f fakeMetric) Name() string { return f.name }

func (f fakeMetric) Calculate(document.Prediction, document.GroundTruth) (Value, error) {
	return f.fn()
}

func constant(name string, v float64) fakeMetric {
	return fakeMetric{name: name, fn: func() (Value, error) { return Scalar(v), nil }}
}

func TestCalculateAllIsolatesFailures(t *testing.T) {
	runner := NewRunner([]Metric{
		fakeMetric{name: "m1", fn: func() (Value, error) { return Value{}, errors.New("incompatible input") }},
		constant("m2", 5.0),
		fakeMetric{name: "m3", fn: func() (Value, error) { panic("nil map") }},
		fakeMetric{name: "m4", fn: func() (Value, error) { return Scores(map[string]float64{"a": 1}), nil }},
	}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	res := runner.CalculateAll(document.PlainText("x"), document.GroundTruth{})

	require.Len(t, res, 4)
	assert.True(t, res["m1"].IsFailed())
	f, ok := res["m2"].Float()
	require.True(t, ok)
	assert.Equal(t, 5.0, f)
	assert.True(t, res["m3"].IsFailed())
	a, ok := res["m4"].Score("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, a)

	assert.Equal(t, []string{"m1", "m3"}, res.Failed())
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, runner.Names())
}

func TestCalculateWrapsErrors(t *testing.T) {
	r := NewRunner(nil, nil)
	_, err := r.calculate(fakeMetric{name: "bad", fn: func() (Value, error) { return Value{}, errors.New("boom") }}, document.PlainText(""), document.GroundTruth{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMetricComputation)

	_, err = r.calculate(fakeMetric{name: "worse", fn: func() (Value, error) { panic("boom") }}, document.PlainText(""), document.GroundTruth{})
	assert.ErrorIs(t, err, common.ErrMetricComputation)
}

func TestDuplicateNamesWarnAndOverwrite(t *testing.T) {
	var buf bytes.Buffer
	runner := NewRunner([]Metric{constant("dup", 1), constant("dup", 2)}, slog.New(slog.NewTextHandler(&buf, nil)))

	assert.Contains(t, buf.String(), "metric.duplicate_name")
	res := runner.CalculateAll(document.PlainText(""), document.GroundTruth{})
	f, _ := res["dup"].Float()
	assert.Equal(t, 2.0, f)
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{name: "failed", value: Failed(), want: "null"},
		{name: "scalar", value: Scalar(2.5), want: "2.5"},
		{name: "scores", value: Scores(map[string]float64{"b": 2, "a": 1}), want: `{"a":1,"b":2}`},
		{name: "empty scores", value: Scores(nil), want: "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))

			var back Value
			require.NoError(t, json.Unmarshal(b, &back))
			assert.Equal(t, tt.value.IsFailed(), back.IsFailed())
			assert.Equal(t, tt.value.ScoreNames(), back.ScoreNames())
		})
	}
}

func TestResultsFlatten(t *testing.T) {
	res := Results{
		"text_edit_distance": Scores(map[string]float64{"raw_text_distance": 3, "normalized_distance": 0.5}),
		"exact":              Scalar(1),
		"broken":             Failed(),
	}
	assert.Equal(t, map[string]float64{
		"text_edit_distance.raw_text_distance":   3,
		"text_edit_distance.normalized_distance": 0.5,
		"exact":                                  1,
	}, res.Flatten())
}

func TestRegistryAndBuildRunner(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("const", func(p Params) (Metric, error) {
		return constant(p.String("name", "const"), p.Float("value", 0)), nil
	})
	require.Error(t, reg.Register("const", func(Params) (Metric, error) { return nil, nil }))
	require.NoError(t, reg.Register("nil", func(Params) (Metric, error) { return nil, nil }))
	assert.Equal(t, []string{"const", "nil"}, reg.Keys())

	runner, err := BuildRunner(reg, []common.MetricSpec{
		{Metric: "const", Params: map[string]any{"name": "seven", "value": 7}},
		{Metric: "const"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"seven", "const"}, runner.Names())

	_, err = BuildRunner(reg, []common.MetricSpec{{Metric: "missing"}}, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	_, err = reg.Resolve("nil", nil)
	assert.Error(t, err)
}

func TestParams(t *testing.T) {
	p := Params{"name": "ted", "n": 3, "weight": "0.5", "bad": "x", "nil": nil}
	assert.Equal(t, "ted", p.String("name", ""))
	assert.Equal(t, "3", p.String("n", ""))
	assert.Equal(t, "fallback", p.String("nil", "fallback"))
	assert.Equal(t, "fallback", p.String("missing", "fallback"))
	assert.Equal(t, 3.0, p.Float("n", 0))
	assert.Equal(t, 0.5, p.Float("weight", 0))
	assert.Equal(t, 1.5, p.Float("bad", 1.5))

	var empty Params
	assert.Equal(t, 2.0, empty.Float("value", 2))
}
