package metric

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/document"
)

// Runner evaluates a fixed, ordered set of metrics.
type Runner struct {
	metrics []Metric
	logger  *slog.Logger
}

// NewRunner keeps metrics in the given order. Duplicate names are logged; the
// later metric's result overwrites the earlier one.
func NewRunner(metrics []Metric, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	seen := map[string]bool{}
	for _, m := range metrics {
		if seen[m.Name()] {
			logger.Warn("metric.duplicate_name", "metric", m.Name())
		}
		seen[m.Name()] = true
	}
	return &Runner{metrics: metrics, logger: logger}
}

// BuildRunner resolves every spec against reg, in order.
func BuildRunner(reg *Registry, specs []common.MetricSpec, logger *slog.Logger) (*Runner, error) {
	metrics := make([]Metric, 0, len(specs))
	for i, spec := range specs {
		m, err := reg.Resolve(spec.Metric, spec.Params)
		if err != nil {
			return nil, common.NewConfigurationError(fmt.Sprintf("metrics[%d]", i), "resolve metric "+spec.Metric, err)
		}
		metrics = append(metrics, m)
	}
	return NewRunner(metrics, logger), nil
}

// Names returns metric names in evaluation order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.metrics))
	for _, m := range r.metrics {
		names = append(names, m.Name())
	}
	return names
}

// CalculateAll runs every metric. A metric that errors or panics gets the
// Failed sentinel; the remaining metrics still run.
func (r *Runner) CalculateAll(pred document.Prediction, gt document.GroundTruth) Results {
	out := make(Results, len(r.metrics))
	for _, m := range r.metrics {
		v, err := r.calculate(m, pred, gt)
		if err != nil {
			r.logger.Error("metric.failed", "metric", m.Name(), "document", gt.DocumentID, "error", err)
			out[m.Name()] = Failed()
			continue
		}
		out[m.Name()] = v
	}
	return out
}

func (r *Runner) calculate(m Metric, pred document.Prediction, gt document.GroundTruth) (v Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &common.MetricComputationError{
				Metric: m.Name(),
				Cause:  fmt.Errorf("panic: %v\n%s", rec, debug.Stack()),
			}
		}
	}()
	v, err = m.Calculate(pred, gt)
	if err != nil {
		return Failed(), &common.MetricComputationError{Metric: m.Name(), Cause: err}
	}
	return v, nil
}
