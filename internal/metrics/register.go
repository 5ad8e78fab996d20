package metrics

import (
	"log/slog"

	"github.com/joseph-ayodele/doceval/internal/core/metric"
)

// RegisterDefaults installs every built-in metric. The optional "name" param
// overrides the result key.
func RegisterDefaults(reg *metric.Registry, logger *slog.Logger) {
	reg.MustRegister(KeyTextEditDistance, func(p metric.Params) (metric.Metric, error) {
		return NewTextEditDistance(p.String("name", ""), logger), nil
	})
	reg.MustRegister(KeyContentUnitCount, func(p metric.Params) (metric.Metric, error) {
		return NewContentUnitCount(p.String("name", ""), logger), nil
	})
}
