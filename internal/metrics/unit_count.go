package metrics

import (
	"log/slog"

	"github.com/joseph-ayodele/doceval/internal/core/metric"
	"github.com/joseph-ayodele/doceval/internal/document"
)

// ContentUnitCount compares how many content units each side produced.
type ContentUnitCount struct {
	name   string
	logger *slog.Logger
}

func NewContentUnitCount(name string, logger *slog.Logger) *ContentUnitCount {
	if name == "" {
		name = KeyContentUnitCount
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentUnitCount{name: name, logger: logger}
}

func (m *ContentUnitCount) Name() string { return m.name }

// Calculate returns an empty result when ground truth has no units. A plain-text
// prediction counts as zero units.
func (m *ContentUnitCount) Calculate(pred document.Prediction, gt document.GroundTruth) (metric.Value, error) {
	if !gt.HasUnits() {
		m.logger.Warn("metric.ground_truth_units_missing", "metric", m.name, "document", gt.DocumentID)
		return metric.Scores(nil), nil
	}
	predicted := 0
	if s, ok := pred.(document.Structured); ok {
		predicted = len(s.ContentUnits)
	}
	expected := len(gt.ContentUnits)
	return metric.Scores(map[string]float64{
		"predicted_units":       float64(predicted),
		"ground_truth_units":    float64(expected),
		"unit_count_difference": float64(predicted - expected),
	}), nil
}
