// Package metrics holds the concrete metrics available to evaluation runs.
package metrics

import (
	"log/slog"
	"unicode/utf8"

	"github.com/agext/levenshtein"

	"github.com/joseph-ayodele/doceval/internal/core/metric"
	"github.com/joseph-ayodele/doceval/internal/document"
)

const (
	KeyTextEditDistance = "text_edit_distance"
	KeyContentUnitCount = "content_unit_count"
)

// TextEditDistance compares prediction and ground-truth text by Levenshtein
// distance over code points. When both sides carry content units it also
// compares their newline-joined unit texts; units are not aligned.
type TextEditDistance struct {
	name   string
	logger *slog.Logger
}

func NewTextEditDistance(name string, logger *slog.Logger) *TextEditDistance {
	if name == "" {
		name = KeyTextEditDistance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TextEditDistance{name: name, logger: logger}
}

func (m *TextEditDistance) Name() string { return m.name }

func (m *TextEditDistance) Calculate(pred document.Prediction, gt document.GroundTruth) (metric.Value, error) {
	if !gt.HasText() {
		m.logger.Warn("metric.ground_truth_text_missing", "metric", m.name, "document", gt.DocumentID)
	}
	predText := predictionText(pred)
	gtText := gt.TextOrEmpty()

	raw, norm := distance(predText, gtText)
	scores := map[string]float64{
		"raw_text_distance":   raw,
		"normalized_distance": norm,
	}

	if s, ok := pred.(document.Structured); ok && s.HasUnits() && gt.HasUnits() {
		uraw, unorm := distance(document.JoinUnitTexts(s.ContentUnits), document.JoinUnitTexts(gt.ContentUnits))
		scores["unit_text_distance"] = uraw
		scores["unit_normalized_distance"] = unorm
	}
	return metric.Scores(scores), nil
}

// distance returns the raw edit distance and the distance divided by the
// ground-truth length in code points, clamped to at least 1.
func distance(pred, gt string) (float64, float64) {
	raw := float64(levenshtein.Distance(pred, gt, nil))
	denom := utf8.RuneCountInString(gt)
	if denom < 1 {
		denom = 1
	}
	return raw, raw / float64(denom)
}

func predictionText(p document.Prediction) string {
	switch v := p.(type) {
	case document.PlainText:
		return string(v)
	case document.Structured:
		return v.TextOrEmpty()
	default:
		return ""
	}
}
