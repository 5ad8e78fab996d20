package tools

import (
	"fmt"

	"github.com/joseph-ayodele/doceval/internal/core/tool"
	"github.com/joseph-ayodele/doceval/internal/document"
)

// documentPath picks the path to read: a non-empty string input, else the run's document path.
func documentPath(input any, ectx tool.ExecutionContext) (string, error) {
	if s, ok := input.(string); ok && s != "" {
		return s, nil
	}
	if p := ectx.DocumentPath(); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("no document path in input or execution context")
}

// textOf returns the text carried by a stage output.
func textOf(input any) (string, error) {
	switch v := input.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case document.PlainText:
		return string(v), nil
	case document.Structured:
		if v.Text == nil && v.HasUnits() {
			return document.JoinUnitTexts(v.ContentUnits), nil
		}
		return v.TextOrEmpty(), nil
	case *document.Structured:
		if v == nil {
			return "", fmt.Errorf("nil structured input")
		}
		return textOf(*v)
	case map[string]any:
		return textOf(document.PredictionFrom(v))
	default:
		return "", fmt.Errorf("expected text input, got %T", input)
	}
}
