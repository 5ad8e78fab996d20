// Package document models what pipelines produce and what they are scored against:
// predictions (plain text or structured records) and ground truth.
package document

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UnitID identifies a content unit. Ground-truth files use both strings and integers.
type UnitID string

func (u *UnitID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*u = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*u = UnitID(str)
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("unit_id: expected string or number, got %s", s)
	}
	*u = UnitID(s)
	return nil
}

// ContentUnit is a sub-document fragment (e.g. a paragraph) with page provenance.
// Page numbers are 1-based; zero means unknown.
type ContentUnit struct {
	UnitID          UnitID `json:"unit_id,omitempty"`
	Text            string `json:"text"`
	SourcePageStart int    `json:"source_page_start,omitempty"`
	SourcePageEnd   int    `json:"source_page_end,omitempty"`
}

// JoinUnitTexts concatenates unit texts with newline separators.
func JoinUnitTexts(units []ContentUnit) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = u.Text
	}
	return strings.Join(parts, "\n")
}

// Prediction is a pipeline's final output as seen by metrics.
// It is either PlainText or Structured.
type Prediction interface {
	isPrediction()
}

// PlainText is a raw text prediction.
type PlainText string

func (PlainText) isPrediction() {}

// Structured is a record prediction mirroring the ground-truth shape.
// A nil Text means the field is absent; a nil ContentUnits means no units were produced.
type Structured struct {
	DocumentID   string        `json:"document_id,omitempty"`
	Text         *string       `json:"text,omitempty"`
	ContentUnits []ContentUnit `json:"content_units,omitempty"`
}

func (Structured) isPrediction() {}

// HasUnits reports whether the record exposes content units.
func (s Structured) HasUnits() bool { return s.ContentUnits != nil }

// TextOrEmpty returns the text field, or "" when absent.
func (s Structured) TextOrEmpty() string {
	if s.Text == nil {
		return ""
	}
	return *s.Text
}

// StringPtr is a convenience for building Structured and GroundTruth literals.
func StringPtr(s string) *string { return &s }

// PredictionFrom converts an arbitrary stage output into a Prediction.
// Strings become PlainText; Structured values and generic maps with text and/or
// content_units become Structured; anything else is rendered with fmt.
func PredictionFrom(v any) Prediction {
	switch t := v.(type) {
	case nil:
		return PlainText("")
	case Prediction:
		if p, ok := t.(*Structured); ok {
			if p == nil {
				return PlainText("")
			}
			return *p
		}
		return t
	case string:
		return PlainText(t)
	case []byte:
		return PlainText(string(t))
	case map[string]any:
		return structuredFromMap(t)
	case fmt.Stringer:
		return PlainText(t.String())
	default:
		return PlainText(fmt.Sprint(t))
	}
}

func structuredFromMap(m map[string]any) Structured {
	var s Structured
	if id, ok := m["document_id"].(string); ok {
		s.DocumentID = id
	}
	if txt, ok := m["text"].(string); ok {
		s.Text = &txt
	}
	raw, ok := m["content_units"]
	if !ok {
		return s
	}
	var items []any
	switch u := raw.(type) {
	case []any:
		items = u
	case []map[string]any:
		for _, rec := range u {
			items = append(items, rec)
		}
	case []ContentUnit:
		s.ContentUnits = u
		return s
	default:
		return s
	}
	s.ContentUnits = make([]ContentUnit, 0, len(items))
	for _, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			continue // only records carry text
		}
		var cu ContentUnit
		if txt, ok := rec["text"].(string); ok {
			cu.Text = txt
		}
		if id, ok := rec["unit_id"]; ok && id != nil {
			cu.UnitID = UnitID(fmt.Sprint(id))
		}
		cu.SourcePageStart = intField(rec, "source_page_start")
		cu.SourcePageEnd = intField(rec, "source_page_end")
		s.ContentUnits = append(s.ContentUnits, cu)
	}
	return s
}

func intField(m map[string]any, key string) int {
	switch n := m[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	default:
		return 0
	}
}

// GroundTruth is the reference record a prediction is scored against.
type GroundTruth struct {
	DocumentID   string        `json:"document_id,omitempty"`
	Text         *string       `json:"text,omitempty"`
	ContentUnits []ContentUnit `json:"content_units,omitempty"`
}

// HasText reports whether the record carries a text field.
func (g GroundTruth) HasText() bool { return g.Text != nil }

// HasUnits reports whether the record exposes content units.
func (g GroundTruth) HasUnits() bool { return g.ContentUnits != nil }

// IsEmpty reports a record with neither text nor units.
func (g GroundTruth) IsEmpty() bool { return g.Text == nil && g.ContentUnits == nil }

// TextOrEmpty returns the text field, or "" when absent.
func (g GroundTruth) TextOrEmpty() string {
	if g.Text == nil {
		return ""
	}
	return *g.Text
}
