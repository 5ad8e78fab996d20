package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (units, paragraphs -> content_units)
// - Drops units with empty text and keys outside the schema
// - Coerces page numbers given as strings or floats to integers; drops invalid ones
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	for _, from := range []string{"units", "paragraphs", "contentUnits"} {
		if v, ok := m[from]; ok {
			if _, exists := m["content_units"]; !exists {
				m["content_units"] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->content_units")
		}
	}
	for k := range m {
		if k != "content_units" {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	items, _ := m["content_units"].([]any)
	units := make([]any, 0, len(items))
	for i, it := range items {
		u, ok := it.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("content_units[%d](type)", i))
			continue
		}
		text, _ := u["text"].(string)
		if strings.TrimSpace(text) == "" {
			dropped = append(dropped, fmt.Sprintf("content_units[%d](empty)", i))
			continue
		}
		clean := map[string]any{"text": text}
		for _, k := range []string{"source_page_start", "source_page_end"} {
			v, ok := u[k]
			if !ok {
				continue
			}
			if p, ok := coercePage(v); ok {
				clean[k] = p
			} else {
				dropped = append(dropped, fmt.Sprintf("content_units[%d].%s", i, k))
			}
		}
		units = append(units, clean)
	}
	m["content_units"] = units

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.structure.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func coercePage(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t >= 1 && t == math.Trunc(t) {
			return int(t), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil && n >= 1 {
			return n, true
		}
	}
	return 0, false
}
