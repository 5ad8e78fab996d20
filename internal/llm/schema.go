package llm

// BuildContentUnitsJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the model as a structured output constraint and also use it locally to validate.
func BuildContentUnitsJSONSchema() map[string]any {
	unit := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"text":              map[string]any{"type": "string", "minLength": 1},
			"source_page_start": pageProp(),
			"source_page_end":   pageProp(),
		},
		"required": []string{"text"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"content_units": map[string]any{
				"type":  "array",
				"items": unit,
			},
		},
		"required": []string{"content_units"},
	}
}

func pageProp() map[string]any {
	return map[string]any{"type": "integer", "minimum": 1}
}
