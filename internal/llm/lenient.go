package llm

import (
	"bytes"
	"fmt"
	"regexp"
)

var reCodeFence = regexp.MustCompile("(?s)^\\s*```(?:json)?\\s*(.*?)\\s*```\\s*$")

// ExtractJSONObject recovers the JSON object from a model reply that wrapped it
// in a markdown fence or surrounding prose.
func ExtractJSONObject(content []byte) ([]byte, error) {
	content = bytes.TrimSpace(content)
	if m := reCodeFence.FindSubmatch(content); m != nil {
		content = bytes.TrimSpace(m[1])
	}
	if len(content) > 0 && content[0] == '{' {
		return content, nil
	}
	start := bytes.IndexByte(content, '{')
	end := bytes.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no json object in model reply")
	}
	return content[start : end+1], nil
}
