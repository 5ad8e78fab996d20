package llm

import (
	"strings"
	"unicode/utf8"
)

// BuildSystemPrompt composes the system message for content-unit segmentation.
func BuildSystemPrompt(req StructureRequest) string {
	parts := []string{
		"You are a document structuring assistant. Return ONLY JSON that matches the provided JSON Schema.",
		"Split the document text into content units: paragraphs, headings, list items or table rows, in reading order.",
		"Copy unit text verbatim from the input; do not summarise, translate or correct it.",
		"Pages in the input are separated by the line '--- Page Break ---'. The first page is page 1.",
		"Set 'source_page_start' and 'source_page_end' to the pages a unit spans.",
		"Never output null. Omit page fields you cannot determine.",
	}
	if s := strings.TrimSpace(req.Instructions); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the document text, truncated to MaxChars runes when set.
func BuildUserPrompt(req StructureRequest) string {
	var b strings.Builder
	if id := strings.TrimSpace(req.DocumentID); id != "" {
		b.WriteString("Document: ")
		b.WriteString(id)
		b.WriteString("\n")
	}
	text := strings.TrimSpace(req.Text)
	b.WriteString("\nDocument text:\n")
	if req.MaxChars > 0 && utf8.RuneCountInString(text) > req.MaxChars {
		b.WriteString(string([]rune(text)[:req.MaxChars]))
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
