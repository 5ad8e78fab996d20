package constants

import "strings"

const (
	PDF  = "PDF"
	TEXT = "TEXT"
)

// DocumentExtensions holds the file extensions the evaluation driver picks up from a category directory.
var DocumentExtensions = map[string]struct{}{
	"pdf": {},
}

// PipelineExtensions holds the file extensions recognised as pipeline definitions.
var PipelineExtensions = map[string]struct{}{
	"yaml": {},
	"yml":  {},
}

// PageBreak separates pages in extracted text.
const PageBreak = "\n--- Page Break ---\n"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to a source format, or "" if unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "txt", "md":
		return TEXT
	default:
		return ""
	}
}

// IsDocumentExt reports whether ext is picked up as an evaluation document.
func IsDocumentExt(ext string) bool {
	_, ok := DocumentExtensions[NormalizeExt(ext)]
	return ok
}

// IsPipelineExt reports whether ext names a pipeline definition file.
func IsPipelineExt(ext string) bool {
	_, ok := PipelineExtensions[NormalizeExt(ext)]
	return ok
}
