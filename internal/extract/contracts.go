// Package extract defines the document -> text contract shared by the
// extraction tools and its implementations.
package extract

import (
	"context"
	"time"
)

// TextExtractor turns a document on disk into text, pages separated by constants.PageBreak.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" | "pdf-ocr" | "pdf-native"
	Language string
	Duration time.Duration
	Warnings []string
}
