package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/doceval/internal/core/tool"
	"github.com/joseph-ayodele/doceval/internal/extract"
	"github.com/joseph-ayodele/doceval/internal/ocr"
)

const (
	KeyPDFToText = "pdftotext"
	KeyPDFNative = "pdf_native"
)

// Extraction runs a TextExtractor over the document path and outputs its text.
type Extraction struct {
	name      string
	extractor extract.TextExtractor
	logger    *slog.Logger
}

func NewExtraction(name string, ex extract.TextExtractor, logger *slog.Logger) *Extraction {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extraction{name: name, extractor: ex, logger: logger}
}

func (t *Extraction) Name() string { return t.name }

func (t *Extraction) Process(ctx context.Context, input any, ectx tool.ExecutionContext) (tool.Output, error) {
	path, err := documentPath(input, ectx)
	if err != nil {
		return tool.Output{}, err
	}
	res, err := t.extractor.Extract(ctx, path)
	if err != nil {
		return tool.Output{}, fmt.Errorf("%s: %w", t.name, err)
	}
	if len(res.Warnings) > 0 {
		t.logger.Warn("tool.extraction.warnings", "tool", t.name, "path", path, "warnings", res.Warnings)
	}
	t.logger.Debug("tool.extraction.done",
		"tool", t.name,
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return tool.Output{Data: res.Text}, nil
}

func pdftotextFactory(deps Deps) tool.Factory {
	return func(p tool.Params) (tool.Tool, error) {
		cfg := ocr.Config{
			Pdftotext:     p.String("pdftotext", ""),
			Pdftoppm:      p.String("pdftoppm", ""),
			Tesseract:     p.String("tesseract", ""),
			TesseractLang: p.String("lang", ""),
			TessdataDir:   p.String("tessdata_dir", ""),
			DPI:           p.Int("dpi", 0),
			MaxPages:      p.Int("max_pages", 0),
			PSM:           p.Int("psm", 0),
			OEM:           p.Int("oem", 0),
			OCRFallback:   p.Bool("ocr_fallback", false),
		}
		if cfg.DPI < 0 || cfg.MaxPages < 0 {
			return nil, fmt.Errorf("dpi and max_pages must not be negative")
		}
		ex := ocr.NewExtractor(cfg, deps.Logger)
		if deps.Runner != nil {
			ex = ex.WithRunner(deps.Runner)
		}
		return NewExtraction(KeyPDFToText, extract.NewOCRAdapter(ex), deps.Logger), nil
	}
}

func pdfNativeFactory(deps Deps) tool.Factory {
	return func(p tool.Params) (tool.Tool, error) {
		maxPages := p.Int("max_pages", 0)
		if maxPages < 0 {
			return nil, fmt.Errorf("max_pages must not be negative")
		}
		return NewExtraction(KeyPDFNative, extract.NewNativeExtractor(maxPages, deps.Logger), deps.Logger), nil
	}
}
