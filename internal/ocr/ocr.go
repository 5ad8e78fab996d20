// Package ocr extracts text from PDFs with poppler's pdftotext, falling back to
// pdftoppm + tesseract when the PDF has no text layer.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/doceval/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir string
	OCRFallback bool // rasterize + OCR when pdftotext yields blank text

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

type ExtractionResult struct {
	Text       string
	Pages      int
	Method     string // "pdf-text" | "pdf-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32 // mean tesseract word confidence, 0 when not computed
}

const (
	MethodPDFText = "pdf-text"
	MethodPDFOCR  = "pdf-ocr"
)

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: NewExecRunner(logger), logger: logger}
}

// WithRunner swaps the command runner, e.g. for a stub in tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Config returns the effective configuration after defaults.
func (e *Extractor) Config() Config { return e.cfg }

// Extract returns the PDF's text with pages separated by constants.PageBreak.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if constants.MapExtToFormat(ext) != constants.PDF {
		e.logger.Error("unsupported ocr extension", "extension", ext, "path", path)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	e.logger.Debug("starting pdf extraction", "path", path, "ocr_fallback", e.cfg.OCRFallback)

	text, pages, warns, err := e.pdfToText(ctx, path)
	if err != nil {
		return ExtractionResult{Warnings: warns, Duration: time.Since(start)}, fmt.Errorf("pdftotext: %w", err)
	}
	res := ExtractionResult{
		Text:     text,
		Pages:    pages,
		Method:   MethodPDFText,
		Warnings: warns,
	}

	if strings.TrimSpace(text) == "" && e.cfg.OCRFallback {
		e.logger.Info("pdf has no text layer, falling back to ocr", "path", path)
		otext, opages, conf, owarns, oerr := e.pdfToOCR(ctx, path)
		res.Warnings = append(res.Warnings, owarns...)
		if oerr != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("ocr fallback: %w", oerr)
		}
		res.Text = otext
		res.Pages = opages
		res.Method = MethodPDFOCR
		res.Language = e.cfg.TesseractLang
		res.Confidence = conf
	}

	res.Duration = time.Since(start)
	e.logger.Debug("pdf extraction done",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
