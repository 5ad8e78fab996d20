package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/doceval/constants"
)

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	// pdftotext -layout -enc UTF-8 -eol unix [-l N] <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, append(args, path, "-")...)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	parts := splitFormFeeds(string(out))
	return strings.Join(parts, constants.PageBreak), len(parts), nil, nil
}

// splitFormFeeds splits pdftotext output on its \f page separator, dropping the
// empty page after the trailing separator.
func splitFormFeeds(s string) []string {
	parts := strings.Split(s, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	for i := range parts {
		parts[i] = strings.TrimRight(parts[i], "\n")
	}
	return parts
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, confidence float32, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "doceval-pp-*")
	if err != nil {
		return "", 0, 0, nil, err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, 0, []string{string(errb)}, fmt.Errorf("pdftoppm: %w", err)
	}

	// collect generated pngs (page-1.png, page-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool { return pageNumber(matches[i]) < pageNumber(matches[j]) })
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	texts := make([]string, 0, len(matches))
	var warns []string
	var confSum float32
	var confN int
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, err.Error())
			texts = append(texts, "")
			continue
		}
		texts = append(texts, strings.TrimRight(txt, "\n"))
		if c, w, err := e.tesseractTSVConfidence(ctx, img); err == nil && c > 0 {
			confSum += c
			confN++
			warns = append(warns, w...)
		}
	}
	if confN > 0 {
		confidence = confSum / float32(confN)
	}
	return strings.Join(texts, constants.PageBreak), len(matches), confidence, warns, nil
}

// pageNumber extracts N from ".../page-N.png"; pdftoppm zero-pads only for
// documents with 10+ pages, so lexical order is not enough.
func pageNumber(p string) int {
	base := strings.TrimSuffix(filepath.Base(p), ".png")
	i := strings.LastIndexByte(base, '-')
	n := 0
	for _, r := range base[i+1:] {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}
