package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/doceval/constants"
)

const MethodPDFNative = "pdf-native"

// NativeExtractor reads the PDF text layer in-process, without external binaries.
type NativeExtractor struct {
	maxPages int
	logger   *slog.Logger
}

func NewNativeExtractor(maxPages int, logger *slog.Logger) *NativeExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeExtractor{maxPages: maxPages, logger: logger}
}

func (n *NativeExtractor) Extract(ctx context.Context, path string) (res TextExtractionResult, err error) {
	start := time.Now()
	res.Method = MethodPDFNative
	defer func() {
		res.Duration = time.Since(start)
		// the pdf package panics on some malformed inputs
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return res, fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			n.logger.Warn("pdf close failed", "path", path, "error", cerr)
		}
	}()

	total := r.NumPage()
	if n.maxPages > 0 && total > n.maxPages {
		total = n.maxPages
	}
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		txt, perr := p.GetPlainText(nil)
		if perr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i, perr))
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimRight(txt, "\n"))
	}

	res.Text = strings.Join(pages, constants.PageBreak)
	res.Pages = len(pages)
	n.logger.Debug("pdf native extraction done", "path", path, "pages", res.Pages, "chars", len(res.Text))
	return res, nil
}
