package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doceval/constants"
	"github.com/joseph-ayodele/doceval/internal/ocr"
)

type pdftotextStub struct{ out string }

func (s pdftotextStub) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	return []byte(s.out), nil, nil
}

func TestOCRAdapter(t *testing.T) {
	e := ocr.NewExtractor(ocr.Config{}, nil).WithRunner(pdftotextStub{out: "one\ftwo\f"})
	var tx TextExtractor = NewOCRAdapter(e)

	res, err := tx.Extract(context.Background(), "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "one"+constants.PageBreak+"two", res.Text)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, ocr.MethodPDFText, res.Method)
}

func TestNativeExtractorRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a pdf"), 0o644))

	res, err := NewNativeExtractor(0, nil).Extract(context.Background(), path)
	assert.Error(t, err)
	assert.Equal(t, MethodPDFNative, res.Method)

	_, err = NewNativeExtractor(0, nil).Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
