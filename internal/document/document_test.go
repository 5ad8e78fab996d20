package document

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doceval/internal/common"
)

func TestPredictionFrom(t *testing.T) {
	txt := "hello"
	tests := []struct {
		name string
		in   any
		want Prediction
	}{
		{name: "nil", in: nil, want: PlainText("")},
		{name: "string", in: "abc", want: PlainText("abc")},
		{name: "bytes", in: []byte("abc"), want: PlainText("abc")},
		{name: "plain text", in: PlainText("x"), want: PlainText("x")},
		{name: "structured", in: Structured{Text: &txt}, want: Structured{Text: &txt}},
		{name: "structured pointer", in: &Structured{Text: &txt}, want: Structured{Text: &txt}},
		{name: "number", in: 42, want: PlainText("42")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PredictionFrom(tt.in))
		})
	}
}

func TestPredictionFromMap(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"document_id": "doc1",
		"text": "a\nb",
		"content_units": [{"unit_id": 1, "text": "a", "source_page_start": 1}, "junk", {"text": "b"}]
	}`), &m))

	p := PredictionFrom(m)
	s, ok := p.(Structured)
	require.True(t, ok)
	assert.Equal(t, "doc1", s.DocumentID)
	assert.Equal(t, "a\nb", s.TextOrEmpty())
	require.Len(t, s.ContentUnits, 2)
	assert.Equal(t, UnitID("1"), s.ContentUnits[0].UnitID)
	assert.Equal(t, 1, s.ContentUnits[0].SourcePageStart)
	assert.Equal(t, "b", s.ContentUnits[1].Text)
}

func TestPredictionFromMapWithoutUnits(t *testing.T) {
	s := PredictionFrom(map[string]any{"text": "x"}).(Structured)
	assert.False(t, s.HasUnits())
	assert.Equal(t, "x", s.TextOrEmpty())
}

func TestGroundTruthParseDerivesText(t *testing.T) {
	l := NewGroundTruthLoader(t.TempDir(), nil)

	gt, err := l.Parse([]byte(`{"content_units": [{"text": "a"}, {"text": "b"}]}`))
	require.NoError(t, err)
	require.True(t, gt.HasText())
	assert.Equal(t, "a\nb", *gt.Text)
	assert.True(t, gt.HasUnits())
}

func TestGroundTruthParseOverridesStaleText(t *testing.T) {
	l := NewGroundTruthLoader(t.TempDir(), nil)

	gt, err := l.Parse([]byte(`{"text": "stale", "content_units": [{"unit_id": "u1", "text": "fresh"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "fresh", gt.TextOrEmpty())
}

func TestGroundTruthParseKeepsPlainText(t *testing.T) {
	l := NewGroundTruthLoader(t.TempDir(), nil)

	gt, err := l.Parse([]byte(`{"text": "only text"}`))
	require.NoError(t, err)
	assert.Equal(t, "only text", gt.TextOrEmpty())
	assert.False(t, gt.HasUnits())
}

func TestGroundTruthParseRejectsInvalid(t *testing.T) {
	l := NewGroundTruthLoader(t.TempDir(), nil)

	tests := []struct {
		name string
		data string
	}{
		{name: "unit without text", data: `{"content_units": [{"unit_id": "u1"}]}`},
		{name: "units not an array", data: `{"content_units": "nope"}`},
		{name: "text wrong type", data: `{"text": 5}`},
		{name: "not json", data: `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrGroundTruthInvalid))
		})
	}
}

func TestGroundTruthLoad(t *testing.T) {
	dir := t.TempDir()
	l := NewGroundTruthLoader(dir, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.json"), []byte(`{"content_units":[{"text":"x"}]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.json"), []byte(`{}`), 0o644))

	gt, err := l.Load("/data/cat/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "x", gt.TextOrEmpty())

	_, err = l.Load("/data/cat/absent.pdf")
	assert.ErrorIs(t, err, common.ErrGroundTruthMissing)

	_, err = l.Load("/data/cat/empty.pdf")
	assert.ErrorIs(t, err, common.ErrGroundTruthMissing)
}

func TestJoinUnitTexts(t *testing.T) {
	assert.Equal(t, "", JoinUnitTexts(nil))
	assert.Equal(t, "a\n\nc", JoinUnitTexts([]ContentUnit{{Text: "a"}, {Text: ""}, {Text: "c"}}))
}
