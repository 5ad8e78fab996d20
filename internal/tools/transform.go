package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/doceval/constants"
	"github.com/joseph-ayodele/doceval/internal/core/tool"
	"github.com/joseph-ayodele/doceval/internal/document"
	"github.com/joseph-ayodele/doceval/internal/ocr"
)

const (
	KeyTextNormalize = "text_normalize"
	KeyUnitSplitter  = "unit_splitter"
	KeyPassthrough   = "passthrough"
)

// TextNormalize collapses noisy whitespace in text or in every content unit.
type TextNormalize struct{}

func (TextNormalize) Name() string { return KeyTextNormalize }

func (TextNormalize) Process(_ context.Context, input any, _ tool.ExecutionContext) (tool.Output, error) {
	switch v := input.(type) {
	case document.Structured:
		return tool.Output{Data: normalizeStructured(v)}, nil
	case *document.Structured:
		if v == nil {
			return tool.Output{}, fmt.Errorf("nil structured input")
		}
		return tool.Output{Data: normalizeStructured(*v)}, nil
	}
	text, err := textOf(input)
	if err != nil {
		return tool.Output{}, err
	}
	return tool.Output{Data: normalizePages(text)}, nil
}

// normalizePages normalizes each page separately so page-break markers survive.
func normalizePages(s string) string {
	pages := strings.Split(s, constants.PageBreak)
	for i := range pages {
		pages[i] = ocr.Normalize(pages[i])
	}
	return strings.Join(pages, constants.PageBreak)
}

func normalizeStructured(s document.Structured) document.Structured {
	out := document.Structured{DocumentID: s.DocumentID}
	if s.Text != nil {
		out.Text = document.StringPtr(normalizePages(*s.Text))
	}
	if s.ContentUnits != nil {
		out.ContentUnits = make([]document.ContentUnit, len(s.ContentUnits))
		for i, u := range s.ContentUnits {
			u.Text = ocr.Normalize(u.Text)
			out.ContentUnits[i] = u
		}
	}
	return out
}

var reBlankLines = regexp.MustCompile(`\n[ \t]*\n`)

// UnitSplitter turns page-delimited text into a Structured record of content
// units. Mode "paragraph" splits pages on blank lines; "page" yields one unit per page.
type UnitSplitter struct {
	mode     string
	minChars int
}

func (UnitSplitter) Name() string { return KeyUnitSplitter }

func (t UnitSplitter) Process(_ context.Context, input any, ectx tool.ExecutionContext) (tool.Output, error) {
	text, err := textOf(input)
	if err != nil {
		return tool.Output{}, err
	}

	units := make([]document.ContentUnit, 0)
	for pi, page := range strings.Split(text, constants.PageBreak) {
		pageNo := pi + 1
		chunks := []string{page}
		if t.mode == "paragraph" {
			chunks = reBlankLines.Split(page, -1)
		}
		for _, c := range chunks {
			c = strings.TrimSpace(c)
			if c == "" || len([]rune(c)) < t.minChars {
				continue
			}
			units = append(units, document.ContentUnit{
				UnitID:          document.UnitID(fmt.Sprintf("u%d", len(units)+1)),
				Text:            c,
				SourcePageStart: pageNo,
				SourcePageEnd:   pageNo,
			})
		}
	}

	return tool.Output{Data: document.Structured{
		DocumentID:   documentStem(ectx.DocumentPath()),
		Text:         document.StringPtr(document.JoinUnitTexts(units)),
		ContentUnits: units,
	}}, nil
}

func unitSplitterFactory(p tool.Params) (tool.Tool, error) {
	mode := p.String("mode", "paragraph")
	if mode != "paragraph" && mode != "page" {
		return nil, fmt.Errorf("unit_splitter: unknown mode %q", mode)
	}
	return UnitSplitter{mode: mode, minChars: p.Int("min_chars", 0)}, nil
}

// Passthrough returns its input unchanged, reporting a fixed cost.
type Passthrough struct {
	cost float64
}

func (Passthrough) Name() string { return KeyPassthrough }

func (t Passthrough) Process(_ context.Context, input any, _ tool.ExecutionContext) (tool.Output, error) {
	return tool.Output{Data: input, Cost: t.cost}, nil
}

func passthroughFactory(p tool.Params) (tool.Tool, error) {
	cost := p.Float("cost", 0)
	if cost < 0 {
		return nil, fmt.Errorf("passthrough: cost must not be negative")
	}
	return Passthrough{cost: cost}, nil
}
