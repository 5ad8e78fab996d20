package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/doceval/internal/core/tool"
	"github.com/joseph-ayodele/doceval/internal/document"
	"github.com/joseph-ayodele/doceval/internal/llm"
	"github.com/joseph-ayodele/doceval/internal/llm/openai"
)

const KeyLLMStructurer = "llm_structurer"

// LLMStructurer asks a chat model to segment text into content units. Its cost
// is the priced token usage of the call.
type LLMStructurer struct {
	client       llm.Structurer
	instructions string
	maxChars     int
	logger       *slog.Logger
}

func NewLLMStructurer(client llm.Structurer, instructions string, maxChars int, logger *slog.Logger) *LLMStructurer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMStructurer{client: client, instructions: instructions, maxChars: maxChars, logger: logger}
}

func (t *LLMStructurer) Name() string { return KeyLLMStructurer }

func (t *LLMStructurer) Process(ctx context.Context, input any, ectx tool.ExecutionContext) (tool.Output, error) {
	text, err := textOf(input)
	if err != nil {
		return tool.Output{}, err
	}
	docID := documentStem(ectx.DocumentPath())

	resp, err := t.client.Structure(ctx, llm.StructureRequest{
		Text:         text,
		DocumentID:   docID,
		Instructions: t.instructions,
		MaxChars:     t.maxChars,
	})
	if err != nil {
		err = fmt.Errorf("%s: %w", KeyLLMStructurer, err)
		if resp.Cost > 0 {
			t.logger.Warn("tool.llm_structurer.failed_after_spend", "document", docID, "cost", resp.Cost, "error", err)
			return tool.Output{}, &tool.SpendError{Cost: resp.Cost, Err: err}
		}
		return tool.Output{}, err
	}

	units := make([]document.ContentUnit, 0, len(resp.Units))
	for i, u := range resp.Units {
		units = append(units, document.ContentUnit{
			UnitID:          document.UnitID(fmt.Sprintf("u%d", i+1)),
			Text:            u.Text,
			SourcePageStart: u.SourcePageStart,
			SourcePageEnd:   u.SourcePageEnd,
		})
	}
	return tool.Output{
		Data: document.Structured{
			DocumentID:   docID,
			Text:         document.StringPtr(document.JoinUnitTexts(units)),
			ContentUnits: units,
		},
		Cost: resp.Cost,
	}, nil
}

func llmStructurerFactory(deps Deps) tool.Factory {
	return func(p tool.Params) (tool.Tool, error) {
		pricing := llm.Pricing{
			PromptPer1000:     p.Float("prompt_cost_per_1000", 0),
			CompletionPer1000: p.Float("completion_cost_per_1000", 0),
		}
		if pricing.PromptPer1000 < 0 || pricing.CompletionPer1000 < 0 {
			return nil, fmt.Errorf("llm_structurer: token prices must not be negative")
		}
		client := deps.Structurer
		if client == nil {
			client = openai.NewClient(openai.Config{
				APIKey:      p.String("api_key", deps.LLM.APIKey),
				BaseURL:     p.String("base_url", deps.LLM.BaseURL),
				Model:       p.String("model", deps.LLM.Model),
				Temperature: float32(p.Float("temperature", 0)),
				Timeout:     p.Duration("timeout", deps.LLM.Timeout),
				Pricing:     pricing,
				Lenient:     p.Bool("lenient", true),
			}, deps.Logger)
		}
		return NewLLMStructurer(client, p.String("instructions", ""), p.Int("max_chars", 0), deps.Logger), nil
	}
}
