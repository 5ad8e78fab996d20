package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doceval/internal/llm"
	"github.com/joseph-ayodele/doceval/internal/validate"
)

var contentUnitsSchema = validate.MustCompile("content_units.json", llm.BuildContentUnitsJSONSchema())

var _ llm.Structurer = (*Client)(nil)

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage llm.Usage `json:"usage"`
}

// Structure implements llm.Structurer using text-only chat/completions.
// Usage is returned even when the reply fails validation, so spend is never lost.
func (c *Client) Structure(ctx context.Context, req llm.StructureRequest) (llm.StructureResponse, error) {
	rid := uuid.New().String()
	start := time.Now()

	if c.cfg.APIKey == "" {
		return llm.StructureResponse{}, errors.New("openai: api key is not configured")
	}

	c.logger.Info("llm.structure.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"document", req.DocumentID,
	)

	schema := llm.BuildContentUnitsJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req)},
			{"role": "user", "content": llm.BuildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, err := llm.PostJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.structure.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.StructureResponse{}, fmt.Errorf("openai: %w", err)
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.structure.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.StructureResponse{}, fmt.Errorf("decode openai response: %w", err)
	}
	out := llm.StructureResponse{Usage: cc.Usage, Cost: c.cfg.Pricing.Cost(cc.Usage), Model: cc.Model}
	if out.Model == "" {
		out.Model = c.cfg.Model
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.structure.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return out, fmt.Errorf("no choices in openai response")
	}

	content, err := llm.ExtractJSONObject([]byte(cc.Choices[0].Message.Content))
	if err != nil {
		return out, err
	}
	out.RawJSON = content

	if err := validate.JSON(contentUnitsSchema, content); err != nil {
		if !c.cfg.Lenient {
			c.logger.Error("llm.structure.schema_validation_failed",
				"req_id", rid, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return out, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, dropped, sErr := llm.NormalizeAndSanitizeJSON(content, c.logger)
		if sErr != nil {
			return out, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := validate.JSON(contentUnitsSchema, cleaned); vErr != nil {
			c.logger.Error("llm.structure.schema_validation_failed",
				"req_id", rid, "error", vErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return out, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.logger.Warn("llm.structure.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		out.RawJSON = cleaned
	}

	var parsed struct {
		ContentUnits []llm.Unit `json:"content_units"`
	}
	if err := json.Unmarshal(out.RawJSON, &parsed); err != nil {
		return out, fmt.Errorf("unmarshal units: %w", err)
	}
	out.Units = parsed.ContentUnits

	c.logger.Info("llm.structure.ok",
		"req_id", rid,
		"units", len(out.Units),
		"prompt_tokens", out.Usage.PromptTokens,
		"completion_tokens", out.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
