package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doceval/internal/llm"
)

func chatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model-2026",
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
			"usage": map[string]any{"prompt_tokens": 1000, "completion_tokens": 200, "total_tokens": 1200},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url string, lenient bool) *Client {
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: url + "/v1/",
		Model:   "test-model",
		Pricing: llm.Pricing{PromptPer1000: 0.5, CompletionPer1000: 1.5},
		Lenient: lenient,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStructure(t *testing.T) {
	srv := chatServer(t, "```json\n{\"content_units\":[{\"text\":\"Title\",\"source_page_start\":1,\"source_page_end\":1},{\"text\":\"Body\"}]}\n```", http.StatusOK)

	resp, err := newClient(srv.URL, false).Structure(context.Background(), llm.StructureRequest{Text: "Title\n\nBody"})
	require.NoError(t, err)
	require.Len(t, resp.Units, 2)
	assert.Equal(t, llm.Unit{Text: "Title", SourcePageStart: 1, SourcePageEnd: 1}, resp.Units[0])
	assert.Equal(t, "Body", resp.Units[1].Text)
	assert.Equal(t, 1200, resp.Usage.TotalTokens)
	assert.InDelta(t, 0.5+0.3, resp.Cost, 1e-12)
	assert.Equal(t, "test-model-2026", resp.Model)
}

func TestStructureLenient(t *testing.T) {
	content := `{"units":[{"text":"A","source_page_start":"2"}],"notes":"x"}`

	_, err := newClient(chatServer(t, content, http.StatusOK).URL, false).Structure(context.Background(), llm.StructureRequest{Text: "A"})
	assert.ErrorContains(t, err, "schema validation failed")

	resp, err := newClient(chatServer(t, content, http.StatusOK).URL, true).Structure(context.Background(), llm.StructureRequest{Text: "A"})
	require.NoError(t, err)
	require.Len(t, resp.Units, 1)
	assert.Equal(t, 2, resp.Units[0].SourcePageStart)
}

func TestStructureFailures(t *testing.T) {
	srv := chatServer(t, "", http.StatusTooManyRequests)
	_, err := newClient(srv.URL, false).Structure(context.Background(), llm.StructureRequest{Text: "x"})
	assert.ErrorContains(t, err, "429")

	srv = chatServer(t, "I cannot help with that", http.StatusOK)
	resp, err := newClient(srv.URL, false).Structure(context.Background(), llm.StructureRequest{Text: "x"})
	assert.Error(t, err)
	assert.Equal(t, 1000, resp.Usage.PromptTokens, "usage survives a bad reply")

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	c.cfg.APIKey = ""
	_, err = c.Structure(context.Background(), llm.StructureRequest{Text: "x"})
	assert.ErrorContains(t, err, "api key")
}
