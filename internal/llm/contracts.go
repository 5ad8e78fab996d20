package llm

import "context"

// StructureRequest asks the model to segment extracted text into content units.
type StructureRequest struct {
	Text         string
	DocumentID   string
	Instructions string // appended to the system prompt when set
	MaxChars     int    // 0 = send everything
}

// Unit is one content unit returned by the model.
type Unit struct {
	Text            string `json:"text"`
	SourcePageStart int    `json:"source_page_start,omitempty"`
	SourcePageEnd   int    `json:"source_page_end,omitempty"`
}

// Usage is the token accounting reported by a chat-completions response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Pricing converts token usage into spend.
type Pricing struct {
	PromptPer1000     float64
	CompletionPer1000 float64
}

// Cost returns the spend for u under p.
func (p Pricing) Cost(u Usage) float64 {
	return float64(u.PromptTokens)/1000*p.PromptPer1000 + float64(u.CompletionTokens)/1000*p.CompletionPer1000
}

// StructureResponse is the validated model output plus accounting.
type StructureResponse struct {
	Units   []Unit
	Usage   Usage
	Cost    float64 // Usage priced with the client's Pricing
	Model   string
	RawJSON []byte
}

// Structurer is the interface the llm_structurer tool depends on.
type Structurer interface {
	Structure(ctx context.Context, req StructureRequest) (StructureResponse, error)
}
