// Package tools holds the concrete pipeline tools and registers them by key.
package tools

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/core/tool"
	"github.com/joseph-ayodele/doceval/internal/llm"
	"github.com/joseph-ayodele/doceval/internal/ocr"
)

// Deps are shared by tool factories. Stage params override the LLM defaults.
type Deps struct {
	Logger     *slog.Logger
	LLM        common.LLMConfig
	Runner     ocr.Runner     // nil = run real binaries
	Structurer llm.Structurer // nil = OpenAI client built from params
}

// RegisterDefaults installs every built-in tool into reg.
func RegisterDefaults(reg *tool.Registry, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	reg.MustRegister(KeyPDFToText, pdftotextFactory(deps))
	reg.MustRegister(KeyPDFNative, pdfNativeFactory(deps))
	reg.MustRegister(KeyTextNormalize, func(tool.Params) (tool.Tool, error) { return TextNormalize{}, nil })
	reg.MustRegister(KeyUnitSplitter, unitSplitterFactory)
	reg.MustRegister(KeyLLMStructurer, llmStructurerFactory(deps))
	reg.MustRegister(KeyPassthrough, passthroughFactory)
}

func documentStem(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
