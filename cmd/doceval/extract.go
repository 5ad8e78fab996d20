package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/core/tool"
	"github.com/joseph-ayodele/doceval/internal/tools"
)

// newExtractCmd runs one tool on one document, for debugging a stage in isolation.
func newExtractCmd(root *rootOptions) *cobra.Command {
	var (
		toolKey string
		params  map[string]string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:     "extract <document.pdf>",
		Short:   "Run a single tool on one document and print its output",
		Example: `  doceval extract invoice.pdf --tool pdftotext --param ocr_fallback=true --param max_pages=2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := root.logger
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return common.NewAppError("INVALID_INPUT", "document not readable", err)
			}

			toolReg, _ := registries(common.LLMConfig{}, logger)
			p := tool.Params{}
			for k, v := range params {
				p[k] = v
			}
			t, err := toolReg.Resolve(toolKey, p)
			if err != nil {
				return &common.ToolResolutionError{Stage: "extract", Tool: toolKey, Cause: err}
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			abs, _ := filepath.Abs(path)
			ectx := tool.NewExecutionContext(map[string]string{
				tool.KeyDocumentPath: abs,
				tool.KeyRunID:        uuid.NewString(),
				tool.KeyPipelineName: "extract",
			})

			res, err := tool.Run(ctx, t, abs, ectx)
			if err != nil {
				logger.Error("extract failed", "tool", toolKey, "error", err, "duration_ms", res.Latency.Milliseconds())
				return err
			}
			logger.Info("extract ok",
				"tool", toolKey,
				"cost", res.Cost,
				"duration_ms", res.Latency.Milliseconds(),
			)
			return printOutput(cmd, res.Output)
		},
	}
	cmd.Flags().StringVarP(&toolKey, "tool", "t", tools.KeyPDFToText, "tool key (see `doceval tools`)")
	cmd.Flags().StringToStringVar(&params, "param", nil, "tool parameter key=value (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the tool after this long (0 = no limit)")
	return cmd
}

func printOutput(cmd *cobra.Command, v any) error {
	out := cmd.OutOrStdout()
	switch t := v.(type) {
	case string:
		_, err := fmt.Fprintln(out, t)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(out, t.String())
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		_, err = fmt.Fprintf(out, "%v\n", v)
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
