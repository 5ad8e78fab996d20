package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/core/pipeline"
	"github.com/joseph-ayodele/doceval/internal/core/tool"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pipeline.yaml>...",
		Short: "Parse pipeline definitions and resolve every stage's tool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolReg, _ := registries(common.LLMConfig{}, root.logger)
			var errs []error
			for _, path := range args {
				def, err := validateDefinition(path, toolReg)
				if err != nil {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					errs = append(errs, err)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok   %s: %s (%d stages)\n", path, def.PipelineName, len(def.Stages))
			}
			return errors.Join(errs...)
		},
	}
}

// validateDefinition loads path and constructs every stage's tool once.
func validateDefinition(path string, reg *tool.Registry) (pipeline.Definition, error) {
	def, err := pipeline.LoadDefinitionFile(path)
	if err != nil {
		return def, err
	}
	def = def.Normalized()
	if err := def.Validate(); err != nil {
		return def, err
	}
	for _, stage := range def.Stages {
		if stage.Tool == "" {
			continue
		}
		if _, err := reg.Resolve(stage.Tool, stage.Params); err != nil {
			return def, &common.ToolResolutionError{Stage: stage.Name, Tool: stage.Tool, Cause: err}
		}
	}
	return def, nil
}
