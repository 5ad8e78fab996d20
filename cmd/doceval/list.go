package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/doceval/internal/common"
)

func newToolsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List registered tool keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			toolReg, _ := registries(common.LLMConfig{}, root.logger)
			for _, k := range toolReg.Keys() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func newMetricsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List registered metric keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, metricReg := registries(common.LLMConfig{}, root.logger)
			for _, k := range metricReg.Keys() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
