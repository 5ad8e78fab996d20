package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/results"
)

// newShowCmd prints the indexed results of one run.
func newShowCmd(root *rootOptions) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "show <run-key>",
		Short: "Show the indexed results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.Index.Driver == "" {
				return common.NewConfigurationError("index.driver", "no run index configured", nil)
			}
			idx, err := results.OpenIndex(cmd.Context(), cfg.Index, root.logger)
			if err != nil {
				return err
			}
			defer func() { _ = idx.Close() }()

			rows, err := idx.List(cmd.Context(), args[0])
			if err != nil {
				return common.WrapError(err, "list run")
			}
			if len(rows) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no results for run %s\n", args[0])
				return nil
			}
			return printIndexed(cmd, rows)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "evaluation config file (YAML)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func printIndexed(cmd *cobra.Command, rows []results.IndexedResult) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PIPELINE\tCATEGORY\tDOCUMENT\tSTATUS\tCOST\tLATENCY\tMETRICS")
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.4f\t%.2fs\t%s\n",
			r.PipelineName, r.Category, r.DocumentID, r.Status, r.TotalCost, r.TotalLatency, formatMetrics(r.Metrics))
	}
	return tw.Flush()
}

func formatMetrics(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%.4g", k, m[k]))
	}
	return strings.Join(parts, " ")
}
