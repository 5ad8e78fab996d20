package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/evaluation"
	"github.com/joseph-ayodele/doceval/internal/results"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		configPath string
		pipelines  []string
	)
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run pipelines over the dataset and score them",
		Example: "  doceval run --config eval.yaml\n  doceval run --config eval.yaml --pipeline pdftotext_baseline --pipeline llm_units",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := root.logger

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := common.LoadConfig(configPath)
			if err != nil {
				return err
			}
			toolReg, metricReg := registries(cfg.LLM, logger)

			var opts []evaluation.Option
			idx, err := results.OpenIndex(ctx, cfg.Index, logger)
			if err != nil {
				return err
			}
			if idx != nil {
				defer func() {
					if cerr := idx.Close(); cerr != nil {
						logger.Error("close index", "error", cerr)
					}
				}()
				opts = append(opts, evaluation.WithIndex(idx))
			}

			driver, err := evaluation.NewDriver(cfg, toolReg, metricReg, logger, opts...)
			if err != nil {
				return err
			}
			report, err := driver.Run(ctx, pipelines)
			printReport(cmd, report)
			if err != nil && ctx.Err() != nil {
				return fmt.Errorf("evaluation interrupted: %w", context.Cause(ctx))
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "evaluation config file (YAML)")
	cmd.Flags().StringSliceVarP(&pipelines, "pipeline", "p", nil, "pipeline name to run (repeatable; default all)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func printReport(cmd *cobra.Command, report *evaluation.Report) {
	if report == nil {
		return
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Evaluation run %s (key %s)\n", report.Run.RunID, report.Run.RunKey)
	_, _ = fmt.Fprintf(out, "- Pipelines evaluated: %d\n", len(report.Pipelines))
	if len(report.SkippedPipelines) > 0 {
		_, _ = fmt.Fprintf(out, "- Pipelines skipped: %v\n", report.SkippedPipelines)
	}
	_, _ = fmt.Fprintf(out, "- Documents evaluated: %d\n", len(report.Records))
	_, _ = fmt.Fprintf(out, "- Missing ground truth: %d\n", report.MissingGroundTruth)
	if report.PersistFailures > 0 {
		_, _ = fmt.Fprintf(out, "- Persistence failures: %d\n", report.PersistFailures)
	}
	for _, p := range report.SummaryPaths {
		_, _ = fmt.Fprintf(out, "- Summary: %s\n", p)
	}
}
