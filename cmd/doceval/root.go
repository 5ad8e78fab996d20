package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/doceval/internal/common"
	"github.com/joseph-ayodele/doceval/internal/core/metric"
	"github.com/joseph-ayodele/doceval/internal/core/tool"
	"github.com/joseph-ayodele/doceval/internal/metrics"
	"github.com/joseph-ayodele/doceval/internal/tools"
)

type rootOptions struct {
	logFormat string
	logLevel  string
	logger    *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "doceval",
		Short:        "Evaluate document-processing pipelines against ground truth",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logFormat, opts.logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			opts.logger = logger
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "log format: json|text")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug|info|warn|error")

	cmd.AddCommand(
		newRunCmd(opts),
		newValidateCmd(opts),
		newExtractCmd(opts),
		newShowCmd(opts),
		newToolsCmd(opts),
		newMetricsCmd(opts),
	)
	return cmd
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want json or text)", format)
	}
}

// registries builds the tool and metric registries with every built-in implementation.
func registries(llmCfg common.LLMConfig, logger *slog.Logger) (*tool.Registry, *metric.Registry) {
	toolReg := tool.NewRegistry()
	tools.RegisterDefaults(toolReg, tools.Deps{Logger: logger, LLM: llmCfg})
	metricReg := metric.NewRegistry()
	metrics.RegisterDefaults(metricReg, logger)
	return toolReg, metricReg
}
