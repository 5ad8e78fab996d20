package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// maxLoggedStderr caps how much of a failing command's stderr is logged.
const maxLoggedStderr = 8 << 10

// Runner executes an external binary. Tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

// NewExecRunner runs commands with os/exec and logs every invocation.
func NewExecRunner(logger *slog.Logger) Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return execRunner{logger: logger}
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	attrs := []any{
		slog.Group("exec", "cmd", name, "args", strings.Join(args, " ")),
		"duration_ms", time.Since(started).Milliseconds(),
	}

	if err == nil {
		r.logger.Debug("ocr.exec_ok", append(attrs, "stdout_bytes", stdout.Len())...)
		return stdout.Bytes(), stderr.Bytes(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		attrs = append(attrs, "exit_code", exitErr.ExitCode())
	}
	r.logger.Error("ocr.exec_failed", append(attrs, "error", err, "stderr", truncate(stderr.String(), maxLoggedStderr))...)
	return stdout.Bytes(), stderr.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
