package extract

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// Runner executes an external tool and hands back its captured output.
// Tests swap in a fake so no binary is needed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// CommandRunner runs tools through os/exec.
type CommandRunner struct {
	Logger *slog.Logger
}

func (r CommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	started := time.Now()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	attrs := []any{"tool", name, "argc", len(args), "elapsed_ms", time.Since(started).Milliseconds()}
	if err != nil {
		logger.Warn("extract.tool.failed", append(attrs, "error", err, "stderr", clip(stderr.String(), 4<<10))...)
	} else {
		logger.Debug("extract.tool.ok", append(attrs, "stdout_bytes", stdout.Len())...)
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
