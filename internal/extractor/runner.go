package extractor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// execRunner shells out to the tool and tees its combined output into a
// per-invocation log file under the configured logs directory.
type execRunner struct {
	logsPath string
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	if r.logsPath != "" {
		if err := os.MkdirAll(r.logsPath, 0o755); err != nil {
			return fmt.Errorf("creating logs directory: %w", err)
		}
		logFile := filepath.Join(r.logsPath, filepath.Base(name)+".log")
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening tool log: %w", err)
		}
		defer f.Close()
		cmd.Stdout = f
		cmd.Stderr = f
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
