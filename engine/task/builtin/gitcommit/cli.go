package gitcommit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/config"
	"github.com/dataworks/dataworks/pkg/logger"
)

const maxStderr = 8 << 10

// CLIBackend drives the git executable.
type CLIBackend struct {
	binary  string
	timeout time.Duration
}

func NewCLIBackend(cfg config.GitConfig) *CLIBackend {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = "git"
	}
	return &CLIBackend{binary: binary, timeout: cfg.Timeout}
}

func (b *CLIBackend) Name() string {
	return BackendCLI
}

// Available resolves the git executable on PATH.
func (b *CLIBackend) Available(_ context.Context) error {
	if _, err := exec.LookPath(b.binary); err != nil {
		return task.PreconditionFailed(
			fmt.Errorf("git executable %q not found: %w", b.binary, err),
			map[string]any{"binary": b.binary},
		)
	}
	return nil
}

func (b *CLIBackend) Clone(ctx context.Context, url, dir string) error {
	return b.run(ctx, "", "clone", "--quiet", url, dir)
}

func (b *CLIBackend) Commit(ctx context.Context, dir, file, message string, author Signature) error {
	if err := b.run(ctx, dir, "add", "--", file); err != nil {
		return err
	}
	return b.run(
		ctx,
		dir,
		"-c", "user.name="+author.Name,
		"-c", "user.email="+author.Email,
		"commit", "--quiet", "-m", message,
	)
}

func (b *CLIBackend) run(ctx context.Context, dir string, args ...string) error {
	cmdCtx, cancel := commandContext(ctx, b.timeout)
	defer cancel()
	cmd := exec.CommandContext(cmdCtx, b.binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	stderr := newLimitedBuffer(maxStderr)
	cmd.Stderr = stderr
	start := time.Now()
	err := cmd.Run()
	logger.FromContext(ctx).Debug(
		"Ran git command",
		"args", args,
		"dir", dir,
		"duration", time.Since(start),
	)
	if err == nil {
		return nil
	}
	details := map[string]any{
		"command": b.binary + " " + strings.Join(args, " "),
		"stderr":  strings.TrimSpace(stderr.String()),
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		details["exit_code"] = exitErr.ExitCode()
		return task.ExternalCallFailed(fmt.Errorf("git %s exited with code %d", args[0], exitErr.ExitCode()), details)
	}
	if cmdCtx.Err() != nil {
		return task.ExternalCallFailed(fmt.Errorf("git %s timed out: %w", args[0], cmdCtx.Err()), details)
	}
	return task.ExternalCallFailed(fmt.Errorf("failed to run git: %w", err), details)
}

func commandContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

type limitedBuffer struct {
	limit  int
	buffer bytes.Buffer
}

func newLimitedBuffer(limit int) *limitedBuffer {
	return &limitedBuffer{limit: limit}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.buffer.Len()
	if remaining > 0 {
		if len(p) > remaining {
			_, _ = b.buffer.Write(p[:remaining])
		} else {
			_, _ = b.buffer.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buffer.String()
}
