package shell

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/longomatch/gstreamer-packager/internal/logger"
)

// Runner executes external commands.
// Binary-metadata tools are locale-sensitive, so every command runs with LC_ALL=C.
type Runner interface {
	// Output runs the command and returns its standard output.
	Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
	// Run runs the command, streaming nothing; only the exit status matters.
	Run(ctx context.Context, dir string, name string, args ...string) error
}

// execRunner is the production Runner backed by os/exec.
type execRunner struct{}

// NewRunner returns a Runner that executes commands on the host.
func NewRunner() Runner {
	return execRunner{}
}

// Output runs the command in dir (empty means the current directory)
// and returns its standard output.
func (execRunner) Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "LC_ALL=C")

	logger.DebugKV(ctx, "Running command", "command", name+" "+strings.Join(args, " "), "dir", dir)

	return cmd.Output()
}

// Run runs the command in dir and reports only its exit status.
func (r execRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.DebugKV(ctx, "Running command", "command", name+" "+strings.Join(args, " "), "dir", dir)

	return cmd.Run()
}

// timeoutRunner bounds every invocation of the wrapped Runner.
type timeoutRunner struct {
	runner  Runner
	timeout time.Duration
}

// WithTimeout returns a Runner that runs each command under its own
// deadline. A non-positive timeout returns the Runner unchanged.
func WithTimeout(runner Runner, timeout time.Duration) Runner {
	if timeout <= 0 {
		return runner
	}

	return timeoutRunner{runner: runner, timeout: timeout}
}

func (r timeoutRunner) Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.runner.Output(ctx, dir, name, args...)
}

func (r timeoutRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.runner.Run(ctx, dir, name, args...)
}

// Lines splits command output into lines, dropping the trailing empty
// one. Windows tools emit \r\n endings, so a trailing \r is stripped
// from every line.
func Lines(output []byte) []string {
	trimmed := strings.TrimRight(string(output), "\r\n")
	if trimmed == "" {
		return nil
	}

	lines := strings.Split(trimmed, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}
