package tsk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/sirupsen/logrus"
)

// Runner executes external tools with a bounded timeout and captures their
// output. Command lines are echoed at debug level before execution.
type Runner struct {
	tools   *Toolset
	timeout time.Duration
}

// NewRunner creates a Runner around a resolved toolset. A zero timeout
// disables the per-invocation deadline.
func NewRunner(tools *Toolset, timeout time.Duration) *Runner {
	return &Runner{tools: tools, timeout: timeout}
}

// Tools returns the underlying toolset.
func (r *Runner) Tools() *Toolset {
	return r.tools
}

func (r *Runner) commandContext(ctx context.Context, tool string, args ...string) (*exec.Cmd, context.CancelFunc) {
	cancel := func() {}
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	path := r.tools.Path(tool)
	cmd := exec.CommandContext(ctx, path, args...)
	logrus.Debugf("running %s", shellescape.QuoteCommand(cmd.Args))
	return cmd, cancel
}

// Run executes a tool and returns its stdout as text. A non-zero exit is
// tolerated as long as the tool produced stdout; several SleuthKit utilities
// exit non-zero while still emitting usable output.
func (r *Runner) Run(ctx context.Context, tool string, args ...string) (string, error) {
	cmd, cancel := r.commandContext(ctx, tool, args...)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && stdout.Len() == 0 {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s failed: %s", tool, msg)
	}
	return stdout.String(), nil
}

// RunCombined executes a tool and returns stdout, falling back to stderr when
// stdout is empty. Diagnostic tools like fsstat report some failures on
// stderr only.
func (r *Runner) RunCombined(ctx context.Context, tool string, args ...string) (string, error) {
	cmd, cancel := r.commandContext(ctx, tool, args...)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if stdout.Len() > 0 {
		return stdout.String(), nil
	}
	if stderr.Len() > 0 {
		return stderr.String(), nil
	}
	if runErr != nil {
		return "", fmt.Errorf("%s failed: %w", tool, runErr)
	}
	return "", nil
}

// RunBytes executes a tool and returns raw stdout. Used for icat, whose
// output is file content rather than text.
func (r *Runner) RunBytes(ctx context.Context, tool string, args ...string) ([]byte, error) {
	cmd, cancel := r.commandContext(ctx, tool, args...)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && stdout.Len() == 0 {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%s failed: %s", tool, msg)
	}
	return stdout.Bytes(), nil
}

// RunLimited executes a tool and returns at most maxBytes of its stdout,
// terminating the tool once the cap is reached. maxBytes <= 0 reads
// everything. No per-invocation timeout applies; cancellation is ctx-driven,
// since content extraction can legitimately run for a long time.
func (r *Runner) RunLimited(ctx context.Context, maxBytes int64, tool string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	path := r.tools.Path(tool)
	cmd := exec.CommandContext(ctx, path, args...)
	logrus.Debugf("running %s", shellescape.QuoteCommand(cmd.Args))

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s stdout: %w", tool, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", tool, err)
	}

	limit := maxBytes
	truncated := false
	if limit <= 0 {
		limit = math.MaxInt64
	}
	data, readErr := io.ReadAll(io.LimitReader(stdout, limit))
	if int64(len(data)) == limit {
		truncated = true
		cancel()
	}

	waitErr := cmd.Wait()
	if readErr != nil {
		return nil, fmt.Errorf("failed to read %s output: %w", tool, readErr)
	}
	if waitErr != nil && !truncated && len(data) == 0 {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = waitErr.Error()
		}
		return nil, fmt.Errorf("%s failed: %s", tool, msg)
	}
	return data, nil
}

// StartToFile starts a tool with stdout and stderr redirected to the given
// file and LC_ALL=C in the environment, without waiting for it to finish.
// The caller owns the returned command and must Wait on it.
func (r *Runner) StartToFile(ctx context.Context, out *os.File, tool string, args ...string) (*exec.Cmd, error) {
	path := r.tools.Path(tool)
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	logrus.Debugf("running %s", shellescape.QuoteCommand(cmd.Args))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", tool, err)
	}
	return cmd, nil
}
