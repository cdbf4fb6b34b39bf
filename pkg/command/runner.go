package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout is returned when a command does not finish within the runner's
// timeout.
var ErrTimeout = errors.New("command timed out")

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes external commands. Implementations must return an
// *ExitError when the process ran and exited non-zero, and any other error
// when the process could not be run at all.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Observer receives the outcome of every command executed by an ExecRunner.
// status is one of "ok", "exit", "timeout" or "error".
type Observer func(name string, status string, duration time.Duration)

// ExitError reports a command that started but exited with a non-zero code.
type ExitError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s: exit status %d", e.Name, strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += " (stderr: " + e.Stderr + ")"
	}
	return msg
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout bounds each invocation. Zero means no timeout beyond ctx.
	Timeout time.Duration

	// Env is appended to the current process environment.
	Env []string

	// Observe, if set, is called after every invocation.
	Observe Observer
}

// NewExecRunner returns an ExecRunner with the given per-command timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes name with args and captures stdout and stderr separately.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		r.observe(name, "ok", res.Duration)
		return res, nil

	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.observe(name, "timeout", res.Duration)
		return res, fmt.Errorf("%s %s: %w after %s", name, strings.Join(args, " "), ErrTimeout, res.Duration.Round(time.Millisecond))

	case ctx.Err() != nil:
		r.observe(name, "error", res.Duration)
		return res, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		r.observe(name, "exit", res.Duration)
		return res, &ExitError{
			Name:     name,
			Args:     args,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
		}
	}

	r.observe(name, "error", res.Duration)
	return res, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
}

func (r *ExecRunner) observe(name, status string, d time.Duration) {
	if r.Observe != nil {
		r.Observe(name, status, d)
	}
}

// IsExitError reports whether err is, or wraps, an *ExitError.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}
