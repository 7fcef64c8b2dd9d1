// Package runner spawns external tools with bounded timeouts.
package runner

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

var (
	// ErrTimeout is returned when a tool did not finish within its timeout.
	ErrTimeout = errors.New("timed out")
	// ErrNotFound is returned when the executable is not installed.
	ErrNotFound = errors.New("executable not found")
)

// Result is the outcome of a finished process. A non-zero ExitCode is not an
// error; callers decide what a failing tool means.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner runs argv with a timeout.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error)
}

// Exec runs processes with os/exec, merging the detected session environment
// into the child's environment.
type Exec struct {
	env SessionEnv
}

var _ Runner = (*Exec)(nil)

// NewExec returns a runner that injects env into every child process.
func NewExec(env SessionEnv) *Exec {
	return &Exec{env: env}
}

// Run starts name with args and waits at most timeout. It returns ErrTimeout
// (wrapped) on expiry and ErrNotFound (wrapped) when name cannot be found.
func (e *Exec) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = e.env.Apply(os.Environ())
	// Tools that fork helpers can keep the pipes open after being killed.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.ExitCode = -1
		return res, fmt.Errorf("%s: %w after %s", name, ErrTimeout, timeout)
	}
	if errors.Is(err, exec.ErrNotFound) {
		res.ExitCode = -1
		return res, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	res.ExitCode = -1
	return res, fmt.Errorf("%s: %w", name, err)
}

// Summary is a short one-line description of a failed result for logs.
func (r Result) Summary() string {
	msg := strings.TrimSpace(r.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(r.Stdout)
	}
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		return fmt.Sprintf("exit %d", r.ExitCode)
	}
	return fmt.Sprintf("exit %d: %s", r.ExitCode, msg)
}
