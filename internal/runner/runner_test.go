package runner

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRun_CapturesOutputAndExitCode(t *testing.T) {
	requireShell(t)
	r := NewExec(SessionEnv{})

	res, err := r.Run(context.Background(), 5*time.Second, "sh", "-c", "echo out; echo err >&2; exit 3")
	if err != nil {
		t.Fatalf("Run returned error for non-zero exit: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("ExitCode = %d, want 3", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Fatalf("Stdout = %q, want out", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Fatalf("Stderr = %q, want err", res.Stderr)
	}
}

func TestExecRun_NotFound(t *testing.T) {
	r := NewExec(SessionEnv{})

	_, err := r.Run(context.Background(), time.Second, "shotty-definitely-missing-tool")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExecRun_Timeout(t *testing.T) {
	requireShell(t)
	r := NewExec(SessionEnv{})

	start := time.Now()
	res, err := r.Run(context.Background(), 100*time.Millisecond, "sh", "-c", "sleep 5")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if res.ExitCode != -1 {
		t.Fatalf("ExitCode = %d, want -1", res.ExitCode)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("Run took %s, expected to be killed near the timeout", elapsed)
	}
}

func TestExecRun_InjectsSessionEnv(t *testing.T) {
	requireShell(t)
	t.Setenv("WAYLAND_DISPLAY", "")
	r := NewExec(SessionEnv{WaylandDisplay: "wayland-7"})

	res, err := r.Run(context.Background(), 5*time.Second, "sh", "-c", "printf %s \"$WAYLAND_DISPLAY\"")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Stdout != "wayland-7" {
		t.Fatalf("WAYLAND_DISPLAY in child = %q, want wayland-7", res.Stdout)
	}
}

func TestResultSummary(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{"stderr", Result{ExitCode: 1, Stderr: "  boom\n"}, "exit 1: boom"},
		{"stdout fallback", Result{ExitCode: 2, Stdout: "usage"}, "exit 2: usage"},
		{"empty", Result{ExitCode: 4}, "exit 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.Summary(); got != tt.want {
				t.Fatalf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}

	long := Result{ExitCode: 1, Stderr: strings.Repeat("x", 300)}
	if got := long.Summary(); len(got) != len("exit 1: ")+200+3 {
		t.Fatalf("long summary not truncated: len=%d", len(got))
	}
}
