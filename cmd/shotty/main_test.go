package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/huh"

	"github.com/1broseidon/shotty/internal/capture"
	"github.com/1broseidon/shotty/internal/config"
	"github.com/1broseidon/shotty/internal/windows"
)

type namedBackend struct{ name string }

func (b namedBackend) Name() string                                      { return b.name }
func (b namedBackend) Available(context.Context) bool                    { return true }
func (b namedBackend) CaptureScreen(context.Context, string, bool) error { return nil }
func (b namedBackend) CaptureWindow(context.Context, string, capture.WindowTarget, bool) error {
	return nil
}

func TestBuildBackends_FollowsConfiguredOrder(t *testing.T) {
	available := map[string]capture.Backend{
		config.BackendPortal: namedBackend{"portal"},
		config.BackendNative: namedBackend{"native"},
		config.BackendX11:    namedBackend{"x11"},
	}
	tests := []struct {
		name  string
		order []string
		want  []string
	}{
		{"default", []string{"portal", "native", "x11"}, []string{"portal", "native", "x11"}},
		{"reordered", []string{"x11", "portal"}, []string{"x11", "portal"}},
		{"unknown skipped", []string{"native", "bogus"}, []string{"native"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Backends = tt.order
			got := buildBackends(cfg, available)
			var names []string
			for _, b := range got {
				names = append(names, b.Name())
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("backends = %v, want %v", names, tt.want)
			}
		})
	}
}

func setConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	orig := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = orig })
	return path
}

func TestConfigValidate(t *testing.T) {
	path := setConfigFile(t, "log_level: debug\nbackends: [native, x11]\n")

	var out bytes.Buffer
	configValidateCmd.SetOut(&out)
	if err := runConfigValidate(configValidateCmd, nil); err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if got := out.String(); got != path+": OK\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestConfigValidate_UnknownKey(t *testing.T) {
	setConfigFile(t, "screenshot_directory: /tmp\n")

	configValidateCmd.SetOut(&bytes.Buffer{})
	if err := runConfigValidate(configValidateCmd, nil); err == nil {
		t.Fatal("expected unknown key to fail validation")
	}
}

func TestConfigPrint(t *testing.T) {
	setConfigFile(t, "screenshot_dir: /tmp/shots\n")

	var out bytes.Buffer
	configPrintCmd.SetOut(&out)
	if err := runConfigPrint(configPrintCmd, nil); err != nil {
		t.Fatalf("print error: %v", err)
	}
	if !strings.Contains(out.String(), "screenshot_dir: /tmp/shots") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestLoadConfig_LogLevelFlag(t *testing.T) {
	setConfigFile(t, "")
	orig := logLevel
	t.Cleanup(func() { logLevel = orig })

	logLevel = "debug"
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q, want debug", cfg.LogLevel)
	}

	logLevel = "loud"
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected invalid --log-level to fail")
	}
}

func TestPickWindow_RequiresTerminal(t *testing.T) {
	orig := isTerminalFn
	isTerminalFn = func() bool { return false }
	t.Cleanup(func() { isTerminalFn = orig })

	if _, err := pickWindow([]windows.Handle{{ID: "1", Title: "firefox"}}); !errors.Is(err, errNoTerminal) {
		t.Fatalf("err = %v, want errNoTerminal", err)
	}
}

func TestPickWindow_ReturnsSelection(t *testing.T) {
	origTerm, origRun := isTerminalFn, runSelectFn
	t.Cleanup(func() { isTerminalFn, runSelectFn = origTerm, origRun })
	isTerminalFn = func() bool { return true }

	var ran bool
	runSelectFn = func(sel *huh.Select[string]) error {
		ran = true
		return nil
	}
	id, err := pickWindow([]windows.Handle{{ID: "42", Title: "firefox"}})
	if err != nil {
		t.Fatalf("pickWindow error: %v", err)
	}
	if !ran || id != "" {
		t.Fatalf("ran=%v id=%q, want picker run and the full-screen default", ran, id)
	}

	runSelectFn = func(*huh.Select[string]) error { return huh.ErrUserAborted }
	if _, err := pickWindow(nil); !errors.Is(err, huh.ErrUserAborted) {
		t.Fatalf("err = %v, want ErrUserAborted", err)
	}
}
