package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Backend names accepted in the backends list.
const (
	BackendPortal = "portal"
	BackendNative = "native"
	BackendX11    = "x11"
)

// Timeouts bounds every external interaction.
type Timeouts struct {
	// Bus is the limit for session bus introspection and activation calls.
	Bus time.Duration `mapstructure:"bus" yaml:"bus"`
	// Capture is the limit for non-interactive capture tool invocations.
	Capture time.Duration `mapstructure:"capture" yaml:"capture"`
	// Interactive is the limit for tools that block on the user (slurp, portal dialogs).
	Interactive time.Duration `mapstructure:"interactive" yaml:"interactive"`
	// Probe is the limit for availability checks such as `grim --version`.
	Probe time.Duration `mapstructure:"probe" yaml:"probe"`
}

// Tools holds the executables invoked by the native backend.
type Tools struct {
	Grim            string `mapstructure:"grim" yaml:"grim"`
	Slurp           string `mapstructure:"slurp" yaml:"slurp"`
	GnomeScreenshot string `mapstructure:"gnome_screenshot" yaml:"gnome_screenshot"`
	Import          string `mapstructure:"import" yaml:"import"`
}

// ActionLogConfig configures the tool invocation log.
type ActionLogConfig struct {
	// Enabled turns action logging on/off
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// File is the log file path (default: ~/.local/share/shotty/actions.log)
	File string `mapstructure:"file" yaml:"file"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `mapstructure:"max_files" yaml:"max_files"`
}

// Config is the effective shotty configuration.
type Config struct {
	// ScreenshotDir receives every capture. Files are never cleaned up.
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	// LogFormat is one of auto, console, json. auto picks console on a TTY.
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// SessionBusAddress overrides DBUS_SESSION_BUS_ADDRESS.
	SessionBusAddress string `mapstructure:"session_bus_address" yaml:"session_bus_address,omitempty"`
	// Display and WaylandDisplay are injected into tool processes when the
	// server itself was launched without a graphical environment.
	Display        string `mapstructure:"display" yaml:"display,omitempty"`
	WaylandDisplay string `mapstructure:"wayland_display" yaml:"wayland_display,omitempty"`

	// Backends lists capture backends in preference order.
	Backends []string `mapstructure:"backends" yaml:"backends"`
	// GUIProcesses is the catalogue used when windows are listed from the
	// process table.
	GUIProcesses []string `mapstructure:"gui_processes" yaml:"gui_processes"`

	Timeouts  Timeouts        `mapstructure:"timeouts" yaml:"timeouts"`
	Tools     Tools           `mapstructure:"tools" yaml:"tools"`
	ActionLog ActionLogConfig `mapstructure:"action_log" yaml:"action_log"`
}

// ValidationError ties a validation failure to a config key path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

var defaultGUIProcesses = []string{
	"firefox", "chrome", "chromium", "brave", "opera",
	"gnome-terminal", "konsole", "xterm", "alacritty",
	"code", "codium", "atom", "sublime_text", "vim", "emacs",
	"nautilus", "dolphin", "thunar", "ranger",
	"gimp", "inkscape", "blender", "darktable",
	"libreoffice", "writer", "calc", "impress",
	"evince", "okular", "zathura",
	"vlc", "totem", "mpv", "rhythmbox",
	"discord", "slack", "telegram", "signal",
	"thunderbird", "evolution", "claws-mail",
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		ScreenshotDir: defaultScreenshotDir(),
		LogLevel:      "info",
		LogFormat:     "auto",
		Backends:      []string{BackendPortal, BackendNative, BackendX11},
		GUIProcesses:  append([]string(nil), defaultGUIProcesses...),
		Timeouts: Timeouts{
			Bus:         5 * time.Second,
			Capture:     10 * time.Second,
			Interactive: 30 * time.Second,
			Probe:       2 * time.Second,
		},
		Tools: Tools{
			Grim:            "grim",
			Slurp:           "slurp",
			GnomeScreenshot: "gnome-screenshot",
			Import:          "import",
		},
		ActionLog: ActionLogConfig{
			Enabled:   false,
			File:      defaultActionLogPath(),
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
	}
}

func defaultScreenshotDir() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return filepath.Join(os.TempDir(), "shotty")
	}
	return filepath.Join(home, "Pictures", "shotty")
}

func defaultActionLogPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "shotty", "actions.log")
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return filepath.Join(os.TempDir(), "shotty", "actions.log")
	}
	return filepath.Join(home, ".local", "share", "shotty", "actions.log")
}

// Validate checks the effective configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ScreenshotDir) == "" {
		return &ValidationError{Path: "screenshot_dir", Err: fmt.Errorf("screenshot_dir is required")}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	switch c.LogFormat {
	case "auto", "console", "json":
	default:
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: auto, console, json")}
	}
	if len(c.Backends) == 0 {
		return &ValidationError{Path: "backends", Err: fmt.Errorf("backends must not be empty")}
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, name := range c.Backends {
		switch name {
		case BackendPortal, BackendNative, BackendX11:
		default:
			return &ValidationError{Path: "backends", Err: fmt.Errorf("unknown backend %q (want portal, native, x11)", name)}
		}
		if _, dup := seen[name]; dup {
			return &ValidationError{Path: "backends", Err: fmt.Errorf("backend %q listed twice", name)}
		}
		seen[name] = struct{}{}
	}
	for i, name := range c.GUIProcesses {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: fmt.Sprintf("gui_processes[%d]", i), Err: fmt.Errorf("process name must not be empty")}
		}
	}
	timeouts := []struct {
		path string
		d    time.Duration
	}{
		{"timeouts.bus", c.Timeouts.Bus},
		{"timeouts.capture", c.Timeouts.Capture},
		{"timeouts.interactive", c.Timeouts.Interactive},
		{"timeouts.probe", c.Timeouts.Probe},
	}
	for _, tt := range timeouts {
		if tt.d <= 0 {
			return &ValidationError{Path: tt.path, Err: fmt.Errorf("timeout must be > 0")}
		}
	}
	tools := map[string]string{
		"tools.grim":             c.Tools.Grim,
		"tools.slurp":            c.Tools.Slurp,
		"tools.gnome_screenshot": c.Tools.GnomeScreenshot,
		"tools.import":           c.Tools.Import,
	}
	for path, v := range tools {
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Path: path, Err: fmt.Errorf("tool path must not be empty")}
		}
	}
	if c.ActionLog.Enabled {
		if strings.TrimSpace(c.ActionLog.File) == "" {
			return &ValidationError{Path: "action_log.file", Err: fmt.Errorf("file is required when action_log is enabled")}
		}
		if c.ActionLog.MaxSizeMB <= 0 {
			return &ValidationError{Path: "action_log.max_size_mb", Err: fmt.Errorf("max_size_mb must be > 0")}
		}
		if c.ActionLog.MaxFiles < 0 {
			return &ValidationError{Path: "action_log.max_files", Err: fmt.Errorf("max_files must be >= 0")}
		}
	}
	return nil
}

// ExpandedScreenshotDir resolves a leading ~ in ScreenshotDir.
func (c *Config) ExpandedScreenshotDir() string {
	return expandHome(c.ScreenshotDir)
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
