package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. SHOTTY_LOG_LEVEL or
// SHOTTY_TIMEOUTS_CAPTURE.
const EnvPrefix = "SHOTTY"

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "shotty", "config.yaml"), nil
}

// Load reads the configuration from path (or the default location when path
// is empty), applies SHOTTY_* environment overrides and validates the result.
// A missing file at the default location is not an error.
func Load(path string) (*Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := newViper()
	exists, err := pathExists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%s: failed to read: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("%s: failed to read: file does not exist", path)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode: %w", path, err)
	}
	cfg.ScreenshotDir = expandHome(cfg.ScreenshotDir)
	cfg.ActionLog.File = expandHome(cfg.ActionLog.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	def := DefaultConfig()
	v.SetDefault("screenshot_dir", def.ScreenshotDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("session_bus_address", def.SessionBusAddress)
	v.SetDefault("display", def.Display)
	v.SetDefault("wayland_display", def.WaylandDisplay)
	v.SetDefault("backends", def.Backends)
	v.SetDefault("gui_processes", def.GUIProcesses)
	v.SetDefault("timeouts.bus", def.Timeouts.Bus)
	v.SetDefault("timeouts.capture", def.Timeouts.Capture)
	v.SetDefault("timeouts.interactive", def.Timeouts.Interactive)
	v.SetDefault("timeouts.probe", def.Timeouts.Probe)
	v.SetDefault("tools.grim", def.Tools.Grim)
	v.SetDefault("tools.slurp", def.Tools.Slurp)
	v.SetDefault("tools.gnome_screenshot", def.Tools.GnomeScreenshot)
	v.SetDefault("tools.import", def.Tools.Import)
	v.SetDefault("action_log.enabled", def.ActionLog.Enabled)
	v.SetDefault("action_log.file", def.ActionLog.File)
	v.SetDefault("action_log.max_size_mb", def.ActionLog.MaxSizeMB)
	v.SetDefault("action_log.max_files", def.ActionLog.MaxFiles)
	return v
}

// ValidateFile strictly decodes the YAML file at path, rejecting unknown
// keys, and validates the merged result. It is stricter than Load, which
// ignores keys it does not know.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: failed to read: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := decodeStrictYAML(data, cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
