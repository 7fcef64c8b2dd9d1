package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1broseidon/shotty/internal/config"
	"github.com/1broseidon/shotty/internal/logger"
)

var (
	cfgFile  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "shotty",
		Short: "shotty - screenshots for AI assistants over MCP",
		Long: `shotty captures the Linux desktop, or a single window, and hands the
PNG to an AI assistant through the Model Context Protocol.

Captures are attempted through xdg-desktop-portal, then native tools
(grim, gnome-screenshot, import), then a direct X11 grab. Every capture
is kept under the configured screenshot directory.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/shotty/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig loads the configuration, applies --log-level and initializes
// logging on stderr. stdout is reserved for MCP frames and command output.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl := strings.TrimSpace(logLevel); lvl != "" {
		cfg.LogLevel = lvl
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
