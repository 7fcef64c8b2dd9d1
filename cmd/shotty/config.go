package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1broseidon/shotty/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect shotty configuration",
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after defaults and SHOTTY_* environment overrides are applied.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigPrint,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file strictly: unknown keys are rejected and
every value is checked.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	configCmd.AddCommand(configPrintCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigPrint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := strings.TrimSpace(cfgFile)
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := config.ValidateFile(path); err != nil {
		return err
	}
	if _, err := config.Load(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", path)
	return nil
}
