package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/shotty/internal/logger"
	"github.com/1broseidon/shotty/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	Long: `Start the MCP server on stdio. Designed to be invoked by MCP clients
such as Claude Desktop. Logs go to stderr.`,
	Example: `  # Register with an MCP client
  claude mcp add shotty -- shotty mcp serve`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize capture stack: %w", err)
	}
	defer a.Close()

	server := mcp.NewServer(a.orchestrator, a.enumerator, a.actions)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	logger.WithComponent("mcp").Info().
		Str("version", mcp.ServerVersion).
		Str("screenshot_dir", cfg.ExpandedScreenshotDir()).
		Strs("backends", cfg.Backends).
		Msg("MCP server starting")

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
