package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/1broseidon/shotty/internal/mcp"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = mcp.ServerVersion

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the shotty version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "shotty %s (%s/%s, %s)\n", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
