package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List capturable windows",
	Long: `List the windows reported by the GNOME Shell window-calls extension, or
running GUI applications when the extension is unavailable.`,
	Example: `  # Table output
  shotty windows

  # JSON, as returned by the list_windows tool
  shotty windows --json`,
	Args: cobra.NoArgs,
	RunE: runWindows,
}

var windowsJSON bool

func init() {
	rootCmd.AddCommand(windowsCmd)

	windowsCmd.Flags().BoolVar(&windowsJSON, "json", false, "print JSON instead of a table")
}

func runWindows(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	handles, err := a.enumerator.List(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if windowsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(handles)
	}

	if len(handles) == 0 {
		fmt.Fprintln(out, "No windows found")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, h := range handles {
		fmt.Fprintf(w, "%s\t%s\n", h.ID, h.Title)
	}
	return w.Flush()
}
