package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/shotty/internal/actionlog"
	"github.com/1broseidon/shotty/internal/capture"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture the screen or a window",
	Long: `Run one capture through the same backend chain the MCP server uses and
print the path of the saved PNG.`,
	Example: `  # Capture the whole screen
  shotty capture

  # Capture window 42 (see 'shotty windows') with the pointer
  shotty capture --window 42 --cursor

  # Choose the window from a list
  shotty capture --pick`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

var (
	captureWindow string
	captureCursor bool
	capturePick   bool
)

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringVarP(&captureWindow, "window", "w", "", "window id to capture (default: full screen)")
	captureCmd.Flags().BoolVarP(&captureCursor, "cursor", "c", false, "include the mouse pointer")
	captureCmd.Flags().BoolVarP(&capturePick, "pick", "p", false, "choose the window interactively")
	captureCmd.MarkFlagsMutuallyExclusive("window", "pick")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := capture.Request{WindowID: captureWindow, IncludeCursor: captureCursor}
	if capturePick {
		handles, err := a.enumerator.List(ctx)
		if err != nil {
			return err
		}
		if req.WindowID, err = pickWindow(handles); err != nil {
			return err
		}
	}
	action := actionlog.ActionCaptureScreen
	if req.WindowID != "" {
		action = actionlog.ActionCaptureWindow
	}

	img, err := a.orchestrator.Capture(ctx, req)
	if err != nil {
		a.actions.Record(action, map[string]interface{}{"window_id": req.WindowID, "error": err})
		return err
	}
	a.actions.Record(action, map[string]interface{}{"window_id": req.WindowID, "path": img.Path})

	fmt.Fprintln(cmd.OutOrStdout(), img.Path)
	return nil
}
