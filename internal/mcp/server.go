// Package mcp exposes screen capture and window listing as MCP tools.
package mcp

import (
	"context"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/shotty/internal/actionlog"
	"github.com/1broseidon/shotty/internal/capture"
	"github.com/1broseidon/shotty/internal/windows"
)

const (
	ServerName    = "shotty"
	ServerVersion = "0.1.0"
)

// Capturer produces a PNG capture of the screen or of one window.
type Capturer interface {
	Capture(ctx context.Context, req capture.Request) (*capture.Image, error)
}

// WindowLister returns the capturable windows.
type WindowLister interface {
	List(ctx context.Context) ([]windows.Handle, error)
}

// Server is the MCP server for screenshot tools.
type Server struct {
	mcpServer *mcpsdk.Server
	capturer  Capturer
	windows   WindowLister
	actions   *actionlog.Log

	// captureMu serializes captures; focus handling assumes one window
	// capture at a time on the desktop.
	captureMu sync.Mutex
}

// NewServer creates a new MCP server. actions may be nil.
func NewServer(capturer Capturer, lister WindowLister, actions *actionlog.Log) *Server {
	s := &Server{
		capturer: capturer,
		windows:  lister,
		actions:  actions,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases server resources.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	return s.actions.Close()
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List open application windows. Returns a JSON array of {id, title}. Pass an id to capture_screenshot to capture that window.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "capture_screenshot",
		Description: "Capture the screen, or a single window when window_id is set, and return it as a PNG image. If the window cannot be captured the whole screen is returned instead.",
	}, s.handleCaptureScreenshot)
}
