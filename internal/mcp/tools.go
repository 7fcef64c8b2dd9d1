package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/shotty/internal/actionlog"
	"github.com/1broseidon/shotty/internal/capture"
	"github.com/1broseidon/shotty/internal/logger"
	"github.com/1broseidon/shotty/internal/windows"
)

func (s *Server) handleListWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, any, error) {
	handles, err := s.windows.List(ctx)
	if err != nil {
		s.actions.Record(actionlog.ActionListWindows, map[string]interface{}{"error": err})
		return nil, nil, fmt.Errorf("list windows: %w", err)
	}
	if handles == nil {
		handles = []windows.Handle{}
	}

	data, err := json.Marshal(handles)
	if err != nil {
		return nil, nil, fmt.Errorf("encode window list: %w", err)
	}
	s.actions.Record(actionlog.ActionListWindows, map[string]interface{}{"count": len(handles)})

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func (s *Server) handleCaptureScreenshot(ctx context.Context, _ *mcpsdk.CallToolRequest, args CaptureScreenshotInput) (*mcpsdk.CallToolResult, any, error) {
	windowID := strings.TrimSpace(args.WindowID)
	action := actionlog.ActionCaptureScreen
	details := map[string]interface{}{"cursor": args.IncludeCursor}
	if windowID != "" {
		action = actionlog.ActionCaptureWindow
		details["window_id"] = windowID
	}

	s.captureMu.Lock()
	img, err := s.capturer.Capture(ctx, capture.Request{WindowID: windowID, IncludeCursor: args.IncludeCursor})
	s.captureMu.Unlock()
	if err != nil {
		details["error"] = err
		s.actions.Record(action, details)
		return nil, nil, fmt.Errorf("capture screenshot: %w", err)
	}

	details["path"] = img.Path
	details["bytes"] = len(img.Data)
	s.actions.Record(action, details)
	logger.WithComponent("mcp").Debug().
		Str("path", img.Path).
		Int("bytes", len(img.Data)).
		Msg("Returning capture")

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.ImageContent{Data: img.Data, MIMEType: "image/" + img.Format},
		},
	}, nil, nil
}
