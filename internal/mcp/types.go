package mcp

// ListWindowsInput is the input for the list_windows tool. It takes no
// arguments.
type ListWindowsInput struct{}

// CaptureScreenshotInput is the input for the capture_screenshot tool.
type CaptureScreenshotInput struct {
	WindowID      string `json:"window_id,omitempty" jsonschema:"Window id from list_windows. Omit or leave empty to capture the whole screen."`
	IncludeCursor bool   `json:"include_cursor,omitempty" jsonschema:"Draw the mouse pointer into the capture where the backend supports it (default: false)"`
}
