package sessionbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GNOME Shell window-calls extension.
const (
	ShellDest      = "org.gnome.Shell"
	ShellPath      = "/org/gnome/Shell/Extensions/Windows"
	shellIface     = "org.gnome.Shell.Extensions.Windows"
	defaultBusWait = 5 * time.Second
)

// ErrMalformedReply is returned when the extension answered with something
// other than a JSON window list.
var ErrMalformedReply = errors.New("malformed window list reply")

// Rect is a window rectangle as reported by the extension.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Window is one entry of the extension's List reply. Older extension versions
// report geometry as flat fields instead of a nested rect.
type Window struct {
	ID         uint64 `json:"id"`
	WMClass    string `json:"wm_class"`
	Title      string `json:"title"`
	PID        int    `json:"pid"`
	FrameType  int    `json:"frame_type"`
	WindowType int    `json:"window_type"`
	Focus      bool   `json:"focus"`
	Rect       *Rect  `json:"rect"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// IDString is the decimal id used by callers and the MCP surface.
func (w Window) IDString() string {
	return strconv.FormatUint(w.ID, 10)
}

// Normal reports whether this is a regular application window.
func (w Window) Normal() bool {
	return w.FrameType == 0 && w.WindowType == 0
}

// Bounds returns the nested rect when present, otherwise the flat fields.
func (w Window) Bounds() Rect {
	if w.Rect != nil {
		return *w.Rect
	}
	return Rect{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height}
}

// Shell talks to the window-calls extension.
type Shell struct {
	caller  Caller
	timeout time.Duration
}

// NewShell returns a Shell client. Each call is bounded by timeout.
func NewShell(caller Caller, timeout time.Duration) *Shell {
	if timeout <= 0 {
		timeout = defaultBusWait
	}
	return &Shell{caller: caller, timeout: timeout}
}

// List returns every window the extension knows about.
func (s *Shell) List(ctx context.Context) ([]Window, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := s.caller.Call(ctx, ShellDest, ShellPath, shellIface+".List")
	if err != nil {
		return nil, err
	}
	return parseWindowList(body)
}

// Activate focuses the window with the given decimal id.
func (s *Shell) Activate(ctx context.Context, id string) error {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid window id %q: %w", id, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.caller.Call(ctx, ShellDest, ShellPath, shellIface+".Activate", uint32(n))
	return err
}

func parseWindowList(body []interface{}) ([]Window, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedReply)
	}
	raw, ok := body[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrMalformedReply, body[0])
	}
	var windows []Window
	if err := json.Unmarshal([]byte(raw), &windows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return windows, nil
}
