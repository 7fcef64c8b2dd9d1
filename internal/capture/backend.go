// Package capture implements the screenshot backends, the fallback chain that
// drives them and the window-state bookkeeping around window captures.
package capture

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned by a backend that cannot serve a request
	// in the current session.
	ErrUnavailable = errors.New("capture backend unavailable")
	// ErrCaptureFailed is returned when every strategy inside a backend failed.
	ErrCaptureFailed = errors.New("capture failed")
	// ErrDenied is returned when the desktop refused the capture.
	ErrDenied = errors.New("capture denied")
	// ErrCancelled is returned when the user dismissed an interactive prompt.
	ErrCancelled = errors.New("capture cancelled")
	// ErrGeometryUnresolved means a window id could not be mapped to a
	// rectangle. It is logged, never returned to callers.
	ErrGeometryUnresolved = errors.New("window geometry unresolved")
	// ErrAllBackendsExhausted is returned when no backend produced an image.
	ErrAllBackendsExhausted = errors.New("all capture backends exhausted")
)

// WindowTarget identifies the window a backend should capture. Region is set
// when the window's rectangle is already known.
type WindowTarget struct {
	ID     string
	Region *Rect

	// RegionTried is set when CaptureRegion already failed for Region;
	// the native backend does not repeat its region steps.
	RegionTried bool
}

// Backend captures the screen or a window into a file.
type Backend interface {
	Name() string
	// Available is re-probed before every use.
	Available(ctx context.Context) bool
	CaptureScreen(ctx context.Context, dest string, cursor bool) error
	CaptureWindow(ctx context.Context, dest string, target WindowTarget, cursor bool) error
}
