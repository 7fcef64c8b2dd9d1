package capture

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/1broseidon/shotty/internal/config"
	"github.com/1broseidon/shotty/internal/logger"
	"github.com/1broseidon/shotty/internal/x11"
)

// grabber is the part of an X connection used for pixel grabs.
type grabber interface {
	Grab() (image.Image, error)
	GrabRegion(r image.Rectangle) (image.Image, error)
	Close()
}

var connectX11 = func(display string) (grabber, error) {
	return x11.NewConnection(display)
}

// X11Backend grabs the root window in-process. It is the floor of the chain:
// it needs no external tools, only an X server or XWayland.
type X11Backend struct {
	display string
	probe   time.Duration
	capture time.Duration
}

var _ Backend = (*X11Backend)(nil)

// NewX11Backend returns a backend for display ("" means $DISPLAY). probe
// bounds the availability check and capture bounds one grab.
func NewX11Backend(display string, probe, capture time.Duration) *X11Backend {
	if probe <= 0 {
		probe = 2 * time.Second
	}
	if capture <= 0 {
		capture = 10 * time.Second
	}
	return &X11Backend{display: display, probe: probe, capture: capture}
}

func (b *X11Backend) Name() string { return config.BackendX11 }

// Available opens and closes a connection within the probe timeout. A
// connection that opens after the deadline is closed by the dialing
// goroutine.
func (b *X11Backend) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, b.probe)
	defer cancel()

	done := make(chan bool, 1)
	go func() {
		conn, err := connectX11(b.display)
		if err != nil {
			done <- false
			return
		}
		conn.Close()
		done <- true
	}()
	select {
	case ok := <-done:
		return ok
	case <-ctx.Done():
		logger.WithComponent("x11").Debug().Str("display", b.display).Msg("X11 probe timed out")
		return false
	}
}

func (b *X11Backend) CaptureScreen(ctx context.Context, dest string, _ bool) error {
	return b.grab(ctx, dest, func(g grabber) (image.Image, error) { return g.Grab() })
}

// CaptureWindow needs a region; the root grab cannot address a window by id.
func (b *X11Backend) CaptureWindow(ctx context.Context, dest string, target WindowTarget, _ bool) error {
	if target.Region == nil || !target.Region.Valid() {
		return fmt.Errorf("%w: x11 window capture needs a region", ErrUnavailable)
	}
	r := target.Region.Image()
	return b.grab(ctx, dest, func(g grabber) (image.Image, error) { return g.GrabRegion(r) })
}

type grabResult struct {
	img image.Image
	err error
}

// grab connects and grabs within the capture timeout. dest is written only
// when the grab finished in time.
func (b *X11Backend) grab(ctx context.Context, dest string, fn func(grabber) (image.Image, error)) error {
	ctx, cancel := context.WithTimeout(ctx, b.capture)
	defer cancel()

	done := make(chan grabResult, 1)
	go func() {
		conn, err := connectX11(b.display)
		if err != nil {
			done <- grabResult{err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
			return
		}
		defer conn.Close()

		img, err := fn(conn)
		if err != nil {
			done <- grabResult{err: fmt.Errorf("%w: %w", ErrCaptureFailed, err)}
			return
		}
		done <- grabResult{img: img}
	}()

	var res grabResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return fmt.Errorf("%w: x11 grab: %w", ErrCaptureFailed, ctx.Err())
	}
	if res.err != nil {
		return res.err
	}
	if err := x11.WritePNG(dest, res.img); err != nil {
		return fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	return nil
}
