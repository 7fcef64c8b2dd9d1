package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/1broseidon/shotty/internal/config"
	"github.com/1broseidon/shotty/internal/logger"
	"github.com/1broseidon/shotty/internal/portal"
)

// Screenshotter is the portal client surface used by PortalBackend.
type Screenshotter interface {
	Available(ctx context.Context) bool
	Screenshot(ctx context.Context, opts portal.Options) (string, error)
}

// PortalBackend captures through xdg-desktop-portal. Window captures are
// interactive: the desktop asks the user what to capture.
type PortalBackend struct {
	client Screenshotter
	probe  time.Duration
}

var _ Backend = (*PortalBackend)(nil)

// NewPortalBackend returns a portal backend. probe bounds Available.
func NewPortalBackend(client Screenshotter, probe time.Duration) *PortalBackend {
	return &PortalBackend{client: client, probe: probe}
}

func (b *PortalBackend) Name() string { return config.BackendPortal }

func (b *PortalBackend) Available(ctx context.Context) bool {
	if b.probe > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.probe)
		defer cancel()
	}
	return b.client.Available(ctx)
}

// CaptureScreen takes a non-interactive screenshot. The portal has no cursor
// option; the desktop decides.
func (b *PortalBackend) CaptureScreen(ctx context.Context, dest string, _ bool) error {
	return b.capture(ctx, dest, false)
}

// CaptureWindow opens the desktop's interactive picker. The target is not
// forwarded; the portal has no way to address a window.
func (b *PortalBackend) CaptureWindow(ctx context.Context, dest string, _ WindowTarget, _ bool) error {
	return b.capture(ctx, dest, true)
}

func (b *PortalBackend) capture(ctx context.Context, dest string, interactive bool) error {
	uri, err := b.client.Screenshot(ctx, portal.Options{Interactive: interactive})
	if err != nil {
		return classifyPortalError(err)
	}

	src, err := portal.FilePath(uri)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	if src == dest {
		return nil
	}
	if err := copyFile(src, dest); err != nil {
		return fmt.Errorf("%w: copy portal screenshot: %w", ErrCaptureFailed, err)
	}
	if err := os.Remove(src); err != nil {
		logger.WithComponent("portal").Warn().Err(err).Str("path", src).Msg("Failed to remove portal screenshot")
	}
	return nil
}

func classifyPortalError(err error) error {
	switch {
	case errors.Is(err, portal.ErrCancelled):
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	case errors.Is(err, portal.ErrDenied):
		return fmt.Errorf("%w: %w", ErrDenied, err)
	default:
		return fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
