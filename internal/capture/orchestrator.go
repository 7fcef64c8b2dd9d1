package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/1broseidon/shotty/internal/logger"
)

// RegionCapturer captures a known rectangle directly.
type RegionCapturer interface {
	CaptureRegion(ctx context.Context, dest string, r Rect, cursor bool) error
}

// Request is one capture_screenshot invocation. An empty WindowID means the
// whole screen.
type Request struct {
	WindowID      string
	IncludeCursor bool
}

// Orchestrator runs full-screen and window captures end to end.
type Orchestrator struct {
	store    *Store
	selector *Selector
	resolver *GeometryResolver
	focus    *FocusManager
	region   RegionCapturer
}

// NewOrchestrator wires the capture pipeline. shell and region may be nil;
// without a shell window captures skip geometry lookup and focus handling.
func NewOrchestrator(store *Store, selector *Selector, shell Shell, region RegionCapturer) *Orchestrator {
	o := &Orchestrator{store: store, selector: selector, region: region}
	if shell != nil {
		o.resolver = NewGeometryResolver(shell)
		o.focus = NewFocusManager(shell)
	}
	return o
}

// Capture dispatches on req.WindowID.
func (o *Orchestrator) Capture(ctx context.Context, req Request) (*Image, error) {
	if strings.TrimSpace(req.WindowID) == "" {
		return o.CaptureFullScreen(ctx, req.IncludeCursor)
	}
	return o.CaptureWindow(ctx, req.WindowID, req.IncludeCursor)
}

// CaptureFullScreen captures the whole screen. The error wraps
// ErrAllBackendsExhausted.
func (o *Orchestrator) CaptureFullScreen(ctx context.Context, cursor bool) (*Image, error) {
	dest := o.store.FullPath()
	if err := o.selector.CaptureScreen(ctx, dest, cursor); err != nil {
		return nil, err
	}
	img, err := o.store.Load(dest)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllBackendsExhausted, err)
	}
	logger.WithComponent("orchestrator").Info().Str("path", img.Path).Msg("Captured screen")
	return img, nil
}

// CaptureWindow captures one window, degrading to a full-screen capture.
// It fails only when the full-screen fallback fails too. Focus is restored
// before returning whenever a capture step moved it.
func (o *Orchestrator) CaptureWindow(ctx context.Context, windowID string, cursor bool) (*Image, error) {
	id := strings.TrimSpace(windowID)
	if id == "" {
		return o.CaptureFullScreen(ctx, cursor)
	}
	log := logger.WithComponent("orchestrator").With().Str("window_id", id).Logger()

	if o.focus != nil {
		st := o.focus.Remember(ctx)
		defer o.focus.Restore(ctx, st)
	}

	dest := o.store.WindowPath(id)
	target := WindowTarget{ID: id}

	if o.resolver != nil {
		if rect, ok := o.resolver.Resolve(ctx, id); ok {
			target.Region = &rect
			if o.region != nil {
				img, err := o.captureAndLoad(ctx, dest, func() error {
					return o.region.CaptureRegion(ctx, dest, rect, cursor)
				})
				if err == nil {
					log.Info().Str("path", img.Path).Str("geometry", rect.Geometry()).Msg("Captured window region")
					return img, nil
				}
				log.Warn().Err(err).Msg("Region capture failed")
				target.RegionTried = true
			}
		} else {
			log.Info().Err(ErrGeometryUnresolved).Msg("Falling back to backend window capture")
		}
	}

	img, err := o.captureAndLoad(ctx, dest, func() error {
		return o.selector.CaptureWindow(ctx, dest, target, cursor)
	})
	if err == nil {
		log.Info().Str("path", img.Path).Msg("Captured window")
		return img, nil
	}
	log.Warn().Err(err).Msg("Window capture failed, capturing full screen")

	return o.CaptureFullScreen(ctx, cursor)
}

func (o *Orchestrator) captureAndLoad(ctx context.Context, dest string, capture func() error) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := capture(); err != nil {
		return nil, err
	}
	return o.store.Load(dest)
}
