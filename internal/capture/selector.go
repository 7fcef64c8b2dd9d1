package capture

import (
	"context"
	"fmt"

	"github.com/1broseidon/shotty/internal/logger"
)

// Selector tries backends in preference order. Availability is probed on
// every call because portals and compositors come and go with the session.
type Selector struct {
	backends []Backend
}

// NewSelector returns a selector over backends, most preferred first.
func NewSelector(backends ...Backend) *Selector {
	return &Selector{backends: backends}
}

// Backends returns the configured backends in order.
func (s *Selector) Backends() []Backend {
	return append([]Backend(nil), s.backends...)
}

// CaptureScreen captures the whole screen with the first backend that
// succeeds.
func (s *Selector) CaptureScreen(ctx context.Context, dest string, cursor bool) error {
	return s.run(ctx, "screen", func(ctx context.Context, b Backend) error {
		return b.CaptureScreen(ctx, dest, cursor)
	})
}

// CaptureWindow captures target with the first backend that succeeds.
func (s *Selector) CaptureWindow(ctx context.Context, dest string, target WindowTarget, cursor bool) error {
	return s.run(ctx, "window", func(ctx context.Context, b Backend) error {
		return b.CaptureWindow(ctx, dest, target, cursor)
	})
}

func (s *Selector) run(ctx context.Context, op string, call func(context.Context, Backend) error) error {
	log := logger.WithComponent("selector").With().Str("op", op).Logger()

	attempts := make([]attempt, 0, len(s.backends))
	for _, b := range s.backends {
		attempts = append(attempts, attempt{
			name: b.Name(),
			skip: func(ctx context.Context) bool { return !b.Available(ctx) },
			run:  func(ctx context.Context) error { return call(ctx, b) },
		})
	}

	if err := runChain(ctx, &log, attempts); err != nil {
		return fmt.Errorf("%w: %w", ErrAllBackendsExhausted, err)
	}
	return nil
}
