package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/1broseidon/shotty/internal/config"
	"github.com/1broseidon/shotty/internal/logger"
	"github.com/1broseidon/shotty/internal/runner"
)

// focusSettle is how long the compositor gets to raise an activated window
// before the legacy tool grabs "the active window".
var focusSettle = 200 * time.Millisecond

// Activator focuses a window by id.
type Activator interface {
	Activate(ctx context.Context, id string) error
}

// NativeToolBackend shells out to compositor and legacy screenshot tools.
type NativeToolBackend struct {
	run       runner.Runner
	tools     config.Tools
	timeouts  config.Timeouts
	activator Activator
}

var _ Backend = (*NativeToolBackend)(nil)

// NewNativeToolBackend returns the native backend. activator may be nil, in
// which case window captures skip the focus step.
func NewNativeToolBackend(r runner.Runner, tools config.Tools, timeouts config.Timeouts, activator Activator) *NativeToolBackend {
	return &NativeToolBackend{run: r, tools: tools, timeouts: timeouts, activator: activator}
}

func (b *NativeToolBackend) Name() string { return config.BackendNative }

// Available reports whether grim or gnome-screenshot can be started. The
// exit status of --version is ignored; some builds reject the flag.
func (b *NativeToolBackend) Available(ctx context.Context) bool {
	for _, tool := range []string{b.tools.Grim, b.tools.GnomeScreenshot} {
		if tool == "" {
			continue
		}
		if _, err := b.run.Run(ctx, b.timeouts.Probe, tool, "--version"); err == nil {
			return true
		}
	}
	return false
}

// CaptureScreen tries grim, gnome-screenshot and import in that order.
func (b *NativeToolBackend) CaptureScreen(ctx context.Context, dest string, cursor bool) error {
	grim := []string{}
	gnome := []string{}
	if cursor {
		grim = append(grim, "-c")
		gnome = append(gnome, "--include-pointer")
	}
	grim = append(grim, dest)
	gnome = append(gnome, "--file", dest)

	return b.chain(ctx, "screen", []attempt{
		b.toolStep(b.tools.Grim, dest, grim...),
		b.toolStep(b.tools.GnomeScreenshot, dest, gnome...),
		b.toolStep(b.tools.Import, dest, "-window", "root", dest),
	})
}

// CaptureRegion captures a known rectangle with grim, falling back to a
// cropped framebuffer dump.
func (b *NativeToolBackend) CaptureRegion(ctx context.Context, dest string, r Rect, cursor bool) error {
	if !r.Valid() {
		return fmt.Errorf("%w: empty region", ErrCaptureFailed)
	}
	return b.chain(ctx, "region", b.regionAttempts(dest, r, cursor))
}

// CaptureWindow captures a window. With a known region it crops; without
// one it asks the user to select an area, then falls back to focusing the
// window and grabbing whatever is active. A region already tried through
// CaptureRegion goes straight to the focused-window grab.
func (b *NativeToolBackend) CaptureWindow(ctx context.Context, dest string, target WindowTarget, cursor bool) error {
	var attempts []attempt
	hasRegion := target.Region != nil && target.Region.Valid()
	cropRegion := hasRegion && !target.RegionTried
	if cropRegion {
		attempts = append(attempts, b.regionAttempts(dest, *target.Region, cursor)[0])
	} else if !hasRegion {
		attempts = append(attempts, attempt{
			name: "slurp+grim",
			run: func(ctx context.Context) error {
				geom, err := b.selectRegion(ctx)
				if err != nil {
					return err
				}
				return b.runTool(ctx, b.timeouts.Capture, b.tools.Grim, dest, grimArgs(geom, cursor, dest)...)
			},
		})
	}

	gnome := []string{"--window"}
	if cursor {
		gnome = append(gnome, "--include-pointer")
	}
	gnome = append(gnome, "--file", dest)
	attempts = append(attempts, attempt{
		name: b.tools.GnomeScreenshot + " --window",
		run: func(ctx context.Context) error {
			b.focus(ctx, target.ID)
			return b.runTool(ctx, b.timeouts.Capture, b.tools.GnomeScreenshot, dest, gnome...)
		},
	})

	if cropRegion {
		attempts = append(attempts, b.regionAttempts(dest, *target.Region, cursor)[1])
	}
	return b.chain(ctx, "window", attempts)
}

func (b *NativeToolBackend) regionAttempts(dest string, r Rect, cursor bool) []attempt {
	return []attempt{
		b.toolStep(b.tools.Grim, dest, grimArgs(r.Geometry(), cursor, dest)...),
		b.toolStep(b.tools.Import, dest, "-window", "root", "-crop", r.ImageMagick(), "+repage", dest),
	}
}

func grimArgs(geometry string, cursor bool, dest string) []string {
	args := []string{"-g", geometry}
	if cursor {
		args = append(args, "-c")
	}
	return append(args, dest)
}

func (b *NativeToolBackend) chain(ctx context.Context, op string, attempts []attempt) error {
	log := logger.WithComponent("native").With().Str("op", op).Logger()
	if err := runChain(ctx, &log, attempts); err != nil {
		return fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	return nil
}

func (b *NativeToolBackend) toolStep(tool, dest string, args ...string) attempt {
	return attempt{
		name: tool,
		run: func(ctx context.Context) error {
			return b.runTool(ctx, b.timeouts.Capture, tool, dest, args...)
		},
	}
}

// runTool runs one capture tool. Success needs exit status 0 and a
// non-empty file at dest.
func (b *NativeToolBackend) runTool(ctx context.Context, timeout time.Duration, tool, dest string, args ...string) error {
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear %s: %w", dest, err)
	}
	res, err := b.run.Run(ctx, timeout, tool, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return errors.New(res.Summary())
	}
	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("no output file: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("empty output file")
	}
	return nil
}

// selectRegion runs slurp and returns the geometry the user drew.
func (b *NativeToolBackend) selectRegion(ctx context.Context) (string, error) {
	res, err := b.run.Run(ctx, b.timeouts.Interactive, b.tools.Slurp)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%w: slurp %s", ErrCancelled, res.Summary())
	}
	geom := strings.TrimSpace(res.Stdout)
	if geom == "" {
		return "", fmt.Errorf("%w: slurp returned no geometry", ErrCancelled)
	}
	return geom, nil
}

func (b *NativeToolBackend) focus(ctx context.Context, id string) {
	if b.activator == nil || strings.TrimSpace(id) == "" {
		return
	}
	log := logger.WithComponent("native")
	if err := b.activator.Activate(ctx, id); err != nil {
		log.Warn().Err(err).Str("window_id", id).Msg("Failed to activate window")
		return
	}
	select {
	case <-time.After(focusSettle):
	case <-ctx.Done():
	}
}
