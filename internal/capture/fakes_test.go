package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/shotty/internal/runner"
	"github.com/1broseidon/shotty/internal/sessionbus"
)

func pngBytes() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// fakeRunner answers tool invocations from a script keyed by executable.
type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	// handlers by executable name; missing handlers behave like an
	// uninstalled tool.
	handlers map[string]func(args []string) (runner.Result, error)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{handlers: map[string]func([]string) (runner.Result, error){}}
}

func (f *fakeRunner) Run(_ context.Context, _ time.Duration, name string, args ...string) (runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	h := f.handlers[name]
	f.mu.Unlock()
	if h == nil {
		return runner.Result{ExitCode: -1}, runner.ErrNotFound
	}
	return h(args)
}

func (f *fakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// writesLastArg simulates a tool that writes a PNG to the path in its last
// argument.
func writesLastArg(args []string) (runner.Result, error) {
	if err := os.WriteFile(args[len(args)-1], pngBytes(), 0644); err != nil {
		return runner.Result{}, err
	}
	return runner.Result{}, nil
}

func exits(code int, stderr string) func([]string) (runner.Result, error) {
	return func([]string) (runner.Result, error) {
		return runner.Result{ExitCode: code, Stderr: stderr}, nil
	}
}

func writesEmpty(args []string) (runner.Result, error) {
	return runner.Result{}, os.WriteFile(args[len(args)-1], nil, 0644)
}

// fakeShell is an in-memory window-calls extension.
type fakeShell struct {
	mu         sync.Mutex
	windows    []sessionbus.Window
	listErr    error
	activateFn func(ctx context.Context, id string) error
	activated  []string
}

func (f *fakeShell) List(ctx context.Context) ([]sessionbus.Window, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.windows, nil
}

func (f *fakeShell) Activate(ctx context.Context, id string) error {
	f.mu.Lock()
	f.activated = append(f.activated, id)
	f.mu.Unlock()
	if f.activateFn != nil {
		return f.activateFn(ctx, id)
	}
	return nil
}

func (f *fakeShell) Activated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.activated...)
}

var errFake = errors.New("fake failure")

// fakeBackend records captures and writes a PNG when it succeeds.
type fakeBackend struct {
	name      string
	available bool
	err       error

	screenCalls int
	windowCalls int
	targets     []WindowTarget
}

func (b *fakeBackend) Name() string { return b.name }
func (b *fakeBackend) Available(ctx context.Context) bool { return b.available }

func (b *fakeBackend) CaptureScreen(ctx context.Context, dest string, cursor bool) error {
	b.screenCalls++
	return b.result(dest)
}

func (b *fakeBackend) CaptureWindow(ctx context.Context, dest string, target WindowTarget, cursor bool) error {
	b.windowCalls++
	b.targets = append(b.targets, target)
	return b.result(dest)
}

func (b *fakeBackend) result(dest string) error {
	if b.err != nil {
		return b.err
	}
	return os.WriteFile(dest, pngBytes(), 0644)
}

// fakeRegion is a RegionCapturer.
type fakeRegion struct {
	err   error
	rects []Rect
}

func (r *fakeRegion) CaptureRegion(ctx context.Context, dest string, rect Rect, cursor bool) error {
	r.rects = append(r.rects, rect)
	if r.err != nil {
		return r.err
	}
	return os.WriteFile(dest, pngBytes(), 0644)
}

func sampleWindows() []sessionbus.Window {
	return []sessionbus.Window{
		{ID: 7, WMClass: "gnome-shell", FrameType: 1},
		{ID: 42, WMClass: "firefox", Rect: &sessionbus.Rect{X: 10, Y: 20, Width: 300, Height: 200}},
		{ID: 99, WMClass: "code", Focus: true, X: 0, Y: 0, Width: 800, Height: 600},
		{ID: 5, WMClass: "ghost"},
	}
}
