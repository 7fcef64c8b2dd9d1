package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/1broseidon/shotty/internal/config"
	"github.com/1broseidon/shotty/internal/runner"
)

const gnomeTool = "gnome-screenshot"

func newTestNative(t *testing.T, r *fakeRunner, activator Activator) (*NativeToolBackend, string) {
	t.Helper()
	orig := focusSettle
	focusSettle = 0
	t.Cleanup(func() { focusSettle = orig })

	cfg := config.DefaultConfig()
	return NewNativeToolBackend(r, cfg.Tools, cfg.Timeouts, activator), filepath.Join(t.TempDir(), "out.png")
}

func TestNativeAvailable(t *testing.T) {
	tests := []struct {
		name     string
		handlers map[string]func([]string) (runner.Result, error)
		want     bool
	}{
		{"grim installed", map[string]func([]string) (runner.Result, error){"grim": exits(0, "")}, true},
		{"grim rejects flag", map[string]func([]string) (runner.Result, error){"grim": exits(1, "unknown option")}, true},
		{"gnome-screenshot only", map[string]func([]string) (runner.Result, error){gnomeTool: exits(0, "")}, true},
		{"nothing installed", nil, false},
		{"grim hangs", map[string]func([]string) (runner.Result, error){
			"grim": func([]string) (runner.Result, error) { return runner.Result{ExitCode: -1}, runner.ErrTimeout },
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRunner()
			for k, v := range tt.handlers {
				r.handlers[k] = v
			}
			b, _ := newTestNative(t, r, nil)
			if got := b.Available(context.Background()); got != tt.want {
				t.Fatalf("Available() = %v, want %v (calls %v)", got, tt.want, r.Calls())
			}
		})
	}
}

func TestNativeCaptureScreen_FallsThroughChain(t *testing.T) {
	r := newFakeRunner()
	r.handlers["grim"] = exits(1, "compositor doesn't support wlr-screencopy")
	r.handlers[gnomeTool] = writesLastArg
	b, dest := newTestNative(t, r, nil)

	if err := b.CaptureScreen(context.Background(), dest, true); err != nil {
		t.Fatalf("CaptureScreen error: %v", err)
	}
	want := []string{
		"grim -c " + dest,
		gnomeTool + " --include-pointer --file " + dest,
	}
	if got := r.Calls(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestNativeCaptureScreen_ImportIgnoresCursor(t *testing.T) {
	r := newFakeRunner()
	r.handlers["import"] = writesLastArg
	b, dest := newTestNative(t, r, nil)

	if err := b.CaptureScreen(context.Background(), dest, true); err != nil {
		t.Fatalf("CaptureScreen error: %v", err)
	}
	calls := r.Calls()
	if last := calls[len(calls)-1]; last != "import -window root "+dest {
		t.Fatalf("last call = %q", last)
	}
}

func TestNativeCaptureScreen_RequiresNonEmptyFile(t *testing.T) {
	r := newFakeRunner()
	r.handlers["grim"] = writesEmpty
	r.handlers[gnomeTool] = exits(0, "")
	r.handlers["import"] = writesEmpty
	b, dest := newTestNative(t, r, nil)

	err := b.CaptureScreen(context.Background(), dest, false)
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("err = %v, want ErrCaptureFailed", err)
	}
	if len(r.Calls()) != 3 {
		t.Fatalf("calls = %v, want all three tools tried", r.Calls())
	}
}

func TestNativeCaptureRegion(t *testing.T) {
	r := newFakeRunner()
	r.handlers["grim"] = exits(1, "")
	r.handlers["import"] = writesLastArg
	b, dest := newTestNative(t, r, nil)

	rect := Rect{X: 10, Y: 20, Width: 300, Height: 200}
	if err := b.CaptureRegion(context.Background(), dest, rect, true); err != nil {
		t.Fatalf("CaptureRegion error: %v", err)
	}
	want := []string{
		"grim -g 10,20 300x200 -c " + dest,
		"import -window root -crop 300x200+10+20 +repage " + dest,
	}
	if got := r.Calls(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}

	if err := b.CaptureRegion(context.Background(), dest, Rect{}, false); !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("empty region err = %v, want ErrCaptureFailed", err)
	}
}

func TestNativeCaptureWindow_SlurpThenGrim(t *testing.T) {
	r := newFakeRunner()
	r.handlers["slurp"] = func([]string) (runner.Result, error) {
		return runner.Result{Stdout: "5,6 70x80\n"}, nil
	}
	r.handlers["grim"] = writesLastArg
	shell := &fakeShell{}
	b, dest := newTestNative(t, r, shell)

	if err := b.CaptureWindow(context.Background(), dest, WindowTarget{ID: "42"}, false); err != nil {
		t.Fatalf("CaptureWindow error: %v", err)
	}
	want := []string{"slurp", "grim -g 5,6 70x80 " + dest}
	if got := r.Calls(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if len(shell.Activated()) != 0 {
		t.Fatalf("window activated although slurp path succeeded: %v", shell.Activated())
	}
}

func TestNativeCaptureWindow_ActivatesBeforeLegacyTool(t *testing.T) {
	r := newFakeRunner()
	r.handlers["slurp"] = exits(1, "selection cancelled")
	shell := &fakeShell{}
	r.handlers[gnomeTool] = func(args []string) (runner.Result, error) {
		if got := shell.Activated(); len(got) != 1 || got[0] != "42" {
			t.Errorf("activated before gnome-screenshot = %v, want [42]", got)
		}
		return writesLastArg(args)
	}
	b, dest := newTestNative(t, r, shell)

	if err := b.CaptureWindow(context.Background(), dest, WindowTarget{ID: "42"}, true); err != nil {
		t.Fatalf("CaptureWindow error: %v", err)
	}
	calls := r.Calls()
	if last := calls[len(calls)-1]; last != gnomeTool+" --window --include-pointer --file "+dest {
		t.Fatalf("last call = %q", last)
	}
	for _, c := range calls {
		if strings.HasPrefix(c, "import") {
			t.Fatalf("import must not run without a region: %v", calls)
		}
	}
}

func TestNativeCaptureWindow_NoRegionNoImport(t *testing.T) {
	r := newFakeRunner()
	r.handlers["import"] = writesLastArg
	b, dest := newTestNative(t, r, &fakeShell{})

	err := b.CaptureWindow(context.Background(), dest, WindowTarget{ID: "42"}, false)
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("err = %v, want ErrCaptureFailed", err)
	}
	for _, c := range r.Calls() {
		if strings.HasPrefix(c, "import") {
			t.Fatalf("import ran without a region: %v", r.Calls())
		}
	}
}

func TestNativeCaptureWindow_WithRegion(t *testing.T) {
	r := newFakeRunner()
	r.handlers["import"] = writesLastArg
	b, dest := newTestNative(t, r, &fakeShell{})

	region := &Rect{X: 1, Y: 2, Width: 3, Height: 4}
	if err := b.CaptureWindow(context.Background(), dest, WindowTarget{ID: "42", Region: region}, false); err != nil {
		t.Fatalf("CaptureWindow error: %v", err)
	}
	want := []string{
		"grim -g 1,2 3x4 " + dest,
		gnomeTool + " --window --file " + dest,
		"import -window root -crop 3x4+1+2 +repage " + dest,
	}
	if got := r.Calls(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		t.Fatalf("dest not written: %v", err)
	}
}

func TestNativeCaptureWindow_ActivationFailureIsNotFatal(t *testing.T) {
	r := newFakeRunner()
	r.handlers[gnomeTool] = writesLastArg
	shell := &fakeShell{activateFn: func(context.Context, string) error { return errFake }}
	b, dest := newTestNative(t, r, shell)

	if err := b.CaptureWindow(context.Background(), dest, WindowTarget{ID: "42"}, false); err != nil {
		t.Fatalf("CaptureWindow error: %v", err)
	}
}

func TestNativeCaptureWindow_RegionAlreadyTried(t *testing.T) {
	r := newFakeRunner()
	r.handlers["grim"] = writesLastArg
	r.handlers["import"] = writesLastArg
	r.handlers[gnomeTool] = writesLastArg
	b, dest := newTestNative(t, r, &fakeShell{})

	region := &Rect{X: 1, Y: 2, Width: 3, Height: 4}
	target := WindowTarget{ID: "42", Region: region, RegionTried: true}
	if err := b.CaptureWindow(context.Background(), dest, target, false); err != nil {
		t.Fatalf("CaptureWindow error: %v", err)
	}
	want := []string{gnomeTool + " --window --file " + dest}
	if got := r.Calls(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}
