package windows

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/1broseidon/shotty/internal/sessionbus"
)

type fakeLister struct {
	windows []sessionbus.Window
	err     error
	block   bool
}

func (f *fakeLister) List(ctx context.Context) ([]sessionbus.Window, error) {
	if f.block {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.windows, f.err
}

func stubProcesses(t *testing.T, procs []Process, err error) *int {
	t.Helper()
	calls := 0
	orig := listProcessesFn
	listProcessesFn = func(context.Context) ([]Process, error) {
		calls++
		return procs, err
	}
	t.Cleanup(func() { listProcessesFn = orig })
	return &calls
}

var catalogue = []string{"firefox", "code", "gnome-terminal"}

func TestList_PrimaryKeepsNormalWindows(t *testing.T) {
	calls := stubProcesses(t, nil, nil)
	shell := &fakeLister{windows: []sessionbus.Window{
		{ID: 1, WMClass: "firefox"},
		{ID: 2, WMClass: "gnome-shell", FrameType: 1},
		{ID: 3, WMClass: ""},
	}}

	got, err := NewEnumerator(shell, catalogue, time.Second).List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	want := []Handle{{ID: "1", Title: "firefox"}, {ID: "3", Title: "Unknown"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %+v, want %+v", got, want)
	}
	if *calls != 0 {
		t.Fatal("process scan must not run when the shell answered")
	}
}

func TestList_FiltersDialogsAndPanels(t *testing.T) {
	stubProcesses(t, nil, nil)
	shell := &fakeLister{windows: []sessionbus.Window{
		{ID: 10, WMClass: "a"},
		{ID: 11, WMClass: "b", WindowType: 4},
		{ID: 12, WMClass: "c", FrameType: 2, WindowType: 1},
	}}
	got, err := NewEnumerator(shell, nil, time.Second).List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "10" {
		t.Fatalf("List = %+v, want only id 10", got)
	}
}

func TestList_EmptyShellListIsNotAFailure(t *testing.T) {
	calls := stubProcesses(t, []Process{{PID: 5, Name: "firefox"}}, nil)
	got, err := NewEnumerator(&fakeLister{}, catalogue, time.Second).List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 0 || *calls != 0 {
		t.Fatalf("got %+v with %d scans, want empty list and no scan", got, *calls)
	}
}

func TestList_ShellTimeoutFallsBackToProcessScan(t *testing.T) {
	stubProcesses(t, []Process{
		{PID: 300, Name: "firefox"},
		{PID: 120, Name: "firefox"},
		{PID: 200, Name: "code"},
		{PID: 50, Name: "systemd"},
		{PID: 150, Name: "/usr/share/code/code"},
	}, nil)

	got, err := NewEnumerator(&fakeLister{block: true}, catalogue, time.Second).List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	want := []Handle{
		{ID: "120", Title: "Firefox"},
		{ID: "150", Title: "Code"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %+v, want %+v", got, want)
	}
}

func TestList_BothSourcesFail(t *testing.T) {
	scanErr := errors.New("proc unreadable")
	stubProcesses(t, nil, scanErr)

	_, err := NewEnumerator(&fakeLister{err: errors.New("no extension")}, catalogue, time.Second).List(context.Background())
	if !errors.Is(err, ErrEnumerationFailed) {
		t.Fatalf("err = %v, want ErrEnumerationFailed", err)
	}
	if !errors.Is(err, scanErr) {
		t.Fatalf("err = %v, want scan error joined", err)
	}
}

func TestList_NoShellUsesProcessScan(t *testing.T) {
	stubProcesses(t, []Process{{PID: 9, Name: "Code"}}, nil)
	got, err := NewEnumerator(nil, catalogue, 0).List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 1 || got[0] != (Handle{ID: "9", Title: "Code"}) {
		t.Fatalf("List = %+v", got)
	}
}

func TestHandleJSON(t *testing.T) {
	data, err := json.Marshal([]Handle{{ID: "42", Title: "firefox"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[{"id":"42","title":"firefox"}]` {
		t.Fatalf("json = %s", data)
	}
}
