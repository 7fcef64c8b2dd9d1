// Package windows enumerates capturable windows.
package windows

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/1broseidon/shotty/internal/logger"
	"github.com/1broseidon/shotty/internal/sessionbus"
)

// ErrEnumerationFailed is returned when neither the shell extension nor the
// process table produced a window list.
var ErrEnumerationFailed = errors.New("window enumeration failed")

// Handle is one entry of the list_windows result.
type Handle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Process is a running process as seen by the fallback scan.
type Process struct {
	PID  int32
	Name string
}

// Lister returns the shell's window list.
type Lister interface {
	List(ctx context.Context) ([]sessionbus.Window, error)
}

var listProcessesFn = listProcesses

// Enumerator lists windows from the shell extension, or from the process
// table when the extension is unreachable. The two sources are never merged.
type Enumerator struct {
	shell     Lister
	catalogue []string
	timeout   time.Duration
}

// NewEnumerator returns an enumerator. catalogue holds the process names
// treated as GUI applications by the fallback; timeout bounds the scan.
func NewEnumerator(shell Lister, catalogue []string, timeout time.Duration) *Enumerator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	lowered := make([]string, 0, len(catalogue))
	for _, name := range catalogue {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			lowered = append(lowered, name)
		}
	}
	return &Enumerator{
		shell:     shell,
		catalogue: lowered,
		timeout:   timeout,
	}
}

// List returns the current windows.
func (e *Enumerator) List(ctx context.Context) ([]Handle, error) {
	log := logger.WithComponent("windows")

	var primaryErr error
	if e.shell != nil {
		handles, err := e.fromShell(ctx)
		if err == nil {
			log.Debug().Int("count", len(handles)).Msg("Listed windows via shell extension")
			return handles, nil
		}
		primaryErr = err
		log.Warn().Err(err).Msg("Shell window list unavailable, scanning processes")
	} else {
		primaryErr = errors.New("no shell connection")
	}

	handles, err := e.fromProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumerationFailed, errors.Join(primaryErr, err))
	}
	log.Info().Int("count", len(handles)).Msg("Listed GUI applications via process scan")
	return handles, nil
}

func (e *Enumerator) fromShell(ctx context.Context) ([]Handle, error) {
	windows, err := e.shell.List(ctx)
	if err != nil {
		return nil, err
	}
	handles := make([]Handle, 0, len(windows))
	for _, w := range windows {
		if !w.Normal() {
			continue
		}
		title := strings.TrimSpace(w.WMClass)
		if title == "" {
			title = "Unknown"
		}
		handles = append(handles, Handle{ID: w.IDString(), Title: title})
	}
	return handles, nil
}

func (e *Enumerator) fromProcesses(ctx context.Context) ([]Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	procs, err := listProcessesFn(ctx)
	if err != nil {
		return nil, fmt.Errorf("process scan: %w", err)
	}
	sort.Slice(procs, func(i, j int) bool { return procs[i].PID < procs[j].PID })

	// Casers are stateful; one per scan.
	caser := cases.Title(language.Und)
	handles := []Handle{}
	seen := make(map[string]bool)
	for _, p := range procs {
		name := filepath.Base(strings.TrimSpace(p.Name))
		if name == "." || name == "" || !e.isGUI(name) {
			continue
		}
		title := caser.String(name)
		if seen[title] {
			continue
		}
		seen[title] = true
		handles = append(handles, Handle{ID: strconv.Itoa(int(p.PID)), Title: title})
	}
	return handles, nil
}

func (e *Enumerator) isGUI(name string) bool {
	lower := strings.ToLower(name)
	for _, gui := range e.catalogue {
		if strings.Contains(lower, gui) {
			return true
		}
	}
	return false
}

func listProcesses(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		out = append(out, Process{PID: p.Pid, Name: name})
	}
	return out, nil
}
