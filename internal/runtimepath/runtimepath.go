package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var readDirFn = os.ReadDir

// Dir returns the user runtime directory that holds the session bus and
// compositor sockets. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/shotty-runtime-<uid> (created)
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/shotty-runtime-%d", uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

// SessionBusAddress returns a D-Bus address for the per-user bus socket in the
// runtime directory, or "" when no socket exists there.
func SessionBusAddress() string {
	dir, err := Dir()
	if err != nil {
		return ""
	}
	sock := filepath.Join(dir, "bus")
	info, err := os.Stat(sock)
	if err != nil || info.Mode()&os.ModeSocket == 0 {
		return ""
	}
	return "unix:path=" + sock
}

// WaylandDisplay returns the name of the first wayland-N socket in the
// runtime directory (sorted), or "".
func WaylandDisplay() string {
	dir, err := Dir()
	if err != nil {
		return ""
	}
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "wayland-") || strings.HasSuffix(name, ".lock") {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}
