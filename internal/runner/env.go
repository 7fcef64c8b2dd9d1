package runner

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/shotty/internal/runtimepath"
)

var (
	runCommandOutputFn        = runCommandOutput
	readFileFn                = os.ReadFile
	readDirFn                 = os.ReadDir
	lookupEnvFn               = os.Getenv
	detectSessionLeaderEnvFn  = detectSessionLeaderEnv
	detectDisplayFromSocketFn = detectDisplayFromSockets
	runtimeDirFn              = runtimepath.Dir
	sessionBusAddressFn       = runtimepath.SessionBusAddress
	waylandDisplayFn          = runtimepath.WaylandDisplay
)

// SessionEnv is the graphical session environment capture tools need. MCP
// hosts frequently start servers without it.
type SessionEnv struct {
	RuntimeDir     string
	BusAddress     string
	WaylandDisplay string
	Display        string
	XAuthority     string
}

// Overrides are explicit values from configuration.
type Overrides struct {
	BusAddress     string
	Display        string
	WaylandDisplay string
}

// DetectSessionEnv resolves each variable from, in order: the current process
// environment, configuration, the logind session leader's environment, and
// finally well-known sockets.
func DetectSessionEnv(o Overrides) SessionEnv {
	env := SessionEnv{
		RuntimeDir:     strings.TrimSpace(lookupEnvFn("XDG_RUNTIME_DIR")),
		BusAddress:     strings.TrimSpace(lookupEnvFn("DBUS_SESSION_BUS_ADDRESS")),
		WaylandDisplay: strings.TrimSpace(lookupEnvFn("WAYLAND_DISPLAY")),
		Display:        strings.TrimSpace(lookupEnvFn("DISPLAY")),
		XAuthority:     strings.TrimSpace(lookupEnvFn("XAUTHORITY")),
	}

	if env.BusAddress == "" {
		env.BusAddress = strings.TrimSpace(o.BusAddress)
	}
	if env.Display == "" {
		env.Display = strings.TrimSpace(o.Display)
	}
	if env.WaylandDisplay == "" {
		env.WaylandDisplay = strings.TrimSpace(o.WaylandDisplay)
	}

	if env.incomplete() {
		leader := detectSessionLeaderEnvFn()
		fill := func(dst *string, key string) {
			if *dst == "" {
				*dst = strings.TrimSpace(leader[key])
			}
		}
		fill(&env.RuntimeDir, "XDG_RUNTIME_DIR")
		fill(&env.BusAddress, "DBUS_SESSION_BUS_ADDRESS")
		fill(&env.WaylandDisplay, "WAYLAND_DISPLAY")
		fill(&env.Display, "DISPLAY")
		fill(&env.XAuthority, "XAUTHORITY")
	}

	if env.RuntimeDir == "" {
		if rd, err := runtimeDirFn(); err == nil {
			env.RuntimeDir = rd
		}
	}
	if env.BusAddress == "" {
		env.BusAddress = sessionBusAddressFn()
	}
	if env.WaylandDisplay == "" {
		env.WaylandDisplay = waylandDisplayFn()
	}
	if env.Display == "" {
		env.Display = detectDisplayFromSocketFn("/tmp/.X11-unix")
	}
	if env.XAuthority == "" && env.Display != "" {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			candidate := filepath.Join(home, ".Xauthority")
			if _, err := os.Stat(candidate); err == nil {
				env.XAuthority = candidate
			}
		}
	}
	return env
}

func (e SessionEnv) incomplete() bool {
	return e.BusAddress == "" || (e.WaylandDisplay == "" && e.Display == "")
}

// Apply fills variables missing from base. Values already present in base win.
func (e SessionEnv) Apply(base []string) []string {
	env := append([]string(nil), base...)
	set := func(key, value string) {
		if value == "" || strings.TrimSpace(envLookup(env, key)) != "" {
			return
		}
		env = upsertEnv(env, key, value)
	}
	set("XDG_RUNTIME_DIR", e.RuntimeDir)
	set("DBUS_SESSION_BUS_ADDRESS", e.BusAddress)
	set("WAYLAND_DISPLAY", e.WaylandDisplay)
	set("DISPLAY", e.Display)
	set("XAUTHORITY", e.XAuthority)
	return env
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// detectSessionLeaderEnv reads the environment of this user's first graphical
// logind session leader.
func detectSessionLeaderEnv() map[string]string {
	uid := strconv.Itoa(os.Getuid())
	out, err := runCommandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return nil
	}
	for _, sessionID := range parseLoginctlSessions(out, uid) {
		typ := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Type"))
		if typ != "wayland" && typ != "x11" {
			continue
		}
		leader := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Leader"))
		if leader == "" || leader == "0" {
			continue
		}
		envMap, err := readProcEnviron(leader)
		if err != nil {
			continue
		}
		return envMap
	}
	return nil
}

func parseLoginctlSessions(output string, uid string) []string {
	var sessions []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		if fields[1] == uid {
			sessions = append(sessions, fields[0])
		}
	}
	return sessions
}

func loginctlShowSessionProp(sessionID string, prop string) string {
	out, err := runCommandOutputFn("loginctl", "show-session", sessionID, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func readProcEnviron(pid string) (map[string]string, error) {
	path := filepath.Join("/proc", pid, "environ")
	data, err := readFileFn(path)
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, part := range strings.Split(string(data), "\x00") {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		env[kv[0]] = kv[1]
	}
	return env, nil
}

func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}

	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}

func envLookup(env []string, key string) string {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return strings.TrimPrefix(e, prefix)
		}
	}
	return ""
}

func upsertEnv(env []string, key string, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
