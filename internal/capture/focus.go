package capture

import (
	"context"

	"github.com/1broseidon/shotty/internal/logger"
	"github.com/1broseidon/shotty/internal/sessionbus"
)

// Shell lists and activates windows.
type Shell interface {
	WindowLister
	Activator
}

// FocusState remembers which window had focus before a capture moved it.
// It is owned by one capture call.
type FocusState struct {
	previous string
	ok       bool
}

// Previous returns the remembered window id, if any.
func (s *FocusState) Previous() (string, bool) {
	if s == nil {
		return "", false
	}
	return s.previous, s.ok
}

// FocusManager saves and restores the focused window around window captures.
type FocusManager struct {
	shell Shell
}

// NewFocusManager returns a focus manager backed by shell.
func NewFocusManager(shell Shell) *FocusManager {
	return &FocusManager{shell: shell}
}

// Remember records the currently focused window. When nothing is focused
// the first normal window is used. Failures yield an empty state.
func (m *FocusManager) Remember(ctx context.Context) *FocusState {
	log := logger.WithComponent("focus")

	windows, err := m.shell.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not determine focused window")
		return &FocusState{}
	}

	if id, ok := focusedWindow(windows); ok {
		log.Debug().Str("window_id", id).Msg("Remembered focused window")
		return &FocusState{previous: id, ok: true}
	}
	log.Debug().Msg("No focused window to remember")
	return &FocusState{}
}

func focusedWindow(windows []sessionbus.Window) (string, bool) {
	for _, w := range windows {
		if w.Focus {
			return w.IDString(), true
		}
	}
	for _, w := range windows {
		if w.Normal() {
			return w.IDString(), true
		}
	}
	return "", false
}

// Restore re-activates the remembered window once and clears st. It is not
// cancelled with ctx so a deferred restore still runs after a timeout.
func (m *FocusManager) Restore(ctx context.Context, st *FocusState) {
	if st == nil || !st.ok {
		return
	}
	id := st.previous
	st.previous, st.ok = "", false

	if err := m.shell.Activate(context.WithoutCancel(ctx), id); err != nil {
		logger.WithComponent("focus").Warn().Err(err).Str("window_id", id).Msg("Failed to restore focus")
		return
	}
	logger.WithComponent("focus").Debug().Str("window_id", id).Msg("Restored focus")
}
