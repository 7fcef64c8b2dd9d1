package main

import (
	"errors"
	"fmt"

	"github.com/1broseidon/shotty/internal/actionlog"
	"github.com/1broseidon/shotty/internal/capture"
	"github.com/1broseidon/shotty/internal/config"
	"github.com/1broseidon/shotty/internal/logger"
	"github.com/1broseidon/shotty/internal/portal"
	"github.com/1broseidon/shotty/internal/runner"
	"github.com/1broseidon/shotty/internal/sessionbus"
	"github.com/1broseidon/shotty/internal/windows"
)

// app holds the wired capture stack shared by every command.
type app struct {
	cfg          *config.Config
	bus          *sessionbus.Conn
	orchestrator *capture.Orchestrator
	enumerator   *windows.Enumerator
	actions      *actionlog.Log
}

func newApp(cfg *config.Config) (*app, error) {
	log := logger.WithComponent("app")

	env := runner.DetectSessionEnv(runner.Overrides{
		BusAddress:     cfg.SessionBusAddress,
		Display:        cfg.Display,
		WaylandDisplay: cfg.WaylandDisplay,
	})
	log.Debug().
		Str("runtime_dir", env.RuntimeDir).
		Str("bus", env.BusAddress).
		Str("wayland_display", env.WaylandDisplay).
		Str("display", env.Display).
		Msg("Resolved session environment")

	bus := sessionbus.New(env.BusAddress)
	shell := sessionbus.NewShell(bus, cfg.Timeouts.Bus)

	native := capture.NewNativeToolBackend(runner.NewExec(env), cfg.Tools, cfg.Timeouts, shell)
	backends := buildBackends(cfg, map[string]capture.Backend{
		config.BackendPortal: capture.NewPortalBackend(portal.NewClient(bus, cfg.Timeouts.Interactive), cfg.Timeouts.Probe),
		config.BackendNative: native,
		config.BackendX11:    capture.NewX11Backend(env.Display, cfg.Timeouts.Probe, cfg.Timeouts.Capture),
	})

	store, err := capture.NewStore(cfg.ExpandedScreenshotDir())
	if err != nil {
		bus.Close()
		return nil, err
	}

	actions, err := actionlog.Open(cfg.ActionLog)
	if err != nil {
		log.Warn().Err(err).Msg("Action log disabled")
		actions = nil
	}

	return &app{
		cfg:          cfg,
		bus:          bus,
		orchestrator: capture.NewOrchestrator(store, capture.NewSelector(backends...), shell, native),
		enumerator:   windows.NewEnumerator(shell, cfg.GUIProcesses, cfg.Timeouts.Bus),
		actions:      actions,
	}, nil
}

// buildBackends orders the available backends by the configured preference.
func buildBackends(cfg *config.Config, available map[string]capture.Backend) []capture.Backend {
	out := make([]capture.Backend, 0, len(cfg.Backends))
	for _, name := range cfg.Backends {
		if b, ok := available[name]; ok && b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (a *app) Close() error {
	var errs []error
	if err := a.actions.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close action log: %w", err))
	}
	if err := a.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close session bus: %w", err))
	}
	return errors.Join(errs...)
}
