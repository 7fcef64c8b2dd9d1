package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/1broseidon/shotty/internal/windows"
)

var errNoTerminal = errors.New("--pick needs an interactive terminal")

var isTerminalFn = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

var runSelectFn = func(sel *huh.Select[string]) error {
	return sel.Run()
}

// pickWindow lets the user choose a window on the terminal. The empty id
// selects the full screen.
func pickWindow(handles []windows.Handle) (string, error) {
	if !isTerminalFn() {
		return "", errNoTerminal
	}

	opts := make([]huh.Option[string], 0, len(handles)+1)
	opts = append(opts, huh.NewOption("Full screen", ""))
	for _, h := range handles {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s)", h.Title, h.ID), h.ID))
	}

	var id string
	sel := huh.NewSelect[string]().
		Title("Capture which window?").
		Options(opts...).
		Value(&id)
	if err := runSelectFn(sel); err != nil {
		return "", fmt.Errorf("window picker: %w", err)
	}
	return id, nil
}
