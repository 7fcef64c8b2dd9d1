package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Logger is the process-wide logger. It writes to stderr because stdout
// carries MCP frames when serving.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init reconfigures the global logger. format is one of auto, console, json;
// auto selects console output when w is a terminal.
func Init(level, format string, w io.Writer) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	if w == nil {
		w = os.Stderr
	}
	if useConsole(format, w) {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	Logger = zerolog.New(w).With().Timestamp().Logger()
}

func useConsole(format string, w io.Writer) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console":
		return true
	case "json":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WithComponent returns a logger with a component field set
func WithComponent(component string) *zerolog.Logger {
	l := Logger.With().Str("component", component).Logger()
	return &l
}

// Nop returns a disabled logger for tests and optional collaborators.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
