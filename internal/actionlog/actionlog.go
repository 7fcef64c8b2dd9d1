// Package actionlog keeps an append-only audit trail of tool invocations.
package actionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/shotty/internal/config"
	"github.com/1broseidon/shotty/internal/logger"
)

// Action names a logged tool invocation.
type Action string

const (
	ActionListWindows   Action = "LIST-WINDOWS"
	ActionCaptureScreen Action = "CAPTURE-SCREEN"
	ActionCaptureWindow Action = "CAPTURE-WINDOW"
)

// Log writes one line per action and rotates by size. A nil or disabled Log
// discards everything.
type Log struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	maxBytes int64
	maxFiles int
	size     int64
	now      func() time.Time
}

// Open opens the log described by cfg. It returns a nil *Log when logging is
// disabled.
func Open(cfg config.ActionLogConfig) (*Log, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create action log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open action log %s: %w", cfg.File, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat action log: %w", err)
	}

	return &Log{
		file:     f,
		path:     cfg.File,
		maxBytes: int64(cfg.MaxSizeMB) * 1024 * 1024,
		maxFiles: cfg.MaxFiles,
		size:     stat.Size(),
		now:      time.Now,
	}, nil
}

// Record appends an entry. details are written as sorted key=value pairs.
func (l *Log) Record(action Action, details map[string]interface{}) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}
	if l.maxBytes > 0 && l.size >= l.maxBytes {
		if err := l.rotate(); err != nil {
			logger.WithComponent("actionlog").Warn().Err(err).Msg("Action log rotation failed")
		}
		if l.file == nil {
			return
		}
	}

	entry := formatEntry(l.now(), action, details)
	n, err := l.file.WriteString(entry)
	if err != nil {
		logger.WithComponent("actionlog").Warn().Err(err).Msg("Failed to write action log entry")
		return
	}
	l.size += int64(n)
}

func formatEntry(ts time.Time, action Action, details map[string]interface{}) string {
	var sb strings.Builder
	sb.WriteString(ts.Format("2006-01-02 15:04:05"))
	sb.WriteString(" [")
	sb.WriteString(string(action))
	sb.WriteString("]")

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := details[k].(type) {
		case string:
			fmt.Fprintf(&sb, " %s=%q", k, v)
		case error:
			fmt.Fprintf(&sb, " %s=%q", k, v.Error())
		default:
			fmt.Fprintf(&sb, " %s=%v", k, v)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

// Close closes the file.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// rotate shifts actions.log -> .1 -> .2 ... keeping maxFiles rotated files.
func (l *Log) rotate() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.maxFiles > 0 {
		os.Remove(fmt.Sprintf("%s.%d", l.path, l.maxFiles))
		for i := l.maxFiles - 1; i >= 1; i-- {
			os.Rename(fmt.Sprintf("%s.%d", l.path, i), fmt.Sprintf("%s.%d", l.path, i+1))
		}
		if err := os.Rename(l.path, l.path+".1"); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to rotate action log: %w", err)
		}
	} else if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to truncate action log: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open new action log: %w", err)
	}
	l.file = f
	l.size = 0
	return nil
}
