// Package logger builds the kernel's structured logger and routes its output to
// the HAL log sink.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"cbos/hal"
)

// Logger is the kernel logger. A nil *Logger discards everything.
type Logger = logiface.Logger[*stumpy.Event]

// New returns a JSON logger writing one event per line to w.
func New(w io.Writer, level logiface.Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(w),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(level),
	)
}

// Component returns a child of l tagging every event with the component name.
func Component(l *Logger, name string) *Logger {
	return l.Clone().Str("component", name).Logger()
}

// ParseLevel maps a syslog keyword (or its common alias) to a level.
func ParseLevel(s string) (logiface.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off", "none":
		return logiface.LevelDisabled, nil
	case "emerg", "emergency":
		return logiface.LevelEmergency, nil
	case "alert":
		return logiface.LevelAlert, nil
	case "crit", "critical":
		return logiface.LevelCritical, nil
	case "err", "error":
		return logiface.LevelError, nil
	case "warning", "warn":
		return logiface.LevelWarning, nil
	case "notice":
		return logiface.LevelNotice, nil
	case "info", "informational", "":
		return logiface.LevelInformational, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "trace":
		return logiface.LevelTrace, nil
	}
	return logiface.LevelDisabled, fmt.Errorf("unknown log level %q", s)
}

// LineWriter forwards complete lines to a hal.Logger. Partial lines are held
// until their newline arrives.
type LineWriter struct {
	mu  sync.Mutex
	out hal.Logger
	buf []byte
}

// NewLineWriter returns a writer feeding out.
func NewLineWriter(out hal.Logger) *LineWriter {
	return &LineWriter{out: out}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		if w.out != nil {
			w.out.WriteLineBytes(w.buf[:i])
		}
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) == 0 {
		w.buf = nil
	}
	return len(p), nil
}
