package logger

import (
	"bytes"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLog struct{ lines []string }

func (r *recordingLog) WriteLineString(s string) { r.lines = append(r.lines, s) }
func (r *recordingLog) WriteLineBytes(b []byte)  { r.lines = append(r.lines, string(b)) }

func TestLineWriterSplitsLines(t *testing.T) {
	rec := &recordingLog{}
	w := NewLineWriter(rec)

	n, err := w.Write([]byte("one\ntw"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []string{"one"}, rec.lines)

	_, _ = w.Write([]byte("o\nthree\n"))
	assert.Equal(t, []string{"one", "two", "three"}, rec.lines)
}

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, logiface.LevelInformational)

	Component(l, "executor").Info().Uint64("task", 3).Log("task spawned")
	l.Debug().Log("filtered")

	out := buf.String()
	assert.Contains(t, out, `"lvl":"info"`)
	assert.Contains(t, out, `"component":"executor"`)
	assert.Contains(t, out, `"msg":"task spawned"`)
	assert.NotContains(t, out, "filtered")
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Warning().Str("k", "v").Log("dropped")
		_ = Component(l, "x")
	})
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logiface.Level{
		"info":    logiface.LevelInformational,
		"WARN":    logiface.LevelWarning,
		"err":     logiface.LevelError,
		"debug":   logiface.LevelDebug,
		"trace":   logiface.LevelTrace,
		"off":     logiface.LevelDisabled,
		" crit ":  logiface.LevelCritical,
		"":        logiface.LevelInformational,
		"notice":  logiface.LevelNotice,
		"emerg":   logiface.LevelEmergency,
		"alert":   logiface.LevelAlert,
		"warning": logiface.LevelWarning,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
