package readline

import (
	"bytes"
	"errors"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbos/bridge"
	"cbos/kernel"
	"cbos/keyboard"
	"cbos/services/logger"
	"cbos/task"
)

type keyScript struct {
	keys []keyboard.DecodedKey
}

func (s *keyScript) PollNext(*task.Context) (keyboard.DecodedKey, task.Poll) {
	if len(s.keys) == 0 {
		return keyboard.DecodedKey{}, task.Pending
	}
	k := s.keys[0]
	s.keys = s.keys[1:]
	return k, task.Ready
}

func typed(s string) []keyboard.DecodedKey {
	var out []keyboard.DecodedKey
	for _, r := range s {
		out = append(out, keyboard.Unicode(r))
	}
	return out
}

// readLine drives ReadLine to completion without an executor.
func readLine(t *testing.T, r *Reader, maxLen int) string {
	t.Helper()
	var line string
	f := task.Async(func(co *task.Co) { line = r.ReadLine(co, maxLen) })
	cx := task.NewContext(kernel.WakerFunc(func() {}))
	for i := 0; i < 1000; i++ {
		if f.Poll(cx) == task.Ready {
			return line
		}
	}
	t.Fatal("ReadLine never returned")
	return ""
}

func TestReadLineFromScancodes(t *testing.T) {
	src := bridge.NewScancodes()
	keys, err := src.Stream(keyboard.New(keyboard.US104{}, keyboard.Ignore), nil)
	require.NoError(t, err)
	for _, b := range []uint8{0x2A, 0x23, 0xA3, 0xAA, 0x17, 0x97, 0x1C, 0x9C} {
		src.Push(b)
	}

	var echo bytes.Buffer
	r := &Reader{Keys: keys, Echo: &echo}
	assert.Equal(t, "Hi", readLine(t, r, 80))
	assert.Equal(t, "Hi", echo.String())
}

func TestReadLineStopsAtMaxLen(t *testing.T) {
	script := &keyScript{keys: typed("abcdef\n")}
	var echo bytes.Buffer
	r := &Reader{Keys: script, Echo: &echo}

	assert.Equal(t, "abc", readLine(t, r, 3))
	assert.Equal(t, "abc", echo.String())
	// The rest stays in the stream for the next line.
	assert.Equal(t, "def", readLine(t, r, 3))
}

func TestReadLineBackspace(t *testing.T) {
	script := &keyScript{keys: typed("\bab\bc\n")}
	var echo bytes.Buffer
	r := &Reader{Keys: script, Echo: &echo}

	assert.Equal(t, "ac", readLine(t, r, 80))
	assert.Equal(t, "ab\b \bc", echo.String())
}

func TestReadLineDiscardsNonPrintable(t *testing.T) {
	var logs bytes.Buffer
	keys := []keyboard.DecodedKey{
		keyboard.Unicode('o'),
		keyboard.RawKey(keyboard.KeyArrowUp),
		keyboard.Unicode(0x1b),
		keyboard.Unicode('k'),
		keyboard.Unicode('\n'),
	}
	var echo bytes.Buffer
	r := &Reader{
		Keys: &keyScript{keys: keys},
		Echo: &echo,
		Log:  logger.New(&logs, logiface.LevelDebug),
	}

	assert.Equal(t, "ok", readLine(t, r, 80))
	assert.Equal(t, "ok", echo.String())
	assert.Contains(t, logs.String(), "raw key discarded")
	assert.Contains(t, logs.String(), "ArrowUp")
	assert.Contains(t, logs.String(), "control key discarded")
}

func TestReadLineWithoutEcho(t *testing.T) {
	r := &Reader{Keys: &keyScript{keys: typed("x\n")}}
	assert.Equal(t, "x", readLine(t, r, 0))
}

func TestReadLineSuspendsUntilKeys(t *testing.T) {
	script := &keyScript{}
	r := &Reader{Keys: script}

	var line string
	f := task.Async(func(co *task.Co) { line = r.ReadLine(co, 80) })
	cx := task.NewContext(kernel.WakerFunc(func() {}))

	require.Equal(t, task.Pending, f.Poll(cx))
	require.Equal(t, task.Pending, f.Poll(cx))

	script.keys = typed("go\n")
	require.Equal(t, task.Ready, f.Poll(cx))
	assert.Equal(t, "go", line)
}

type brokenTerminal struct{}

func (brokenTerminal) Write([]byte) (int, error) { return 0, errors.New("terminal gone") }

func TestReadLineLogsFailedEcho(t *testing.T) {
	var logs bytes.Buffer
	r := &Reader{
		Keys: &keyScript{keys: typed("hi\n")},
		Echo: brokenTerminal{},
		Log:  logger.New(&logs, logiface.LevelDebug),
	}

	assert.Equal(t, "hi", readLine(t, r, 80))
	assert.Contains(t, logs.String(), "echo failed")
	assert.Contains(t, logs.String(), "terminal gone")
}
