// Package readline assembles lines of text from decoded key events.
package readline

import (
	"io"

	"cbos/keyboard"
	"cbos/services/logger"
	"cbos/task"
)

const backspace = 0x08

// Reader reads lines from a key stream, echoing what it accepts.
type Reader struct {
	Keys task.Stream[keyboard.DecodedKey]
	// Echo receives printable runes and erase sequences. May be nil.
	Echo io.Writer
	Log  *logger.Logger
}

// ReadLine suspends co until Enter is pressed or maxLen runes were
// collected, and returns the line without the terminator. A maxLen of zero or
// less means no limit.
func (r *Reader) ReadLine(co *task.Co, maxLen int) string {
	var line []rune
	for {
		key := task.Await(co, r.Keys)
		if ch, ok := key.Rune(); ok {
			switch {
			case ch == '\n':
				return string(line)
			case ch == backspace || ch == 0x7f:
				if len(line) > 0 {
					line = line[:len(line)-1]
					r.echo("\b \b")
				}
			case printable(ch):
				line = append(line, ch)
				r.echo(string(ch))
			default:
				r.Log.Debug().Int("rune", int(ch)).Log("control key discarded")
			}
		} else {
			r.Log.Debug().Str("key", key.String()).Log("raw key discarded")
		}

		if maxLen > 0 && len(line) >= maxLen {
			return string(line)
		}
	}
}

func (r *Reader) echo(s string) {
	if r.Echo == nil {
		return
	}
	if _, err := io.WriteString(r.Echo, s); err != nil {
		r.Log.Debug().Err(err).Log("echo failed")
	}
}

func printable(ch rune) bool {
	return ch >= 0x20 && ch != 0x7f
}
