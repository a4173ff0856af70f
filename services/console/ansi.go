package console

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fatih/color"
)

var ansiFG = [16]color.Attribute{
	Black: color.FgBlack, Blue: color.FgBlue, Green: color.FgGreen, Cyan: color.FgCyan,
	Red: color.FgRed, Magenta: color.FgMagenta, Brown: color.FgYellow, LightGray: color.FgWhite,
	DarkGray: color.FgHiBlack, LightBlue: color.FgHiBlue, LightGreen: color.FgHiGreen,
	LightCyan: color.FgHiCyan, LightRed: color.FgHiRed, Pink: color.FgHiMagenta,
	Yellow: color.FgHiYellow, White: color.FgHiWhite,
}

var ansiBG = [16]color.Attribute{
	Black: color.BgBlack, Blue: color.BgBlue, Green: color.BgGreen, Cyan: color.BgCyan,
	Red: color.BgRed, Magenta: color.BgMagenta, Brown: color.BgYellow, LightGray: color.BgWhite,
	DarkGray: color.BgHiBlack, LightBlue: color.BgHiBlue, LightGreen: color.BgHiGreen,
	LightCyan: color.BgHiCyan, LightRed: color.BgHiRed, Pink: color.BgHiMagenta,
	Yellow: color.BgHiYellow, White: color.BgHiWhite,
}

// ANSIMirror repaints a Screen on an ANSI terminal. Only rows that changed
// since the last frame are rewritten.
type ANSIMirror struct {
	w      io.Writer
	prev   [Rows][Cols]Cell
	gen    uint64
	drawn  bool
	colors map[Attr]*color.Color
	buf    bytes.Buffer
}

func NewANSIMirror(w io.Writer) *ANSIMirror {
	return &ANSIMirror{w: w, colors: make(map[Attr]*color.Color)}
}

func (m *ANSIMirror) color(a Attr) *color.Color {
	c, ok := m.colors[a]
	if !ok {
		c = color.New(ansiFG[a.FG()], ansiBG[a.BG()])
		c.EnableColor()
		m.colors[a] = c
	}
	return c
}

// Render writes the changed rows of s. It reports whether anything was
// written.
func (m *ANSIMirror) Render(s *Screen) (bool, error) {
	cells, gen := s.Snapshot()
	if m.drawn && gen == m.gen {
		return false, nil
	}

	m.buf.Reset()
	if !m.drawn {
		m.buf.WriteString("\x1b[2J")
	}
	for row := 0; row < Rows; row++ {
		if m.drawn && cells[row] == m.prev[row] {
			continue
		}
		fmt.Fprintf(&m.buf, "\x1b[%d;1H", row+1)
		m.writeRow(cells[row][:])
	}
	m.buf.WriteString("\x1b[0m")
	m.prev, m.gen, m.drawn = cells, gen, true

	_, err := m.w.Write(m.buf.Bytes())
	return true, err
}

func (m *ANSIMirror) writeRow(row []Cell) {
	run := make([]byte, 0, Cols)
	attr := row[0].Attr
	flush := func() {
		if len(run) > 0 {
			m.color(attr).Fprint(&m.buf, string(run))
			run = run[:0]
		}
	}
	for _, c := range row {
		if c.Attr != attr {
			flush()
			attr = c.Attr
		}
		ch := c.Ch
		if ch < 0x20 || ch > 0x7e {
			ch = '#'
		}
		run = append(run, ch)
	}
	flush()
}
