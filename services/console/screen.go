// Package console models the 80x25 text display: one status row, a program
// area and a kernel area, each written through colored views. Renderers turn
// the grid into framebuffer pixels or ANSI terminal output.
package console

import (
	"strings"
	"sync"
)

// Screen geometry.
const (
	Cols = 80
	Rows = 25

	StatusRows  = 1
	ProgramRows = 20
	SpecialRows = Rows - StatusRows - ProgramRows
)

// Color is one of the 16 VGA text colors.
type Color uint8

const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	LightRed
	Pink
	Yellow
	White
)

// Attr is a VGA attribute byte: foreground in the low nibble, background in
// the high one.
type Attr uint8

func NewAttr(fg, bg Color) Attr { return Attr(bg&0x0f)<<4 | Attr(fg&0x0f) }

func (a Attr) FG() Color { return Color(a & 0x0f) }
func (a Attr) BG() Color { return Color(a >> 4) }

// Cell is one character position.
type Cell struct {
	Ch   byte
	Attr Attr
}

// AreaID names a horizontal band of the screen.
type AreaID uint8

const (
	AreaStatus AreaID = iota
	AreaProgram
	AreaSpecial
)

type area struct {
	offset int
	rows   int
	row    int
	col    int
}

// Screen is the shared character grid. All access goes through its lock;
// interrupt handlers never write to it.
type Screen struct {
	mu    sync.Mutex
	cells [Rows][Cols]Cell
	areas [3]area
	gen   uint64
}

// NewScreen returns a blank screen.
func NewScreen() *Screen {
	s := &Screen{
		areas: [3]area{
			AreaStatus:  {offset: 0, rows: StatusRows},
			AreaProgram: {offset: StatusRows, rows: ProgramRows},
			AreaSpecial: {offset: StatusRows + ProgramRows, rows: SpecialRows},
		},
	}
	for r := range s.cells {
		for c := range s.cells[r] {
			s.cells[r][c] = Cell{Ch: ' ', Attr: NewAttr(LightGray, Black)}
		}
	}
	return s
}

// Generation increases on every change.
func (s *Screen) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Snapshot copies the grid.
func (s *Screen) Snapshot() ([Rows][Cols]Cell, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cells, s.gen
}

// Cell returns the cell at an absolute position.
func (s *Screen) Cell(row, col int) Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cells[row][col]
}

// Line returns the text of an absolute row with trailing blanks removed.
func (s *Screen) Line(row int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for _, c := range s.cells[row] {
		b.WriteByte(c.Ch)
	}
	return strings.TrimRight(b.String(), " ")
}

// Cursor returns the cursor of an area, relative to the area.
func (s *Screen) Cursor(id AreaID) (row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &s.areas[id]
	return a.row, a.col
}

func (s *Screen) clearRow(a *area, row int, attr Attr) {
	for c := range s.cells[a.offset+row] {
		s.cells[a.offset+row][c] = Cell{Ch: ' ', Attr: attr}
	}
}

func (s *Screen) shiftUp(a *area, attr Attr) {
	for r := 1; r < a.rows; r++ {
		s.cells[a.offset+r-1] = s.cells[a.offset+r]
	}
	s.clearRow(a, a.rows-1, attr)
}

func (s *Screen) newLine(a *area, attr Attr) {
	a.col = 0
	a.row++
	if a.row >= a.rows {
		s.shiftUp(a, attr)
		a.row = a.rows - 1
	}
}

func (s *Screen) putByte(a *area, b byte, attr Attr) {
	switch b {
	case '\r':
		a.col = 0
	case '\n':
		s.newLine(a, attr)
	case '\b':
		if a.col > 0 {
			a.col--
		} else if a.row > 0 {
			a.row--
			a.col = Cols - 1
		}
	default:
		if b < 0x20 || b > 0x7e {
			b = 0xfe
		}
		s.cells[a.offset+a.row][a.col] = Cell{Ch: b, Attr: attr}
		a.col++
		if a.col >= Cols {
			s.newLine(a, attr)
		}
	}
}
