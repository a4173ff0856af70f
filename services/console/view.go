package console

import (
	"fmt"
	"io"
	"sync"
)

// View writes into one area of a Screen with a fixed attribute. Views over
// the same area share its cursor.
type View struct {
	s    *Screen
	id   AreaID
	attr Attr

	teeMu sync.Mutex
	tee   io.Writer
}

// NewView binds a view to an area.
func NewView(s *Screen, id AreaID, fg, bg Color) *View {
	return &View{s: s, id: id, attr: NewAttr(fg, bg)}
}

func (v *View) Attr() Attr { return v.attr }

// Write prints p at the area cursor. Line feeds, carriage returns and
// backspaces move the cursor; other bytes outside printable ASCII show as a
// square. Reaching the bottom scrolls the area up.
func (v *View) Write(p []byte) (int, error) {
	v.s.mu.Lock()
	a := &v.s.areas[v.id]
	for _, b := range p {
		v.s.putByte(a, b, v.attr)
	}
	v.s.gen++
	v.s.mu.Unlock()

	v.teeMu.Lock()
	defer v.teeMu.Unlock()
	if v.tee != nil {
		v.tee.Write(p)
	}
	return len(p), nil
}

func (v *View) WriteString(s string) (int, error) {
	return v.Write([]byte(s))
}

func (v *View) Printf(format string, args ...any) {
	fmt.Fprintf(v, format, args...)
}

func (v *View) Println(args ...any) {
	fmt.Fprintln(v, args...)
}

// Clear blanks the area in the view's attribute and homes the cursor.
func (v *View) Clear() {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	a := &v.s.areas[v.id]
	for r := 0; r < a.rows; r++ {
		v.s.clearRow(a, r, v.attr)
	}
	a.row, a.col = 0, 0
	v.s.gen++
}

// SetLine replaces the first row of the area with s, cut or padded to the
// screen width. The cursor is left untouched.
func (v *View) SetLine(s string) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	a := &v.s.areas[v.id]
	row := &v.s.cells[a.offset]
	for c := range row {
		ch := byte(' ')
		if c < len(s) {
			ch = s[c]
			if ch < 0x20 || ch > 0x7e {
				ch = 0xfe
			}
		}
		row[c] = Cell{Ch: ch, Attr: v.attr}
	}
	v.s.gen++
}

// Tee copies everything written to the view to w as well. A nil w stops it.
func (v *View) Tee(w io.Writer) {
	v.teeMu.Lock()
	defer v.teeMu.Unlock()
	v.tee = w
}

// Console is the screen with its standard views.
type Console struct {
	Screen *Screen
	// Status is the top row.
	Status *View
	Stdout *View
	// Stderr shares the program area with Stdout.
	Stderr *View
	// Kernel is the bottom area for kernel messages.
	Kernel *View
}

// New returns a console with all areas cleared in their view colors.
func New() *Console {
	s := NewScreen()
	c := &Console{
		Screen: s,
		Status: NewView(s, AreaStatus, Green, Black),
		Stdout: NewView(s, AreaProgram, Yellow, Black),
		Stderr: NewView(s, AreaProgram, LightRed, Black),
		Kernel: NewView(s, AreaSpecial, Black, White),
	}
	c.Status.Clear()
	c.Stdout.Clear()
	c.Kernel.Clear()
	return c
}
