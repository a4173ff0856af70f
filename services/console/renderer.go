package console

import (
	"image/color"

	"cbos/fonts/font6x8"
	"cbos/hal"

	"tinygo.org/x/tinyfont"
)

// Palette maps VGA colors to RGB.
var Palette = [16]color.RGBA{
	Black:      {0x00, 0x00, 0x00, 0xff},
	Blue:       {0x00, 0x00, 0xaa, 0xff},
	Green:      {0x00, 0xaa, 0x00, 0xff},
	Cyan:       {0x00, 0xaa, 0xaa, 0xff},
	Red:        {0xaa, 0x00, 0x00, 0xff},
	Magenta:    {0xaa, 0x00, 0xaa, 0xff},
	Brown:      {0xaa, 0x55, 0x00, 0xff},
	LightGray:  {0xaa, 0xaa, 0xaa, 0xff},
	DarkGray:   {0x55, 0x55, 0x55, 0xff},
	LightBlue:  {0x55, 0x55, 0xff, 0xff},
	LightGreen: {0x55, 0xff, 0x55, 0xff},
	LightCyan:  {0x55, 0xff, 0xff, 0xff},
	LightRed:   {0xff, 0x55, 0x55, 0xff},
	Pink:       {0xff, 0x55, 0xff, 0xff},
	Yellow:     {0xff, 0xff, 0x55, 0xff},
	White:      {0xff, 0xff, 0xff, 0xff},
}

// Renderer draws a Screen onto a framebuffer, one 6x8 cell per character.
// Only cells that changed since the last frame are redrawn.
type Renderer struct {
	d     *Display
	prev  [Rows][Cols]Cell
	gen   uint64
	drawn bool
}

func NewRenderer(fb hal.Framebuffer) *Renderer {
	return &Renderer{d: NewDisplay(fb)}
}

// Render draws s if it changed and presents the frame. It reports whether
// anything was drawn.
func (r *Renderer) Render(s *Screen) (bool, error) {
	cells, gen := s.Snapshot()
	if r.drawn && gen == r.gen {
		return false, nil
	}

	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			c := cells[row][col]
			if r.drawn && c == r.prev[row][col] {
				continue
			}
			r.drawCell(row, col, c)
		}
	}
	r.prev, r.gen, r.drawn = cells, gen, true
	return true, r.d.Display()
}

func (r *Renderer) drawCell(row, col int, c Cell) {
	x := int16(col * font6x8.Width)
	y := int16(row * font6x8.Height)
	_ = r.d.FillRectangle(x, y, font6x8.Width, font6x8.Height, Palette[c.Attr.BG()])
	if c.Ch == ' ' {
		return
	}
	ch := rune(c.Ch)
	if c.Ch == 0xfe {
		ch = font6x8.Square
	}
	tinyfont.DrawChar(r.d, font6x8.Font, x, y+font6x8.Baseline, ch, Palette[c.Attr.FG()])
}
