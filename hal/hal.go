package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Vector is an interrupt vector number.
type Vector uint8

// The primary PIC is remapped past the CPU exceptions.
const (
	PIC1Offset Vector = 32
	PIC2Offset Vector = PIC1Offset + 8

	VectorTimer    = PIC1Offset
	VectorKeyboard = PIC1Offset + 1
)

// Handler services one interrupt. It runs with interrupts disabled and must
// not block.
type Handler func(v Vector)

// CPU is the interrupt flag of the single core.
type CPU interface {
	DisableInterrupts()
	EnableInterrupts()
	// EnableAndHalt enables interrupts and waits for the next one as a single
	// step (sti; hlt).
	EnableAndHalt()
	InterruptsEnabled() bool
}

// PIC routes hardware lines to handlers and takes end-of-interrupt
// acknowledgements. A line is not delivered again until it is acknowledged.
type PIC interface {
	Register(v Vector, h Handler)
	EndOfInterrupt(v Vector)
}

// PS2 is the keyboard controller data port.
type PS2 interface {
	ReadData() uint8
}

// PIT is the programmable interval timer.
type PIT interface {
	Hz() int
}

// Serial is a byte stream console.
type Serial interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Power turns the machine off.
type Power interface {
	Shutdown(code int)
}

// HAL provides the only contact point between the OS and the outside world.
type HAL interface {
	Logger() Logger
	Display() Display
	CPU() CPU
	PIC() PIC
	PS2() PS2
	PIT() PIT
	Serial() Serial
	Power() Power
}

// ErrHalted is returned by an app step once the kernel has halted after a
// fatal error.
var ErrHalted = errors.New("cpu halted")

// AppFactory boots an OS on h and returns its per-frame step.
type AppFactory func(h HAL) (step func() error, err error)
