//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// HostConfig sizes the simulated machine.
type HostConfig struct {
	Width  int
	Height int
	PITHz  int
	// Log receives the kernel log lines. Defaults to os.Stderr.
	Log io.Writer
	// Serial receives what the OS writes to its serial port. Nil leaves the
	// port unplugged.
	Serial io.Writer
}

// Host is the simulated PC: one core, two PICs, a PS/2 controller, a PIT and
// a framebuffer.
type Host struct {
	logger *hostLogger
	fb     *MemFramebuffer
	ctrl   *Controller
	ps2    *PS2Port
	pit    *PITDevice
	serial *hostSerial
	power  *PowerSwitch
}

// NewHost powers on a host machine with interrupts disabled.
func NewHost(cfg HostConfig) *Host {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = DefaultWidth, DefaultHeight
	}
	if cfg.PITHz == 0 {
		cfg.PITHz = DefaultPITHz
	}
	if cfg.Log == nil {
		cfg.Log = os.Stderr
	}

	ctrl := NewController()
	return &Host{
		logger: &hostLogger{w: cfg.Log},
		fb:     NewMemFramebuffer(cfg.Width, cfg.Height),
		ctrl:   ctrl,
		ps2:    NewPS2Port(ctrl),
		pit:    NewPITDevice(ctrl, cfg.PITHz),
		serial: &hostSerial{w: cfg.Serial},
		power:  NewPowerSwitch(ctrl.Close),
	}
}

func (h *Host) Logger() Logger   { return h.logger }
func (h *Host) Display() Display { return hostDisplay{fb: h.fb} }
func (h *Host) CPU() CPU         { return h.ctrl }
func (h *Host) PIC() PIC         { return h.ctrl }
func (h *Host) PS2() PS2         { return h.ps2 }
func (h *Host) PIT() PIT         { return h.pit }
func (h *Host) Serial() Serial   { return h.serial }
func (h *Host) Power() Power     { return h.power }

// Controller exposes the interrupt controller to runners and tests.
func (h *Host) Controller() *Controller { return h.ctrl }

// PS2Port exposes the keyboard controller for input injection.
func (h *Host) PS2Port() *PS2Port { return h.ps2 }

// Timer exposes the PIT for stepping.
func (h *Host) Timer() *PITDevice { return h.pit }

// Framebuffer exposes the framebuffer to presenters.
func (h *Host) Framebuffer() *MemFramebuffer { return h.fb }

// PowerSwitch exposes the shutdown state.
func (h *Host) PowerSwitch() *PowerSwitch { return h.power }

// ShutdownError reports that the machine was powered off from inside.
type ShutdownError struct {
	Code int
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("machine powered off (exit code %d)", e.Code)
}

type hostDisplay struct {
	fb *MemFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
