package hal

import "sync"

// ps2BufferSize bounds the bytes waiting in the simulated controller.
const ps2BufferSize = 256

// PS2Port is a simulated 8042 keyboard controller. Bytes injected by the host
// raise the keyboard line; each ReadData consumes one and re-raises the line
// while more are waiting, so the handler sees one byte per interrupt.
type PS2Port struct {
	ctrl *Controller

	mu      sync.Mutex
	buf     []uint8
	dropped uint64
}

// NewPS2Port attaches a port to ctrl's keyboard line.
func NewPS2Port(ctrl *Controller) *PS2Port {
	return &PS2Port{ctrl: ctrl}
}

// Inject queues scancode bytes as if typed on the keyboard.
func (p *PS2Port) Inject(bs ...uint8) {
	if len(bs) == 0 {
		return
	}
	p.mu.Lock()
	for _, b := range bs {
		if len(p.buf) >= ps2BufferSize {
			p.dropped++
			continue
		}
		p.buf = append(p.buf, b)
	}
	p.mu.Unlock()
	p.ctrl.Raise(VectorKeyboard)
}

// InjectText queues the make and break codes for every byte of s.
func (p *PS2Port) InjectText(s string) {
	var seq []uint8
	for i := 0; i < len(s); i++ {
		seq = append(seq, ScancodesForByte(s[i])...)
	}
	p.Inject(seq...)
}

// ReadData returns the next byte, or 0 when the output buffer is empty.
func (p *PS2Port) ReadData() uint8 {
	p.mu.Lock()
	if len(p.buf) == 0 {
		p.mu.Unlock()
		return 0
	}
	b := p.buf[0]
	p.buf = p.buf[1:]
	more := len(p.buf) > 0
	p.mu.Unlock()

	if more {
		p.ctrl.Raise(VectorKeyboard)
	}
	return b
}

// Pending returns the number of bytes not yet read.
func (p *PS2Port) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

// Dropped returns the bytes lost to a full buffer.
func (p *PS2Port) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}
