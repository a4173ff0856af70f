package hal

import "sync"

// PowerSwitch records a shutdown request for the runner to act on.
type PowerSwitch struct {
	once sync.Once
	done chan struct{}
	code int
	off  func()
}

// NewPowerSwitch returns a switch that runs off once on the first Shutdown.
func NewPowerSwitch(off func()) *PowerSwitch {
	return &PowerSwitch{done: make(chan struct{}), off: off}
}

func (p *PowerSwitch) Shutdown(code int) {
	p.once.Do(func() {
		p.code = code
		if p.off != nil {
			p.off()
		}
		close(p.done)
	})
}

// Done is closed after Shutdown.
func (p *PowerSwitch) Done() <-chan struct{} { return p.done }

// Code returns the exit code passed to Shutdown. Only valid after Done.
func (p *PowerSwitch) Code() int { return p.code }
