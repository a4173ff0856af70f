package hal

import (
	"context"
	"sync"
	"time"
)

// PIT frequency limits of channel 0 with a 16-bit divisor.
const (
	MinPITHz = 19
	MaxPITHz = 1000

	DefaultPITHz = 100
)

// PITDevice turns elapsed wall time into timer interrupts at Hz.
type PITDevice struct {
	ctrl *Controller
	hz   int

	mu    sync.Mutex
	last  time.Time
	acc   time.Duration
	fired uint64
}

// NewPITDevice attaches a timer to ctrl's timer line. Out-of-range rates are
// clamped.
func NewPITDevice(ctrl *Controller, hz int) *PITDevice {
	if hz < MinPITHz {
		hz = MinPITHz
	}
	if hz > MaxPITHz {
		hz = MaxPITHz
	}
	return &PITDevice{ctrl: ctrl, hz: hz}
}

func (p *PITDevice) Hz() int { return p.hz }

// Period returns the time between two interrupts.
func (p *PITDevice) Period() time.Duration { return time.Second / time.Duration(p.hz) }

// Step advances the timer to now and raises the timer line once per elapsed
// period. The first call only sets the reference point. It returns the number
// of periods that elapsed. Requests raised while the line is still pending
// coalesce, as on a real PIC.
func (p *PITDevice) Step(now time.Time) uint64 {
	p.mu.Lock()
	if p.last.IsZero() {
		p.last = now
		p.acc = 0
		p.mu.Unlock()
		return 0
	}
	if !now.After(p.last) {
		p.mu.Unlock()
		return 0
	}
	p.acc += now.Sub(p.last)
	p.last = now

	period := p.Period()
	n := uint64(p.acc / period)
	p.acc %= period
	p.fired += n
	p.mu.Unlock()

	for i := uint64(0); i < n; i++ {
		p.ctrl.Raise(VectorTimer)
	}
	return n
}

// Fired returns the number of periods raised so far.
func (p *PITDevice) Fired() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fired
}

// Run steps the timer from a ticker until ctx is done.
func (p *PITDevice) Run(ctx context.Context) error {
	t := time.NewTicker(p.Period())
	defer t.Stop()
	p.Step(time.Now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			p.Step(now)
		}
	}
}
