package bridge

import (
	"sync/atomic"

	"cbos/kernel"
	"cbos/task"
)

// Ticks is the timer bridge: a monotonic tick counter plus a wake slot.
type Ticks struct {
	count atomic.Uint64
	waker kernel.AtomicWaker
	taken atomic.Bool
}

// NewTicks returns a timer bridge at tick zero.
func NewTicks() *Ticks {
	return &Ticks{}
}

// Tick records one timer interrupt and wakes the consumer.
func (t *Ticks) Tick() {
	t.count.Add(1)
	t.waker.Wake()
}

// Count returns the ticks seen so far.
func (t *Ticks) Count() uint64 { return t.count.Load() }

// Stream returns the single consumer, ready once every stride ticks.
func (t *Ticks) Stream(stride uint64) (*TickStream, error) {
	if stride == 0 {
		return nil, kernel.Fatal("bridge", "tick stream stride must be positive", kernel.ErrInvalidStride)
	}
	if !t.taken.CompareAndSwap(false, true) {
		return nil, kernel.Fatal("bridge", "tick stream already exists", kernel.ErrAlreadyInitialized)
	}
	return &TickStream{src: t, stride: stride, last: t.Count()}, nil
}

// TickStream yields the tick count each time another stride has elapsed.
// The baseline advances by exactly one stride per item, so ticks beyond a
// boundary count towards the next one.
type TickStream struct {
	src    *Ticks
	stride uint64
	last   uint64
}

// Baseline returns the tick count the next stride is measured from.
func (s *TickStream) Baseline() uint64 { return s.last }

func (s *TickStream) PollNext(cx *task.Context) (uint64, task.Poll) {
	if now, ok := s.due(); ok {
		return now, task.Ready
	}
	s.src.waker.Register(cx.Waker())
	if now, ok := s.due(); ok {
		s.src.waker.Take()
		return now, task.Ready
	}
	return 0, task.Pending
}

func (s *TickStream) due() (uint64, bool) {
	now := s.src.Count()
	if now-s.last < s.stride {
		return 0, false
	}
	s.last += s.stride
	return now, true
}
