package kernel

import "sync/atomic"

// Waker makes a suspended task eligible for polling again.
type Waker interface {
	Wake()
}

// WakerFunc adapts a plain function to Waker.
type WakerFunc func()

func (f WakerFunc) Wake() { f() }

const (
	wakerWaiting     uint32 = 0
	wakerRegistering uint32 = 1
	wakerWaking      uint32 = 2
)

// AtomicWaker is a single wake-handle slot shared by one registering consumer
// and any number of waking producers.
//
// Wake only touches atomics, so interrupt handlers may call it. Register must not
// be called concurrently with itself.
type AtomicWaker struct {
	state atomic.Uint32
	waker Waker
}

// Register stores w as the waker to notify. A wake that races with the
// registration is delivered to w immediately.
func (a *AtomicWaker) Register(w Waker) {
	switch a.state.Load() {
	case wakerWaiting:
		if !a.state.CompareAndSwap(wakerWaiting, wakerRegistering) {
			w.Wake()
			return
		}
		a.waker = w
		if a.state.CompareAndSwap(wakerRegistering, wakerWaiting) {
			return
		}
		// A producer set the waking bit while we held the slot.
		pending := a.waker
		a.waker = nil
		a.state.Store(wakerWaiting)
		pending.Wake()
	default:
		// A producer is mid-wake and may miss w.
		w.Wake()
	}
}

// Wake invokes and clears the registered waker, if any.
func (a *AtomicWaker) Wake() {
	if w := a.Take(); w != nil {
		w.Wake()
	}
}

// Take clears the registered waker and returns it without invoking it.
func (a *AtomicWaker) Take() Waker {
	if a.state.Or(wakerWaking) != wakerWaiting {
		// Registration in progress; Register sees the bit and wakes.
		return nil
	}
	w := a.waker
	a.waker = nil
	a.state.And(^wakerWaking)
	return w
}
