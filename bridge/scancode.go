// Package bridge connects interrupt handlers to the async world. Each bridge
// pairs a lock-free queue or counter, written only from interrupt context, with
// a single wake slot the consuming stream registers into.
package bridge

import (
	"sync/atomic"

	"cbos/kernel"
	"cbos/keyboard"
	"cbos/services/logger"
	"cbos/task"
)

// ScancodeQueueSize bounds the raw keyboard bytes waiting for the consumer.
const ScancodeQueueSize = 128

// Scancodes is the keyboard bridge.
type Scancodes struct {
	queue   *kernel.ArrayQueue[uint8]
	waker   kernel.AtomicWaker
	dropped atomic.Uint64
	taken   atomic.Bool
}

// NewScancodes allocates the bridge and its queue.
func NewScancodes() *Scancodes {
	return &Scancodes{queue: kernel.NewArrayQueue[uint8](ScancodeQueueSize)}
}

// Push hands one byte from the keyboard interrupt handler to the consumer.
// On a full queue the byte is dropped and counted. The consumer is woken either
// way.
func (s *Scancodes) Push(b uint8) {
	if !s.queue.Push(b) {
		s.dropped.Add(1)
	}
	s.waker.Wake()
}

// Dropped returns the number of bytes lost to a full queue.
func (s *Scancodes) Dropped() uint64 { return s.dropped.Load() }

func (s *Scancodes) claim(what string) error {
	if !s.taken.CompareAndSwap(false, true) {
		return kernel.Fatal("bridge", what+": keyboard stream already exists", kernel.ErrAlreadyInitialized)
	}
	return nil
}

// pop returns the next byte, registering cx's waker when there is none.
func (s *Scancodes) pop(cx *task.Context) (uint8, bool) {
	if b, ok := s.queue.Pop(); ok {
		return b, true
	}
	s.waker.Register(cx.Waker())
	// A push between the first pop and the registration would otherwise be missed.
	if b, ok := s.queue.Pop(); ok {
		s.waker.Take()
		return b, true
	}
	return 0, false
}

// Stream returns the consumer decoding bytes through kb. Only one consumer,
// decoded or raw, may ever exist per bridge.
func (s *Scancodes) Stream(kb *keyboard.Keyboard, log *logger.Logger) (*KeyStream, error) {
	if err := s.claim("Stream"); err != nil {
		return nil, err
	}
	return &KeyStream{src: s, kb: kb, log: log}, nil
}

// RawStream returns the consumer yielding undecoded bytes.
func (s *Scancodes) RawStream() (*ScancodeStream, error) {
	if err := s.claim("RawStream"); err != nil {
		return nil, err
	}
	return &ScancodeStream{src: s}, nil
}

// ScancodeStream yields raw bytes in arrival order.
type ScancodeStream struct {
	src *Scancodes
}

func (st *ScancodeStream) PollNext(cx *task.Context) (uint8, task.Poll) {
	if b, ok := st.src.pop(cx); ok {
		return b, task.Ready
	}
	return 0, task.Pending
}

// KeyStream yields decoded keys. A byte that completes no key (a prefix, a
// release, a modifier) is consumed and the next one is tried right away.
type KeyStream struct {
	src         *Scancodes
	kb          *keyboard.Keyboard
	log         *logger.Logger
	seenDropped uint64
}

func (st *KeyStream) PollNext(cx *task.Context) (keyboard.DecodedKey, task.Poll) {
	st.reportDrops()
	for {
		b, ok := st.src.pop(cx)
		if !ok {
			return keyboard.DecodedKey{}, task.Pending
		}
		key, ok, err := st.kb.Feed(b)
		if err != nil {
			st.log.Debug().Err(err).Log("scancode ignored")
			continue
		}
		if ok {
			return key, task.Ready
		}
	}
}

func (st *KeyStream) reportDrops() {
	n := st.src.Dropped()
	if n == st.seenDropped {
		return
	}
	st.log.Warning().Uint64("dropped", n-st.seenDropped).Log("scancode queue full")
	st.seenDropped = n
}
