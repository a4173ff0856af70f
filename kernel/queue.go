package kernel

import "sync/atomic"

// ArrayQueue is a bounded multi-producer, multi-consumer FIFO.
//
// Push and Pop never block, never take a lock and never allocate, so either side
// may run in interrupt context. Every slot carries a stamp that tells producers
// and consumers whose turn it is (Vyukov's bounded queue).
type ArrayQueue[T any] struct {
	_     [0]func() // prevent accidental copying.
	head  atomic.Uint64
	tail  atomic.Uint64
	slots []queueSlot[T]
	cap   uint64
}

type queueSlot[T any] struct {
	stamp atomic.Uint64
	value T
}

// NewArrayQueue allocates a queue holding at most capacity values.
func NewArrayQueue[T any](capacity int) *ArrayQueue[T] {
	if capacity <= 0 {
		panic("kernel: queue capacity must be positive")
	}
	q := &ArrayQueue[T]{
		slots: make([]queueSlot[T], capacity),
		cap:   uint64(capacity),
	}
	for i := range q.slots {
		q.slots[i].stamp.Store(uint64(i))
	}
	return q
}

// Push appends v. It reports false, leaving the queue unchanged, when full.
func (q *ArrayQueue[T]) Push(v T) bool {
	for {
		pos := q.tail.Load()
		s := &q.slots[pos%q.cap]
		stamp := s.stamp.Load()
		switch diff := int64(stamp - pos); {
		case diff == 0:
			if q.tail.CompareAndSwap(pos, pos+1) {
				s.value = v
				s.stamp.Store(pos + 1)
				return true
			}
		case diff < 0:
			return false
		}
	}
}

// Pop removes the oldest value. It reports false when empty.
func (q *ArrayQueue[T]) Pop() (T, bool) {
	var zero T
	for {
		pos := q.head.Load()
		s := &q.slots[pos%q.cap]
		stamp := s.stamp.Load()
		switch diff := int64(stamp - (pos + 1)); {
		case diff == 0:
			if q.head.CompareAndSwap(pos, pos+1) {
				v := s.value
				s.value = zero
				s.stamp.Store(pos + q.cap)
				return v, true
			}
		case diff < 0:
			return zero, false
		}
	}
}

// Len is a snapshot; concurrent pushes and pops may change it immediately.
func (q *ArrayQueue[T]) Len() int {
	for {
		tail := q.tail.Load()
		head := q.head.Load()
		if q.tail.Load() != tail {
			continue
		}
		n := tail - head
		if int64(n) < 0 {
			return 0
		}
		if n > q.cap {
			return int(q.cap)
		}
		return int(n)
	}
}

func (q *ArrayQueue[T]) IsEmpty() bool { return q.Len() == 0 }

func (q *ArrayQueue[T]) Cap() int { return int(q.cap) }
