package task

import (
	"sync/atomic"

	"cbos/kernel"
)

// taskWaker re-enqueues one task. It is shared freely and stays valid after the
// task completes; the executor then skips the stale id.
type taskWaker struct {
	id    TaskID
	queue *kernel.ArrayQueue[TaskID]
	fault *deferredFault
}

// Wake pushes the task id onto the ready queue. It never blocks, so interrupt
// handlers may call it. An overflow is recorded for the run loop to raise.
func (w *taskWaker) Wake() {
	if !w.queue.Push(w.id) {
		w.fault.record(w.id)
	}
}

// deferredFault holds the first wake that found the ready queue full.
type deferredFault struct {
	id atomic.Uint64
}

func (f *deferredFault) record(id TaskID) {
	f.id.CompareAndSwap(0, uint64(id))
}

func (f *deferredFault) take() (TaskID, bool) {
	id := f.id.Swap(0)
	return TaskID(id), id != 0
}
