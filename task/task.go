// Package task implements the cooperative executor: tasks, wakers, the bounded
// ready queue and the spawner used by running tasks to create siblings.
package task

import (
	"strconv"
	"sync/atomic"

	"cbos/kernel"
)

// TaskID identifies a task for its whole lifetime. IDs are never reused.
type TaskID uint64

func (id TaskID) String() string { return strconv.FormatUint(uint64(id), 10) }

var lastTaskID atomic.Uint64

// NextTaskID issues a fresh id from the process-wide counter.
func NextTaskID() TaskID {
	return TaskID(lastTaskID.Add(1))
}

// Poll is the outcome of advancing a computation once.
type Poll uint8

const (
	Pending Poll = iota
	Ready
)

func (p Poll) String() string {
	if p == Ready {
		return "ready"
	}
	return "pending"
}

// Waker makes a suspended task eligible for polling again.
type Waker = kernel.Waker

// Context is handed to every poll. It carries the waker of the polled task.
type Context struct {
	waker Waker
}

// NewContext returns a poll context around w.
func NewContext(w Waker) *Context {
	return &Context{waker: w}
}

func (cx *Context) Waker() Waker { return cx.waker }

// Future is a resumable computation producing no value.
type Future interface {
	Poll(cx *Context) Poll
}

// FutureFunc adapts a function to Future.
type FutureFunc func(cx *Context) Poll

func (f FutureFunc) Poll(cx *Context) Poll { return f(cx) }

// Stream is a lazy sequence whose items become available over time.
type Stream[T any] interface {
	PollNext(cx *Context) (T, Poll)
}

// dropper is implemented by futures that hold resources past completion.
type dropper interface {
	Drop()
}

// Task owns one computation and its id.
type Task struct {
	id      TaskID
	future  Future
	dropped bool
}

// New wraps f in a task with a freshly allocated id.
func New(f Future) *Task {
	return &Task{id: NextTaskID(), future: f}
}

// Spawnable wraps a coroutine body in a task.
func Spawnable(body func(co *Co)) *Task {
	return New(Async(body))
}

func (t *Task) ID() TaskID { return t.id }

func (t *Task) poll(cx *Context) Poll {
	return t.future.Poll(cx)
}

// drop releases the computation. Later calls are no-ops.
func (t *Task) drop() {
	if t.dropped {
		return
	}
	t.dropped = true
	if d, ok := t.future.(dropper); ok {
		d.Drop()
	}
	t.future = nil
}
