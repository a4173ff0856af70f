package task

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"cbos/kernel"
	"cbos/services/logger"
)

// MaxQueuedTasks is the ready queue capacity. Overflowing it is fatal.
const MaxQueuedTasks = 128

// Processor is the slice of the CPU the executor needs to idle safely.
type Processor interface {
	DisableInterrupts()
	EnableInterrupts()
	// EnableAndHalt enables interrupts and waits for the next one as a single
	// step, so an interrupt cannot slip in between the two.
	EnableAndHalt()
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the executor's logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// WithQueueCapacity overrides MaxQueuedTasks.
func WithQueueCapacity(n int) Option {
	return func(e *Executor) { e.capacity = n }
}

type testHooks struct {
	// BeforeIdle runs after the ready queue was drained, before interrupts are disabled.
	BeforeIdle func()
	// BeforeHalt runs with interrupts disabled, after the queue was found empty.
	BeforeHalt func()
}

// Executor multiplexes tasks on one core. Tasks only run inside Run.
type Executor struct {
	cpu      Processor
	log      *logger.Logger
	capacity int

	mu    sync.Mutex
	tasks map[TaskID]*Task

	queue *kernel.ArrayQueue[TaskID]
	fault deferredFault

	// wakers is only touched by the run loop.
	wakers map[TaskID]*taskWaker

	stopped atomic.Bool

	hooks testHooks
}

// NewExecutor returns an executor idling through cpu.
func NewExecutor(cpu Processor, opts ...Option) *Executor {
	e := &Executor{
		cpu:      cpu,
		capacity: MaxQueuedTasks,
		tasks:    make(map[TaskID]*Task),
		wakers:   make(map[TaskID]*taskWaker),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.queue = kernel.NewArrayQueue[TaskID](e.capacity)
	return e
}

// Spawner returns a handle for adding tasks to this executor.
func (e *Executor) Spawner() Spawner {
	return Spawner{e: e}
}

// Spawn adds t to the executor. See Spawner.Spawn.
func (e *Executor) Spawn(t *Task) {
	e.Spawner().Spawn(t)
}

// Len returns the number of live tasks.
func (e *Executor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// Run polls ready tasks until none are left or Stop is called. It returns nil
// once every task has completed or been dropped and a *kernel.Error on a fatal
// condition: ready queue overflow, duplicate spawn or a panic escaping a poll.
func (e *Executor) Run() error {
	for {
		if err := e.runReadyTasks(); err != nil {
			return err
		}
		if e.stopped.Load() {
			e.Close()
			return nil
		}
		if e.Len() == 0 {
			return nil
		}
		e.sleepIfIdle()
	}
}

// Stop makes Run drop every remaining task and return nil once the poll in
// progress finishes. It may be called from a task.
func (e *Executor) Stop() {
	e.stopped.Store(true)
}

// Close drops every remaining task.
func (e *Executor) Close() {
	e.mu.Lock()
	tasks := e.tasks
	e.tasks = make(map[TaskID]*Task)
	e.mu.Unlock()

	for id, t := range tasks {
		t.drop()
		delete(e.wakers, id)
	}
}

func (e *Executor) runReadyTasks() error {
	for {
		id, ok := e.queue.Pop()
		if !ok {
			return e.checkFault()
		}

		e.mu.Lock()
		t := e.tasks[id]
		e.mu.Unlock()
		if t == nil {
			// Completed already; a late or duplicate wake.
			continue
		}

		w := e.wakers[id]
		if w == nil {
			w = &taskWaker{id: id, queue: e.queue, fault: &e.fault}
			e.wakers[id] = w
		}

		state, err := e.poll(t, NewContext(w))
		if err != nil {
			return err
		}
		if state == Ready {
			e.mu.Lock()
			delete(e.tasks, id)
			e.mu.Unlock()
			delete(e.wakers, id)
			t.drop()
			e.log.Debug().Uint64("task", uint64(id)).Log("task completed")
		}

		if err := e.checkFault(); err != nil {
			return err
		}
		if e.stopped.Load() {
			return nil
		}
	}
}

func (e *Executor) poll(t *Task, cx *Context) (state Poll, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if kerr, ok := r.(*kernel.Error); ok {
			if kerr.TaskID == 0 {
				kerr.TaskID = uint64(t.id)
			}
			err = kerr
			return
		}
		err = &kernel.Error{
			Module:  "executor",
			Message: fmt.Sprintf("task panicked: %v", r),
			TaskID:  uint64(t.id),
			Stack:   debug.Stack(),
		}
		if cause, ok := r.(error); ok {
			err.(*kernel.Error).Err = cause
		}
	}()
	return t.poll(cx), nil
}

func (e *Executor) checkFault() error {
	id, ok := e.fault.take()
	if !ok {
		return nil
	}
	return &kernel.Error{
		Module:  "executor",
		Message: "wake dropped",
		TaskID:  uint64(id),
		Err:     kernel.ErrReadyQueueFull,
	}
}

// sleepIfIdle halts the core until the next interrupt unless work arrived after
// the queue was drained. Interrupts stay disabled from the recheck until the halt.
func (e *Executor) sleepIfIdle() {
	if e.hooks.BeforeIdle != nil {
		e.hooks.BeforeIdle()
	}
	e.cpu.DisableInterrupts()
	if !e.queue.IsEmpty() {
		e.cpu.EnableInterrupts()
		return
	}
	if e.hooks.BeforeHalt != nil {
		e.hooks.BeforeHalt()
	}
	e.cpu.EnableAndHalt()
}
