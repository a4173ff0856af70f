package task

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbos/kernel"
)

// fakeCPU models the interrupt flag of a single core. Interrupts raised while
// the flag is clear stay pending until EnableInterrupts or EnableAndHalt.
type fakeCPU struct {
	enabled  bool
	pending  []func()
	halts    int
	enables  int
	disables int
}

func newFakeCPU() *fakeCPU { return &fakeCPU{enabled: true} }

func (c *fakeCPU) raise(isr func()) {
	if c.enabled {
		isr()
		return
	}
	c.pending = append(c.pending, isr)
}

func (c *fakeCPU) deliver() {
	for len(c.pending) > 0 {
		isr := c.pending[0]
		c.pending = c.pending[1:]
		isr()
	}
}

func (c *fakeCPU) DisableInterrupts() {
	c.disables++
	c.enabled = false
}

func (c *fakeCPU) EnableInterrupts() {
	c.enables++
	c.enabled = true
	c.deliver()
}

func (c *fakeCPU) EnableAndHalt() {
	c.halts++
	c.enabled = true
	if len(c.pending) == 0 {
		panic("fakeCPU: halted with no interrupt pending, the core would sleep forever")
	}
	c.deliver()
}

// probe is a future that completes on poll readyAt (never when zero) and counts drops.
type probe struct {
	polls   int
	readyAt int
	drops   int
	onPoll  func(cx *Context, n int)
}

func (p *probe) Poll(cx *Context) Poll {
	p.polls++
	if p.onPoll != nil {
		p.onPoll(cx, p.polls)
	}
	if p.readyAt > 0 && p.polls >= p.readyAt {
		return Ready
	}
	return Pending
}

func (p *probe) Drop() { p.drops++ }

func recoverKernelError(t *testing.T, fn func()) (kerr *kernel.Error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a fatal panic")
		var ok bool
		kerr, ok = r.(*kernel.Error)
		require.True(t, ok, "panic value %T is not *kernel.Error", r)
	}()
	fn()
	return nil
}

func TestTaskIDsAreUnique(t *testing.T) {
	const (
		workers = 8
		each    = 500
	)
	ids := make(chan TaskID, workers*each)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last TaskID
			for i := 0; i < each; i++ {
				id := New(&probe{readyAt: 1}).ID()
				if id <= last {
					t.Errorf("ids not increasing: %d after %d", id, last)
				}
				last = id
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[TaskID]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		require.NotZero(t, id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*each)
}

func TestRunCompletesAllTasks(t *testing.T) {
	cpu := newFakeCPU()
	e := NewExecutor(cpu)

	probes := []*probe{{readyAt: 1}, {readyAt: 1}, {readyAt: 1}}
	for _, p := range probes {
		e.Spawn(New(p))
	}
	require.Equal(t, 3, e.Len())

	require.NoError(t, e.Run())

	assert.Zero(t, e.Len())
	assert.Empty(t, e.wakers)
	for _, p := range probes {
		assert.Equal(t, 1, p.polls)
		assert.Equal(t, 1, p.drops)
	}
	assert.Zero(t, cpu.halts)
}

func TestRunWithNoTasksReturnsImmediately(t *testing.T) {
	e := NewExecutor(newFakeCPU())
	require.NoError(t, e.Run())
}

func TestDuplicateWakeIsIdempotent(t *testing.T) {
	e := NewExecutor(newFakeCPU())

	// First poll wakes itself twice: the second ready-queue entry is stale once
	// the task completes on its second poll.
	p := &probe{readyAt: 2, onPoll: func(cx *Context, n int) {
		if n == 1 {
			cx.Waker().Wake()
			cx.Waker().Wake()
		}
	}}
	e.Spawn(New(p))

	require.NoError(t, e.Run())
	assert.Equal(t, 2, p.polls)
	assert.Equal(t, 1, p.drops)
}

func TestDuplicateWakeFromAnotherTask(t *testing.T) {
	e := NewExecutor(newFakeCPU())

	var saved Waker
	a := &probe{readyAt: 2, onPoll: func(cx *Context, n int) {
		saved = cx.Waker()
	}}
	b := &probe{readyAt: 1, onPoll: func(cx *Context, n int) {
		saved.Wake()
		saved.Wake()
	}}
	e.Spawn(New(a))
	e.Spawn(New(b))

	require.NoError(t, e.Run())
	assert.Equal(t, 2, a.polls)
	assert.Equal(t, 1, a.drops)

	// A waker invoked after completion is a harmless no-op.
	saved.Wake()
	require.NoError(t, e.Run())
	assert.Equal(t, 2, a.polls)
}

func TestWakerIsCachedPerTask(t *testing.T) {
	e := NewExecutor(newFakeCPU())

	var wakers []Waker
	p := &probe{readyAt: 3, onPoll: func(cx *Context, n int) {
		wakers = append(wakers, cx.Waker())
		cx.Waker().Wake()
	}}
	e.Spawn(New(p))

	require.NoError(t, e.Run())
	require.Len(t, wakers, 3)
	assert.Same(t, wakers[0], wakers[1])
	assert.Same(t, wakers[1], wakers[2])
}

func TestSpawnerCreatesSiblings(t *testing.T) {
	e := NewExecutor(newFakeCPU())
	sp := e.Spawner()

	child := &probe{readyAt: 1}
	parent := &probe{readyAt: 1, onPoll: func(cx *Context, n int) {
		copied := sp
		copied.Spawn(New(child))
	}}
	e.Spawn(New(parent))

	require.NoError(t, e.Run())
	assert.Equal(t, 1, parent.polls)
	assert.Equal(t, 1, child.polls)
}

func TestSpawnDuplicateIsFatal(t *testing.T) {
	e := NewExecutor(newFakeCPU())
	tk := New(&probe{readyAt: 1})
	e.Spawn(tk)

	kerr := recoverKernelError(t, func() { e.Spawn(tk) })
	assert.ErrorIs(t, kerr, kernel.ErrDuplicateTask)
	assert.EqualValues(t, tk.ID(), kerr.TaskID)
}

func TestSpawnBeyondQueueCapacityIsFatal(t *testing.T) {
	e := NewExecutor(newFakeCPU())
	for i := 0; i < MaxQueuedTasks; i++ {
		e.Spawn(New(&probe{readyAt: 1}))
	}

	kerr := recoverKernelError(t, func() { e.Spawn(New(&probe{readyAt: 1})) })
	assert.ErrorIs(t, kerr, kernel.ErrReadyQueueFull)
}

func TestSelfWakingTasksOverflowIsFatal(t *testing.T) {
	e := NewExecutor(newFakeCPU())
	for i := 0; i < MaxQueuedTasks; i++ {
		e.Spawn(New(&probe{readyAt: 0, onPoll: func(cx *Context, n int) {
			cx.Waker().Wake()
			cx.Waker().Wake()
		}}))
	}

	err := e.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, kernel.ErrReadyQueueFull)

	var kerr *kernel.Error
	require.True(t, errors.As(err, &kerr))
	assert.Equal(t, "executor", kerr.Module)
	assert.NotZero(t, kerr.TaskID)
}

func TestSpawnOverflowInsideTaskIsFatal(t *testing.T) {
	e := NewExecutor(newFakeCPU(), WithQueueCapacity(4))
	sp := e.Spawner()
	e.Spawn(New(&probe{readyAt: 1, onPoll: func(cx *Context, n int) {
		for i := 0; i < 8; i++ {
			sp.Spawn(New(&probe{readyAt: 1}))
		}
	}}))

	err := e.Run()
	assert.ErrorIs(t, err, kernel.ErrReadyQueueFull)
}

func TestPanicInPollIsFatal(t *testing.T) {
	e := NewExecutor(newFakeCPU())
	tk := New(FutureFunc(func(cx *Context) Poll { panic("boom") }))
	e.Spawn(tk)

	err := e.Run()
	var kerr *kernel.Error
	require.True(t, errors.As(err, &kerr))
	assert.EqualValues(t, tk.ID(), kerr.TaskID)
	assert.Contains(t, kerr.Message, "boom")
	assert.NotEmpty(t, kerr.Stack)
}

func TestIdleRecheckSeesWakeBeforeDisable(t *testing.T) {
	cpu := newFakeCPU()
	e := NewExecutor(cpu)

	var saved Waker
	p := &probe{readyAt: 2, onPoll: func(cx *Context, n int) { saved = cx.Waker() }}
	e.Spawn(New(p))

	// The wake lands after the drain observed an empty queue, before the
	// executor disabled interrupts.
	e.hooks.BeforeIdle = func() {
		e.hooks.BeforeIdle = nil
		cpu.raise(func() { saved.Wake() })
	}

	require.NoError(t, e.Run())
	assert.Equal(t, 2, p.polls)
	assert.Zero(t, cpu.halts, "executor must not halt with a ready task")
	assert.Equal(t, 1, cpu.enables)
}

func TestInterruptBetweenCheckAndHaltIsNotLost(t *testing.T) {
	cpu := newFakeCPU()
	e := NewExecutor(cpu)

	var saved Waker
	p := &probe{readyAt: 2, onPoll: func(cx *Context, n int) { saved = cx.Waker() }}
	e.Spawn(New(p))

	// The interrupt fires after the recheck with interrupts disabled: it stays
	// pending and is delivered by the enable-and-halt step itself.
	e.hooks.BeforeHalt = func() {
		e.hooks.BeforeHalt = nil
		require.False(t, cpu.enabled)
		cpu.raise(func() { saved.Wake() })
	}

	require.NoError(t, e.Run())
	assert.Equal(t, 2, p.polls)
	assert.Equal(t, 1, cpu.halts)
}

func TestCloseDropsRemainingTasks(t *testing.T) {
	e := NewExecutor(newFakeCPU())
	p := &probe{readyAt: 0}
	e.Spawn(New(p))
	e.Close()
	assert.Zero(t, e.Len())
	assert.Equal(t, 1, p.drops)
}

func TestStopFromTaskDropsTheRest(t *testing.T) {
	cpu := newFakeCPU()
	e := NewExecutor(cpu)
	idle := &probe{}
	e.Spawn(New(idle))
	stopper := &probe{readyAt: 1, onPoll: func(*Context, int) { e.Stop() }}
	e.Spawn(New(stopper))

	require.NoError(t, e.Run())
	assert.Zero(t, e.Len())
	assert.Equal(t, 1, idle.polls)
	assert.Equal(t, 1, idle.drops)
	assert.Equal(t, 1, stopper.drops)
	assert.Zero(t, cpu.halts)
}

func TestStopSkipsQueuedTasks(t *testing.T) {
	e := NewExecutor(newFakeCPU())
	first := &probe{onPoll: func(*Context, int) { e.Stop() }}
	second := &probe{readyAt: 1}
	e.Spawn(New(first))
	e.Spawn(New(second))

	require.NoError(t, e.Run())
	assert.Zero(t, second.polls)
	assert.Equal(t, 1, first.drops)
	assert.Equal(t, 1, second.drops)
}
