package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbos/kernel"
)

// sliceStream yields queued values; empty polls register the waker.
type sliceStream struct {
	items []int
	waker kernel.AtomicWaker
}

func (s *sliceStream) push(v int) {
	s.items = append(s.items, v)
	s.waker.Wake()
}

func (s *sliceStream) PollNext(cx *Context) (int, Poll) {
	if len(s.items) == 0 {
		s.waker.Register(cx.Waker())
		return 0, Pending
	}
	v := s.items[0]
	s.items = s.items[1:]
	return v, Ready
}

func TestAsyncYieldNowSuspendsOnce(t *testing.T) {
	e := NewExecutor(newFakeCPU())

	var steps []int
	f := Async(func(co *Co) {
		for i := 0; i < 3; i++ {
			steps = append(steps, i)
			co.YieldNow()
		}
	})
	polls := 0
	e.Spawn(New(FutureFunc(func(cx *Context) Poll {
		polls++
		return f.Poll(cx)
	})))

	require.NoError(t, e.Run())
	assert.Equal(t, []int{0, 1, 2}, steps)
	assert.Equal(t, 4, polls)
}

func TestAwaitResumesAfterWake(t *testing.T) {
	cpu := newFakeCPU()
	e := NewExecutor(cpu)
	s := &sliceStream{}

	var got []int
	e.Spawn(Spawnable(func(co *Co) {
		for len(got) < 3 {
			got = append(got, Await[int](co, s))
		}
	}))

	// Each halt delivers one value, as a keyboard interrupt would.
	next := 1
	e.hooks.BeforeHalt = func() {
		v := next
		next++
		cpu.raise(func() { s.push(v * 10) })
	}

	require.NoError(t, e.Run())
	assert.Equal(t, []int{10, 20, 30}, got)
	assert.Equal(t, 3, cpu.halts)
}

func TestAsyncPanicIsFatal(t *testing.T) {
	e := NewExecutor(newFakeCPU())
	tk := Spawnable(func(co *Co) {
		co.YieldNow()
		panic(errors.New("body failed"))
	})
	e.Spawn(tk)

	err := e.Run()
	var kerr *kernel.Error
	require.True(t, errors.As(err, &kerr))
	assert.EqualValues(t, tk.ID(), kerr.TaskID)
	assert.EqualError(t, kerr.Err, "body failed")
}

func TestAsyncDropUnwindsSuspendedBody(t *testing.T) {
	var cleaned, resumed bool
	f := Async(func(co *Co) {
		defer func() { cleaned = true }()
		co.Suspend()
		resumed = true
	})

	cx := NewContext(kernel.WakerFunc(func() {}))
	require.Equal(t, Pending, f.Poll(cx))

	f.(dropper).Drop()
	assert.True(t, cleaned)
	assert.False(t, resumed)
	assert.Equal(t, Ready, f.Poll(cx))
}

func TestAsyncCompletedFutureStaysReady(t *testing.T) {
	runs := 0
	f := Async(func(co *Co) { runs++ })
	cx := NewContext(kernel.WakerFunc(func() {}))

	assert.Equal(t, Ready, f.Poll(cx))
	assert.Equal(t, Ready, f.Poll(cx))
	assert.Equal(t, 1, runs)
}
