package task

import "iter"

// Co is the handle a coroutine body uses to suspend itself.
type Co struct {
	cx    *Context
	yield func(struct{}) bool
}

type coDropped struct{}

// Context returns the context of the poll currently running the body.
func (co *Co) Context() *Context { return co.cx }

// Suspend reports Pending to the executor and resumes on the next poll.
// The caller must have arranged for a wake-up first.
func (co *Co) Suspend() {
	if !co.yield(struct{}{}) {
		panic(coDropped{})
	}
}

// YieldNow gives every other ready task a turn, then continues.
func (co *Co) YieldNow() {
	co.cx.Waker().Wake()
	co.Suspend()
}

// Await polls s until it yields an item, suspending between polls.
func Await[T any](co *Co, s Stream[T]) T {
	for {
		v, p := s.PollNext(co.cx)
		if p == Ready {
			return v
		}
		co.Suspend()
	}
}

// Async turns a straight-line body into a Future. Each Poll resumes the body
// from its last suspension point; the future is Ready once the body returns.
// A panic inside the body propagates out of Poll.
func Async(body func(co *Co)) Future {
	return &coFuture{body: body}
}

type coFuture struct {
	body func(co *Co)
	co   Co
	next func() (struct{}, bool)
	stop func()
	done bool
}

func (f *coFuture) Poll(cx *Context) Poll {
	if f.done {
		return Ready
	}
	if f.next == nil {
		f.next, f.stop = iter.Pull(f.run)
	}
	f.co.cx = cx
	if _, ok := f.next(); ok {
		return Pending
	}
	f.done = true
	f.stop()
	return Ready
}

func (f *coFuture) run(yield func(struct{}) bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(coDropped); ok {
				return
			}
			panic(r)
		}
	}()
	f.co.yield = yield
	f.body(&f.co)
}

// Drop stops an unfinished body; its pending Suspend unwinds.
func (f *coFuture) Drop() {
	if f.stop != nil {
		f.stop()
	}
	f.done = true
}
