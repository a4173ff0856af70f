package kernel

import (
	"errors"
	"sync"
	"sync/atomic"
)

// PanicInfo contains details about the condition that stopped the kernel.
type PanicInfo struct {
	TaskID uint64
	Value  any
	Stack  []byte
}

var (
	panicActive atomic.Bool
	panicOnce   sync.Once

	panicHandler atomic.Value // func(PanicInfo)

	// haltFn parks the calling context for good. Tests replace it.
	haltFn = func() { select {} }
)

// InPanicMode reports whether the kernel is in panic mode.
func InPanicMode() bool {
	return panicActive.Load()
}

// SetPanicHandler installs a process-wide panic handler.
//
// The handler is invoked at most once (on the first panic). It must not panic.
func SetPanicHandler(fn func(PanicInfo)) {
	panicHandler.Store(fn)
}

// Halt reports info to the panic handler and stops the calling context.
// It never returns.
func Halt(info PanicInfo) {
	triggerPanic(info)
	haltFn()
}

// HaltOnError halts with err as the panic value, lifting the task id and stack
// out of a *Error when present.
func HaltOnError(err error) {
	info := PanicInfo{Value: err}
	var kerr *Error
	if errors.As(err, &kerr) {
		info.TaskID = kerr.TaskID
		info.Stack = kerr.Stack
	}
	Halt(info)
}

func triggerPanic(info PanicInfo) {
	panicOnce.Do(func() {
		panicActive.Store(true)
		if len(info.Stack) == 0 {
			info.Stack = captureStack()
		}
		if v := panicHandler.Load(); v != nil {
			if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
}
