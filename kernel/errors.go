package kernel

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateTask      = errors.New("duplicate task id")
	ErrReadyQueueFull     = errors.New("ready queue full")
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrInvalidStride      = errors.New("invalid tick stride")
)

// Error describes a fatal kernel condition raised by a subsystem.
type Error struct {
	// Module names the subsystem, e.g. "executor" or "bridge".
	Module string

	Message string

	// TaskID is the task being polled when the error was raised, or zero.
	TaskID uint64

	// Err is the underlying cause; it may be nil.
	Err error

	// Stack is captured for recovered panics.
	Stack []byte
}

func (e *Error) Error() string {
	msg := "[" + e.Module + "] " + e.Message
	if e.TaskID != 0 {
		msg += fmt.Sprintf(" (task %d)", e.TaskID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Fatal returns a kernel error for module wrapping err.
func Fatal(module, message string, err error) *Error {
	return &Error{Module: module, Message: message, Err: err}
}
