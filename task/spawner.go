package task

import "cbos/kernel"

// Spawner adds tasks to the executor it came from. It is a small value; copy it
// into any task that needs to create siblings.
type Spawner struct {
	e *Executor
}

// Spawn inserts t into the task table and marks it ready.
//
// A duplicate id or a full ready queue is fatal: Spawn panics with a
// *kernel.Error, which Run reports as its result.
func (s Spawner) Spawn(t *Task) {
	e := s.e
	e.mu.Lock()
	if _, exists := e.tasks[t.id]; exists {
		e.mu.Unlock()
		panic(&kernel.Error{
			Module:  "spawner",
			Message: "task id already present",
			TaskID:  uint64(t.id),
			Err:     kernel.ErrDuplicateTask,
		})
	}
	e.tasks[t.id] = t
	e.mu.Unlock()

	if !e.queue.Push(t.id) {
		panic(&kernel.Error{
			Module:  "spawner",
			Message: "cannot queue new task",
			TaskID:  uint64(t.id),
			Err:     kernel.ErrReadyQueueFull,
		})
	}
	e.log.Debug().Uint64("task", uint64(t.id)).Log("task spawned")
}

// Len returns the number of live tasks on the underlying executor.
func (s Spawner) Len() int { return s.e.Len() }
