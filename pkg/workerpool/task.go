package workerpool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// TaskFunc is the unit of work. The context is cancelled when the submitter's
// context ends or the pool is shut down forcefully.
type TaskFunc func(ctx context.Context) error

// Task is a queued TaskFunc
type Task struct {
	ID      string
	Fn      TaskFunc
	Ctx     context.Context
	Created time.Time
}

var taskCounter atomic.Uint64

func newTask(ctx context.Context, fn TaskFunc) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Task{
		ID:      fmt.Sprintf("task-%d", taskCounter.Add(1)),
		Fn:      fn,
		Ctx:     ctx,
		Created: time.Now(),
	}
}
