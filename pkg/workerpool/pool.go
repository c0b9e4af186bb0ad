package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// WorkerPool manages a pool of workers
type WorkerPool struct {
	config Config
	tasks  chan *Task
	ctx    context.Context // cancelled on forced shutdown
	cancel context.CancelFunc

	// mu orders sends on tasks before close(tasks).
	mu      sync.RWMutex
	closed  atomic.Bool
	once    sync.Once
	workers sync.WaitGroup
	pending sync.WaitGroup

	stats statsCollector
}

// NewWorkerPool starts cfg.Workers goroutines.
func NewWorkerPool(cfg Config) (*WorkerPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		config: cfg,
		tasks:  make(chan *Task, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < cfg.Workers; i++ {
		p.workers.Add(1)
		go p.worker()
	}
	return p, nil
}

func (p *WorkerPool) worker() {
	defer p.workers.Done()
	p.stats.active.Add(1)
	defer p.stats.active.Add(-1)

	for task := range p.tasks {
		p.execute(task)
	}
}

func (p *WorkerPool) execute(task *Task) {
	defer p.pending.Done()

	start := time.Now()
	failed := false
	defer func() {
		if r := recover(); r != nil {
			failed = true
			p.report(&TaskError{
				TaskID: task.ID,
				Err:    fmt.Errorf("panic: %v", r),
				Stack:  string(debug.Stack()),
			})
		}
		p.stats.record(time.Since(start), failed)
	}()

	if err := task.Ctx.Err(); err != nil {
		failed = true
		p.report(&TaskError{TaskID: task.ID, Err: err})
		return
	}
	if p.ctx.Err() != nil {
		failed = true
		p.report(&TaskError{TaskID: task.ID, Err: ErrForcedShutdown})
		return
	}

	ctx, cancel := context.WithCancel(task.Ctx)
	defer cancel()
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()

	if err := task.Fn(ctx); err != nil {
		failed = true
		p.report(&TaskError{TaskID: task.ID, Err: err})
	}
}

func (p *WorkerPool) report(err *TaskError) {
	if p.config.ErrorHandler != nil {
		p.config.ErrorHandler(err)
	}
}

// Submit queues fn, blocking while the queue is full. It returns ctx.Err()
// if ctx ends first and ErrPoolClosed once Stop has been called.
func (p *WorkerPool) Submit(ctx context.Context, fn TaskFunc) error {
	return p.submit(ctx, fn, true)
}

// TrySubmit queues fn without blocking and returns ErrQueueFull when there
// is no room.
func (p *WorkerPool) TrySubmit(ctx context.Context, fn TaskFunc) error {
	return p.submit(ctx, fn, false)
}

func (p *WorkerPool) submit(ctx context.Context, fn TaskFunc, block bool) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return ErrPoolClosed
	}

	task := newTask(ctx, fn)
	p.pending.Add(1)

	if !block {
		select {
		case p.tasks <- task:
			p.stats.submitted.Add(1)
			return nil
		default:
			p.pending.Done()
			p.stats.rejected.Add(1)
			return ErrQueueFull
		}
	}

	select {
	case p.tasks <- task:
		p.stats.submitted.Add(1)
		return nil
	case <-task.Ctx.Done():
		p.pending.Done()
		p.stats.rejected.Add(1)
		return task.Ctx.Err()
	}
}

// Wait blocks until every submitted task has finished.
func (p *WorkerPool) Wait() {
	p.pending.Wait()
}

// Stop stops accepting tasks and waits for the queue to drain, up to
// ShutdownTimeout. Tasks still queued or running after the timeout see a
// cancelled context and ErrForcedShutdown is returned.
func (p *WorkerPool) Stop() error {
	return p.StopWithContext(context.Background())
}

// StopWithContext is Stop bounded additionally by ctx.
func (p *WorkerPool) StopWithContext(ctx context.Context) error {
	var err error
	p.once.Do(func() {
		p.closed.Store(true)
		p.mu.Lock()
		close(p.tasks)
		p.mu.Unlock()

		done := make(chan struct{})
		go func() {
			p.workers.Wait()
			close(done)
		}()

		var timeout <-chan time.Time
		if p.config.ShutdownTimeout > 0 {
			timer := time.NewTimer(p.config.ShutdownTimeout)
			defer timer.Stop()
			timeout = timer.C
		}

		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("shutdown cancelled: %w", ctx.Err())
		case <-timeout:
			err = ErrForcedShutdown
		}
		p.cancel()
	})
	return err
}

// IsClosed reports whether Stop has been called.
func (p *WorkerPool) IsClosed() bool {
	return p.closed.Load()
}

// Stats returns current pool statistics.
func (p *WorkerPool) Stats() Stats {
	return p.stats.snapshot(len(p.tasks))
}
