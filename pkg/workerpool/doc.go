// Package workerpool runs context-aware tasks on a fixed set of goroutines.
//
// Tasks are queued on a buffered channel; Submit blocks while the queue is
// full and TrySubmit fails fast with ErrQueueFull. Task failures and panics
// are reported as *TaskError through Config.ErrorHandler. Stop drains the
// queue before returning, or cancels the remaining work once
// ShutdownTimeout expires.
//
//	pool, err := workerpool.NewWorkerPool(workerpool.Config{
//	    Workers:   4,
//	    QueueSize: 100,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Stop()
//
//	err = pool.Submit(ctx, func(ctx context.Context) error {
//	    return process(ctx, path)
//	})
package workerpool
