package workerpool

import (
	"fmt"
	"runtime"
	"time"
)

// Config for a worker pool
type Config struct {
	Workers         int           // Number of worker goroutines
	QueueSize       int           // Task queue buffer size
	ShutdownTimeout time.Duration // Max wait for the queue to drain; 0 waits forever
	ErrorHandler    func(error)   // Receives every *TaskError; may be called concurrently
}

// DefaultConfig returns one worker per CPU and a queue of 1000 tasks.
func DefaultConfig() Config {
	return Config{
		Workers:         runtime.NumCPU(),
		QueueSize:       1000,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate validates the configuration
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("%w: queue size must be >= 0, got %d", ErrInvalidConfig, c.QueueSize)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: shutdown timeout must be >= 0, got %v", ErrInvalidConfig, c.ShutdownTimeout)
	}
	return nil
}
