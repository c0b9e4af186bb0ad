package workerpool

import (
	"sync/atomic"
	"time"
)

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	ActiveWorkers  int
	QueuedTasks    int
	SubmittedTasks uint64
	CompletedTasks uint64
	FailedTasks    uint64
	RejectedTasks  uint64
	TotalDuration  time.Duration // summed execution time of finished tasks
}

// AverageDuration returns the mean execution time of finished tasks.
func (s Stats) AverageDuration() time.Duration {
	n := s.CompletedTasks + s.FailedTasks
	if n == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(n)
}

type statsCollector struct {
	active    atomic.Int64
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	rejected  atomic.Uint64
	duration  atomic.Int64
}

func (s *statsCollector) record(d time.Duration, failed bool) {
	s.duration.Add(int64(d))
	if failed {
		s.failed.Add(1)
	} else {
		s.completed.Add(1)
	}
}

func (s *statsCollector) snapshot(queued int) Stats {
	return Stats{
		ActiveWorkers:  int(s.active.Load()),
		QueuedTasks:    queued,
		SubmittedTasks: s.submitted.Load(),
		CompletedTasks: s.completed.Load(),
		FailedTasks:    s.failed.Load(),
		RejectedTasks:  s.rejected.Load(),
		TotalDuration:  time.Duration(s.duration.Load()),
	}
}
