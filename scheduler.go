package signaller

import (
	"context"
	"sync"
)

// Scheduler is a caller-driven FIFO queue for deferred slots. Emit only
// enqueues work; nothing runs until the owner drives the scheduler with
// RunPending or Run. A scheduler may be shared by any number of signals.
type Scheduler struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

// NewScheduler constructs an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		wake: make(chan struct{}, 1),
	}
}

// Enqueue appends fn to the queue without blocking.
func (s *Scheduler) Enqueue(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Len reports the number of queued functions.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// RunPending runs the functions queued at the time of the call, in FIFO
// order, on the calling goroutine, and returns how many ran. Functions
// enqueued while RunPending executes are left for the next pass.
func (s *Scheduler) RunPending() int {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Run drives the scheduler on the calling goroutine until ctx is cancelled,
// running queued functions as they arrive. It returns the context's error.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}
}
