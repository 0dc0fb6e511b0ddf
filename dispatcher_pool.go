package signaller

import "sync"

// Dispatcher submits work for execution and is responsible for running
// submitted functions. Submit must never block the caller.
type Dispatcher interface {
	Submit(func())
	Stop()
}

// GoroutineDispatcher runs every submitted function on its own goroutine.
type GoroutineDispatcher struct{}

func (GoroutineDispatcher) Submit(fn func()) {
	go fn()
}

func (GoroutineDispatcher) Stop() {}

// NewWorkerPoolDispatcher returns a Dispatcher that executes submitted
// functions on a fixed-size worker pool. If size is zero or negative,
// DefaultPoolSize workers are used. The queue is unbounded, so Submit
// always returns immediately no matter how busy the workers are.
// Submitted work runs to completion; there is no cancellation or timeout.
func NewWorkerPoolDispatcher(size int) Dispatcher {
	if size <= 0 {
		size = DefaultPoolSize
	}

	pool := &workerPoolDispatcher{}
	pool.cond = sync.NewCond(&pool.mu)
	pool.wg.Add(size)
	for i := 0; i < size; i++ {
		go pool.worker()
	}
	return pool
}

type workerPoolDispatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	stopped bool
	wg      sync.WaitGroup
	once    sync.Once
}

func (d *workerPoolDispatcher) worker() {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.stopped {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if fn != nil {
			fn()
		}
	}
}

// Submit queues fn for execution and returns immediately. Submissions after
// Stop are discarded.
func (d *workerPoolDispatcher) Submit(fn func()) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
	d.cond.Signal()
}

// Stop drains the queue, waits for the workers to finish, and releases them.
func (d *workerPoolDispatcher) Stop() {
	d.once.Do(func() {
		d.mu.Lock()
		d.stopped = true
		d.mu.Unlock()
		d.cond.Broadcast()
		d.wg.Wait()
	})
}
