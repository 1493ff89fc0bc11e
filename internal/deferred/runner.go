package deferred

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrRunnerClosed is returned by Submit after Shutdown has begun.
var ErrRunnerClosed = errors.New("deferred runner closed")

// ErrQueueFull is returned by Submit when the task backlog is at capacity.
var ErrQueueFull = errors.New("deferred queue full")

// defaultQueueSize bounds the backlog of scheduled tasks.
const defaultQueueSize = 256

// Runner executes deferred tasks on a fixed pool of workers. Tasks run on
// contexts derived from context.Background(): by design they carry nothing
// from the request that scheduled them except what Bind captured.
type Runner struct {
	logger  *slog.Logger
	queue   chan Task
	workers int

	wg sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRunner creates a runner with the given worker count.
func NewRunner(workers int, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		logger:  logger,
		queue:   make(chan Task, defaultQueueSize),
		workers: workers,
	}
}

// Start launches the worker pool.
func (r *Runner) Start() {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
}

// Submit enqueues a task for execution. The task should already be bound;
// the runner does not inspect it.
func (r *Runner) Submit(task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRunnerClosed
	}
	select {
	case r.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting tasks and waits for the backlog to drain, or
// for ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) work() {
	defer r.wg.Done()
	for task := range r.queue {
		if err := task(context.Background()); err != nil {
			deferredTasksTotal.WithLabelValues("failure").Inc()
			r.logger.Error("deferred task failed", "error", err)
			continue
		}
		deferredTasksTotal.WithLabelValues("success").Inc()
	}
}
