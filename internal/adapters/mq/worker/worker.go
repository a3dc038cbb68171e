package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
	"github.com/folajindayo/builder-score-app-sub000/pkg/logger"
	"github.com/folajindayo/builder-score-app-sub000/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU(); tasks are I/O bound
	poolShutdownTimeout     = 30 * time.Second
)

// Task is what workers read off the queue.
type Task = model.FetchTask

// Executor performs one fetch task. It never panics on upstream failure; the
// error is carried in the result.
type Executor interface {
	Execute(ctx context.Context, t Task) model.FetchResult
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Task
}

// Worker processes fetch tasks and replies on each task's channel.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	executor Executor
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, executor Executor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		executor: executor,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			w.process(ctx, t)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one task and delivers its result. The reply channel is
// buffered by the round that created the task, so the send never blocks.
func (w *InMemoryWorker) process(ctx context.Context, t Task) { //nolint:gocritic // hugeParam: tasks travel by value over the channel
	start := time.Now()

	res := w.executor.Execute(ctx, t)
	res.TaskID = t.TaskID
	res.Kind = t.Kind
	res.Sponsor = t.Sponsor
	res.Latency = time.Since(start)

	metrics.RecordWorkerProcessingLatency(float64(res.Latency.Milliseconds()))
	if res.Err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", string(t.Kind)+"_error")
		w.logger.Warn(ctx, "fetch task failed",
			logger.String("task_id", t.TaskID),
			logger.String("session_id", t.SessionID),
			logger.String("sponsor", t.Sponsor),
			logger.String("kind", string(t.Kind)),
			logger.Error(res.Err),
		)
	}

	if t.Reply != nil {
		t.Reply <- res
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. A count below 1 selects a default based
// on the number of CPUs.
func NewPool(workerCount int, queue Queue, executor Executor) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(queue, executor, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
