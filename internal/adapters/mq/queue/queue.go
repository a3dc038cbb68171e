// Package queue holds upstream fetch tasks waiting for a worker.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
	"github.com/folajindayo/builder-score-app-sub000/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Task is the payload type flowing through the queue.
type Task = model.FetchTask

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task without blocking. It returns ErrFull when the queue
	// is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, t Task) error

	// Dequeue returns a channel that receives tasks until the queue is closed
	// or ctx is done.
	Dequeue(ctx context.Context) <-chan Task

	// Len returns the current number of queued tasks.
	Len() int

	// Close stops accepting tasks; queued tasks are still delivered.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tasks    chan Task
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan Task, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)

	return q
}

// Enqueue adds a task to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) error { //nolint:gocritic // hugeParam: tasks travel by value over the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.reject("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		q.reject("context_cancelled")
		return fmt.Errorf("enqueue %s: %w", t.TaskID, err)
	}

	select {
	case q.tasks <- t:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		q.reject("queue_full")
		return ErrFull
	}
}

func (q *InMemoryQueue) reject(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue) observe() {
	size := len(q.tasks)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Dequeue returns a channel that will receive tasks as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Task {
	out := make(chan Task)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-q.tasks:
				if !ok {
					return
				}
				select {
				case out <- t:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					// The task was taken off the queue; answer it so the
					// round waiting on it is not left hanging.
					if t.Reply != nil {
						t.Reply <- model.FetchResult{TaskID: t.TaskID, Kind: t.Kind, Sponsor: t.Sponsor, Err: ctx.Err()}
					}
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued tasks.
func (q *InMemoryQueue) Len() int {
	return len(q.tasks)
}

// Capacity returns the maximum number of queued tasks.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.tasks)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
