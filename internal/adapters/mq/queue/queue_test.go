package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
)

func task(id string) Task {
	return model.FetchTask{TaskID: id, Kind: model.FetchPage, Sponsor: "base"}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if err := q.Enqueue(ctx, task("t1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.TaskID != "t1" {
		t.Errorf("expected t1, got %v", got.TaskID)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, id := range []string{"t1", "t2"} {
		if err := q.Enqueue(ctx, task(id)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}
	if err := q.Enqueue(ctx, task("t3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull when full, got %v", err)
	}
	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, task("t1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(50))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const producers, perProducer = 5, 40
	var consumed sync.WaitGroup
	consumed.Add(producers * perProducer)
	for i := 0; i < 4; i++ {
		go func() {
			for range q.Dequeue(ctx) {
				consumed.Done()
			}
		}()
	}

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for q.Enqueue(ctx, task(fmt.Sprintf("t%d_%d", p, j))) != nil {
					time.Sleep(time.Millisecond)
				}
			}
		}(p)
	}
	wg.Wait()

	done := make(chan struct{})
	go func() { consumed.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not every task was consumed")
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, task("t1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Enqueue(ctx, task("t2")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after closing, got %v", err)
	}

	// Queued tasks drain before the channel closes.
	ch := q.Dequeue(ctx)
	timeout := time.After(100 * time.Millisecond)
	var drained []string
	for {
		select {
		case got, ok := <-ch:
			if !ok {
				if len(drained) != 1 || drained[0] != "t1" {
					t.Errorf("expected [t1] drained, got %v", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained = append(drained, got.TaskID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}

func TestInMemoryQueue_DequeueCancelAnswersTask(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	reply := make(chan model.FetchResult, 1)
	if err := q.Enqueue(context.Background(), model.FetchTask{TaskID: "t1", Reply: reply}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	_ = q.Dequeue(ctx) // nobody reads from it
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case res := <-reply:
		if res.TaskID != "t1" || res.Err == nil {
			t.Errorf("expected cancelled result for t1, got %+v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the dropped task to be answered")
	}
}
