package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/folajindayo/builder-score-app-sub000/pkg/metrics"
)

// SessionStore is an in-memory Store bounded by a maximum session count.
// Sessions are kept in creation order so the oldest is evicted first.
type SessionStore[T any] struct {
	mu       sync.RWMutex
	sessions *orderedmap.OrderedMap[string, T]
	cfg      config

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store[struct{}] = (*SessionStore[struct{}])(nil)

// NewSessionStore constructs a session store and starts its metrics updater.
func NewSessionStore[T any](ctx context.Context, opts ...Option) *SessionStore[T] {
	cfg := config{
		maxSessions:           defaultMaxSessions,
		evictOldest:           true,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &SessionStore[T]{
		sessions: orderedmap.New[string, T](),
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Insert implements Store.Insert.
func (s *SessionStore[T]) Insert(_ context.Context, id string, v T) ([]string, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions.Get(id); ok {
		return nil, fmt.Errorf("%s: %w", id, ErrDuplicated)
	}

	var evicted []string
	for s.sessions.Len() >= s.cfg.maxSessions {
		if !s.cfg.evictOldest {
			return nil, ErrCapacity
		}
		oldest := s.sessions.Oldest()
		s.sessions.Delete(oldest.Key)
		evicted = append(evicted, oldest.Key)
		metrics.RecordSessionEvicted()
	}

	s.sessions.Set(id, v)
	metrics.UpdateActiveSessions(s.sessions.Len())
	return evicted, nil
}

// Get implements Store.Get.
func (s *SessionStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.sessions.Get(id)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return v, nil
}

// Delete implements Store.Delete.
func (s *SessionStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions.Delete(id); !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	metrics.UpdateActiveSessions(s.sessions.Len())
	return nil
}

// Count implements Store.Count.
func (s *SessionStore[T]) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions.Len()
}

// IDs returns the live session ids, oldest first.
func (s *SessionStore[T]) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, s.sessions.Len())
	for pair := s.sessions.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}
	return ids
}

// MaxSessions returns the configured bound.
func (s *SessionStore[T]) MaxSessions() int { return s.cfg.maxSessions }

// Close stops the background metrics updater.
func (s *SessionStore[T]) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// startMetricsUpdater periodically publishes the live session count.
func (s *SessionStore[T]) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateActiveSessions(s.Count(ctx))
			}
		}
	}()
}
