// Package service runs builder leaderboard aggregation sessions: it fans
// sponsor fetches out to a worker pool, merges each settled round, and serves
// scored and categorised views of the result.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/mq/queue"
	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/mq/worker"
	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/repository"
	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/categorize"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/dedupe"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/scoring"
	"github.com/folajindayo/builder-score-app-sub000/pkg/logger"
	"github.com/folajindayo/builder-score-app-sub000/pkg/metrics"
)

// Default service configuration.
const (
	defaultQueueSize   = 1024
	defaultPageSize    = 20
	defaultDisplayStep = 30
	defaultMaxSessions = 256
	defaultMaxLimit    = 500
)

// Service implements the session operations used by the HTTP API and the
// export command.
type Service struct {
	mu sync.RWMutex

	// Core components
	src      source.Source
	sessions *repository.SessionStore[*session]
	tasks    *queue.InMemoryQueue
	pool     *worker.Pool
	resolver *dedupe.Resolver
	calc     *scoring.Calculator

	// Configuration
	workerCount  int
	queueSize    int
	pageSize     int
	displayStep  int
	maxSessions  int
	maxLimit     int
	categoryMode categorize.Mode

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the upstream leaderboard and price source.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.src = src
		}
	}
}

// WithWorkerCount sets the number of fetch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the fetch task queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithPageSize sets how many builders are requested per sponsor page.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithDisplayStep sets how far each round widens the display window.
func WithDisplayStep(step int) Option {
	return func(s *Service) {
		if step > 0 {
			s.displayStep = step
		}
	}
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithMaxLimit caps the window size a View may request.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithCategoryMode sets how category collisions are resolved.
func WithCategoryMode(mode categorize.Mode) Option {
	return func(s *Service) {
		if mode != "" {
			s.categoryMode = mode
		}
	}
}

// WithResolver sets the identity resolver used when merging.
func WithResolver(r *dedupe.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithCalculator sets the MCAP calculator.
func WithCalculator(c *scoring.Calculator) Option {
	return func(s *Service) {
		if c != nil {
			s.calc = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration. A source must be
// supplied with WithSource before Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    defaultQueueSize,
		pageSize:     defaultPageSize,
		displayStep:  defaultDisplayStep,
		maxSessions:  defaultMaxSessions,
		maxLimit:     defaultMaxLimit,
		categoryMode: categorize.LastWriteWins,
		resolver:     dedupe.NewResolver(),
		calc:         scoring.NewCalculator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the session store, task queue and worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.src == nil {
		return fmt.Errorf("start: %w: no source configured", ErrNotStarted)
	}

	s.logger.Info(ctx, "starting aggregation service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.sessions = repository.NewSessionStore[*session](runCtx, repository.WithMaxSessions(s.maxSessions))
	s.tasks = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.tasks, fetchExecutor{src: s.src})
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "aggregation service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("pageSize", s.pageSize),
		logger.Int("maxSessions", s.maxSessions),
		logger.String("categoryMode", string(s.categoryMode)),
	)
	return nil
}

// Stop drains the worker pool and discards all sessions.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping aggregation service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	_ = s.sessions.Close()
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "aggregation service stopped")
}

// components returns the running store and queue.
func (s *Service) components() (*repository.SessionStore[*session], *queue.InMemoryQueue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.sessions, s.tasks, nil
}

func (s *Service) lookup(ctx context.Context, id string) (*session, error) {
	store, _, err := s.components()
	if err != nil {
		return nil, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return sess, nil
}

// StartSession begins a new aggregation run over the given sponsors.
func (s *Service) StartSession(ctx context.Context, opts StartOptions) (Handle, error) {
	store, _, err := s.components()
	if err != nil {
		return Handle{}, err
	}

	opts.Sponsors = normalizeSponsors(opts.Sponsors)
	if len(opts.Sponsors) == 0 {
		return Handle{}, ErrNoSponsors
	}

	id := repository.NewID()
	evicted, err := store.Insert(ctx, id, newSession(id, opts))
	if err != nil {
		return Handle{}, fmt.Errorf("start session: %w", err)
	}
	for _, old := range evicted {
		s.logger.Info(ctx, "session evicted", logger.String("session_id", old))
	}

	metrics.RecordSessionStarted()
	s.logger.Debug(ctx, "session started",
		logger.String("session_id", id),
		logger.Strings("sponsors", opts.Sponsors),
		logger.String("time_window", opts.TimeWindow),
	)
	return Handle{ID: id}, nil
}

// EndSession discards a session. A round still in flight for it is dropped
// when it settles.
func (s *Service) EndSession(ctx context.Context, id string) error {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	sess.generation++
	sess.mu.Unlock()

	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return nil
}

// SetFilters replaces the sponsor selection and time window. Cursors, the
// aggregate, the display window and cached prices are reset, and any round in
// flight is discarded when it settles.
func (s *Service) SetFilters(ctx context.Context, id string, opts FilterOptions) error {
	opts.Sponsors = normalizeSponsors(opts.Sponsors)
	if len(opts.Sponsors) == 0 {
		return ErrNoSponsors
	}
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	sess.reset(opts)
	gen := sess.generation
	sess.mu.Unlock()

	metrics.RecordFilterChange()
	s.logger.Debug(ctx, "session filters changed",
		logger.String("session_id", id),
		logger.Strings("sponsors", opts.Sponsors),
		logger.Uint64("generation", gen),
	)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"pageSize":     s.pageSize,
		"displayStep":  s.displayStep,
		"maxSessions":  s.maxSessions,
		"categoryMode": string(s.categoryMode),
	}

	if s.started {
		ctx := context.Background()
		queueLen := s.tasks.Len()
		sessions := s.sessions.Count(ctx)

		stats["workerCount"] = s.pool.Size()
		stats["queueLength"] = queueLen
		stats["activeSessions"] = sessions

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateActiveSessions(sessions)
	}
	return stats
}
