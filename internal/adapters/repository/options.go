package repository

import "time"

const (
	defaultMaxSessions           = 256
	defaultMetricsUpdateInterval = 5 * time.Second
)

type config struct {
	maxSessions           int
	evictOldest           bool
	metricsUpdateInterval time.Duration
}

// Option applies a configuration option to the SessionStore.
type Option func(*config)

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxSessions = n
		}
	}
}

// WithEviction controls what happens at capacity: evict the oldest session
// (the default) or reject the insert with ErrCapacity.
func WithEviction(evictOldest bool) Option {
	return func(c *config) {
		c.evictOldest = evictOldest
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(c *config) {
		if interval > 0 {
			c.metricsUpdateInterval = interval
		}
	}
}
