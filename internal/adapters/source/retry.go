package source

import (
	"context"
	"time"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
	"github.com/folajindayo/builder-score-app-sub000/pkg/logger"
	"github.com/folajindayo/builder-score-app-sub000/pkg/metrics"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// retryingSource wraps a Source with retry and linear backoff.
type retryingSource struct {
	inner       Source
	logger      logger.Logger
	maxAttempts int
	backoffFn   backoffFunc
}

// NewRetryingSource wraps inner with retries. If maxAttempts or backoff are
// <= 0, defaults are used. Non-retryable errors return immediately.
func NewRetryingSource(inner Source, l logger.Logger, maxAttempts int, backoff time.Duration) Source {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	if l == nil {
		l = logger.Nop()
	}
	return &retryingSource{
		inner:       inner,
		logger:      l,
		maxAttempts: maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
	}
}

func (r *retryingSource) FetchPage(ctx context.Context, req model.PageRequest) (model.Page, error) {
	var page model.Page
	err := r.do(ctx, model.FetchPage, req.Sponsor, func() error {
		var err error
		page, err = r.inner.FetchPage(ctx, req)
		return err
	})
	return page, err
}

func (r *retryingSource) FetchPrice(ctx context.Context, sponsor string) (model.TokenPrice, error) {
	var price model.TokenPrice
	err := r.do(ctx, model.FetchPrice, sponsor, func() error {
		var err error
		price, err = r.inner.FetchPrice(ctx, sponsor)
		return err
	})
	return price, err
}

func (r *retryingSource) do(ctx context.Context, kind model.FetchKind, sponsor string, call func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		start := time.Now()
		err := call()
		latency := float64(time.Since(start).Milliseconds())
		if err == nil {
			metrics.RecordFetch(string(kind), metrics.FetchOK, latency)
			return nil
		}
		metrics.RecordFetch(string(kind), metrics.FetchError, latency)
		lastErr = err

		if attempt == r.maxAttempts || !IsRetryable(err) {
			break
		}

		r.logger.Warn(ctx, "upstream fetch retry",
			logger.String("kind", string(kind)),
			logger.String("sponsor", sponsor),
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", r.maxAttempts),
			logger.Error(err),
		)
		metrics.RecordFetchRetry(string(kind))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoffFn(attempt)):
		}
	}

	r.logger.Warn(ctx, "upstream fetch failed",
		logger.String("kind", string(kind)),
		logger.String("sponsor", sponsor),
		logger.Error(lastErr),
	)
	return lastErr
}
