// Package provider selects the leaderboard source described by configuration.
package provider

import (
	"net/http"
	"time"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source"
	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source/fixture"
	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source/talent"
	"github.com/folajindayo/builder-score-app-sub000/internal/config"
	"github.com/folajindayo/builder-score-app-sub000/pkg/logger"
)

// New returns the built-in fixture source in fixture mode, otherwise the
// upstream HTTP client wrapped with retries.
func New(cfg *config.Config, log logger.Logger) source.Source {
	if cfg.FixtureMode {
		return fixture.Default()
	}
	client := talent.NewClient(talent.Config{
		BaseURL:    cfg.LeaderboardAPIURL,
		PriceURL:   cfg.PriceAPIURL,
		APIKey:     cfg.APIKey,
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.RequestTimeoutMS) * time.Millisecond},
		PerPage:    cfg.PageSize,
	})
	backoff := time.Duration(cfg.RetryBackoffMS) * time.Millisecond
	return source.NewRetryingSource(client, log.Named("source"), cfg.RetryAttempts, backoff)
}
