// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/categorize"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory fetch task queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of fetch workers.
	WorkerCount int `koanf:"worker_count"`

	// LeaderboardAPIURL and PriceAPIURL point at the upstream APIs.
	LeaderboardAPIURL string `koanf:"leaderboard_api_url"`
	PriceAPIURL       string `koanf:"price_api_url"`

	// APIKey is sent as a bearer token to both upstreams.
	APIKey string `koanf:"api_key"`

	// RequestTimeoutMS bounds a single upstream request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// RetryAttempts and RetryBackoffMS configure the retrying source.
	RetryAttempts  int `koanf:"retry_attempts"`
	RetryBackoffMS int `koanf:"retry_backoff_ms"`

	// Sponsors is the default sponsor selection for new sessions.
	Sponsors []string `koanf:"sponsors"`

	// PageSize is the number of builders requested per sponsor page.
	PageSize int `koanf:"page_size"`

	// DisplayStep is how far each round widens the display window.
	DisplayStep int `koanf:"display_step"`

	// MaxSessions bounds live sessions; the oldest is evicted beyond it.
	MaxSessions int `koanf:"max_sessions"`

	// MaxLeaderboardLimit caps GET /sessions/{id}/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// CategoryMode is last_write_wins or exclusive.
	CategoryMode string `koanf:"category_mode"`

	// MergeByName allows display-name identity keys to merge across sponsors.
	MergeByName bool `koanf:"merge_by_name"`

	// FixtureMode serves built-in fixture data instead of calling upstreams.
	FixtureMode bool `koanf:"fixture_mode"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU() * 4,
		LeaderboardAPIURL:   "https://www.builderscore.xyz/api",
		PriceAPIURL:         "https://www.builderscore.xyz/api",
		RequestTimeoutMS:    10_000,
		RetryAttempts:       3,
		RetryBackoffMS:      200,
		Sponsors:            []string{"base", "celo"},
		PageSize:            20,
		DisplayStep:         30,
		MaxSessions:         256,
		MaxLeaderboardLimit: 500,
		CategoryMode:        string(categorize.LastWriteWins),
		MergeByName:         true,
	}
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	c.Sponsors = trimAll(c.Sponsors)

	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PageSize <= 0:
		return fmt.Errorf("%w: page_size must be positive, got %d", ErrInvalidConfig, c.PageSize)
	case c.DisplayStep <= 0:
		return fmt.Errorf("%w: display_step must be positive, got %d", ErrInvalidConfig, c.DisplayStep)
	case len(c.Sponsors) == 0:
		return fmt.Errorf("%w: sponsors must not be empty", ErrInvalidConfig)
	}
	if _, ok := categorize.ParseMode(c.CategoryMode); !ok {
		return fmt.Errorf("%w: unknown category_mode %q", ErrInvalidConfig, c.CategoryMode)
	}
	if !c.FixtureMode && c.LeaderboardAPIURL == "" {
		return fmt.Errorf("%w: leaderboard_api_url must be set unless fixture_mode is on", ErrInvalidConfig)
	}
	return nil
}

// Mode returns the parsed category mode. Call after Validate.
func (c *Config) Mode() categorize.Mode {
	m, _ := categorize.ParseMode(c.CategoryMode)
	return m
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
