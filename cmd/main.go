package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/http/api"
	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source"
	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source/provider"
	service "github.com/folajindayo/builder-score-app-sub000/internal/app"
	"github.com/folajindayo/builder-score-app-sub000/internal/config"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/dedupe"
	"github.com/folajindayo/builder-score-app-sub000/pkg/logger"
	"github.com/folajindayo/builder-score-app-sub000/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(cfg.LogFormat, os.Stdout); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, provider.New(cfg, log), log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Bool("fixture_mode", cfg.FixtureMode),
			logger.Strings("default_sponsors", cfg.Sponsors),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// newService builds the aggregation service from configuration.
func newService(cfg *config.Config, src source.Source, log logger.Logger) *service.Service {
	return service.New(
		service.WithLogger(log.Named("service")),
		service.WithSource(src),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithPageSize(cfg.PageSize),
		service.WithDisplayStep(cfg.DisplayStep),
		service.WithMaxSessions(cfg.MaxSessions),
		service.WithMaxLimit(cfg.MaxLeaderboardLimit),
		service.WithCategoryMode(cfg.Mode()),
		service.WithResolver(dedupe.NewResolver(dedupe.WithNameMerging(cfg.MergeByName))),
	)
}

// newMux registers the API routes for svc.
func newMux(ctx context.Context, cfg *config.Config, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, svc,
		api.WithDefaultSponsors(cfg.Sponsors),
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
	).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater periodically records runtime metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater periodically refreshes service gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics copies GetStats values into gauges. GetStats already
// refreshes queue length and session count.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if queueSize, ok := stats["queueSize"].(int); ok {
		metrics.UpdateQueueCapacity(queueSize)
		if queueLen, ok := stats["queueLength"].(int); ok && queueSize > 0 {
			metrics.UpdateQueueUtilization(float64(queueLen) / float64(queueSize))
		}
	}
}
