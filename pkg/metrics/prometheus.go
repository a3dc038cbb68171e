// Package metrics provides Prometheus metrics for the builder score service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Round outcomes.
const (
	OutcomeMerged = "merged"
	OutcomeStale  = "stale"
	OutcomeEmpty  = "empty"
)

// Fetch outcomes.
const (
	FetchOK    = "ok"
	FetchError = "error"
)

// latencyBuckets are in milliseconds.
var latencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Aggregation rounds
	rounds             *prometheus.CounterVec
	roundDuration      prometheus.Histogram
	roundFailedSponsor *prometheus.CounterVec
	aggregatedBuilders prometheus.Gauge

	// Upstream fetches
	fetchRequests    *prometheus.CounterVec
	fetchLatency     *prometheus.HistogramVec
	fetchRetries     *prometheus.CounterVec
	priceUnavailable *prometheus.CounterVec

	// Sessions
	activeSessions   prometheus.Gauge
	sessionsStarted  prometheus.Counter
	sessionsEvicted  prometheus.Counter
	filterGeneration prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "builderscore",
		subsystem:        "aggregator",
		histogramBuckets: latencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.rounds = m.counterVec("rounds_total", "Aggregation rounds by outcome", "outcome")
	m.roundDuration = m.histogram("round_duration_milliseconds", "Wall time of one fetch and merge round", m.histogramBuckets)
	m.roundFailedSponsor = m.counterVec("round_failed_sponsors_total", "Sponsors excluded from a round because their page fetch failed", "sponsor")
	m.aggregatedBuilders = m.gauge("aggregated_builders", "Unique builders in the most recently merged session state")

	m.fetchRequests = m.counterVec("fetch_requests_total", "Upstream fetches by kind and outcome", "kind", "outcome")
	m.fetchLatency = m.histogramVec("fetch_latency_milliseconds", "Upstream fetch latency by kind", "kind")
	m.fetchRetries = m.counterVec("fetch_retries_total", "Upstream fetch retries by kind", "kind")
	m.priceUnavailable = m.counterVec("price_unavailable_total", "Merges where a sponsor's token price was unknown", "sponsor")

	m.activeSessions = m.gauge("active_sessions", "Aggregation sessions currently held in memory")
	m.sessionsStarted = m.counter("sessions_started_total", "Aggregation sessions started")
	m.sessionsEvicted = m.counter("sessions_evicted_total", "Sessions evicted to respect the session limit")
	m.filterGeneration = m.counter("filter_changes_total", "Filter changes that reset a session")

	m.queueSize = m.gauge("queue_size", "Current number of queued fetch tasks")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Total number of fetch tasks enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Total number of fetch tasks dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")

	m.workerCount = m.gauge("worker_count", "Current number of fetch workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spends on one task", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Tasks that finished with an error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordRound counts a finished round and its duration.
func RecordRound(outcome string, durationMs float64) {
	globalManager.rounds.WithLabelValues(outcome).Inc()
	globalManager.roundDuration.Observe(durationMs)
}

// RecordFailedSponsor counts a sponsor excluded from a round.
func RecordFailedSponsor(sponsor string) {
	globalManager.roundFailedSponsor.WithLabelValues(sponsor).Inc()
}

// UpdateAggregatedBuilders sets the unique builder count of the last merge.
func UpdateAggregatedBuilders(count int) {
	globalManager.aggregatedBuilders.Set(float64(count))
}

// RecordFetch counts an upstream fetch and its latency.
func RecordFetch(kind, outcome string, latencyMs float64) {
	globalManager.fetchRequests.WithLabelValues(kind, outcome).Inc()
	globalManager.fetchLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordFetchRetry counts one retry of an upstream fetch.
func RecordFetchRetry(kind string) {
	globalManager.fetchRetries.WithLabelValues(kind).Inc()
}

// RecordPriceUnavailable counts a merge without a known token price.
func RecordPriceUnavailable(sponsor string) {
	globalManager.priceUnavailable.WithLabelValues(sponsor).Inc()
}

// UpdateActiveSessions sets the number of live sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordSessionStarted counts a new session.
func RecordSessionStarted() {
	globalManager.sessionsStarted.Inc()
}

// RecordSessionEvicted counts a session dropped by the session limit.
func RecordSessionEvicted() {
	globalManager.sessionsEvicted.Inc()
}

// RecordFilterChange counts a session reset by a filter change.
func RecordFilterChange() {
	globalManager.filterGeneration.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
