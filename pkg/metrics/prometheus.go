// Package metrics provides Prometheus metrics for the lineup service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Run latency buckets in milliseconds; runs range from sub-millisecond to seconds.
var defaultRunBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Balance buckets cover the 0-10 rating scale summed over a handful of teams.
var defaultBalanceBuckets = []float64{0, 0.5, 1, 2, 3, 5, 8, 13, 21, 34}

// Manager owns every collector of the lineup service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Search
	formulations     *prometheus.CounterVec
	runLatency       *prometheus.HistogramVec
	totalBalance     *prometheus.HistogramVec
	swapsAccepted    *prometheus.CounterVec
	swapsRejected    *prometheus.CounterVec
	swapViolations   *prometheus.CounterVec
	playersPerRun    prometheus.Histogram
	formationInvalid *prometheus.CounterVec

	// Jobs
	jobsSubmitted  prometheus.Counter
	jobsDuplicate  prometheus.Counter
	jobsRejected   prometheus.Counter
	jobsCompleted  *prometheus.CounterVec
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	workerCount    prometheus.Gauge
	workersBusy    prometheus.Gauge
	recordsStored  prometheus.Gauge
	recordsEvicted prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // private registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lineup",
		subsystem:        "formulator",
		histogramBuckets: defaultRunBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.formulations = auto.NewCounterVec(
		m.counterOpts("formulations_total", "Team formulations by strategy and outcome"),
		[]string{"strategy", "outcome"},
	)
	m.runLatency = auto.NewHistogramVec(
		m.histogramOpts("run_duration_milliseconds", "Strategy run duration in milliseconds", m.histogramBuckets),
		[]string{"strategy"},
	)
	m.totalBalance = auto.NewHistogramVec(
		m.histogramOpts("total_balance", "Total balance score of returned partitions (lower is better)", defaultBalanceBuckets),
		[]string{"strategy"},
	)
	m.swapsAccepted = auto.NewCounterVec(
		m.counterOpts("swaps_accepted_total", "Swaps that improved the best-known partition"),
		[]string{"strategy"},
	)
	m.swapsRejected = auto.NewCounterVec(
		m.counterOpts("swaps_rejected_total", "Swaps reverted for not improving the best-known partition"),
		[]string{"strategy"},
	)
	m.swapViolations = auto.NewCounterVec(
		m.counterOpts("swap_violations_total", "Swaps reverted because a team stacked two max-rated players in one category"),
		[]string{"strategy"},
	)
	m.playersPerRun = auto.NewHistogram(
		m.histogramOpts("players_per_run", "Number of players in a formulation request", prometheus.LinearBuckets(4, 4, 10)),
	)
	m.formationInvalid = auto.NewCounterVec(
		m.counterOpts("formations_invalid_total", "Formations returned with at least one constraint-violating team"),
		[]string{"strategy"},
	)

	m.jobsSubmitted = auto.NewCounter(m.counterOpts("jobs_submitted_total", "Asynchronous jobs accepted"))
	m.jobsDuplicate = auto.NewCounter(m.counterOpts("jobs_duplicate_total", "Job submissions answered from the idempotency cache"))
	m.jobsRejected = auto.NewCounter(m.counterOpts("jobs_rejected_total", "Job submissions rejected by backpressure"))
	m.jobsCompleted = auto.NewCounterVec(
		m.counterOpts("jobs_completed_total", "Jobs finished by status"),
		[]string{"status"},
	)
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum number of queued jobs"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured worker goroutines"))
	m.workersBusy = auto.NewGauge(m.gaugeOpts("workers_busy", "Workers currently running a formulation"))
	m.recordsStored = auto.NewGauge(m.gaugeOpts("records_stored", "Job records held by the repository"))
	m.recordsEvicted = auto.NewCounter(m.counterOpts("records_evicted_total", "Job records evicted to honour the retention bound"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP error responses by endpoint and error type"),
		[]string{"endpoint", "method", "error_type"},
	)
}

// RunObservation summarises one strategy run for RecordRun.
type RunObservation struct {
	Strategy     string
	Players      int
	Duration     time.Duration
	TotalBalance float64
	Accepted     int
	Rejected     int
	Violations   int
	Valid        bool
	Err          error
}

// RecordRun records every metric derived from one strategy run.
func (m *Manager) RecordRun(o RunObservation) {
	if !m.enabled {
		return
	}
	if o.Err != nil {
		m.formulations.WithLabelValues(o.Strategy, "error").Inc()
		return
	}
	m.formulations.WithLabelValues(o.Strategy, "ok").Inc()
	m.runLatency.WithLabelValues(o.Strategy).Observe(float64(o.Duration.Microseconds()) / 1000)
	m.totalBalance.WithLabelValues(o.Strategy).Observe(o.TotalBalance)
	m.swapsAccepted.WithLabelValues(o.Strategy).Add(float64(o.Accepted))
	m.swapsRejected.WithLabelValues(o.Strategy).Add(float64(o.Rejected))
	m.swapViolations.WithLabelValues(o.Strategy).Add(float64(o.Violations))
	m.playersPerRun.Observe(float64(o.Players))
	if !o.Valid {
		m.formationInvalid.WithLabelValues(o.Strategy).Inc()
	}
}

// RecordRun records a strategy run on the global manager.
func RecordRun(o RunObservation) { globalManager.RecordRun(o) }

// RecordJobSubmitted counts an accepted job.
func RecordJobSubmitted() { globalManager.jobsSubmitted.Inc() }

// RecordJobDuplicate counts a job answered from the idempotency cache.
func RecordJobDuplicate() { globalManager.jobsDuplicate.Inc() }

// RecordJobRejected counts a job refused by backpressure.
func RecordJobRejected() { globalManager.jobsRejected.Inc() }

// RecordJobCompleted counts a finished job by status.
func RecordJobCompleted(status string) { globalManager.jobsCompleted.WithLabelValues(status).Inc() }

// UpdateQueueSize sets the queued job gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateWorkerCount sets the worker gauge.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// WorkerBusy marks a worker as running (+1) or idle (-1).
func WorkerBusy(delta int) { globalManager.workersBusy.Add(float64(delta)) }

// UpdateRecordsStored sets the stored record gauge.
func UpdateRecordsStored(count int) { globalManager.recordsStored.Set(float64(count)) }

// RecordRecordEvicted counts an evicted job record.
func RecordRecordEvicted() { globalManager.recordsEvicted.Inc() }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the registry served at /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
