// Package metrics provides Prometheus metrics for the EduStream service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Risk score buckets: one per ten points of the 0-100 scale.
var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100} //nolint:gochecknoglobals // fixed bucket layout

// Manager owns every collector exported by the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	enabled        bool
	constLabels    map[string]string
	registry       prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Risk scoring
	riskAssessments *prometheus.CounterVec
	riskScores      prometheus.Histogram
	totalStudents   prometheus.Gauge
	watchlistRuns   *prometheus.CounterVec
	watchlistCohort prometheus.Gauge

	// Record ingestion
	recordsAccepted  *prometheus.CounterVec
	recordsDuplicate *prometheus.CounterVec
	recordsRejected  *prometheus.CounterVec
	recordsPersisted *prometheus.CounterVec
	persistErrors    *prometheus.CounterVec

	// Queue and workers
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueUtilization  prometheus.Gauge
	workerCount       prometheus.Gauge
	workerLatency     prometheus.Histogram
	storeQueryLatency *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton manager behind the package-level helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "edustream",
		subsystem:      "api",
		latencyBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:        true,
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total",
		"HTTP error responses by endpoint and error type", "endpoint", "method", "error_type")

	m.riskAssessments = m.counterVec("risk_assessments_total",
		"Risk assessments computed, by resulting level", "level")
	m.riskScores = m.histogram("risk_score",
		"Distribution of computed risk scores", scoreBuckets)
	m.totalStudents = m.gauge("students_total", "Number of students in the directory")
	m.watchlistRuns = m.counterVec("watchlists_total", "Watchlists computed")
	m.watchlistCohort = m.gauge("watchlist_cohort_size", "Students scored by the last watchlist")

	m.recordsAccepted = m.counterVec("records_accepted_total",
		"Records accepted into the ingestion queue", "kind")
	m.recordsDuplicate = m.counterVec("records_duplicate_total",
		"Records dropped as duplicates of an already seen record id", "kind")
	m.recordsRejected = m.counterVec("records_rejected_total",
		"Records rejected before queueing", "kind", "reason")
	m.recordsPersisted = m.counterVec("records_persisted_total",
		"Records written to the store by workers", "kind")
	m.persistErrors = m.counterVec("record_persist_errors_total",
		"Store write failures in workers", "kind")

	m.queueSize = m.gauge("queue_size", "Current number of queued records")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued records")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.workerCount = m.gauge("worker_count", "Number of ingestion workers")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time spent persisting one record", m.latencyBuckets)
	m.storeQueryLatency = m.histogramVec("store_query_latency_milliseconds",
		"Store operation latency in milliseconds", "operation")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds",
		"Average GC pause time in milliseconds", m.latencyBuckets)
}

// RecordHTTPRequest records one request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordRiskAssessment records the level and score of one assessment.
func (m *Manager) RecordRiskAssessment(level string, score int) {
	if !m.enabled {
		return
	}
	m.riskAssessments.WithLabelValues(level).Inc()
	m.riskScores.Observe(float64(score))
}

// RecordWatchlist counts one watchlist over cohort students. It does not
// touch the per-student assessment counters.
func (m *Manager) RecordWatchlist(cohort int) {
	if !m.enabled {
		return
	}
	m.watchlistRuns.WithLabelValues().Inc()
	m.watchlistCohort.Set(float64(cohort))
}

// UpdateTotalStudents sets the directory size.
func (m *Manager) UpdateTotalStudents(count int) {
	if !m.enabled {
		return
	}
	m.totalStudents.Set(float64(count))
}

// RecordRecordAccepted counts a record accepted into the queue.
func (m *Manager) RecordRecordAccepted(kind string) {
	if !m.enabled {
		return
	}
	m.recordsAccepted.WithLabelValues(kind).Inc()
}

// RecordRecordDuplicate counts a duplicate record id.
func (m *Manager) RecordRecordDuplicate(kind string) {
	if !m.enabled {
		return
	}
	m.recordsDuplicate.WithLabelValues(kind).Inc()
}

// RecordRecordRejected counts a record refused before queueing.
func (m *Manager) RecordRecordRejected(kind, reason string) {
	if !m.enabled {
		return
	}
	m.recordsRejected.WithLabelValues(kind, reason).Inc()
}

// RecordRecordPersisted counts a record written by a worker.
func (m *Manager) RecordRecordPersisted(kind string) {
	if !m.enabled {
		return
	}
	m.recordsPersisted.WithLabelValues(kind).Inc()
}

// RecordPersistError counts a failed store write.
func (m *Manager) RecordPersistError(kind string) {
	if !m.enabled {
		return
	}
	m.persistErrors.WithLabelValues(kind).Inc()
}

// UpdateQueue sets queue size, capacity and utilization at once.
func (m *Manager) UpdateQueue(size, capacity int) {
	if !m.enabled {
		return
	}
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		m.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateWorkerCount sets the number of running workers.
func (m *Manager) UpdateWorkerCount(count int) {
	if !m.enabled {
		return
	}
	m.workerCount.Set(float64(count))
}

// RecordWorkerLatency observes the time spent persisting one record.
func (m *Manager) RecordWorkerLatency(latencyMs float64) {
	if !m.enabled {
		return
	}
	m.workerLatency.Observe(latencyMs)
}

// RecordStoreLatency observes a store operation.
func (m *Manager) RecordStoreLatency(operation string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.storeQueryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateSystem records memory, goroutine and GC pause figures.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int, avgGCPauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if avgGCPauseMs > 0 {
		m.systemGCPauseTime.Observe(avgGCPauseMs)
	}
}

// Package-level helpers bound to the global manager.

// RecordHTTPRequest records one request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records an error response on the global manager.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.RecordHTTPError(endpoint, method, errorType)
}

// RecordRiskAssessment records one assessment on the global manager.
func RecordRiskAssessment(level string, score int) {
	globalManager.RecordRiskAssessment(level, score)
}

// RecordWatchlist counts a watchlist on the global manager.
func RecordWatchlist(cohort int) { globalManager.RecordWatchlist(cohort) }

// UpdateTotalStudents sets the directory size on the global manager.
func UpdateTotalStudents(count int) { globalManager.UpdateTotalStudents(count) }

// RecordRecordAccepted counts an accepted record on the global manager.
func RecordRecordAccepted(kind string) { globalManager.RecordRecordAccepted(kind) }

// RecordRecordDuplicate counts a duplicate record on the global manager.
func RecordRecordDuplicate(kind string) { globalManager.RecordRecordDuplicate(kind) }

// RecordRecordRejected counts a rejected record on the global manager.
func RecordRecordRejected(kind, reason string) { globalManager.RecordRecordRejected(kind, reason) }

// RecordRecordPersisted counts a persisted record on the global manager.
func RecordRecordPersisted(kind string) { globalManager.RecordRecordPersisted(kind) }

// RecordPersistError counts a failed write on the global manager.
func RecordPersistError(kind string) { globalManager.RecordPersistError(kind) }

// UpdateQueue sets queue gauges on the global manager.
func UpdateQueue(size, capacity int) { globalManager.UpdateQueue(size, capacity) }

// UpdateWorkerCount sets the worker gauge on the global manager.
func UpdateWorkerCount(count int) { globalManager.UpdateWorkerCount(count) }

// RecordWorkerLatency observes worker latency on the global manager.
func RecordWorkerLatency(latencyMs float64) { globalManager.RecordWorkerLatency(latencyMs) }

// RecordStoreLatency observes store latency on the global manager.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.RecordStoreLatency(operation, latencyMs)
}

// UpdateSystem records runtime figures on the global manager.
func UpdateSystem(memBytes uint64, goroutines int, avgGCPauseMs float64) {
	globalManager.UpdateSystem(memBytes, goroutines, avgGCPauseMs)
}

// GetRegistry returns the custom registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
