// Package metrics provides Prometheus metrics for the Bautagebuch toolkit.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager owns all Prometheus collectors of the process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Logbook
	entriesRecorded  prometheus.Counter
	entriesDeleted   prometheus.Counter
	entriesConfirmed prometheus.Counter
	activeEntries    prometheus.Gauge

	// Duplicate detection
	duplicateScans       prometheus.Counter
	duplicateComparisons prometheus.Counter
	duplicateGroups      *prometheus.GaugeVec
	scanLatency          prometheus.Histogram
	liveChecks           prometheus.Counter
	liveCheckMatches     prometheus.Counter

	// Repository
	repositoryLatency *prometheus.HistogramVec
	repositoryErrors  *prometheus.CounterVec

	// Import queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueUtilization        prometheus.Gauge
	queueEnqueued           prometheus.Counter
	queueDequeued           prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	importRows              *prometheus.CounterVec

	// Catalog
	catalogChanges *prometheus.CounterVec

	// Errors and ops endpoint
	errorsByComponent   *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// process pairs the global manager with the custom registry it registers on,
// which keeps default Go metrics out of the ops endpoint.
type process struct {
	manager  *Manager
	registry *prometheus.Registry
}

var current atomic.Pointer[process] //nolint:gochecknoglobals // process-wide metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	Init()
}

// Init replaces the global manager with one built from opts on a fresh
// registry and returns it. Values recorded before the call are dropped, so
// call it once at startup. A registry option in opts is ignored.
func Init(opts ...Option) *Manager {
	reg := prometheus.NewRegistry()
	opts = append(append([]Option{}, opts...), WithPrometheusRegistry(reg))
	m := NewManager(opts...)
	current.Store(&process{manager: m, registry: reg})
	return m
}

func global() *Manager { return current.Load().manager }

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bautagebuch",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval is how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all collectors
	auto := promauto.With(m.registry)

	m.entriesRecorded = m.counter("entries_recorded_total", "Measurement entries recorded")
	m.entriesDeleted = m.counter("entries_deleted_total", "Measurement entries removed as duplicates")
	m.entriesConfirmed = m.counter("entries_confirmed_total", "Measurement entries confirmed as not duplicate")
	m.activeEntries = m.gauge("active_entries", "Non-deleted measurement entries")

	m.duplicateScans = m.counter("duplicate_scans_total", "Duplicate detection passes")
	m.duplicateComparisons = m.counter("duplicate_comparisons_total", "Entry pairs scored by duplicate detection")
	m.duplicateGroups = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "duplicate_groups",
		Help: "Duplicate groups found by the last scan, per risk tier",
	}, []string{"risk"})
	m.scanLatency = m.histogram("duplicate_scan_latency_milliseconds", "Duration of a duplicate detection pass")
	m.liveChecks = m.counter("live_checks_total", "Live duplicate checks for unsaved entries")
	m.liveCheckMatches = m.counter("live_check_matches_total", "Candidates returned by live checks")

	m.repositoryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "repository_latency_milliseconds",
		Help:    "Repository operation latency",
		Buckets: m.histogramBuckets,
	}, []string{"operation"})
	m.repositoryErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "repository_errors_total",
		Help: "Failed repository operations",
	}, []string{"operation"})

	m.queueSize = m.gauge("import_queue_size", "Entries waiting in the import queue")
	m.queueCapacity = m.gauge("import_queue_capacity", "Capacity of the import queue")
	m.queueUtilization = m.gauge("import_queue_utilization", "Import queue fill ratio")
	m.queueEnqueued = m.counter("import_queue_enqueued_total", "Entries enqueued for import")
	m.queueDequeued = m.counter("import_queue_dequeued_total", "Entries dequeued by import workers")
	m.queueEnqueueErrors = m.counter("import_queue_enqueue_errors_total", "Rejected enqueue attempts")
	m.workerActiveCount = m.gauge("import_workers_active", "Running import workers")
	m.workerProcessingLatency = m.histogram("import_worker_latency_milliseconds", "Time to record one imported entry")
	m.importRows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "import_rows_total",
		Help: "Imported rows by outcome",
	}, []string{"result"})

	m.catalogChanges = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "catalog_changes_total",
		Help: "Catalog items added or changed, by kind and operation",
	}, []string{"kind", "operation"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_total",
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "Ops endpoint requests",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "Ops endpoint request duration",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// Global helpers. They forward to the process-wide manager.

func RecordEntryRecorded()  { global().entriesRecorded.Inc() }
func RecordEntryDeleted()   { global().entriesDeleted.Inc() }
func RecordEntryConfirmed() { global().entriesConfirmed.Inc() }

func UpdateActiveEntries(n int) { global().activeEntries.Set(float64(n)) }

// RecordDuplicateScan records one detection pass over n entries.
func RecordDuplicateScan(comparisons int, latencyMs float64) {
	global().duplicateScans.Inc()
	global().duplicateComparisons.Add(float64(comparisons))
	global().scanLatency.Observe(latencyMs)
}

// UpdateDuplicateGroups sets the group gauges of the last scan.
func UpdateDuplicateGroups(high, medium, low int) {
	global().duplicateGroups.WithLabelValues("high").Set(float64(high))
	global().duplicateGroups.WithLabelValues("medium").Set(float64(medium))
	global().duplicateGroups.WithLabelValues("low").Set(float64(low))
}

func RecordLiveCheck(matches int) {
	global().liveChecks.Inc()
	global().liveCheckMatches.Add(float64(matches))
}

func RecordRepositoryLatency(operation string, latencyMs float64) {
	global().repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

func RecordRepositoryError(operation string) {
	global().repositoryErrors.WithLabelValues(operation).Inc()
}

func UpdateQueueSize(size int)            { global().queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int)    { global().queueCapacity.Set(float64(capacity)) }
func UpdateQueueUtilization(u float64)    { global().queueUtilization.Set(u) }
func RecordQueueEnqueue()                 { global().queueEnqueued.Inc() }
func RecordQueueDequeue()                 { global().queueDequeued.Inc() }
func RecordQueueEnqueueError()            { global().queueEnqueueErrors.Inc() }
func UpdateWorkerActiveCount(count int)   { global().workerActiveCount.Set(float64(count)) }
func RecordWorkerLatency(latency float64) { global().workerProcessingLatency.Observe(latency) }
func RecordImportRow(result string)       { global().importRows.WithLabelValues(result).Inc() }

func RecordCatalogChange(kind, operation string) {
	global().catalogChanges.WithLabelValues(kind, operation).Inc()
}

func RecordErrorByComponent(component, errorType string) {
	global().errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	global().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	global().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

func UpdateSystemMemoryUsage(bytes uint64)  { global().systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(count int) { global().systemGoroutineCount.Set(float64(count)) }

// RefreshInterval returns the refresh period of the global manager.
func RefreshInterval() time.Duration { return global().RefreshInterval() }

// GetRegistry returns the registry the global manager registers on.
func GetRegistry() *prometheus.Registry {
	return current.Load().registry
}
