// Package metrics provides Prometheus metrics for the TalentFlow outreach
// engine. Metrics live on a private registry exposed through GetRegistry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets are milliseconds; deliveries can take seconds.
var latencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager owns every outreach metric.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Engine
	decisions        *prometheus.CounterVec
	sends            *prometheus.CounterVec
	denials          *prometheus.CounterVec
	transportLatency prometheus.Histogram
	dispatchLatency  prometheus.Histogram
	bulkResults      *prometheus.CounterVec
	statusUpdates    *prometheus.CounterVec
	stageChanges     *prometheus.CounterVec
	consentChanges   *prometheus.CounterVec

	// Scheduler
	tickDuration     prometheus.Histogram
	tickEnqueued     prometheus.Counter
	tickSkipped      prometheus.Counter
	schedulerErrors  prometheus.Counter
	inflightDispatch prometheus.Gauge

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    prometheus.Counter
	queueWait        prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerBusy              prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton behind package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "talentflow",
		subsystem:        "outreach",
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

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	m.decisions = m.counterVec("decisions_total", "Sequencer decisions by kind", "kind")
	m.sends = m.counterVec("sends_total", "Send attempts by channel and outcome", "channel", "outcome")
	m.denials = m.counterVec("consent_denials_total", "Sends blocked by the consent gate by reason", "reason")
	m.transportLatency = m.histogram("transport_latency_milliseconds", "Time spent in the delivery transport")
	m.dispatchLatency = m.histogram("dispatch_latency_milliseconds", "End-to-end time to evaluate and send one dispatch")
	m.bulkResults = m.counterVec("bulk_results_total", "Bulk send outcomes per talent", "outcome")
	m.statusUpdates = m.counterVec("status_updates_total", "Outreach event status updates by new status", "status")
	m.stageChanges = m.counterVec("stage_changes_total", "Funnel stage changes by target stage", "stage")
	m.consentChanges = m.counterVec("consent_changes_total", "Consent grants and revocations", "action")

	m.tickDuration = m.histogram("scheduler_tick_milliseconds", "Duration of one scheduler tick")
	m.tickEnqueued = m.counter("scheduler_enqueued_total", "Dispatch jobs enqueued by the scheduler")
	m.tickSkipped = m.counter("scheduler_inflight_skipped_total", "Pairs skipped because a dispatch was already in flight")
	m.schedulerErrors = m.counter("scheduler_errors_total", "Scheduler failures that did not abort a tick")
	m.inflightDispatch = m.gauge("inflight_dispatches", "Dispatch jobs enqueued and not yet finished")

	m.queueSize = m.gauge("queue_size", "Current number of queued dispatch jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued dispatch jobs")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Jobs accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Jobs handed to workers")
	m.queueRejected = m.counter("queue_rejected_total", "Jobs rejected because the queue was full or closed")
	m.queueWait = m.histogram("queue_wait_milliseconds", "Time jobs spent queued before a worker took them")

	m.workerCount = m.gauge("worker_count", "Configured number of workers")
	m.workerBusy = m.gauge("worker_busy", "Workers currently processing a job")
	m.workerMessagesPerSecond = m.gauge("worker_messages_per_second", "Jobs processed per second across the pool")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spent on one job")
	m.workerErrors = m.counter("worker_errors_total", "Jobs that ended in an error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Most recent GC pause")
}

// RecordDecision counts a sequencer decision.
func RecordDecision(kind string) { globalManager.decisions.WithLabelValues(kind).Inc() }

// RecordSend counts a send attempt. outcome is sent, failed or denied.
func RecordSend(channel, outcome string) {
	globalManager.sends.WithLabelValues(channel, outcome).Inc()
}

// RecordDenial counts a consent gate denial.
func RecordDenial(reason string) { globalManager.denials.WithLabelValues(reason).Inc() }

// RecordTransportLatency observes one transport call.
func RecordTransportLatency(latencyMs float64) { globalManager.transportLatency.Observe(latencyMs) }

// RecordDispatchLatency observes one full dispatch.
func RecordDispatchLatency(latencyMs float64) { globalManager.dispatchLatency.Observe(latencyMs) }

// RecordBulkResult adds the per-talent outcomes of a bulk send.
func RecordBulkResult(sent, skipped, failed int) {
	globalManager.bulkResults.WithLabelValues("sent").Add(float64(sent))
	globalManager.bulkResults.WithLabelValues("skipped").Add(float64(skipped))
	globalManager.bulkResults.WithLabelValues("failed").Add(float64(failed))
}

// RecordStatusUpdate counts an event status transition.
func RecordStatusUpdate(status string) { globalManager.statusUpdates.WithLabelValues(status).Inc() }

// RecordStageChange counts a funnel move.
func RecordStageChange(stage string) { globalManager.stageChanges.WithLabelValues(stage).Inc() }

// RecordConsentChange counts a consent action.
func RecordConsentChange(action string) { globalManager.consentChanges.WithLabelValues(action).Inc() }

// RecordSchedulerTick records one completed tick.
func RecordSchedulerTick(durationMs float64, enqueued, skipped int) {
	globalManager.tickDuration.Observe(durationMs)
	globalManager.tickEnqueued.Add(float64(enqueued))
	globalManager.tickSkipped.Add(float64(skipped))
}

// RecordSchedulerError counts a non-fatal scheduler failure.
func RecordSchedulerError() { globalManager.schedulerErrors.Inc() }

// UpdateInflight sets the number of in-flight dispatches.
func UpdateInflight(n int) { globalManager.inflightDispatch.Set(float64(n)) }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets size/capacity.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a job handed to a worker.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() { globalManager.queueRejected.Inc() }

// RecordQueueWait observes how long a job waited in the queue.
func RecordQueueWait(waitMs float64) { globalManager.queueWait.Observe(waitMs) }

// UpdateWorkerCount sets the configured pool size.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// WorkerBusy adjusts the busy worker gauge by delta.
func WorkerBusy(delta int) { globalManager.workerBusy.Add(float64(delta)) }

// UpdateWorkerMessagesPerSecond sets the pool throughput.
func UpdateWorkerMessagesPerSecond(rate float64) { globalManager.workerMessagesPerSecond.Set(rate) }

// RecordWorkerProcessingLatency observes one job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error attributed to a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime observes a GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry served on the metrics endpoint.
func GetRegistry() *prometheus.Registry { return customRegistry }
