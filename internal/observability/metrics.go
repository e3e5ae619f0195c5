package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	auditEnqueuedTotal   *prometheus.CounterVec
	auditDroppedTotal    *prometheus.CounterVec
	auditWrittenTotal    *prometheus.CounterVec
	auditFailuresTotal   *prometheus.CounterVec
	auditQueueDepth      prometheus.Gauge
	auditStreamClients   prometheus.Gauge
	reportCacheHitsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		auditEnqueuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_enqueued_total",
			Help: "Audit documents accepted by the in-process queue.",
		}, []string{"collection"})

		auditDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_dropped_total",
			Help: "Audit documents dropped because the queue was full or closed.",
		}, []string{"collection"})

		auditWrittenTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_written_total",
			Help: "Audit documents persisted by the sink.",
		}, []string{"collection"})

		auditFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Audit documents the sink failed to persist.",
		}, []string{"collection"})

		auditQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "audit_queue_depth",
			Help: "Audit documents waiting in the in-process queue.",
		})

		auditStreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "audit_stream_clients",
			Help: "Websocket clients tailing the audit stream.",
		})

		reportCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_cache_lookups_total",
			Help: "Report cache lookups partitioned by outcome.",
		}, []string{"report", "outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			auditEnqueuedTotal,
			auditDroppedTotal,
			auditWrittenTotal,
			auditFailuresTotal,
			auditQueueDepth,
			auditStreamClients,
			reportCacheHitsTotal,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AuditEnqueued counts documents accepted by the audit queue.
func AuditEnqueued() *prometheus.CounterVec {
	RegisterMetrics()
	return auditEnqueuedTotal
}

// AuditDropped counts documents the audit queue refused.
func AuditDropped() *prometheus.CounterVec {
	RegisterMetrics()
	return auditDroppedTotal
}

// AuditWritten counts documents persisted by the sink.
func AuditWritten() *prometheus.CounterVec {
	RegisterMetrics()
	return auditWrittenTotal
}

// AuditFailures counts sink write failures.
func AuditFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return auditFailuresTotal
}

// AuditQueueDepth tracks pending documents.
func AuditQueueDepth() prometheus.Gauge {
	RegisterMetrics()
	return auditQueueDepth
}

// AuditStreamClients tracks live websocket subscribers.
func AuditStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return auditStreamClients
}

// ReportCacheLookups counts report cache hits and misses.
func ReportCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return reportCacheHitsTotal
}
