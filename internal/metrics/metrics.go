package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Tool execution metrics
	ToolExecutionsTotal      *prometheus.CounterVec
	ToolExecutionDuration    *prometheus.HistogramVec
	ToolExecutionErrorsTotal *prometheus.CounterVec

	// Registry cache metrics
	RegistryCacheHitsTotal     prometheus.Counter
	RegistryCacheMissesTotal   prometheus.Counter
	RegistryInvalidationsTotal prometheus.Counter

	// Execution log metrics
	ExecLogWritesTotal  prometheus.Counter
	ExecLogDroppedTotal prometheus.Counter
	ExecLogQueueDepth   prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRateLimitedTotal prometheus.Counter
	WatchClientsActive   prometheus.Gauge
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		// Tool execution metrics
		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_name"},
		),
		ToolExecutionErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_execution_errors_total",
				Help: "Total number of tool execution errors",
			},
			[]string{"tool_name", "error_type"},
		),

		// Registry cache metrics
		RegistryCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "registry_cache_hits_total",
				Help: "Total number of tool registry cache hits",
			},
		),
		RegistryCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "registry_cache_misses_total",
				Help: "Total number of tool registry cache misses",
			},
		),
		RegistryInvalidationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "registry_invalidations_total",
				Help: "Total number of explicit registry cache invalidations",
			},
		),

		// Execution log metrics
		ExecLogWritesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "execlog_writes_total",
				Help: "Total number of execution log entries written",
			},
		),
		ExecLogDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "execlog_dropped_total",
				Help: "Total number of execution log entries dropped",
			},
		),
		ExecLogQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "execlog_queue_depth",
				Help: "Current depth of the execution log write queue",
			},
		),

		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		HTTPRateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Total number of rate-limited HTTP requests",
			},
		),
		WatchClientsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "watch_clients_active",
				Help: "Number of connected execution watch clients",
			},
		),
	}

	// Register all metrics
	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.ToolExecutionsTotal)
	m.registry.MustRegister(m.ToolExecutionDuration)
	m.registry.MustRegister(m.ToolExecutionErrorsTotal)

	m.registry.MustRegister(m.RegistryCacheHitsTotal)
	m.registry.MustRegister(m.RegistryCacheMissesTotal)
	m.registry.MustRegister(m.RegistryInvalidationsTotal)

	m.registry.MustRegister(m.ExecLogWritesTotal)
	m.registry.MustRegister(m.ExecLogDroppedTotal)
	m.registry.MustRegister(m.ExecLogQueueDepth)

	m.registry.MustRegister(m.HTTPRequestsTotal)
	m.registry.MustRegister(m.HTTPRateLimitedTotal)
	m.registry.MustRegister(m.WatchClientsActive)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
