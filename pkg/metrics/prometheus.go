// Package metrics provides Prometheus metrics for the endotoxin limit service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
	defaultNamespace       = "endolimit"
	defaultSubsystem       = "calculator"
)

// Default histogram buckets.
var (
	defaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // read-only defaults
	defaultLimitBuckets   = []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000}    //nolint:gochecknoglobals // read-only defaults
)

// Operation outcomes used as label values.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeUnitMismatch = "unit_mismatch"
	OutcomeError        = "error"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets   []float64
	limitBuckets     []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Engine metrics
	calculations      *prometheus.CounterVec
	invalidInputs     *prometheus.CounterVec
	unitMismatches    prometheus.Counter
	readingsEvaluated *prometheus.CounterVec
	endotoxinLimit    *prometheus.HistogramVec

	// Report metrics
	reportsGenerated prometheus.Counter
	reportDuration   prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		latencyBuckets:   defaultLatencyBuckets,
		limitBuckets:     defaultLimitBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.calculations = auto.NewCounterVec(
		m.counterOpts("calculations_total", "Total number of engine operations by operation and outcome"),
		[]string{"operation", "outcome"},
	)
	m.invalidInputs = auto.NewCounterVec(
		m.counterOpts("invalid_input_total", "Total number of rejected inputs by operation"),
		[]string{"operation"},
	)
	m.unitMismatches = auto.NewCounter(
		m.counterOpts("unit_mismatch_total", "Total number of readings compared against a limit in another unit"),
	)
	m.readingsEvaluated = auto.NewCounterVec(
		m.counterOpts("readings_evaluated_total", "Total number of evaluated readings by status"),
		[]string{"status"},
	)
	m.endotoxinLimit = auto.NewHistogramVec(
		m.histogramOpts("endotoxin_limit", "Distribution of computed endotoxin limits by unit",
			m.limitBuckets),
		[]string{"unit"},
	)

	m.reportsGenerated = auto.NewCounter(
		m.counterOpts("reports_generated_total", "Total number of generated reports"),
	)
	m.reportDuration = auto.NewHistogram(
		m.histogramOpts("report_generation_duration_milliseconds", "Report generation time in milliseconds",
			[]float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds (user experience)", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of failed operations in milliseconds", m.latencyBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Allocated heap memory in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Current number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RefreshInterval returns how often system gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RecordCalculation counts one engine operation with its outcome.
func (m *Manager) RecordCalculation(operation, outcome string) {
	if !m.enabled {
		return
	}
	m.calculations.WithLabelValues(operation, outcome).Inc()
	switch outcome {
	case OutcomeInvalidInput:
		m.invalidInputs.WithLabelValues(operation).Inc()
	case OutcomeUnitMismatch:
		m.unitMismatches.Inc()
	}
}

// ObserveLimit records a computed endotoxin limit.
func (m *Manager) ObserveLimit(unit string, value float64) {
	if !m.enabled {
		return
	}
	m.endotoxinLimit.WithLabelValues(unit).Observe(value)
}

// RecordReadingEvaluated counts an evaluated reading by status.
func (m *Manager) RecordReadingEvaluated(status string) {
	if !m.enabled {
		return
	}
	m.readingsEvaluated.WithLabelValues(status).Inc()
}

// RecordReport counts a generated report and its duration.
func (m *Manager) RecordReport(durationMs float64) {
	if !m.enabled {
		return
	}
	m.reportsGenerated.Inc()
	m.reportDuration.Observe(durationMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records error metrics for a failed request.
func (m *Manager) RecordHTTPError(endpoint, method, errorType, severity string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	m.errorLatency.WithLabelValues("http", errorType).Observe(durationMs)
}

// UpdateSystem sets the system gauges.
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

// Default returns the global manager registered on GetRegistry.
func Default() *Manager { return globalManager }

// RecordCalculation counts an engine operation on the global manager.
func RecordCalculation(operation, outcome string) { globalManager.RecordCalculation(operation, outcome) }

// ObserveLimit records a computed limit on the global manager.
func ObserveLimit(unit string, value float64) { globalManager.ObserveLimit(unit, value) }

// RecordReadingEvaluated counts an evaluated reading on the global manager.
func RecordReadingEvaluated(status string) { globalManager.RecordReadingEvaluated(status) }

// RecordReport counts a generated report on the global manager.
func RecordReport(durationMs float64) { globalManager.RecordReport(durationMs) }

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records HTTP error metrics on the global manager.
func RecordHTTPError(endpoint, method, errorType, severity string, durationMs float64) {
	globalManager.RecordHTTPError(endpoint, method, errorType, severity, durationMs)
}

// UpdateSystem sets the system gauges on the global manager.
func UpdateSystem(memBytes uint64, goroutines int, avgGCPauseMs float64) {
	globalManager.UpdateSystem(memBytes, goroutines, avgGCPauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
