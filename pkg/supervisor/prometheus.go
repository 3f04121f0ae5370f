package supervisor

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsCollector implements MetricsCollector using Prometheus metrics
type PrometheusMetricsCollector struct {
	starts       *prometheus.CounterVec
	exits        *prometheus.CounterVec
	probes       *prometheus.CounterVec
	probeLatency prometheus.Histogram
	terminations *prometheus.CounterVec
	restarts     prometheus.Counter

	registry *prometheus.Registry
}

// NewPrometheusMetricsCollector creates a new Prometheus metrics collector
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	if namespace == "" {
		namespace = "quantvision"
	}

	pmc := &PrometheusMetricsCollector{
		registry: prometheus.NewRegistry(),
	}

	pmc.starts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_starts_total",
			Help:      "Total number of backend process spawns",
		},
		[]string{"mode"},
	)

	pmc.exits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_exits_total",
			Help:      "Total number of backend process exits",
		},
		[]string{"exit_code"},
	)

	pmc.probes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_probes_total",
			Help:      "Total number of backend liveness probes",
		},
		[]string{"result"},
	)

	pmc.probeLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_probe_duration_seconds",
			Help:      "Duration of backend liveness probes",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 3},
		},
	)

	pmc.terminations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_terminations_total",
			Help:      "Total number of backend termination signals issued",
		},
		[]string{"status"},
	)

	pmc.restarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_restarts_total",
			Help:      "Total number of backend restart requests",
		},
	)

	pmc.registry.MustRegister(
		pmc.starts,
		pmc.exits,
		pmc.probes,
		pmc.probeLatency,
		pmc.terminations,
		pmc.restarts,
	)

	return pmc
}

// BackendStarted records a backend process spawn
func (pmc *PrometheusMetricsCollector) BackendStarted(mode string) {
	pmc.starts.WithLabelValues(mode).Inc()
}

// BackendExited records a backend process exit
func (pmc *PrometheusMetricsCollector) BackendExited(exitCode int) {
	pmc.exits.WithLabelValues(strconv.Itoa(exitCode)).Inc()
}

// ProbeCompleted records a single liveness probe
func (pmc *PrometheusMetricsCollector) ProbeCompleted(healthy bool, statusCode int, duration time.Duration) {
	result := "unhealthy"
	if healthy {
		result = "healthy"
	}
	pmc.probes.WithLabelValues(result).Inc()
	pmc.probeLatency.Observe(duration.Seconds())
}

// TerminationIssued records a termination signal being sent
func (pmc *PrometheusMetricsCollector) TerminationIssued(ok bool) {
	status := "failed"
	if ok {
		status = "ok"
	}
	pmc.terminations.WithLabelValues(status).Inc()
}

// RestartRequested records a restart request
func (pmc *PrometheusMetricsCollector) RestartRequested() {
	pmc.restarts.Inc()
}

// Registry returns the Prometheus registry for HTTP handler setup
func (pmc *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return pmc.registry
}
