// Package observability wires optional tracing and metrics into the shell.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/nexsan123/quantvision/pkg/config"
)

// Manager owns the tracer provider and the metrics endpoint
type Manager struct {
	cfg            config.ObservabilityConfig
	serviceName    string
	serviceVersion string
	registry       *prometheus.Registry

	tracerProvider *sdktrace.TracerProvider
	metricsServer  *http.Server
	shutdownOnce   sync.Once
}

// NewManager creates an observability manager. The registry carries the
// supervisor's metrics; nil disables the /metrics endpoint content.
func NewManager(cfg config.ObservabilityConfig, serviceName, serviceVersion string, registry *prometheus.Registry) *Manager {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Manager{
		cfg:            cfg,
		serviceName:    serviceName,
		serviceVersion: serviceVersion,
		registry:       registry,
	}
}

// Initialize sets up tracing and the metrics server per configuration.
func (m *Manager) Initialize(ctx context.Context) error {
	slog.Info("initializing observability",
		"service_name", m.serviceName,
		"service_version", m.serviceVersion,
		"metrics_port", m.cfg.MetricsPort,
		"enable_tracing", m.cfg.EnableTracing)

	if m.cfg.EnableTracing {
		if err := m.initializeTracing(ctx); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		slog.Info("OpenTelemetry tracing initialized", "exporter", m.cfg.TraceExporter)
	}

	if m.cfg.MetricsPort > 0 {
		m.startMetricsServer()
		slog.Info("metrics server started",
			"endpoint", fmt.Sprintf("http://127.0.0.1:%d/metrics", m.cfg.MetricsPort))
	}

	return nil
}

func (m *Manager) initializeTracing(ctx context.Context) error {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(m.serviceName),
			semconv.ServiceVersion(m.serviceVersion),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	if m.cfg.TraceExporter != "stdout" {
		slog.Warn("unknown trace exporter, falling back to stdout",
			"exporter", m.cfg.TraceExporter)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	m.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(m.tracerProvider)

	return nil
}

// Tracer returns a tracer for the given name.
func (m *Manager) Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func (m *Manager) startMetricsServer() {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	m.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", m.cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := m.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
}

// Shutdown flushes traces and stops the metrics server. Safe to call more
// than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	m.shutdownOnce.Do(func() {
		if m.tracerProvider != nil {
			if err := m.tracerProvider.Shutdown(ctx); err != nil {
				shutdownErr = fmt.Errorf("tracer provider shutdown: %w", err)
			}
		}

		if m.metricsServer != nil {
			if err := m.metricsServer.Shutdown(ctx); err != nil && shutdownErr == nil {
				shutdownErr = fmt.Errorf("metrics server shutdown: %w", err)
			}
		}
	})

	return shutdownErr
}
