package supervisor

import (
	"time"
)

// MetricsCollector defines the interface for collecting supervisor metrics
type MetricsCollector interface {
	// BackendStarted records a backend process spawn
	BackendStarted(mode string)

	// BackendExited records a backend process exit
	BackendExited(exitCode int)

	// ProbeCompleted records a single liveness probe
	ProbeCompleted(healthy bool, statusCode int, duration time.Duration)

	// TerminationIssued records a termination signal being sent
	TerminationIssued(ok bool)

	// RestartRequested records a restart request
	RestartRequested()
}

// noopMetricsCollector is a no-op implementation of MetricsCollector
type noopMetricsCollector struct{}

func (n *noopMetricsCollector) BackendStarted(mode string)                                         {}
func (n *noopMetricsCollector) BackendExited(exitCode int)                                         {}
func (n *noopMetricsCollector) ProbeCompleted(healthy bool, statusCode int, duration time.Duration) {}
func (n *noopMetricsCollector) TerminationIssued(ok bool)                                          {}
func (n *noopMetricsCollector) RestartRequested()                                                  {}

// NewNoopMetricsCollector creates a no-op metrics collector
func NewNoopMetricsCollector() MetricsCollector {
	return &noopMetricsCollector{}
}
