package supervisor

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/nexsan123/quantvision/pkg/config"
	"github.com/nexsan123/quantvision/pkg/shellerr"
)

// ProcessHandle tracks the running backend process.
// At most one handle exists at any time; it is created on successful spawn
// and cleared on confirmed exit or on Stop.
type ProcessHandle struct {
	PID       int
	Mode      LaunchMode
	StartedAt time.Time

	cmd waitable
}

// waitable abstracts exec.Cmd.Wait for exit observation
type waitable interface {
	Wait() error
}

// ExitState records how the backend process ended
type ExitState struct {
	Code   int
	Signal string
}

// HealthCheckResult is the outcome of a single liveness probe
type HealthCheckResult struct {
	Healthy    bool
	StatusCode int // 0 when the probe never reached the backend
}

// Status is a point-in-time view of the backend for the control surface
type Status struct {
	Running bool
	URL     string
	PID     int
	Uptime  time.Duration
	Probe   HealthCheckResult
}

// EventType classifies supervisor events
type EventType int

const (
	// EventStarted - a backend process was spawned
	EventStarted EventType = iota
	// EventExited - the backend process exited on its own
	EventExited
)

// String returns the string representation of an EventType
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "Started"
	case EventExited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// Event is a state-transition notification delivered to observers
type Event struct {
	Type EventType
	PID  int
	Exit *ExitState
	Time time.Time
}

// Supervisor spawns, probes and terminates the backend process
type Supervisor struct {
	mu      sync.Mutex
	startMu sync.Mutex
	cfg     config.BackendConfig
	handle  *ProcessHandle

	client  *http.Client
	term    ProcessTerminator
	metrics MetricsCollector
	diag    *Tail
	events  chan Event
}

// Option configures the Supervisor
type Option func(*Supervisor)

// WithTerminator sets the ProcessTerminator implementation
func WithTerminator(t ProcessTerminator) Option {
	return func(s *Supervisor) {
		s.term = t
	}
}

// WithMetricsCollector sets the metrics collector
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(s *Supervisor) {
		s.metrics = mc
	}
}

// WithHTTPClient sets the probe HTTP client (tests inject a fake transport)
func WithHTTPClient(c *http.Client) Option {
	return func(s *Supervisor) {
		s.client = c
	}
}

// WithDiagnosticLines sets the size of the captured output tail
func WithDiagnosticLines(n int) Option {
	return func(s *Supervisor) {
		s.diag = NewTail(n)
	}
}

// New creates a supervisor for the configured backend
func New(cfg config.BackendConfig, opts ...Option) *Supervisor {
	s := &Supervisor{
		cfg:     cfg,
		term:    NewTerminator(),
		metrics: NewNoopMetricsCollector(),
		diag:    NewTail(200),
		events:  make(chan Event, 8),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		s.client = &http.Client{Timeout: cfg.ProbeTimeout.Std()}
	}

	return s
}

// Events returns the supervisor's event channel. Events are dropped rather
// than blocking the supervisor when no one is draining the channel.
func (s *Supervisor) Events() <-chan Event {
	return s.events
}

// Start launches the backend in the given mode.
//
// If the liveness endpoint already answers (externally started backend),
// Start returns without spawning. Launch resolution failures are fatal
// shellerr errors; the caller must not proceed to show UI.
func (s *Supervisor) Start(ctx context.Context, mode LaunchMode) error {
	if s.HealthCheck(ctx).Healthy {
		log.Printf("Backend already healthy at %s, skipping spawn", s.cfg.BaseURL())
		return nil
	}

	// startMu serializes the whole check-resolve-spawn path so two
	// concurrent Starts cannot both spawn; only the handle itself is
	// shared with other methods and stays behind mu.
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	if s.handle != nil {
		pid := s.handle.PID
		s.mu.Unlock()
		log.Printf("Backend process already running (pid=%d)", pid)
		return nil
	}
	s.mu.Unlock()

	cmd, err := s.resolveCommand(mode)
	if err != nil {
		return err
	}

	// Capture output for diagnostics; an exit observation is logged, not
	// treated as a crash requiring restart.
	cmd.Stdout = s.diag
	cmd.Stderr = s.diag
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return shellerr.ErrLaunchFailed(cmd.Path, err)
	}

	handle := &ProcessHandle{
		PID:       cmd.Process.Pid,
		Mode:      mode,
		StartedAt: time.Now(),
		cmd:       cmd,
	}

	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()

	log.Printf("Backend started: mode=%s, pid=%d, url=%s", mode, handle.PID, s.cfg.BaseURL())
	s.metrics.BackendStarted(string(mode))
	s.emit(Event{Type: EventStarted, PID: handle.PID, Time: time.Now()})

	go s.reap(handle)

	return nil
}

// reap observes process exit and clears the handle if it is still current.
func (s *Supervisor) reap(handle *ProcessHandle) {
	err := handle.cmd.Wait()

	exit := exitStateFrom(err)
	log.Printf("Backend process exited: pid=%d, code=%d, signal=%q",
		handle.PID, exit.Code, exit.Signal)

	s.mu.Lock()
	if s.handle == handle {
		s.handle = nil
	}
	s.mu.Unlock()

	s.metrics.BackendExited(exit.Code)
	s.emit(Event{Type: EventExited, PID: handle.PID, Exit: &exit, Time: time.Now()})
}

// HealthCheck performs a single liveness probe. It never returns an error:
// any network failure, timeout or non-2xx status is an unhealthy result.
func (s *Supervisor) HealthCheck(ctx context.Context) HealthCheckResult {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.HealthURL(), nil)
	if err != nil {
		return HealthCheckResult{}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.ProbeCompleted(false, 0, time.Since(start))
		return HealthCheckResult{}
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode >= 200 && resp.StatusCode < 300
	s.metrics.ProbeCompleted(healthy, resp.StatusCode, time.Since(start))

	return HealthCheckResult{Healthy: healthy, StatusCode: resp.StatusCode}
}

// WaitUntilHealthy polls the liveness endpoint up to maxAttempts times,
// sleeping interval between attempts. Returns true on the first healthy
// probe, false once the budget is exhausted or the context is cancelled.
func (s *Supervisor) WaitUntilHealthy(ctx context.Context, maxAttempts int, interval time.Duration) bool {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if s.HealthCheck(ctx).Healthy {
			log.Printf("Backend healthy after %d probe(s)", attempt)
			return true
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}

	log.Printf("Backend health check budget exhausted (%d attempts)", maxAttempts)
	return false
}

// Stop terminates the backend process. Idempotent: a nil handle is a no-op.
// The termination signal is fire-and-forget; the handle is cleared without
// waiting for confirmed exit, and kill failures are logged only.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	handle := s.handle
	s.handle = nil
	s.mu.Unlock()

	if handle == nil {
		return
	}

	log.Printf("Stopping backend process: pid=%d", handle.PID)
	if err := s.term.Terminate(handle.PID); err != nil {
		// Shutdown proceeds regardless; the supervisor never blocks app
		// exit on confirmed subprocess death.
		termErr := shellerr.ErrTerminationFailed(handle.PID, err)
		log.Printf("Backend termination error: %v", termErr)
		s.metrics.TerminationIssued(false)
		return
	}

	s.metrics.TerminationIssued(true)
}

// Restart stops the backend, waits for the listening port to be released,
// then starts it again in the same way Start would.
func (s *Supervisor) Restart(ctx context.Context, mode LaunchMode) error {
	log.Printf("Restarting backend (mode=%s)", mode)
	s.metrics.RestartRequested()
	s.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.RestartDelay.Std()):
	}

	return s.Start(ctx, mode)
}

// Status reports the current backend state for the control surface.
func (s *Supervisor) Status(ctx context.Context) Status {
	probe := s.HealthCheck(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running: probe.Healthy,
		URL:     s.cfg.BaseURL(),
		Probe:   probe,
	}
	if s.handle != nil {
		st.PID = s.handle.PID
		st.Uptime = time.Since(s.handle.StartedAt)
	}
	return st
}

// DiagnosticTail returns the most recent captured backend output lines.
func (s *Supervisor) DiagnosticTail() []string {
	return s.diag.Lines()
}

// Handle returns the current process handle, or nil when no process is
// owned by the supervisor.
func (s *Supervisor) Handle() *ProcessHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

func (s *Supervisor) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		// No consumer; never block the supervisor on observation.
	}
}
