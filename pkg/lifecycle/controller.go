// Package lifecycle sequences the shell's startup and shutdown.
//
// The controller walks a fixed phase machine: splash first, then the
// backend with its health polling budget, then (outside dev mode) the
// asset server, then the main surface. A backend that never becomes
// healthy or an asset server that cannot bind is fatal: the user sees a
// dialog and the shell quits instead of presenting a broken UI.
package lifecycle

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nexsan123/quantvision/pkg/shellerr"
	"github.com/nexsan123/quantvision/pkg/supervisor"
)

// Backend is the supervisor surface the controller drives
type Backend interface {
	Start(ctx context.Context, mode supervisor.LaunchMode) error
	WaitUntilHealthy(ctx context.Context, maxAttempts int, interval time.Duration) bool
	Stop()
}

// AssetHost serves the packaged UI bundle
type AssetHost interface {
	Start() error
	Stop(ctx context.Context) error
	URL() string
}

// Surface presents UI to the user
type Surface interface {
	ShowSplash() error
	ShowMain(url string) error
	Restore()
	Focus()
	Close()
}

// Dialog reports fatal conditions and asks the degraded-mode question
type Dialog interface {
	FatalError(title, message string)

	// ConfirmDegraded asks whether to keep going without a healthy
	// backend. True means continue degraded, false means quit.
	ConfirmDegraded(message string) bool
}

// Settings captures the lifecycle-relevant configuration
type Settings struct {
	DevMode       bool
	DevServerURL  string
	HealthURL     string
	MaxAttempts   int
	ProbeInterval time.Duration
}

// Controller drives the shell through its phases
type Controller struct {
	settings Settings
	backend  Backend
	assets   AssetHost
	surface  Surface
	dialog   Dialog
	tracer   trace.Tracer

	mu     sync.Mutex
	phase  Phase
	events chan Transition
}

// ControllerOption configures the Controller
type ControllerOption func(*Controller)

// WithTracer enables startup phase tracing
func WithTracer(tracer trace.Tracer) ControllerOption {
	return func(c *Controller) {
		c.tracer = tracer
	}
}

// NewController creates a lifecycle controller.
func NewController(settings Settings, backend Backend, assets AssetHost, surface Surface, dialog Dialog, opts ...ControllerOption) *Controller {
	c := &Controller{
		settings: settings,
		backend:  backend,
		assets:   assets,
		surface:  surface,
		dialog:   dialog,
		phase:    PhaseInit,
		events:   make(chan Transition, 16),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Events returns the phase transition channel. Transitions are dropped
// rather than blocking the controller when no one is draining it.
func (c *Controller) Events() <-chan Transition {
	return c.events
}

// Activate restores and focuses the main surface. Wired to the
// single-instance guard so a second launch raises the running window.
func (c *Controller) Activate() {
	c.surface.Restore()
	c.surface.Focus()
}

func (c *Controller) setPhase(to Phase, span trace.Span) {
	c.mu.Lock()
	from := c.phase
	c.phase = to
	c.mu.Unlock()

	log.Printf("Lifecycle phase: %s -> %s", from, to)
	if span != nil {
		span.AddEvent("phase", trace.WithAttributes(attribute.String("phase", to.String())))
	}

	select {
	case c.events <- Transition{From: from, To: to}:
	default:
	}
}

// Run drives startup, blocks in the running phase until ctx is cancelled,
// then tears everything down. A non-nil error means startup failed and
// the user has already been shown a fatal dialog.
func (c *Controller) Run(ctx context.Context) error {
	var span trace.Span
	if c.tracer != nil {
		var spanCtx context.Context
		spanCtx, span = c.tracer.Start(ctx, "shell.startup")
		ctx = spanCtx
		defer span.End()
	}

	c.setPhase(PhaseShowingSplash, span)
	if err := c.surface.ShowSplash(); err != nil {
		// Splash is cosmetic; startup continues without it.
		log.Printf("Splash unavailable: %v", err)
	}

	if err := c.startBackend(ctx, span); err != nil {
		c.shutdown(span)
		return err
	}

	url, err := c.resolveUI(span)
	if err != nil {
		c.shutdown(span)
		return err
	}

	c.setPhase(PhaseReady, span)
	if err := c.surface.ShowMain(url); err != nil {
		log.Printf("Main surface failed to open: %v", err)
	}

	c.setPhase(PhaseRunning, span)
	<-ctx.Done()

	c.shutdown(span)
	return nil
}

func (c *Controller) startBackend(ctx context.Context, span trace.Span) error {
	c.setPhase(PhaseStartingBackend, span)

	mode := supervisor.ModeProd
	if c.settings.DevMode {
		mode = supervisor.ModeDev
	}

	if err := c.backend.Start(ctx, mode); err != nil {
		c.setPhase(PhaseBackendFailed, span)
		c.dialog.FatalError("Backend failed to start", err.Error())
		return err
	}

	if !c.backend.WaitUntilHealthy(ctx, c.settings.MaxAttempts, c.settings.ProbeInterval) {
		c.setPhase(PhaseBackendFailed, span)
		err := shellerr.ErrHealthCheckTimeout(c.settings.HealthURL, c.settings.MaxAttempts)

		// Unlike a launch failure this is user-arbitrated: the UI can
		// still load and show whatever works without the backend.
		if c.dialog.ConfirmDegraded(err.Error()) {
			log.Printf("Continuing in degraded mode without a healthy backend")
			return nil
		}
		return err
	}

	c.setPhase(PhaseBackendReady, span)
	return nil
}

// resolveUI returns the URL the main surface should load: the live dev
// server in dev mode, otherwise the freshly started asset server.
func (c *Controller) resolveUI(span trace.Span) (string, error) {
	if c.settings.DevMode {
		log.Printf("Dev mode: attaching to development server at %s", c.settings.DevServerURL)
		return c.settings.DevServerURL, nil
	}

	c.setPhase(PhaseStartingAssetServer, span)
	if err := c.assets.Start(); err != nil {
		// Bind failure goes straight to Quitting via the caller's
		// shutdown; BackendFailed is reserved for the backend.
		c.dialog.FatalError("UI server failed to start", err.Error())
		return "", err
	}
	return c.assets.URL(), nil
}

// shutdown tears services down in reverse dependency order: the surface
// first so nothing issues new requests, then the asset server, then the
// backend.
func (c *Controller) shutdown(span trace.Span) {
	c.setPhase(PhaseQuitting, span)

	c.surface.Close()

	stopCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.assets.Stop(stopCtx); err != nil {
		log.Printf("Asset server stop failed: %v", err)
	}

	c.backend.Stop()
	log.Printf("Lifecycle complete")
}
