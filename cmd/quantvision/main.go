// Command quantvision is the desktop host shell for the QuantVision
// workbench. It supervises the analytics backend, serves the packaged UI
// bundle, exposes the control surface the UI calls into, and enforces the
// single-instance guarantee.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nexsan123/quantvision/pkg/assets"
	"github.com/nexsan123/quantvision/pkg/config"
	"github.com/nexsan123/quantvision/pkg/gateway"
	"github.com/nexsan123/quantvision/pkg/instance"
	"github.com/nexsan123/quantvision/pkg/lifecycle"
	"github.com/nexsan123/quantvision/pkg/observability"
	"github.com/nexsan123/quantvision/pkg/platform"
	"github.com/nexsan123/quantvision/pkg/supervisor"
)

// Populated at build time via -ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	var (
		configPath string
		devMode    bool
	)

	rootCmd := &cobra.Command{
		Use:          "quantvision",
		Short:        "QuantVision desktop workbench host",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), configPath, devMode)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.Flags().BoolVar(&devMode, "dev", false, "attach to the UI dev server and launch the backend from sources")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quantvision %s (commit %s, built %s, %s/%s)\n",
				version, commit, buildDate, runtime.GOOS, runtime.GOARCH)
		},
	}
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runShell(ctx context.Context, configPath string, devFlag bool) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return err
	}
	if devFlag {
		cfg.App.DevMode = true
	}

	log.Printf("quantvision %s starting: platform=%s, dev=%v, data=%s",
		version, platform.Name(), cfg.App.DevMode, cfg.App.DataDir)

	guard := instance.NewGuard(cfg.App.Name)
	primary, err := guard.Acquire()
	if err != nil {
		return err
	}
	if !primary {
		log.Printf("Another instance is already running, forwarding activation")
		if err := guard.NotifyExisting(); err != nil {
			log.Printf("Activation forwarding failed: %v", err)
		}
		return nil
	}
	defer guard.Release()

	metrics := supervisor.NewPrometheusMetricsCollector(cfg.App.Name)
	obs := observability.NewManager(cfg.Observability, cfg.App.Name, version, metrics.Registry())
	if err := obs.Initialize(ctx); err != nil {
		return err
	}
	defer obs.Shutdown(context.Background())

	sup := supervisor.New(cfg.Backend, supervisor.WithMetricsCollector(metrics))

	bundle := assets.NewServer(cfg.Assets.Root, cfg.Assets.Port, slog.Default())

	mode := supervisor.ModeProd
	if cfg.App.DevMode {
		mode = supervisor.ModeDev
	}

	gw := gateway.New(gateway.AppInfo{
		Name:     cfg.App.Name,
		Version:  version,
		Platform: platform.Name(),
		DataDir:  cfg.App.DataDir,
		DevMode:  cfg.App.DevMode,
	}, &backendControl{sup: sup, mode: mode}, gateway.NewFileStore(cfg.App.DataDir), cfg.Gateway.Port, slog.Default())

	if err := gw.Start(); err != nil {
		return err
	}
	defer gw.Stop(context.Background())

	var opts []lifecycle.ControllerOption
	if cfg.Observability.EnableTracing {
		opts = append(opts, lifecycle.WithTracer(obs.Tracer("lifecycle")))
	}

	controller := lifecycle.NewController(lifecycle.Settings{
		DevMode:       cfg.App.DevMode,
		DevServerURL:  cfg.Assets.DevServerURL,
		HealthURL:     cfg.Backend.HealthURL(),
		MaxAttempts:   cfg.Backend.MaxAttempts,
		ProbeInterval: cfg.Backend.ProbeInterval.Std(),
	}, sup, bundle, lifecycle.NewBrowserSurface(), lifecycle.NewTerminalDialog(), opts...)

	if err := guard.Listen(controller.Activate); err != nil {
		return err
	}

	return controller.Run(ctx)
}

// backendControl adapts the supervisor to the gateway's backend surface,
// pinning the launch mode chosen at startup for restarts.
type backendControl struct {
	sup  *supervisor.Supervisor
	mode supervisor.LaunchMode
}

func (b *backendControl) Status(ctx context.Context) supervisor.Status {
	return b.sup.Status(ctx)
}

func (b *backendControl) Restart(ctx context.Context) error {
	return b.sup.Restart(ctx, b.mode)
}

func (b *backendControl) DiagnosticTail() []string {
	return b.sup.DiagnosticTail()
}
