// Package config loads and validates the host shell configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nexsan123/quantvision/pkg/platform"
)

// Config represents the main shell configuration
type Config struct {
	App           AppConfig           `yaml:"app"`
	Backend       BackendConfig       `yaml:"backend"`
	Assets        AssetsConfig        `yaml:"assets"`
	Gateway       GatewayConfig       `yaml:"gateway"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// AppConfig identifies the application and its data directory
type AppConfig struct {
	// Name of the application (used for data/lock paths)
	Name string `yaml:"name"`

	// DataDir is the app-data directory; control-surface file operations
	// are scoped beneath it
	DataDir string `yaml:"data_dir"`

	// DevMode attaches the UI to a live development server and launches the
	// backend from sources instead of a packaged executable
	DevMode bool `yaml:"dev_mode"`
}

// Duration wraps time.Duration so YAML values can be written as "3s" or
// "500ms" (yaml.v3 only decodes integers into time.Duration directly).
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	*d = Duration(time.Duration(n))
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// BackendConfig describes how to launch and probe the analytics backend
type BackendConfig struct {
	// Port the backend listens on (passed via args in dev, env in prod)
	Port int `yaml:"port"`

	// HealthPath is the liveness endpoint path
	HealthPath string `yaml:"health_path"`

	// ProbeTimeout bounds a single liveness probe
	ProbeTimeout Duration `yaml:"probe_timeout"`

	// MaxAttempts bounds the startup polling budget
	MaxAttempts int `yaml:"max_attempts"`

	// ProbeInterval is the sleep between startup probes
	ProbeInterval Duration `yaml:"probe_interval"`

	// RestartDelay lets the backend release its port between stop and start
	RestartDelay Duration `yaml:"restart_delay"`

	// Interpreter invoked in dev mode (e.g. python3)
	Interpreter string `yaml:"interpreter"`

	// SourceDir is the backend source tree for dev-mode launches
	SourceDir string `yaml:"source_dir"`

	// Module is the interpreter module invoked in dev mode
	Module string `yaml:"module"`

	// Candidates is the ordered list of packaged executable paths; the
	// first existing one is launched in prod mode
	Candidates []string `yaml:"candidates"`
}

// BaseURL returns the backend's loopback base URL.
func (b BackendConfig) BaseURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", b.Port)
}

// HealthURL returns the full liveness probe URL.
func (b BackendConfig) HealthURL() string {
	return b.BaseURL() + b.HealthPath
}

// AssetsConfig describes the packaged UI bundle server
type AssetsConfig struct {
	// Port for the loopback asset server
	Port int `yaml:"port"`

	// Root directory of the packaged UI bundle
	Root string `yaml:"root"`

	// DevServerURL is the live development server the UI attaches to in
	// dev mode (the asset server is skipped entirely then)
	DevServerURL string `yaml:"dev_server_url"`
}

// GatewayConfig describes the control-surface listener
type GatewayConfig struct {
	// Port for the loopback IPC gateway
	Port int `yaml:"port"`
}

// ObservabilityConfig enables optional metrics and tracing
type ObservabilityConfig struct {
	// MetricsPort for the Prometheus endpoint; 0 disables the server
	MetricsPort int `yaml:"metrics_port"`

	// EnableTracing enables OpenTelemetry tracing of startup phases
	EnableTracing bool `yaml:"enable_tracing"`

	// TraceExporter selects the trace exporter ("stdout")
	TraceExporter string `yaml:"trace_exporter"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file and applies defaults.
// An empty path yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// ResolvePath resolves the config file location: explicit flag value first,
// then the QUANTVISION_CONFIG environment variable, then the app-data
// default (which may not exist; Load treats a missing default as absent).
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("QUANTVISION_CONFIG"); v != "" {
		return v
	}
	def := filepath.Join(platform.DataDir("quantvision"), "config.yaml")
	if _, err := os.Stat(def); err == nil {
		return def
	}
	return ""
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "quantvision"
	}
	if c.App.DataDir == "" {
		c.App.DataDir = platform.DataDir(c.App.Name)
	}

	if c.Backend.Port == 0 {
		c.Backend.Port = 8630
	}
	if c.Backend.HealthPath == "" {
		c.Backend.HealthPath = "/health/live"
	}
	if c.Backend.ProbeTimeout == 0 {
		c.Backend.ProbeTimeout = Duration(3 * time.Second)
	}
	if c.Backend.MaxAttempts == 0 {
		c.Backend.MaxAttempts = 30
	}
	if c.Backend.ProbeInterval == 0 {
		c.Backend.ProbeInterval = Duration(1 * time.Second)
	}
	if c.Backend.RestartDelay == 0 {
		c.Backend.RestartDelay = Duration(500 * time.Millisecond)
	}
	if c.Backend.Interpreter == "" {
		c.Backend.Interpreter = "python3"
	}
	if c.Backend.SourceDir == "" {
		c.Backend.SourceDir = "backend"
	}
	if c.Backend.Module == "" {
		c.Backend.Module = "quantvision_backend"
	}
	if len(c.Backend.Candidates) == 0 {
		c.Backend.Candidates = defaultCandidates()
	}

	if c.Assets.Port == 0 {
		c.Assets.Port = 8631
	}
	if c.Assets.Root == "" {
		c.Assets.Root = "ui/dist"
	}
	if c.Assets.DevServerURL == "" {
		c.Assets.DevServerURL = "http://127.0.0.1:5173"
	}

	if c.Gateway.Port == 0 {
		c.Gateway.Port = 8632
	}

	if c.Observability.TraceExporter == "" {
		c.Observability.TraceExporter = "stdout"
	}
}

// defaultCandidates returns the ordered packaged-backend search list.
// Paths relative to the shell executable come first so a bundled backend
// wins over a system-wide install.
func defaultCandidates() []string {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(exeDir, "resources", "backend", "quantvision-backend"),
			filepath.Join(exeDir, "quantvision-backend"),
		)
	}
	candidates = append(candidates,
		"/opt/quantvision/quantvision-backend",
		"/usr/local/bin/quantvision-backend",
	)
	return candidates
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	for _, p := range []struct {
		name string
		port int
	}{
		{"backend.port", c.Backend.Port},
		{"assets.port", c.Assets.Port},
		{"gateway.port", c.Gateway.Port},
	} {
		if p.port < 1 || p.port > 65535 {
			return fmt.Errorf("%s must be between 1 and 65535, got: %d", p.name, p.port)
		}
	}

	if c.Observability.MetricsPort < 0 || c.Observability.MetricsPort > 65535 {
		return fmt.Errorf("observability.metrics_port must be between 0 and 65535, got: %d",
			c.Observability.MetricsPort)
	}

	if c.Backend.MaxAttempts < 1 {
		return fmt.Errorf("backend.max_attempts must be positive, got: %d", c.Backend.MaxAttempts)
	}

	if c.Backend.ProbeInterval < 0 || c.Backend.ProbeTimeout < 0 {
		return fmt.Errorf("backend probe durations must not be negative")
	}

	return nil
}
