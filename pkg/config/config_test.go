package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "quantvision", cfg.App.Name)
	assert.Equal(t, 8630, cfg.Backend.Port)
	assert.Equal(t, "/health/live", cfg.Backend.HealthPath)
	assert.Equal(t, 3*time.Second, cfg.Backend.ProbeTimeout.Std())
	assert.Equal(t, 30, cfg.Backend.MaxAttempts)
	assert.Equal(t, 1*time.Second, cfg.Backend.ProbeInterval.Std())
	assert.Equal(t, 8631, cfg.Assets.Port)
	assert.Equal(t, 8632, cfg.Gateway.Port)
	assert.NotEmpty(t, cfg.Backend.Candidates)
	assert.NotEmpty(t, cfg.App.DataDir)
}

func TestLoadAppliesDefaultsOverPartialFile(t *testing.T) {
	path := writeConfig(t, `
app:
  name: quantvision
backend:
  port: 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Backend.Port)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Backend.BaseURL())
	assert.Equal(t, "http://127.0.0.1:9000/health/live", cfg.Backend.HealthURL())
	// Untouched sections still get defaults
	assert.Equal(t, 8631, cfg.Assets.Port)
	assert.Equal(t, "python3", cfg.Backend.Interpreter)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	path := writeConfig(t, `
backend:
  port: 70000
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.port")
}

func TestLoadRejectsNegativeAttempts(t *testing.T) {
	path := writeConfig(t, `
backend:
  max_attempts: -3
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_attempts")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "app: [unclosed")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestResolvePathPrefersFlag(t *testing.T) {
	t.Setenv("QUANTVISION_CONFIG", "/from/env/config.yaml")
	assert.Equal(t, "/from/flag/config.yaml", ResolvePath("/from/flag/config.yaml"))
	assert.Equal(t, "/from/env/config.yaml", ResolvePath(""))
}

func TestDurationParsing(t *testing.T) {
	path := writeConfig(t, `
backend:
  probe_timeout: 250ms
  probe_interval: 10ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Backend.ProbeTimeout.Std())
	assert.Equal(t, 10*time.Millisecond, cfg.Backend.ProbeInterval.Std())
}
