package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.yellowpages.com", cfg.Directory.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Directory.Timeout)
	assert.Equal(t, 30, cfg.Directory.PageSize)
	assert.Contains(t, cfg.Directory.UserAgent, "Mozilla/5.0")
	assert.Equal(t, 5, cfg.Fetch.MaxRetries)
	assert.Equal(t, time.Second, cfg.Fetch.InitialWait)
	assert.InDelta(t, 2.0, cfg.Fetch.Multiplier, 0.001)
	assert.Equal(t, 60*time.Second, cfg.Fetch.MaxWait)
	assert.Zero(t, cfg.Fetch.JitterFraction)
	assert.Zero(t, cfg.Fetch.RateLimitRPS)
	assert.Equal(t, 5, cfg.Enrich.CrawlMaxPages)
	assert.Contains(t, cfg.Enrich.ExcludePaths, "/blog/*")
	assert.Equal(t, 16, cfg.Enhance.Workers)
	assert.Equal(t, 5*time.Second, cfg.Enhance.ProbeTimeout)
	assert.Equal(t, 30, cfg.Crawl.BatchSize)
	assert.True(t, cfg.Crawl.Enrich)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Empty(t, cfg.Jina.Key)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
fetch:
  max_retries: 3
  initial_wait: 250ms
enhance:
  workers: 4
crawl:
  enrich: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Fetch.InitialWait)
	assert.Equal(t, 4, cfg.Enhance.Workers)
	assert.False(t, cfg.Crawl.Enrich)
	// Defaults still apply for unset values
	assert.Equal(t, 60*time.Second, cfg.Fetch.MaxWait)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
enhance:
  workers: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("LISTING_LOG_LEVEL", "warn")
	t.Setenv("LISTING_ENHANCE_WORKERS", "32")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 32, cfg.Enhance.Workers)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("LISTING_JINA_KEY", "jina_test")
	t.Setenv("LISTING_DIRECTORY_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "jina_test", cfg.Jina.Key)
	assert.Equal(t, 3*time.Second, cfg.Directory.Timeout)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults(t *testing.T) *Config {
	t.Helper()
	chdirTemp(t)
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults(t)
	for _, mode := range []string{"crawl", "enhance", "run"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_CrawlFields(t *testing.T) {
	cfg := validDefaults(t)
	cfg.Directory.BaseURL = ""
	cfg.Fetch.MaxRetries = 0
	cfg.Fetch.JitterFraction = 1.5

	err := cfg.Validate("crawl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory.base_url is required")
	assert.Contains(t, err.Error(), "fetch.max_retries must be >= 1")
	assert.Contains(t, err.Error(), "fetch.jitter_fraction")

	// The enhance command does not need the directory settings.
	assert.NoError(t, cfg.Validate("enhance"))
}

func TestValidate_WorkerBounds(t *testing.T) {
	cfg := validDefaults(t)

	cfg.Enhance.Workers = 0
	assert.ErrorContains(t, cfg.Validate("enhance"), "enhance.workers must be between 1 and 256")

	cfg.Enhance.Workers = 257
	assert.Error(t, cfg.Validate("run"))

	cfg.Enhance.Workers = 256
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidate_UnknownMode(t *testing.T) {
	cfg := validDefaults(t)
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
