package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "https://earthquake.usgs.gov/fdsnws/event/1", cfg.Provider.BaseURL)
	require.Equal(t, 30, cfg.HTTP.TimeoutSeconds)
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
	require.Equal(t, []int{10, 20, 30}, cfg.HTTP.RateLimitWaitsS)
	require.Equal(t, 20000, cfg.Crawl.MonthSplitThreshold)
	require.Equal(t, "data", cfg.Dataset.OutputDir)
	require.Equal(t, 8080, cfg.Server.Port)
	require.True(t, cfg.Logging.Development)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
provider:
  base_url: https://example.org/fdsnws/event/1
http:
  timeout_seconds: 5
  delay_ms: 100
dataset:
  output_dir: /tmp/quakes
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://example.org/fdsnws/event/1", cfg.Provider.BaseURL)
	require.Equal(t, 5*time.Second, cfg.Timeout())
	require.Equal(t, 100*time.Millisecond, cfg.InterRequestDelay())
	require.Equal(t, "/tmp/quakes", cfg.Dataset.OutputDir)
	// Untouched keys keep their defaults.
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.Provider.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"negative retries", func(c *Config) { c.HTTP.MaxRetries = -1 }},
		{"no rate limit waits", func(c *Config) { c.HTTP.RateLimitWaitsS = nil }},
		{"zero threshold", func(c *Config) { c.Crawl.MonthSplitThreshold = 0 }},
		{"empty output dir", func(c *Config) { c.Dataset.OutputDir = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestRateLimitWaits(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{RateLimitWaitsS: []int{10, 20, 30}}}
	require.Equal(t,
		[]time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second},
		cfg.RateLimitWaits(),
	)
}
