// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ProviderConfig locates the upstream event catalog service.
type ProviderConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// HTTPConfig configures fetch timeout, retry, and backoff behavior.
type HTTPConfig struct {
	TimeoutSeconds   int   `mapstructure:"timeout_seconds"`
	MaxRetries       int   `mapstructure:"max_retries"`
	BackoffInitialMs int   `mapstructure:"backoff_initial_ms"`
	RateLimitWaitsS  []int `mapstructure:"rate_limit_waits_seconds"`
	DelayMs          int   `mapstructure:"delay_ms"`
}

// CrawlConfig governs the orchestrator.
type CrawlConfig struct {
	MonthSplitThreshold int `mapstructure:"month_split_threshold"`
}

// DatasetConfig sets the on-disk dataset root.
type DatasetConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// ServerConfig controls the read API server.
type ServerConfig struct {
	Port      int `mapstructure:"port"`
	CacheSize int `mapstructure:"cache_size"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUAKEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.base_url", "https://earthquake.usgs.gov/fdsnws/event/1")
	v.SetDefault("provider.user_agent", "quakewatch-crawler/0.1")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 2000)
	v.SetDefault("http.rate_limit_waits_seconds", []int{10, 20, 30})
	v.SetDefault("http.delay_ms", 500)
	v.SetDefault("crawl.month_split_threshold", 20000)
	v.SetDefault("dataset.output_dir", "data")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cache_size", 32)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if len(c.HTTP.RateLimitWaitsS) == 0 {
		return fmt.Errorf("http.rate_limit_waits_seconds must not be empty")
	}
	if c.Crawl.MonthSplitThreshold <= 0 {
		return fmt.Errorf("crawl.month_split_threshold must be > 0")
	}
	if c.Dataset.OutputDir == "" {
		return fmt.Errorf("dataset.output_dir must be set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// Timeout returns the HTTP request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffInitial returns the first network-error backoff delay.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// InterRequestDelay returns the proactive delay applied before each request.
func (c Config) InterRequestDelay() time.Duration {
	return time.Duration(c.HTTP.DelayMs) * time.Millisecond
}

// RateLimitWaits returns the fixed escalating waits used after HTTP 429.
func (c Config) RateLimitWaits() []time.Duration {
	waits := make([]time.Duration, len(c.HTTP.RateLimitWaitsS))
	for i, s := range c.HTTP.RateLimitWaitsS {
		waits[i] = time.Duration(s) * time.Second
	}
	return waits
}
