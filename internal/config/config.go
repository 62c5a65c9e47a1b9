// Package config loads the velo configuration file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds all velo settings
type Config struct {
	API          APIConfig          `yaml:"api"`
	Admin        bool               `yaml:"admin"`
	Dashboard    DashboardConfig    `yaml:"dashboard"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// APIConfig configures the fleet backend client
type APIConfig struct {
	URL      string `yaml:"url"`
	Token    string `yaml:"token,omitempty"`
	Timeout  string `yaml:"timeout"`
	CacheTTL string `yaml:"cache_ttl"` // "0" disables the response cache
}

// DashboardConfig configures the interactive dashboard
type DashboardConfig struct {
	RefreshInterval string `yaml:"refresh_interval"`
	RevealInterval  string `yaml:"reveal_interval"`
	CounterDuration string `yaml:"counter_duration"`
}

// ConnectivityConfig configures the backend reachability check
type ConnectivityConfig struct {
	CheckURL      string `yaml:"check_url,omitempty"` // defaults to the API URL
	CheckInterval string `yaml:"check_interval"`
	CheckTimeout  string `yaml:"check_timeout"`
	Failures      int    `yaml:"failures"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`          // debug, info, warn, error
	Format string `yaml:"format"`         // json, console
	File   string `yaml:"file,omitempty"` // empty logs to stderr
}

// MetricsConfig configures the Prometheus exporter
type MetricsConfig struct {
	Listen   string `yaml:"listen"`
	Interval string `yaml:"interval"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			URL:      "http://localhost:8080/api",
			Timeout:  "10s",
			CacheTTL: "30s",
		},
		Dashboard: DashboardConfig{
			RefreshInterval: "30s",
			RevealInterval:  "80ms",
			CounterDuration: "800ms",
		},
		Connectivity: ConnectivityConfig{
			CheckInterval: "5s",
			CheckTimeout:  "2s",
			Failures:      2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Listen:   ":9464",
			Interval: "15s",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/velo/config.yaml, falling back to
// ~/.config/velo/config.yaml
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "velo", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "velo.yaml")
	}
	return filepath.Join(home, ".config", "velo", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold an API token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VELO_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("VELO_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("VELO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VELO_ADMIN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Admin = b
		}
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.url: expected an absolute http(s) URL, got %q", c.API.URL)
	}
	if c.Connectivity.CheckURL != "" {
		if u, err := url.Parse(c.Connectivity.CheckURL); err != nil || u.Host == "" {
			return fmt.Errorf("connectivity.check_url: invalid URL %q", c.Connectivity.CheckURL)
		}
	}

	durations := []struct {
		field    string
		value    string
		positive bool
	}{
		{"api.timeout", c.API.Timeout, true},
		{"api.cache_ttl", c.API.CacheTTL, false},
		{"dashboard.refresh_interval", c.Dashboard.RefreshInterval, true},
		{"dashboard.reveal_interval", c.Dashboard.RevealInterval, false},
		{"dashboard.counter_duration", c.Dashboard.CounterDuration, false},
		{"connectivity.check_interval", c.Connectivity.CheckInterval, true},
		{"connectivity.check_timeout", c.Connectivity.CheckTimeout, true},
		{"metrics.interval", c.Metrics.Interval, true},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.field, err)
		}
		if v < 0 || (d.positive && v == 0) {
			return fmt.Errorf("%s: must be positive, got %s", d.field, d.value)
		}
	}

	if c.Connectivity.Failures < 1 {
		return fmt.Errorf("connectivity.failures: must be at least 1, got %d", c.Connectivity.Failures)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format: expected json or console, got %q", c.Logging.Format)
	}
	return nil
}

// CheckTarget returns the URL the connectivity checker polls
func (c *Config) CheckTarget() string {
	if c.Connectivity.CheckURL != "" {
		return c.Connectivity.CheckURL
	}
	return c.API.URL
}

// APITimeout returns the request timeout as a duration
func (c *Config) APITimeout() time.Duration {
	return parseDuration(c.API.Timeout, 10*time.Second)
}

// CacheTTL returns the response cache TTL; zero disables caching
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.API.CacheTTL, 30*time.Second)
}

// RefreshInterval returns the dashboard refresh period
func (c *Config) RefreshInterval() time.Duration {
	return parseDuration(c.Dashboard.RefreshInterval, 30*time.Second)
}

// RevealInterval returns the stagger between revealed items
func (c *Config) RevealInterval() time.Duration {
	return parseDuration(c.Dashboard.RevealInterval, 80*time.Millisecond)
}

// CounterDuration returns how long counters take to ease to a new value
func (c *Config) CounterDuration() time.Duration {
	return parseDuration(c.Dashboard.CounterDuration, 800*time.Millisecond)
}

// CheckInterval returns the reachability check period
func (c *Config) CheckInterval() time.Duration {
	return parseDuration(c.Connectivity.CheckInterval, 5*time.Second)
}

// CheckTimeout returns the per-check timeout
func (c *Config) CheckTimeout() time.Duration {
	return parseDuration(c.Connectivity.CheckTimeout, 2*time.Second)
}

// MetricsInterval returns the exporter refresh period
func (c *Config) MetricsInterval() time.Duration {
	return parseDuration(c.Metrics.Interval, 15*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
