// Package config loads and saves the application configuration, a YAML
// file at ~/.config/listsync/config.yaml by default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Remote holds the account and endpoint for the remote store. An empty
// URL or user ID means no account is configured and the app stays local.
type Remote struct {
	// URL is the base URL of the sync service, e.g. http://localhost:8080.
	URL string `mapstructure:"url" yaml:"url"`

	// Token is the bearer token sent with every request.
	Token string `mapstructure:"token" yaml:"token"`

	// UserID scopes all remote data to this account.
	UserID string `mapstructure:"user_id" yaml:"user_id"`
}

// Sync holds the engine timing knobs.
type Sync struct {
	// DebounceMS is how long to wait after an edit before pushing.
	DebounceMS int `mapstructure:"debounce_ms" yaml:"debounce_ms"`

	// EchoWindowMS is how long after a push to ignore feed events,
	// which are almost certainly our own writes echoing back.
	EchoWindowMS int `mapstructure:"echo_window_ms" yaml:"echo_window_ms"`

	// RefetchDebounceMS coalesces bursts of feed events into one refetch.
	RefetchDebounceMS int `mapstructure:"refetch_debounce_ms" yaml:"refetch_debounce_ms"`

	// RetryMaxSec caps the exponential backoff between failed pushes.
	RetryMaxSec int `mapstructure:"retry_max_sec" yaml:"retry_max_sec"`

	// WatchCache reloads state when another process writes the cache.
	WatchCache bool `mapstructure:"watch_cache" yaml:"watch_cache"`
}

// Config is the top-level application configuration.
type Config struct {
	// DataDir holds the local cache database.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// LogFile receives engine logs; empty logs to stderr.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`

	Remote Remote `mapstructure:"remote" yaml:"remote"`
	Sync   Sync   `mapstructure:"sync" yaml:"sync"`
}

// DefaultPath returns the default location of the configuration file.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "listsync", "config.yaml")
}

// DefaultDataDir returns the default location of the local cache.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "data")
	}
	return filepath.Join(home, ".local", "share", "listsync")
}

func defaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Sync: Sync{
			DebounceMS:        500,
			EchoWindowMS:      3000,
			RefetchDebounceMS: 1000,
			RetryMaxSec:       300,
		},
	}
}

// CachePath returns the location of the cache database under DataDir.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// SignedIn reports whether a remote account is configured.
func (c *Config) SignedIn() bool {
	return c.Remote.URL != "" && c.Remote.UserID != ""
}

// Load reads the configuration from the given YAML file path using Viper.
// If the file does not exist, it returns the default configuration.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("sync.debounce_ms", 500)
	v.SetDefault("sync.echo_window_ms", 3000)
	v.SetDefault("sync.refetch_debounce_ms", 1000)
	v.SetDefault("sync.retry_max_sec", 300)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the given configuration to a YAML file at path, creating
// parent directories if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("data_dir", cfg.DataDir)
	v.Set("log_file", cfg.LogFile)
	v.Set("remote", cfg.Remote)
	v.Set("sync", cfg.Sync)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
