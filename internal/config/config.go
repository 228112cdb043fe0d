// Package config loads and saves the thriftify TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment overrides, applied on top of the config file.
const (
	EnvServerURL = "THRIFTIFY_SERVER_URL"
	EnvRedisURL  = "THRIFTIFY_REDIS_URL"
	EnvLogLevel  = "THRIFTIFY_LOG_LEVEL"
	EnvConfigDir = "THRIFTIFY_CONFIG_DIR"
)

// Config holds all thriftify configuration.
type Config struct {
	Client     ClientConfig     `toml:"client"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
	Server     ServerConfig     `toml:"server"`
}

// ClientConfig controls how the dashboard reaches the backend.
type ClientConfig struct {
	ServerURL  string `toml:"server_url"`
	TimeoutSec int    `toml:"timeout_sec"`
	RefreshSec int    `toml:"refresh_sec"` // TUI auto-refresh; 0 disables
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file,omitempty"` // TUI log file; defaults to the config dir
}

// ServerConfig holds settings for the bundled development backend.
type ServerConfig struct {
	Addr        string  `toml:"addr"`
	DBPath      string  `toml:"db_path,omitempty"`
	RedisURL    string  `toml:"redis_url,omitempty"`
	CacheTTLSec int     `toml:"cache_ttl_sec"`
	RatePerSec  float64 `toml:"rate_per_sec"`
	Burst       int     `toml:"burst"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Client: ClientConfig{
			ServerURL:  "http://127.0.0.1:5000",
			TimeoutSec: 10,
			RefreshSec: 30,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:5000",
			CacheTTLSec: 60,
			RatePerSec:  10,
			Burst:       30,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "thriftify")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "thriftify")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// A .env file in the working directory is loaded first so its variables
// can override file values.
func Load() (Config, error) {
	_ = godotenv.Load() // optional; real environment wins over .env

	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return applyEnv(cfg), fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return applyEnv(DefaultConfig()), fmt.Errorf("parsing config: %w", err)
		}
	}

	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv(EnvServerURL)); v != "" {
		cfg.Client.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisURL)); v != "" {
		cfg.Server.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	return cfg
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Timeout returns the client request timeout.
func (c ClientConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// RefreshInterval returns the TUI auto-refresh period, or 0 when disabled.
// Periods under five seconds are raised to five.
func (c ClientConfig) RefreshInterval() time.Duration {
	if c.RefreshSec <= 0 {
		return 0
	}
	return max(time.Duration(c.RefreshSec)*time.Second, 5*time.Second)
}

// CacheTTL returns the dashboard cache lifetime of the dev backend.
func (s ServerConfig) CacheTTL() time.Duration {
	if s.CacheTTLSec <= 0 {
		return time.Minute
	}
	return time.Duration(s.CacheTTLSec) * time.Second
}

// Database returns the SQLite path of the dev backend.
func (s ServerConfig) Database() string {
	if s.DBPath != "" {
		return s.DBPath
	}
	return filepath.Join(Dir(), "thriftify.db")
}

// LogFile returns the path the TUI logs to.
func (l LogConfig) LogFile() string {
	if l.File != "" {
		return l.File
	}
	return filepath.Join(Dir(), "thriftify.log")
}
