package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is looked up when no --config flag is given.
const DefaultFileName = "trendcharts.toml"

type ServerConfig struct {
	Addr     string `toml:"addr"`
	BasePath string `toml:"base_path"`
}

type AnalyticsConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key,omitempty"`
	Path           string `toml:"path,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type CacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
}

type SnapshotConfig struct {
	// Path of the badger directory. Empty keeps snapshots in memory only.
	Path       string `toml:"path,omitempty"`
	TTLSeconds int    `toml:"ttl_seconds,omitempty"`
}

type ChartsConfig struct {
	Locale     string   `toml:"locale"`
	AssetsHost string   `toml:"assets_host,omitempty"`
	Manifests  []string `toml:"manifests,omitempty"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development,omitempty"`
}

// Config is the trendctl server configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Analytics AnalyticsConfig `toml:"analytics"`
	Cache     CacheConfig     `toml:"cache"`
	Snapshot  SnapshotConfig  `toml:"snapshot"`
	Charts    ChartsConfig    `toml:"charts"`
	Log       LogConfig       `toml:"log"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() Config {
	return Config{
		Server:    ServerConfig{Addr: ":8080", BasePath: "/admin"},
		Analytics: AnalyticsConfig{Path: "/dashboard", TimeoutSeconds: 10},
		Cache:     CacheConfig{TTLSeconds: 60},
		Charts:    ChartsConfig{Locale: "ru"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads path on top of Default and validates the result. An empty path
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse toml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize trims values and fills zero values back to defaults.
func (c *Config) Normalize() {
	def := Default()
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	c.Server.BasePath = "/" + strings.Trim(strings.TrimSpace(c.Server.BasePath), "/")
	c.Analytics.BaseURL = strings.TrimSpace(c.Analytics.BaseURL)
	if c.Analytics.Path == "" {
		c.Analytics.Path = def.Analytics.Path
	}
	if c.Analytics.TimeoutSeconds == 0 {
		c.Analytics.TimeoutSeconds = def.Analytics.TimeoutSeconds
	}
	c.Charts.Locale = strings.ToLower(strings.TrimSpace(c.Charts.Locale))
	if c.Charts.Locale == "" {
		c.Charts.Locale = def.Charts.Locale
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var fields []goerrors.FieldError
	if c.Analytics.BaseURL != "" {
		if u, err := url.Parse(c.Analytics.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			fields = append(fields, goerrors.FieldError{
				Field:   "analytics.base_url",
				Message: "must be an absolute URL",
				Value:   c.Analytics.BaseURL,
			})
		}
	}
	if c.Analytics.TimeoutSeconds < 0 {
		fields = append(fields, goerrors.FieldError{Field: "analytics.timeout_seconds", Message: "must not be negative", Value: c.Analytics.TimeoutSeconds})
	}
	if c.Cache.TTLSeconds < 0 {
		fields = append(fields, goerrors.FieldError{Field: "cache.ttl_seconds", Message: "must not be negative", Value: c.Cache.TTLSeconds})
	}
	if c.Snapshot.TTLSeconds < 0 {
		fields = append(fields, goerrors.FieldError{Field: "snapshot.ttl_seconds", Message: "must not be negative", Value: c.Snapshot.TTLSeconds})
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		fields = append(fields, goerrors.FieldError{Field: "log.level", Message: "must be one of debug, info, warn, error", Value: c.Log.Level})
	}
	if len(fields) > 0 {
		return goerrors.NewValidation("invalid configuration", fields...).WithTextCode("INVALID_CONFIG")
	}
	return nil
}

// AnalyticsTimeout is the upstream request timeout.
func (c Config) AnalyticsTimeout() time.Duration {
	return time.Duration(c.Analytics.TimeoutSeconds) * time.Second
}

// CacheTTL is the lifetime of rendered chart HTML.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// SnapshotTTL is the lifetime of persisted snapshots. Zero keeps them.
func (c Config) SnapshotTTL() time.Duration {
	return time.Duration(c.Snapshot.TTLSeconds) * time.Second
}

// Encode renders the configuration as TOML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	enc.SetArraysMultiline(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
