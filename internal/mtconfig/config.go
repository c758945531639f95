// Package mtconfig manages gomtproto daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables.
package mtconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete gomtproto configuration.
type Config struct {
	Pool    PoolConfig    `koanf:"pool"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
}

// PoolConfig holds the connection and sender-pool parameters.
type PoolConfig struct {
	// APIID is the application's api_id, issued at my.telegram.org.
	APIID int32 `koanf:"api_id"`

	// DeviceModel, SystemVersion and AppVersion identify the application
	// to Telegram in initConnection.
	DeviceModel   string `koanf:"device_model"`
	SystemVersion string `koanf:"system_version"`
	AppVersion    string `koanf:"app_version"`

	// SystemLangCode and LangCode are BCP-47 locale tags. Both default
	// to "en" when left empty.
	SystemLangCode string `koanf:"system_lang_code"`
	LangCode       string `koanf:"lang_code"`

	// ProxyURL, if set, routes every datacenter connection through a
	// SOCKS5 proxy (socks5://host:port).
	ProxyURL string `koanf:"proxy_url"`

	// UpdateQueueLimit bounds the pool's single update channel.
	UpdateQueueLimit int `koanf:"update_queue_limit"`

	// FloodWaitThreshold is the longest FLOOD_WAIT the sender will sleep
	// through automatically before surfacing it to the caller instead.
	FloodWaitThreshold time.Duration `koanf:"flood_wait_threshold"`

	// ReconnectMaxAttempts bounds how many consecutive dial failures the
	// pool tolerates before giving up on a datacenter.
	ReconnectMaxAttempts int `koanf:"reconnect_max_attempts"`

	// ReconnectMaxBackoff caps the wait between successive reconnect
	// attempts.
	ReconnectMaxBackoff time.Duration `koanf:"reconnect_max_backoff"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			DeviceModel:          "gomtproto",
			SystemVersion:        "unknown",
			AppVersion:           "dev",
			SystemLangCode:       "en",
			LangCode:             "en",
			UpdateQueueLimit:     256,
			FloodWaitThreshold:   60 * time.Second,
			ReconnectMaxAttempts: 10,
			ReconnectMaxBackoff:  30 * time.Second,
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for gomtproto configuration.
// Variables are named GOMTPROTO_<section>_<key>, e.g., GOMTPROTO_POOL_API_ID.
const envPrefix = "GOMTPROTO_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (GOMTPROTO_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	GOMTPROTO_POOL_API_ID        -> pool.api_id
//	GOMTPROTO_POOL_PROXY_URL     -> pool.proxy_url
//	GOMTPROTO_METRICS_ADDR       -> metrics.addr
//	GOMTPROTO_LOG_LEVEL          -> log.level
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms GOMTPROTO_POOL_API_ID -> pool.api_id.
// Strips the GOMTPROTO_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"pool.api_id":                defaults.Pool.APIID,
		"pool.device_model":          defaults.Pool.DeviceModel,
		"pool.system_version":        defaults.Pool.SystemVersion,
		"pool.app_version":           defaults.Pool.AppVersion,
		"pool.system_lang_code":      defaults.Pool.SystemLangCode,
		"pool.lang_code":             defaults.Pool.LangCode,
		"pool.proxy_url":             defaults.Pool.ProxyURL,
		"pool.update_queue_limit":    defaults.Pool.UpdateQueueLimit,
		"pool.flood_wait_threshold":  defaults.Pool.FloodWaitThreshold.String(),
		"pool.reconnect_max_attempts": defaults.Pool.ReconnectMaxAttempts,
		"pool.reconnect_max_backoff": defaults.Pool.ReconnectMaxBackoff.String(),
		"metrics.addr":               defaults.Metrics.Addr,
		"metrics.path":               defaults.Metrics.Path,
		"log.level":                  defaults.Log.Level,
		"log.format":                 defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyAPIID indicates no application api_id was configured.
	ErrEmptyAPIID = errors.New("pool.api_id must be set")

	// ErrEmptyDeviceModel indicates the device_model identifier is empty.
	ErrEmptyDeviceModel = errors.New("pool.device_model must not be empty")

	// ErrInvalidUpdateQueueLimit indicates the update queue limit is non-positive.
	ErrInvalidUpdateQueueLimit = errors.New("pool.update_queue_limit must be > 0")

	// ErrInvalidFloodWaitThreshold indicates a negative flood-wait threshold.
	ErrInvalidFloodWaitThreshold = errors.New("pool.flood_wait_threshold must be >= 0")

	// ErrInvalidReconnectMaxAttempts indicates the attempt budget is non-positive.
	ErrInvalidReconnectMaxAttempts = errors.New("pool.reconnect_max_attempts must be > 0")

	// ErrEmptyMetricsAddr indicates the metrics listen address is empty.
	ErrEmptyMetricsAddr = errors.New("metrics.addr must not be empty")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Pool.APIID == 0 {
		return ErrEmptyAPIID
	}
	if cfg.Pool.DeviceModel == "" {
		return ErrEmptyDeviceModel
	}
	if cfg.Pool.UpdateQueueLimit <= 0 {
		return ErrInvalidUpdateQueueLimit
	}
	if cfg.Pool.FloodWaitThreshold < 0 {
		return ErrInvalidFloodWaitThreshold
	}
	if cfg.Pool.ReconnectMaxAttempts <= 0 {
		return ErrInvalidReconnectMaxAttempts
	}
	if cfg.Metrics.Addr == "" {
		return ErrEmptyMetricsAddr
	}
	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
