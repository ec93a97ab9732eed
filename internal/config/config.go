package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Config represents the main toolhub configuration
type Config struct {
	// HTTP server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Tool catalog
	Catalog CatalogConfig `json:"catalog" mapstructure:"catalog"`

	// Execution log
	ExecLog ExecLogConfig `json:"exec_log" mapstructure:"exec_log"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	// InternalBaseURL overrides the address used for API_ROUTE dispatch.
	// When empty the INTERNAL_API_URL environment variable, then
	// loopback on the server port, is used instead.
	InternalBaseURL string `json:"internal_base_url" mapstructure:"internal_base_url"`
}

// CatalogConfig holds tool catalog configuration
type CatalogConfig struct {
	DBPath string `json:"db_path" mapstructure:"db_path"`
	// WatchPath is an optional JSON file of tool definitions reloaded
	// into the catalog on change.
	WatchPath       string `json:"watch_path" mapstructure:"watch_path"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds"`
	// SeedDefaults inserts the built-in tool set on first start.
	SeedDefaults bool `json:"seed_defaults" mapstructure:"seed_defaults"`
}

// CacheTTL returns the registry cache TTL as a duration.
func (c CatalogConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ExecLogConfig holds execution log configuration
type ExecLogConfig struct {
	DBPath        string `json:"db_path" mapstructure:"db_path"`
	QueueSize     int    `json:"queue_size" mapstructure:"queue_size"`
	RetentionDays int    `json:"retention_days" mapstructure:"retention_days"`
	PruneSchedule string `json:"prune_schedule" mapstructure:"prune_schedule"`
}

// Retention returns the retention window as a duration.
func (c ExecLogConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			RateLimitPerMinute: 100,
		},
		Catalog: CatalogConfig{
			CacheTTLSeconds: 30,
			SeedDefaults:    true,
		},
		ExecLog: ExecLogConfig{
			QueueSize:     256,
			RetentionDays: 90,
			PruneSchedule: "@midnight",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitPerMinute < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per minute")
	}
	if c.Server.InternalBaseURL != "" {
		u, err := url.Parse(c.Server.InternalBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("internal_base_url must be an absolute URL, got %q", c.Server.InternalBaseURL)
		}
	}

	if c.Catalog.CacheTTLSeconds < 1 {
		return fmt.Errorf("catalog cache TTL must be at least 1 second")
	}

	if c.ExecLog.QueueSize < 1 {
		return fmt.Errorf("execution log queue size must be at least 1")
	}
	if c.ExecLog.RetentionDays < 1 {
		return fmt.Errorf("execution log retention must be at least 1 day")
	}

	if !IsValidLogLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}
