package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Review   ReviewConfig   `mapstructure:"review"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// EngineConfig tunes the reasoning engine. All values have safe defaults;
// changing them changes evaluation output, so they are part of the cache key.
type EngineConfig struct {
	ContinuityWindowDays int     `mapstructure:"continuity_window_days"`
	ReviewThreshold      float64 `mapstructure:"review_threshold"`
	ExactRuleConfidence  float64 `mapstructure:"exact_rule_confidence"`
	ClassRuleConfidence  float64 `mapstructure:"class_rule_confidence"`
	ProjectGraph         bool    `mapstructure:"project_graph"`
}

// CatalogConfig selects the rule catalog source. An empty path means the
// compiled-in default catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RateLimitPerSec float64       `mapstructure:"rate_limit_per_sec"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	TLSEnabled      bool          `mapstructure:"tls_enabled"`
	CertFile        string        `mapstructure:"cert_file"`
	KeyFile         string        `mapstructure:"key_file"`
}

// DatabaseConfig represents Postgres connection configuration for the
// review store and its migrations.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ReviewConfig selects the review-store backend: "sqlite", "postgres",
// or "none" to disable the review surface.
type ReviewConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// CacheConfig represents evaluation-cache configuration. RedisURL empty
// disables the distributed tier; the in-process LRU tier is always on.
type CacheConfig struct {
	MemorySize  int           `mapstructure:"memory_size"`
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
