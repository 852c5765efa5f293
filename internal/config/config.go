// Package config loads service settings from environment variables.
//
// Every setting has a default, so an empty environment gives a working
// service without a database. Validate reports every bad setting at once.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Ingest    IngestConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Templates TemplatesConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is 0 by default so report streams stay open.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds ordinary API requests; ingest uploads use
	// Ingest.Timeout instead.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings. An empty URL runs the
// service without a sink: every ingest is a dry run.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Schema is the PostgreSQL schema ingest tables are created in.
	Schema string `env:"DB_SCHEMA" default:"public"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"4"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool { return c.URL != "" }

// IngestConfig holds ingest processing settings.
type IngestConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 100MB).
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"104857600"`

	MaxConcurrent int           `env:"INGEST_MAX_CONCURRENT" default:"5"`
	MaxWaitTime   time.Duration `env:"INGEST_MAX_WAIT_TIME" default:"30s"`

	// BatchSize is the number of lines folded and written together.
	BatchSize int `env:"INGEST_BATCH_SIZE" default:"1000"`

	// Workers is how many goroutines assemble the rows of one batch.
	Workers int `env:"INGEST_WORKERS" default:"1"`

	Timeout time.Duration `env:"INGEST_TIMEOUT" default:"10m"`

	// Strict rejects a whole file when any line fails, unless the request
	// says otherwise.
	Strict bool `env:"INGEST_STRICT" default:"false"`

	CaseInsensitive bool `env:"INGEST_CASE_INSENSITIVE_HEADERS" default:"false"`

	// MaxFailures caps the failures kept in one report.
	MaxFailures int `env:"INGEST_MAX_FAILURES" default:"1000"`

	// Retention is how long finished reports stay available.
	Retention time.Duration `env:"INGEST_REPORT_RETENTION" default:"1h"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit for ordinary API requests.
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// IngestLimit is the per-minute limit for ingest uploads.
	IngestLimit int `env:"RATE_LIMIT_INGEST" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects the API with X-API-Key.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// TemplatesConfig says where template files are loaded from.
type TemplatesConfig struct {
	// Dir holds .json, .yaml and .yml template files. Empty loads none.
	Dir string `env:"TEMPLATES_DIR"`

	// Builtins registers the built-in templates.
	Builtins bool `env:"TEMPLATES_BUILTINS" default:"true"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// String returns the config for logging with the database URL masked.
func (c *Config) String() string {
	db := "none"
	if c.Database.Enabled() {
		db = "[MASKED]"
	}
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Database: {URL: %s, Schema: %q, MaxConns: %d}, ", db, c.Database.Schema, c.Database.MaxConns)
	fmt.Fprintf(&b, "Ingest: {MaxFileSize: %d, MaxConcurrent: %d, BatchSize: %d, Workers: %d, Strict: %v}, ",
		c.Ingest.MaxFileSize, c.Ingest.MaxConcurrent, c.Ingest.BatchSize, c.Ingest.Workers, c.Ingest.Strict)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d, IngestLimit: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.IngestLimit)
	fmt.Fprintf(&b, "Templates: {Dir: %q, Builtins: %v}, ", c.Templates.Dir, c.Templates.Builtins)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
