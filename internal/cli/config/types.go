// Package config loads askdb settings from defaults, askdb.yaml, ASKDB_
// environment variables and command-line flags.
package config

import (
	"maps"
	"time"

	"github.com/leapstack-labs/askdb/pkg/adapter"
)

// Default configuration values.
const (
	DefaultTargetType     = "sqlite"
	DefaultDatabase       = "askdb.db"
	DefaultDuckDBDatabase = "askdb.duckdb"
	DefaultOutput         = "auto" // Auto-detect: TTY=table, non-TTY=markdown
	DefaultLogFormat      = "text"
	DefaultEnv            = "dev"
	DefaultMaxRows        = 1000
	DefaultAddr           = ":8000"
	DefaultHistoryFile    = ".askdb_history"
	DefaultRPS            = 5.0
	DefaultBurst          = 10
	DefaultTimeout        = 30 * time.Second
	DefaultMaxLength      = 200
	DefaultTemperature    = 0.3
	DefaultReadTimeout    = 10 * time.Second
	DefaultShutdown       = 10 * time.Second
)

// TargetConfig describes the database questions are answered against.
type TargetConfig struct {
	Type     string            `koanf:"type"     yaml:"type"`
	Database string            `koanf:"database" yaml:"database,omitempty"` // file path or database name
	Host     string            `koanf:"host"     yaml:"host,omitempty"`
	Port     int               `koanf:"port"     yaml:"port,omitempty"`
	User     string            `koanf:"user"     yaml:"user,omitempty"`
	Password string            `koanf:"password" yaml:"-"`
	Schema   string            `koanf:"schema"   yaml:"schema,omitempty"`
	Options  map[string]string `koanf:"options"  yaml:"options,omitempty"`
	Params   map[string]any    `koanf:"params"   yaml:"params,omitempty"`
}

// AdapterConfig converts the target into an adapter configuration.
func (t *TargetConfig) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     t.Type,
		Path:     t.Database,
		Database: t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  maps.Clone(t.Options),
		Params:   maps.Clone(t.Params),
	}
}

// RateLimitConfig bounds chat requests per client.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr              string          `koanf:"addr"`
	CORSOrigins       []string        `koanf:"cors_origins"`
	RateLimit         RateLimitConfig `koanf:"rate_limit"`
	ReadHeaderTimeout time.Duration   `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration   `koanf:"shutdown_timeout"`
}

// GeneratorConfig points at an optional text-generation endpoint. An empty
// endpoint disables the model.
type GeneratorConfig struct {
	Endpoint    string        `koanf:"endpoint"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxLength   int           `koanf:"max_length"`
	Temperature float64       `koanf:"temperature"`
}

// Enabled reports whether an endpoint is configured.
func (g GeneratorConfig) Enabled() bool {
	return g.Endpoint != ""
}

// Config holds all CLI configuration options.
type Config struct {
	Target       *TargetConfig        `koanf:"target"`
	Environment  string               `koanf:"environment"`
	Environments map[string]EnvConfig `koanf:"environments"`
	Output       string               `koanf:"output"`
	Verbose      bool                 `koanf:"verbose"`
	LogFormat    string               `koanf:"log_format"`
	HistoryFile  string               `koanf:"history_file"`
	MaxRows      int                  `koanf:"max_rows"`
	Server       ServerConfig         `koanf:"server"`
	Generator    GeneratorConfig      `koanf:"generator"`

	// ProjectRoot is the directory askdb.yaml was found in, or the cwd.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific target overrides.
type EnvConfig struct {
	Target *TargetConfig `koanf:"target"`
}
