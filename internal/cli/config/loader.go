package config

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// envPrefix marks askdb environment variables. Nested keys use a double
// underscore: ASKDB_SERVER__ADDR sets server.addr.
const envPrefix = "ASKDB_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var configNames = []string{"askdb.yaml", "askdb.yml"}

// flagKeys maps command-line flags onto config keys. Flags not listed here
// (--config, --target, command-local flags) never reach koanf.
var flagKeys = map[string]string{
	"type":       "target.type",
	"database":   "target.database",
	"output":     "output",
	"verbose":    "verbose",
	"addr":       "server.addr",
	"generator":  "generator.endpoint",
	"max-rows":   "max_rows",
	"log-format": "log_format",
	"history":    "history_file",
}

// configExistsIn returns the config file in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for an askdb config file.
func findConfigUpward(startDir string) string {
	dir := startDir
	for range maxUpwardSearchLevels {
		if found := configExistsIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func defaults() map[string]any {
	return map[string]any{
		"target.type":                          DefaultTargetType,
		"environment":                          DefaultEnv,
		"output":                               DefaultOutput,
		"verbose":                              false,
		"log_format":                           DefaultLogFormat,
		"history_file":                         DefaultHistoryFile,
		"max_rows":                             DefaultMaxRows,
		"server.addr":                          DefaultAddr,
		"server.cors_origins":                  []string{"*"},
		"server.rate_limit.requests_per_second": DefaultRPS,
		"server.rate_limit.burst":              DefaultBurst,
		"server.read_header_timeout":           DefaultReadTimeout.String(),
		"server.shutdown_timeout":              DefaultShutdown.String(),
		"generator.timeout":                    DefaultTimeout.String(),
		"generator.max_length":                 DefaultMaxLength,
		"generator.temperature":                DefaultTemperature,
	}
}

// Load reads configuration. Precedence (highest to lowest):
// flags > env vars > config file > defaults. envName selects an entry of
// environments whose target overrides the base target; empty uses the
// configured environment.
func Load(cfgFile, envName string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	projectRoot := cwd
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// .env next to the config file sits between the file and the real
	// environment.
	dotenv, err := readDotEnv(projectRoot)
	if err != nil {
		return nil, "", err
	}
	if err := k.Load(confmap.Provider(prefixedEnv(dotenv), "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load .env: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	if envName == "" {
		envName = cfg.Environment
	}
	if envCfg, ok := cfg.Environments[envName]; ok && envCfg.Target != nil {
		cfg.Target = MergeTargetConfig(cfg.Target, envCfg.Target)
		cfg.Environment = envName
	}
	if cfg.Target == nil {
		cfg.Target = &TargetConfig{Type: DefaultTargetType}
	}

	ApplyTargetDefaults(cfg.Target)
	expandTargetEnvVars(cfg.Target, dotenv)
	cfg.Target.Database = resolveDatabasePath(cfg.Target, projectRoot, flags)

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, cfgFile, nil
}

// envKey transforms ASKDB_SERVER__RATE_LIMIT__BURST into
// server.rate_limit.burst.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// readDotEnv reads dir/.env. A missing file yields an empty map.
func readDotEnv(dir string) (map[string]string, error) {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return map[string]string{}, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return vars, nil
}

// prefixedEnv keeps ASKDB_ variables and maps them to config keys.
func prefixedEnv(vars map[string]string) map[string]any {
	out := make(map[string]any)
	for k, v := range vars {
		if strings.HasPrefix(k, envPrefix) {
			out[envKey(k)] = v
		}
	}
	return out
}

// resolveDatabasePath anchors relative file databases at the project root,
// except when given on the command line, where they are relative to cwd.
func resolveDatabasePath(t *TargetConfig, projectRoot string, flags *pflag.FlagSet) string {
	path := t.Database
	if t.Type == "postgres" || path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if flags != nil && flags.Changed("database") {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return filepath.Join(projectRoot, path)
}

// ApplyTargetDefaults applies default values based on the target type.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Type = strings.ToLower(t.Type)
	if t.Type == "" {
		t.Type = DefaultTargetType
	}
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
	switch t.Type {
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
	case "sqlite":
		if t.Database == "" {
			t.Database = DefaultDatabase
		}
	case "duckdb":
		if t.Database == "" {
			t.Database = DefaultDuckDBDatabase
		}
	}
}

// DefaultSchemaForType returns the default schema for a database type.
func DefaultSchemaForType(dbType string) string {
	switch dbType {
	case "postgres":
		return "public"
	case "sqlite", "duckdb":
		return "main"
	}
	return ""
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns from the environment, then from
// fallback. Unset variables are left as written.
func expandEnvVars(s string, fallback map[string]string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		if val, ok := fallback[name]; ok {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *TargetConfig, dotenv map[string]string) {
	t.Password = expandEnvVars(t.Password, dotenv)
	t.User = expandEnvVars(t.User, dotenv)
	t.Host = expandEnvVars(t.Host, dotenv)
	t.Database = expandEnvVars(t.Database, dotenv)
	for k, v := range t.Options {
		t.Options[k] = expandEnvVars(v, dotenv)
	}
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *TargetConfig) *TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = maps.Clone(base.Options)
	merged.Params = maps.Clone(base.Params)
	if merged.Options == nil {
		merged.Options = make(map[string]string)
	}
	if merged.Params == nil {
		merged.Params = make(map[string]any)
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	maps.Copy(merged.Options, override.Options)
	maps.Copy(merged.Params, override.Params)

	return &merged
}

// configKey is used to store the loaded config in context.
type configKey struct{}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored by WithConfig, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(configKey{}).(*Config)
	return cfg
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
