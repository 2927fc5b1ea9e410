package config

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/askdb/pkg/adapter"
)

// Output formats accepted by --output.
var OutputFormats = []string{"auto", "table", "json", "csv", "markdown"}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if c.Target == nil || c.Target.Type == "" {
		return fmt.Errorf("target.type is required")
	}
	if !adapter.IsRegistered(c.Target.Type) {
		return &adapter.UnknownAdapterError{Type: c.Target.Type, Available: adapter.ListAdapters()}
	}
	if c.Target.Type == "postgres" && c.Target.Database == "" {
		return fmt.Errorf("target.database is required for postgres")
	}
	if !slices.Contains(OutputFormats, c.Output) {
		return fmt.Errorf("invalid output format %q (want one of %v)", c.Output, OutputFormats)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q (want text or json)", c.LogFormat)
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("max_rows must not be negative")
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 || c.Server.RateLimit.Burst < 0 {
		return fmt.Errorf("server.rate_limit values must not be negative")
	}
	if c.Generator.Enabled() && c.Generator.Timeout <= 0 {
		return fmt.Errorf("generator.timeout must be positive")
	}
	return nil
}
