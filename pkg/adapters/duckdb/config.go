package duckdb

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "json", "icu")
	Extensions []string `mapstructure:"extensions"`

	// Settings applied at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`

	// AttachSQLite attaches a SQLite file and makes it the default catalog,
	// so questions can be answered over an existing shop database.
	AttachSQLite string `mapstructure:"attach_sqlite"`
}

func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if raw == nil {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}
