package sqlite

import (
	"fmt"
	"regexp"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds SQLite-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Pragmas applied after connecting, e.g. journal_mode: wal.
	Pragmas map[string]string `mapstructure:"pragmas"`

	// ReadOnly rejects writes for the lifetime of the connection.
	ReadOnly bool `mapstructure:"read_only"`

	// BusyTimeout in milliseconds. Zero keeps the default.
	BusyTimeout int `mapstructure:"busy_timeout"`
}

const defaultBusyTimeout = 5000

var pragmaName = regexp.MustCompile(`^[a-z_]+$`)

// parseParams decodes raw params, accepting loosely typed YAML values.
func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid sqlite params: %w", err)
	}

	for name := range p.Pragmas {
		if !pragmaName.MatchString(name) {
			return nil, fmt.Errorf("invalid sqlite params: bad pragma name %q", name)
		}
	}
	return p, nil
}
