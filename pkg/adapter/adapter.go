// Package adapter defines the database contract askdb runs generated SQL
// against.
//
// Concrete implementations live in pkg/adapters/ subdirectories and register
// themselves from init(). Import them for side effects to make a target type
// available.
package adapter

import (
	"context"
	"database/sql"
)

// Config holds connection settings for a target database.
type Config struct {
	Type     string            `json:"type"               yaml:"type"               koanf:"type"`
	Path     string            `json:"path,omitempty"     yaml:"path,omitempty"     koanf:"path"`
	Host     string            `json:"host,omitempty"     yaml:"host,omitempty"     koanf:"host"`
	Port     int               `json:"port,omitempty"     yaml:"port,omitempty"     koanf:"port"`
	Database string            `json:"database,omitempty" yaml:"database,omitempty" koanf:"database"`
	Username string            `json:"username,omitempty" yaml:"username,omitempty" koanf:"username"`
	Password string            `json:"password,omitempty" yaml:"password,omitempty" koanf:"password"`
	Schema   string            `json:"schema,omitempty"   yaml:"schema,omitempty"   koanf:"schema"`
	Options  map[string]string `json:"options,omitempty"  yaml:"options,omitempty"  koanf:"options"`

	// Params carries adapter specific settings, decoded by each adapter.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty" koanf:"params"`
}

// Column describes a single table column.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
}

// Metadata describes a table as the database sees it.
type Metadata struct {
	Schema   string   `json:"schema"`
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`
	RowCount int64    `json:"row_count"`
}

// HasColumn reports whether the table has a column with the given name.
func (m *Metadata) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Rows wraps sql.Rows so adapters can hand back driver results unchanged.
type Rows struct {
	*sql.Rows
}

// Adapter is implemented by every supported database.
type Adapter interface {
	// Connect opens the database described by cfg.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection.
	Close() error

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, sql string) error

	// Query runs a statement that returns rows. The caller closes them.
	Query(ctx context.Context, sql string) (*Rows, error)

	// GetTableMetadata retrieves column metadata for a table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// DialectName names the SQL dialect, e.g. "sqlite" or "postgres".
	DialectName() string

	// SQLDB exposes the underlying pool, or nil before Connect.
	SQLDB() *sql.DB
}
