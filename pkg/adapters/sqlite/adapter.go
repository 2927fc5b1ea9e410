// Package sqlite provides a SQLite database adapter backed by the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/leapstack-labs/askdb/pkg/adapter"

	_ "modernc.org/sqlite" // sqlite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
	params *Params
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "sqlite"
}

// Connect opens the database file at cfg.Path, or an in-memory database
// when the path is empty.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		path = MemoryPath
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	// Each connection to :memory: is a separate database, and pragmas are
	// per connection, so keep exactly one.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	for _, stmt := range pragmaStatements(params) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply %q: %w", stmt, err)
		}
	}

	a.DB = db
	a.Cfg = cfg
	a.params = params
	return nil
}

// pragmaStatements renders the PRAGMAs for params in a stable order.
func pragmaStatements(p *Params) []string {
	timeout := p.BusyTimeout
	if timeout <= 0 {
		timeout = defaultBusyTimeout
	}
	stmts := []string{
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", timeout),
	}
	for _, name := range slices.Sorted(maps.Keys(p.Pragmas)) {
		stmts = append(stmts, fmt.Sprintf("PRAGMA %s = %s", name, p.Pragmas[name]))
	}
	if p.ReadOnly {
		stmts = append(stmts, "PRAGMA query_only = ON")
	}
	return stmts
}

// GetTableMetadata reads column metadata through pragma_table_info.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	schema, tableName := adapter.ParseQualifiedName(table, "main")

	rows, err := a.DB.QueryContext(ctx,
		`SELECT name, type, "notnull", cid FROM pragma_table_info(?, ?) ORDER BY cid`,
		tableName, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var col adapter.Column
		var notNull int
		if err := rows.Scan(&col.Name, &col.Type, &notNull, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position++
		col.Nullable = notNull == 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return &adapter.Metadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: a.CountRows(ctx, schema+"."+tableName),
	}, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
