// Package executor runs generated SQL against a connected adapter and
// collects the rows into nlsql results.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/askdb/pkg/adapter"
	"github.com/leapstack-labs/askdb/pkg/nlsql"
)

// DefaultMaxRows caps result sets unless configured otherwise.
const DefaultMaxRows = 1000

// Executor implements nlsql.Executor on top of an adapter.
type Executor struct {
	db      adapter.Adapter
	logger  *slog.Logger
	maxRows int
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxRows caps the number of rows collected. Zero or less disables the cap.
func WithMaxRows(n int) Option {
	return func(e *Executor) {
		e.maxRows = n
	}
}

// New creates an Executor for a connected adapter.
func New(db adapter.Adapter, opts ...Option) *Executor {
	e := &Executor{
		db:      db,
		logger:  slog.New(slog.DiscardHandler),
		maxRows: DefaultMaxRows,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes sql. Failures come back as the single error row.
func (e *Executor) Run(ctx context.Context, sql string) nlsql.Result {
	res, err := e.run(ctx, sql)
	if err != nil {
		e.logger.Warn("query execution failed", slog.String("sql", sql), slog.String("error", err.Error()))
		return nlsql.ErrorResult(err)
	}
	e.logger.Debug("query executed", slog.String("sql", sql), slog.Int("rows", len(res.Rows)))
	return res
}

func (e *Executor) run(ctx context.Context, sql string) (nlsql.Result, error) {
	rows, err := e.db.Query(ctx, sql)
	if err != nil {
		return nlsql.Result{}, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nlsql.Result{}, fmt.Errorf("failed to read columns: %w", err)
	}

	res := nlsql.Result{Columns: cols, Rows: []nlsql.Row{}}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if e.maxRows > 0 && len(res.Rows) >= e.maxRows {
			e.logger.Info("result truncated", slog.Int("max_rows", e.maxRows))
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nlsql.Result{}, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(nlsql.Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nlsql.Result{}, fmt.Errorf("error iterating rows: %w", err)
	}
	return res, nil
}

// normalizeValue turns driver byte slices into strings so results render
// and encode as text.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

var _ nlsql.Executor = (*Executor)(nil)
