// Package sampledata creates the shop tables and loads the demo data set
// through embedded goose migrations.
package sampledata

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrUnsupportedDialect is returned for databases goose cannot migrate here.
var ErrUnsupportedDialect = errors.New("sample data is not available for this dialect")

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// gooseDialects maps adapter dialect names to goose dialects.
var gooseDialects = map[string]string{
	"sqlite":   "sqlite3",
	"postgres": "postgres",
}

// Counts of the rows loaded by the sample data migration.
const (
	UserCount      = 5
	ProductCount   = 8
	OrderCount     = 6
	OrderItemCount = 10
)

// Migrate creates the shop tables and loads the sample rows. Migrations
// already applied are skipped.
func Migrate(ctx context.Context, db *sql.DB, dialect string, logger *slog.Logger) error {
	return withGoose(dialect, logger, func() error {
		if err := goose.UpContext(ctx, db, "migrations"); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// Reset rolls back every sample data migration, dropping the shop tables.
func Reset(ctx context.Context, db *sql.DB, dialect string, logger *slog.Logger) error {
	return withGoose(dialect, logger, func() error {
		if err := goose.ResetContext(ctx, db, "migrations"); err != nil {
			return fmt.Errorf("failed to reset migrations: %w", err)
		}
		return nil
	})
}

// Version returns the applied migration version.
func Version(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	var v int64
	err := withGoose(dialect, nil, func() error {
		var err error
		v, err = goose.GetDBVersionContext(ctx, db)
		return err
	})
	return v, err
}

// IsSeeded reports whether the users table exists and has rows.
func IsSeeded(ctx context.Context, db *sql.DB) bool {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return false
	}
	return n > 0
}

func withGoose(dialect string, logger *slog.Logger, fn func() error) error {
	gd, ok := gooseDialects[strings.ToLower(dialect)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger})
	if err := goose.SetDialect(gd); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return fn()
}

// gooseLogger forwards goose progress lines to slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}
