package testutil

import (
	"context"
	"testing"

	"github.com/leapstack-labs/askdb/internal/sampledata"
	"github.com/leapstack-labs/askdb/pkg/adapter"
	"github.com/leapstack-labs/askdb/pkg/adapters/sqlite"
)

// SampleDB returns a connected in-memory SQLite adapter loaded with the
// sample shop data. It is closed when the test ends.
func SampleDB(t testing.TB) adapter.Adapter {
	t.Helper()
	ctx := context.Background()

	db := sqlite.New(NewTestLogger(t))
	if err := db.Connect(ctx, adapter.Config{Type: "sqlite"}); err != nil {
		t.Fatalf("connect sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := sampledata.Migrate(ctx, db.SQLDB(), db.DialectName(), nil); err != nil {
		t.Fatalf("load sample data: %v", err)
	}
	return db
}
