package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/askdb/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "shop",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=shop sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: adapter.Config{
				Host:     "prod.example.com",
				Port:     5432,
				Database: "proddb",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=prod.example.com port=5432 dbname=proddb sslmode=require user=admin",
		},
		{
			name:     "defaults",
			config:   adapter.Config{Database: "mydb"},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
		{
			name: "schema and runtime options",
			config: adapter.Config{
				Host:     "db.example.com",
				Port:     5433,
				Database: "analytics",
				Schema:   "shop",
				Options: map[string]string{
					"statement_timeout":             "5000",
					"default_transaction_read_only": "on",
				},
			},
			expected: "host=db.example.com port=5433 dbname=analytics sslmode=disable search_path=shop default_transaction_read_only=on statement_timeout=5000",
		},
		{
			name: "password with spaces",
			config: adapter.Config{
				Database: "shop",
				Password: "it's secret",
			},
			expected: `host=localhost port=5432 dbname=shop sslmode=disable password='it\'s secret'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestNew(t *testing.T) {
	adp := New(nil)

	assert.NotNil(t, adp)
	assert.Nil(t, adp.DB, "DB should be nil before Connect")
	assert.False(t, adp.IsConnected())
	assert.Equal(t, "postgres", adp.DialectName())
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	require.ErrorIs(t, adp.Exec(ctx, "SELECT 1"), adapter.ErrNotConnected)
	_, err := adp.Query(ctx, "SELECT 1")
	require.ErrorIs(t, err, adapter.ErrNotConnected)
	_, err = adp.GetTableMetadata(ctx, "users")
	require.ErrorIs(t, err, adapter.ErrNotConnected)
	assert.NoError(t, adp.Close())
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	adp := New(nil)
	adp.DB = db
	adp.Cfg = adapter.Config{Schema: "shop"}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE table_schema = $1 AND table_name = $2")).
		WithArgs("shop", "products").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
			AddRow("id", "integer", "NO", 1).
			AddRow("price", "double precision", "NO", 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM shop.products")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(8))

	meta, err := adp.GetTableMetadata(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, "shop", meta.Schema)
	assert.Equal(t, int64(8), meta.RowCount)
	assert.True(t, meta.HasColumn("price"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("postgres"))

	factory, ok := adapter.Get("postgres")
	require.True(t, ok)

	pg, ok := factory(nil).(*Adapter)
	require.True(t, ok, "factory should return *Adapter")
	assert.Equal(t, "postgres", pg.DialectName())
}
