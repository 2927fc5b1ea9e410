package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askdb/internal/cli/config"
	"github.com/leapstack-labs/askdb/internal/cli/output"
	"github.com/leapstack-labs/askdb/internal/executor"
	"github.com/leapstack-labs/askdb/internal/testutil"
	"github.com/leapstack-labs/askdb/pkg/adapter"
	"github.com/leapstack-labs/askdb/pkg/nlsql"
	"github.com/leapstack-labs/askdb/pkg/schema"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewAskCommand(), "ask [question]", []string{"sql", "history"}},
		{NewSQLCommand(), "sql [statement]", nil},
		{NewSchemaCommand(), "schema", []string{"format"}},
		{NewSeedCommand(), "seed", []string{"force"}},
		{NewExamplesCommand(), "examples", []string{"plain"}},
		{NewDoctorCommand(), "doctor", []string{"format"}},
		{NewServeCommand(), "serve", []string{"addr", "no-seed"}},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

type testContext struct {
	cc     *CommandContext
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestContext(t *testing.T, mode output.Mode) *testContext {
	t.Helper()

	db := testutil.SampleDB(t)
	logger := testutil.NewTestLogger(t)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	return &testContext{
		cc: &CommandContext{
			Cfg:      &config.Config{Target: &config.TargetConfig{Type: "sqlite", Database: ":memory:"}},
			Logger:   logger,
			DB:       db,
			Exec:     executor.New(db, executor.WithLogger(logger)),
			Compiler: nlsql.New(nlsql.WithLogger(logger)),
			Renderer: output.NewRendererWithTTY(out, errOut, false, mode),
		},
		out:    out,
		errOut: errOut,
	}
}

func TestChatSession_HandleLine(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		quit       bool
		wantOut    []string
		wantErrOut []string
	}{
		{name: "quit", line: ".quit", quit: true},
		{name: "exit is case insensitive", line: ".EXIT", quit: true},
		{name: "blank line", line: "   "},
		{
			name:    "question",
			line:    "How many users do we have?",
			wantOut: []string{"SELECT COUNT(*) as count FROM users;", "There are 5 users in the system."},
		},
		{
			name:       "execution error",
			line:       "What are the best selling products?",
			wantOut:    []string{"SUM(oi.quantity)"},
			wantErrOut: []string{"no such table: order_items"},
		},
		{name: "help", line: ".help", wantOut: []string{".schema", ".sql <stmt>"}},
		{name: "examples", line: ".examples", wantOut: []string{"1. How many users do we have?"}},
		{name: "schema", line: ".schema", wantOut: []string{"order_items", "users.id -> orders.user_id (one-to-many)"}},
		{name: "raw sql", line: ".sql SELECT name FROM products WHERE id = 7", wantOut: []string{"Monitor", "(1 rows)"}},
		{name: "raw sql error", line: ".sql SELECT * FROM nope", wantErrOut: []string{"query failed", "no such table: nope"}},
		{name: "raw sql usage", line: ".sql", wantErrOut: []string{"Usage: .sql <statement>"}},
		{name: "unknown command", line: ".frobnicate", wantErrOut: []string{"Unknown command: .frobnicate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestContext(t, output.ModeTable)
			if tt.name == "execution error" {
				_, err := tc.cc.DB.SQLDB().Exec("DROP TABLE order_items")
				require.NoError(t, err)
			}
			s := &chatSession{cc: tc.cc, out: tc.out, errOut: tc.errOut}

			assert.Equal(t, tt.quit, s.handleLine(context.Background(), tt.line))
			for _, want := range tt.wantOut {
				assert.Contains(t, tc.out.String(), want)
			}
			for _, want := range tt.wantErrOut {
				assert.Contains(t, tc.errOut.String(), want)
			}
			if tt.wantErrOut == nil {
				assert.Empty(t, tc.errOut.String())
			}
		})
	}
}

func TestRenderAnswer(t *testing.T) {
	ans := nlsql.Answer{
		Question:    "How many users do we have?",
		SQL:         "SELECT COUNT(*) as count FROM users;",
		Result:      nlsql.Result{Columns: []string{"count"}, Rows: []nlsql.Row{{"count": int64(5)}}},
		Explanation: "There are 5 users in the system.",
		Success:     true,
	}

	t.Run("markdown", func(t *testing.T) {
		out := &bytes.Buffer{}
		require.NoError(t, renderAnswer(output.NewRendererWithTTY(out, &bytes.Buffer{}, false, output.ModeMarkdown), ans))

		got := out.String()
		assert.True(t, strings.HasPrefix(got, "```sql\nSELECT COUNT(*) as count FROM users;\n```\n"), got)
		assert.Contains(t, got, "| 5 |")
		assert.Contains(t, got, "> There are 5 users in the system.")
	})

	t.Run("csv prints rows only", func(t *testing.T) {
		out := &bytes.Buffer{}
		require.NoError(t, renderAnswer(output.NewRendererWithTTY(out, &bytes.Buffer{}, false, output.ModeCSV), ans))
		assert.Equal(t, "count\n5\n", out.String())
	})

	t.Run("json", func(t *testing.T) {
		out := &bytes.Buffer{}
		require.NoError(t, renderAnswer(output.NewRendererWithTTY(out, &bytes.Buffer{}, false, output.ModeJSON), ans))

		var got map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, ans.SQL, got["sql_query"])
		assert.Equal(t, ans.Explanation, got["explanation"])
		assert.Equal(t, true, got["success"])
	})

	t.Run("no sql", func(t *testing.T) {
		out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
		failed := nlsql.Answer{Explanation: "Error processing query: boom"}
		require.NoError(t, renderAnswer(output.NewRendererWithTTY(out, errOut, false, output.ModeTable), failed))
		assert.Empty(t, out.String())
		assert.Contains(t, errOut.String(), "Error processing query: boom")
	})
}

func TestCheckTable(t *testing.T) {
	users := schema.Table{Name: "users", Columns: []string{"id", "name", "email"}}
	cols := func(names ...string) []adapter.Column {
		out := make([]adapter.Column, len(names))
		for i, n := range names {
			out[i] = adapter.Column{Name: n}
		}
		return out
	}

	tests := []struct {
		name    string
		meta    *adapter.Metadata
		err     error
		status  string
		details []string
	}{
		{
			name:   "complete",
			meta:   &adapter.Metadata{Name: "users", Columns: cols("id", "name", "email", "age"), RowCount: 5},
			status: statusPass,
		},
		{
			name:    "empty",
			meta:    &adapter.Metadata{Name: "users", Columns: cols("id", "name", "email")},
			status:  statusWarn,
			details: []string{"table is empty"},
		},
		{
			name:    "missing column",
			meta:    &adapter.Metadata{Name: "users", Columns: cols("id", "name"), RowCount: 5},
			status:  statusError,
			details: []string{"missing column email"},
		},
		{
			name:    "missing table",
			err:     errors.New("table not found: users"),
			status:  statusError,
			details: []string{"table not found: users", "run 'askdb seed' to create the sample tables"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := checkTable(users, tt.meta, tt.err)
			assert.Equal(t, "users", hc.Name)
			assert.Equal(t, "tables", hc.Group)
			assert.Equal(t, tt.status, hc.Status)
			assert.Equal(t, tt.details, hc.Details)
		})
	}
}

func TestRenderSchema(t *testing.T) {
	d := schema.Default()

	tests := []struct {
		name    string
		format  string
		wantOut []string
		wantErr string
	}{
		{name: "follows renderer mode", format: "", wantOut: []string{"# Schema", "## order_items", "- `product_id`"}},
		{name: "yaml", format: "yaml", wantOut: []string{"tables:", "  users:", "relationships:"}},
		{name: "json", format: "json", wantOut: []string{`"tables": {`, `"users.id -> orders.user_id (one-to-many)"`}},
		{name: "table", format: "table", wantOut: []string{"COLUMN", "stock_quantity", "Relationships"}},
		{name: "unknown", format: "xml", wantErr: `unknown schema format "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			r := output.NewRendererWithTTY(out, &bytes.Buffer{}, false, output.ModeAuto)

			err := renderSchema(r, d, tt.format)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestEachLine(t *testing.T) {
	input := "How many users do we have?\n\n# a comment\n  Show me recent orders  \n"

	var got []string
	err := eachLine(strings.NewReader(input), func(q string) error {
		got = append(got, q)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"How many users do we have?", "Show me recent orders"}, got)

	stop := errors.New("stop")
	err = eachLine(strings.NewReader("a\nb\n"), func(string) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestRunRawSQL(t *testing.T) {
	tc := newTestContext(t, output.ModeCSV)

	require.NoError(t, runRawSQL(context.Background(), tc.cc, "SELECT name, city FROM users WHERE id IN (1, 3) ORDER BY id"))
	assert.Equal(t, "name,city\nJohn Doe,New York\nBob Johnson,Chicago\n", tc.out.String())

	err := runRawSQL(context.Background(), tc.cc, "SELECT * FROM customers")
	require.ErrorIs(t, err, errQueryFailed)
	assert.Contains(t, err.Error(), "no such table: customers")
}

func TestRenderSeed(t *testing.T) {
	out := SeedOutput{Status: "loaded", Dialect: "sqlite", Version: 2, Users: 5, Products: 8, Orders: 6, Items: 10}

	t.Run("loaded", func(t *testing.T) {
		buf := &bytes.Buffer{}
		require.NoError(t, renderSeed(output.NewRendererWithTTY(buf, &bytes.Buffer{}, false, output.ModeTable), out, "shop.db"))
		assert.Contains(t, buf.String(), "Sample data loaded into shop.db")
		assert.Contains(t, buf.String(), "5 users, 8 products, 6 orders, 10 order items (schema version 2)")
	})

	t.Run("skipped", func(t *testing.T) {
		buf, errBuf := &bytes.Buffer{}, &bytes.Buffer{}
		skipped := out
		skipped.Status = "skipped"
		require.NoError(t, renderSeed(output.NewRendererWithTTY(buf, errBuf, false, output.ModeTable), skipped, "shop.db"))
		assert.Empty(t, buf.String())
		assert.Contains(t, errBuf.String(), "shop.db already has sample data (use --force to reload)")
	})

	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		require.NoError(t, renderSeed(output.NewRendererWithTTY(buf, &bytes.Buffer{}, false, output.ModeJSON), out, "shop.db"))

		var got SeedOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, out, got)
	})
}

func TestHistoryPath(t *testing.T) {
	tests := []struct {
		file, root, want string
	}{
		{".askdb_history", "/srv/shop", "/srv/shop/.askdb_history"},
		{"/tmp/hist", "/srv/shop", "/tmp/hist"},
		{".askdb_history", "", ".askdb_history"},
		{"", "/srv/shop", ""},
	}

	for _, tt := range tests {
		cc := &CommandContext{Cfg: &config.Config{HistoryFile: tt.file, ProjectRoot: tt.root}}
		assert.Equal(t, tt.want, historyPath(cc))
	}
}
