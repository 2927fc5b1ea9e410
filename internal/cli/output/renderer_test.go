package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askdb/pkg/nlsql"
)

func sampleResult() nlsql.Result {
	return nlsql.Result{
		Columns: []string{"id", "name", "city"},
		Rows: []nlsql.Row{
			{"id": int64(1), "name": "John Doe", "city": "New York"},
			{"id": int64(2), "name": "Jane Smith", "city": nil},
		},
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{"auto on terminal", ModeAuto, true, ModeTable},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"explicit json", ModeJSON, true, ModeJSON},
		{"explicit csv piped", ModeCSV, false, ModeCSV},
		{"unknown falls back to auto", Mode("yaml"), false, ModeMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeAuto, ParseMode(""))
	assert.Equal(t, ModeMarkdown, ParseMode("md"))
	assert.Equal(t, ModeTable, ParseMode("text"))
	assert.Equal(t, ModeJSON, ParseMode("json"))
	assert.False(t, ParseMode("xml").Valid())
}

func TestIsTerminal_Buffer(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestResult_Table(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, true, ModeTable)

	require.NoError(t, r.Result(sampleResult()))

	got := out.String()
	assert.Contains(t, got, "John Doe")
	assert.Contains(t, got, "NULL")
	assert.Contains(t, got, "(2 rows)")
}

func TestResult_Empty(t *testing.T) {
	for _, mode := range []Mode{ModeTable, ModeMarkdown} {
		var out bytes.Buffer
		r := NewRendererWithTTY(&out, &bytes.Buffer{}, true, mode)
		require.NoError(t, r.Result(nlsql.Result{Columns: []string{"id"}}))
		assert.Equal(t, "(0 rows)\n", out.String(), mode)
	}
}

func TestResult_JSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeJSON)

	require.NoError(t, r.Result(sampleResult()))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "John Doe", rows[0]["name"])
	assert.Nil(t, rows[1]["city"])
}

func TestResult_JSONEmptyIsArray(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeJSON)

	require.NoError(t, r.Result(nlsql.Result{}))
	assert.Equal(t, "[]\n", out.String())
}

func TestResult_CSV(t *testing.T) {
	var out bytes.Buffer
	res := sampleResult()
	res.Rows[0]["city"] = "Austin, TX"
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeCSV)

	require.NoError(t, r.Result(res))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name,city", lines[0])
	assert.Equal(t, `1,John Doe,"Austin, TX"`, lines[1])
	assert.Equal(t, "2,Jane Smith,NULL", lines[2])
}

func TestResult_Markdown(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeAuto)

	require.NoError(t, r.Result(sampleResult()))

	got := out.String()
	assert.Contains(t, got, "| id")
	assert.Contains(t, got, "Jane Smith")
	assert.Contains(t, got, "---")
}

func TestMessages(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeAuto)

	r.Success("seeded")
	r.Warning("already seeded")
	r.Error("connection refused")
	r.Header("Schema")

	assert.Contains(t, out.String(), "✓ seeded")
	assert.Contains(t, out.String(), "## Schema")
	assert.Contains(t, errOut.String(), "! already seeded")
	assert.Contains(t, errOut.String(), "✗ connection refused")
}
