package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/askdb/pkg/nlsql"
)

// Result renders query rows in the effective mode.
func (r *Renderer) Result(res nlsql.Result) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		rows := res.Rows
		if rows == nil {
			rows = []nlsql.Row{}
		}
		return r.JSON(rows)
	case ModeCSV:
		return RenderCSV(r.out, res)
	case ModeMarkdown:
		return RenderMarkdown(r.out, res)
	default:
		return RenderTable(r.out, res)
	}
}

// RenderTable writes rows as a box-drawn table followed by a row count.
func RenderTable(w io.Writer, res nlsql.Result) error {
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range res.Rows {
		tr := make(table.Row, len(res.Columns))
		for i, col := range res.Columns {
			tr[i] = FormatValue(row[col])
		}
		t.AppendRow(tr)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
	return nil
}

// RenderCSV writes rows as CSV with a header line.
func RenderCSV(w io.Writer, res nlsql.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	for _, row := range res.Rows {
		record := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			record[i] = FormatValue(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderMarkdown writes rows as a GitHub-flavored markdown table.
func RenderMarkdown(w io.Writer, res nlsql.Result) error {
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range res.Rows {
		tr := make(table.Row, len(res.Columns))
		for i, col := range res.Columns {
			tr[i] = FormatValue(row[col])
		}
		t.AppendRow(tr)
	}

	t.RenderMarkdown()
	return nil
}

// FormatValue renders a cell value, with NULL for nil.
func FormatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
