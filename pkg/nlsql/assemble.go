package nlsql

import (
	"strconv"
	"strings"
)

// assemble renders a planned statement. Clauses appear in the fixed order
// SELECT, FROM, JOIN, WHERE, GROUP BY, ORDER BY, LIMIT; empty clauses are
// omitted and the statement ends with a semicolon.
func assemble(st statement) string {
	parts := []string{"SELECT " + st.columns}

	from := "FROM " + st.from.table
	if st.from.alias != "" {
		from += " " + st.from.alias
	}
	parts = append(parts, from)

	for _, j := range st.joins {
		parts = append(parts, "JOIN "+j.Table+" "+j.Alias+" ON "+j.On)
	}

	if len(st.where) > 0 {
		parts = append(parts, "WHERE "+strings.Join(st.where, " AND "))
	}

	if len(st.groupBy) > 0 {
		parts = append(parts, "GROUP BY "+strings.Join(st.groupBy, ", "))
	}

	if len(st.orderBy) > 0 {
		terms := make([]string, len(st.orderBy))
		for i, o := range st.orderBy {
			terms[i] = o.Column + " " + string(o.Direction)
		}
		parts = append(parts, "ORDER BY "+strings.Join(terms, ", "))
	}

	if st.limit > 0 {
		parts = append(parts, "LIMIT "+strconv.Itoa(st.limit))
	}

	return strings.Join(parts, " ") + ";"
}
