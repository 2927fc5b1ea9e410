package nlsql

import (
	"slices"
	"strings"
)

// Action is the aggregate or select operation the generated SQL performs.
type Action string

// Actions, in classification precedence order. ActionBestSelling is never
// produced by the classifier; ordering resolution forces it.
const (
	ActionSelect      Action = "select"
	ActionCount       Action = "count"
	ActionSum         Action = "sum"
	ActionAvg         Action = "avg"
	ActionMax         Action = "max"
	ActionMin         Action = "min"
	ActionBestSelling Action = "bestselling"
)

// scalar reports whether the action collapses rows into a single value when
// no grouping is applied. Max and min list whole rows sorted by price, so
// they are not scalar.
func (a Action) scalar() bool {
	switch a {
	case ActionCount, ActionSum, ActionAvg:
		return true
	}
	return false
}

// Operator is a comparison operator in a condition.
type Operator string

// Supported operators.
const (
	OpEq   Operator = "="
	OpLt   Operator = "<"
	OpGt   Operator = ">"
	OpLte  Operator = "<="
	OpGte  Operator = ">="
	OpLike Operator = "LIKE"
)

// phrase is the English wording of a comparison, as used in explanations.
func (o Operator) phrase() string {
	switch o {
	case OpGt:
		return "over"
	case OpLt:
		return "under"
	case OpGte:
		return "at least"
	case OpLte:
		return "up to"
	case OpEq:
		return "exactly"
	}
	return ""
}

// Literal is a condition value: either a string or a number.
type Literal struct {
	text    string
	number  float64
	numeric bool
}

// Text returns a string literal.
func Text(s string) Literal { return Literal{text: s} }

// Number returns a numeric literal.
func Number(f float64) Literal { return Literal{number: f, numeric: true} }

// IsNumber reports whether the literal is numeric.
func (l Literal) IsNumber() bool { return l.numeric }

// Float returns the numeric value, or 0 for string literals.
func (l Literal) Float() float64 { return l.number }

// String returns the literal as it reads in prose: numbers like "500.0",
// strings unquoted.
func (l Literal) String() string {
	if l.numeric {
		return formatNumber(l.number)
	}
	return l.text
}

// SQL renders the literal for a WHERE clause. Strings are single-quoted with
// embedded quotes doubled; numbers are unquoted.
func (l Literal) SQL() string {
	if l.numeric {
		return formatNumber(l.number)
	}
	return "'" + strings.ReplaceAll(l.text, "'", "''") + "'"
}

// Condition is one filter triple. Conditions combine with AND.
type Condition struct {
	Column   string
	Operator Operator
	Value    Literal
}

// sql renders the condition against the given column reference.
func (c Condition) sql(column string) string {
	return column + " " + string(c.Operator) + " " + c.Value.SQL()
}

// mentions reports whether the column or value contains s.
func (c Condition) mentions(s string) bool {
	return strings.Contains(c.Column, s) || strings.Contains(c.Value.String(), s)
}

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderTerm is one ORDER BY entry.
type OrderTerm struct {
	Column    string
	Direction Direction
}

// Join is a table joined beyond the base cross-table chain.
type Join struct {
	Table string
	Alias string
	On    string
}

// Intent is the structured reading of a question.
//
// Tables is never empty. The first table drives single-table plans.
// Condition columns are always bare; cross-table plans qualify them during
// assembly. GroupBy and OrderBy columns are already qualified for
// cross-table intents. A zero Limit means no LIMIT clause.
type Intent struct {
	Action     Action
	Tables     []string
	Conditions []Condition
	GroupBy    []string
	OrderBy    []OrderTerm
	Limit      int
	Joins      []Join
	CrossTable bool
}

// condition returns the first condition on column.
func (in Intent) condition(column string) (Condition, bool) {
	for _, c := range in.Conditions {
		if c.Column == column {
			return c, true
		}
	}
	return Condition{}, false
}

// hasTable reports whether table is among the resolved tables.
func (in Intent) hasTable(table string) bool {
	return slices.Contains(in.Tables, table)
}

// Source identifies where a compiled statement came from.
type Source string

// SQL sources.
const (
	SourceRules Source = "rules"
	SourceModel Source = "model"
)

// CompiledQuery is a SQL statement together with the intent that produced it.
// SQL is empty only when compilation failed, in which case Explanation
// carries the error.
type CompiledQuery struct {
	SQL         string
	Intent      Intent
	Source      Source
	Explanation string
}
