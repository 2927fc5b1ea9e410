package nlsql

import (
	"context"
	"fmt"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Result is the outcome of running a statement. A failed execution is a
// single row holding an "error" key.
type Result struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ErrorResult wraps an execution failure as a result.
func ErrorResult(err error) Result {
	return Result{
		Columns: []string{"error"},
		Rows:    []Row{{"error": err.Error()}},
	}
}

// Failure returns the error message carried by a failed result.
func (r Result) Failure() (string, bool) {
	if len(r.Rows) == 0 {
		return "", false
	}
	msg, ok := r.Rows[0]["error"]
	if !ok {
		return "", false
	}
	return fmt.Sprint(msg), true
}

// Executor runs SQL. Implementations never return Go errors: failures come
// back as an ErrorResult.
type Executor interface {
	Run(ctx context.Context, sql string) Result
}
