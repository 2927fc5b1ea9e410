package nlsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/askdb/pkg/schema"
)

// Generator is a learned text-to-SQL model. Generate returns the raw model
// output for a prompt; an empty string means the model had no answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrNoSQL is returned when model output contains no SELECT statement.
var ErrNoSQL = errors.New("model output contains no SELECT statement")

var selectStatement = regexp.MustCompile(`(?is)SELECT.*?;`)

// BuildPrompt renders the model prompt for a question against a schema view.
func BuildPrompt(view schema.View, question string) (string, error) {
	raw, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode schema: %w", err)
	}

	var b strings.Builder
	b.WriteString("Convert the following natural language query to SQL:\n\n")
	b.WriteString("Database Schema:\n")
	b.Write(raw)
	b.WriteString("\n\nNatural Language Query: ")
	b.WriteString(question)
	b.WriteString("\n\nSQL Query:")
	return b.String(), nil
}

// ExtractSQL returns the first semicolon-terminated SELECT statement in
// model output.
func ExtractSQL(output string) (string, error) {
	m := selectStatement.FindString(output)
	if m == "" {
		return "", ErrNoSQL
	}
	return strings.TrimSpace(m), nil
}

// generate asks the model for SQL. Any error means the caller falls back to
// the rule-based compiler.
func (c *Compiler) generate(ctx context.Context, question string) (string, error) {
	prompt, err := BuildPrompt(c.schema.Get(), question)
	if err != nil {
		return "", err
	}
	out, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("model generation failed: %w", err)
	}
	return ExtractSQL(out)
}
