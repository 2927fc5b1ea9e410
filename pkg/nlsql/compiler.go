package nlsql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/askdb/pkg/schema"
)

// Compiler turns questions into SQL and explains results. It is immutable
// after construction and safe for concurrent use.
type Compiler struct {
	schema    *schema.Descriptor
	generator Generator
	logger    *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithSchema sets the schema used for join planning and model prompts.
func WithSchema(d *schema.Descriptor) Option {
	return func(c *Compiler) {
		if d != nil {
			c.schema = d
		}
	}
}

// WithGenerator plugs in a learned model as the preferred SQL source.
func WithGenerator(g Generator) Option {
	return func(c *Compiler) {
		c.generator = g
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Compiler over the default shop schema unless configured
// otherwise.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		schema: schema.Default(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schema returns the schema the compiler plans against.
func (c *Compiler) Schema() *schema.Descriptor {
	return c.schema
}

// Compile runs the rule-based pipeline only.
func (c *Compiler) Compile(question string) (CompiledQuery, error) {
	in := Parse(question)

	st, err := planner{schema: c.schema}.plan(in)
	if err != nil {
		return CompiledQuery{Intent: in, Source: SourceRules}, err
	}
	if !in.CrossTable && in.Action != ActionBestSelling && len(st.joins) > 0 {
		in.Joins = st.joins
	}

	return CompiledQuery{
		SQL:         assemble(st),
		Intent:      in,
		Source:      SourceRules,
		Explanation: describe(in),
	}, nil
}

// Translate compiles a question into SQL. It never panics: on internal
// failure the returned query has empty SQL and the explanation states the
// error. When a Generator is configured its answer is preferred, and any
// model failure falls back to the rules.
func (c *Compiler) Translate(ctx context.Context, question string) (cq CompiledQuery) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("translate panicked", slog.String("question", question), slog.Any("panic", r))
			cq = CompiledQuery{
				Source:      SourceRules,
				Explanation: fmt.Sprintf("Error processing query: %v", r),
			}
		}
	}()

	if c.generator != nil {
		sql, err := c.generate(ctx, question)
		if err == nil {
			return CompiledQuery{
				SQL:         sql,
				Intent:      Parse(question),
				Source:      SourceModel,
				Explanation: "SQL generated by the language model.",
			}
		}
		c.logger.Debug("falling back to rule-based compiler", slog.String("error", err.Error()))
	}

	cq, err := c.Compile(question)
	if err != nil {
		c.logger.Error("compile failed", slog.String("question", question), slog.String("error", err.Error()))
		return CompiledQuery{
			Intent:      cq.Intent,
			Source:      SourceRules,
			Explanation: fmt.Sprintf("Error processing query: %v", err),
		}
	}
	return cq
}

// Explain describes result rows for a question. The question is parsed
// again, so the wording depends only on the question and the rows; sql does
// not influence it.
func (c *Compiler) Explain(question, sql string, rows []Row) string {
	text := normalize(question)
	return explain(parse(text), text, rows)
}

// Answer is the full round trip for one question.
type Answer struct {
	Question    string `json:"natural_query"`
	SQL         string `json:"sql_query"`
	Source      Source `json:"source"`
	Result      Result `json:"results"`
	Explanation string `json:"explanation"`
	Success     bool   `json:"success"`
}

// Answer translates a question, runs it, and explains the rows. Execution
// failures are reported in the explanation; Success is false only when no
// SQL could be produced.
func (c *Compiler) Answer(ctx context.Context, question string, exec Executor) (ans Answer) {
	ans.Question = question

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("answer panicked", slog.String("question", question), slog.Any("panic", r))
			ans = Answer{
				Question:    question,
				Explanation: fmt.Sprintf("Error processing query: %v", r),
			}
		}
	}()

	cq := c.Translate(ctx, question)
	ans.SQL = cq.SQL
	ans.Source = cq.Source
	if cq.SQL == "" {
		ans.Explanation = cq.Explanation
		return ans
	}

	ans.Result = exec.Run(ctx, cq.SQL)
	if msg, failed := ans.Result.Failure(); failed {
		c.logger.Warn("query failed", slog.String("sql", cq.SQL), slog.String("error", msg))
	}
	ans.Explanation = explain(cq.Intent, normalize(question), ans.Result.Rows)
	ans.Success = true
	return ans
}

// describe summarizes a plan before it runs.
func describe(in Intent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Planned a %s query over %s", in.Action, strings.Join(in.Tables, ", "))

	if len(in.Conditions) > 0 {
		conds := make([]string, len(in.Conditions))
		for i, cond := range in.Conditions {
			conds[i] = cond.sql(cond.Column)
		}
		b.WriteString(" filtered by " + strings.Join(conds, " and "))
	}
	if len(in.GroupBy) > 0 {
		b.WriteString(", grouped by " + strings.Join(in.GroupBy, ", "))
	}
	if len(in.OrderBy) > 0 {
		terms := make([]string, len(in.OrderBy))
		for i, o := range in.OrderBy {
			terms[i] = o.Column + " " + string(o.Direction)
		}
		b.WriteString(", ordered by " + strings.Join(terms, ", "))
	}
	if in.Limit > 0 {
		fmt.Fprintf(&b, ", limited to %d rows", in.Limit)
	}
	b.WriteString(".")
	return b.String()
}
