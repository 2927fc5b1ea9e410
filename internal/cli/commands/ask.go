package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/askdb/internal/cli/output"
	"github.com/leapstack-labs/askdb/pkg/nlsql"
)

// AskOptions holds options for the ask command.
type AskOptions struct {
	SQLOnly bool
}

// errQueryFailed marks an answer whose statement could not be produced or run.
var errQueryFailed = errors.New("query failed")

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the shop database",
		Long: `Translate a plain-English question into SQL, run it against the target
database, and explain the result.

Without a question, ask reads one question per line from stdin, or starts
an interactive chat when stdin is a terminal.`,
		Example: `  # Ask a single question
  askdb ask "How many users do we have?"

  # Only show the generated SQL
  askdb ask --sql "What are the best selling products?"

  # Answer a batch of questions as JSON
  askdb examples --plain | askdb ask -o json

  # Interactive chat
  askdb ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SQLOnly, "sql", false, "Print the generated SQL without running it")
	cmd.Flags().String("history", "", "Chat history file (default: .askdb_history in the project root)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string, opts *AskOptions) error {
	question := strings.TrimSpace(strings.Join(args, " "))

	if opts.SQLOnly {
		cc := NewCommandContextWithoutDB(cmd)
		if question != "" {
			return printSQL(cmd, cc, question)
		}
		return eachLine(cmd.InOrStdin(), func(q string) error {
			return printSQL(cmd, cc, q)
		})
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if question != "" {
		return askOne(cmd, cc, question)
	}

	if isInteractive(cmd.InOrStdin()) {
		return runChatREPL(cmd, cc)
	}

	var failed int
	err = eachLine(cmd.InOrStdin(), func(q string) error {
		if err := askOne(cmd, cc, q); err != nil {
			failed++
		}
		return nil
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of the questions could not be answered", errQueryFailed, failed)
	}
	return nil
}

// askOne answers a single question and renders the answer.
func askOne(cmd *cobra.Command, cc *CommandContext, question string) error {
	ans := cc.Compiler.Answer(cmd.Context(), question, cc.Exec)
	if err := renderAnswer(cc.Renderer, ans); err != nil {
		return err
	}

	if !ans.Success {
		return fmt.Errorf("%w: %s", errQueryFailed, ans.Explanation)
	}
	if msg, failed := ans.Result.Failure(); failed {
		return fmt.Errorf("%w: %s", errQueryFailed, msg)
	}
	return nil
}

func printSQL(cmd *cobra.Command, cc *CommandContext, question string) error {
	cq := cc.Compiler.Translate(cmd.Context(), question)
	if cq.SQL == "" {
		return fmt.Errorf("%w: %s", errQueryFailed, cq.Explanation)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cq.SQL)
	return nil
}

// renderAnswer writes the SQL, rows and explanation of an answer.
func renderAnswer(r *output.Renderer, ans nlsql.Answer) error {
	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		return r.JSON(ans)
	}
	if mode == output.ModeCSV {
		return r.Result(ans.Result)
	}

	styles := r.Styles()

	if ans.SQL == "" {
		r.Error(ans.Explanation)
		return nil
	}

	if mode == output.ModeMarkdown {
		r.Println("```sql")
		r.Println(ans.SQL)
		r.Println("```")
		r.Println("")
	} else {
		r.Println(styles.Muted.Render("SQL: ") + styles.SQL.Render(ans.SQL))
		r.Println("")
	}

	if msg, failed := ans.Result.Failure(); failed {
		r.Error(msg)
	} else if err := r.Result(ans.Result); err != nil {
		return err
	}

	r.Println("")
	if mode == output.ModeMarkdown {
		r.Println("> " + ans.Explanation)
	} else {
		r.Println(styles.Bold.Render(ans.Explanation))
	}
	return nil
}

// eachLine calls fn for every non-blank line of r.
func eachLine(r io.Reader, fn func(string) error) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read questions: %w", err)
	}
	return nil
}

// isInteractive reports whether r is a terminal.
func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
