package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// NewSQLCommand creates the sql command.
func NewSQLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql [statement]",
		Short: "Run a SQL statement against the target database",
		Long: `Run a SQL statement directly, bypassing the question compiler.

The statement is read from stdin when no argument is given.`,
		Example: `  askdb sql "SELECT name, price FROM products ORDER BY price DESC"
  echo "SELECT COUNT(*) FROM orders" | askdb sql -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stmt := strings.TrimSpace(strings.Join(args, " "))
			if stmt == "" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read statement: %w", err)
				}
				stmt = strings.TrimSpace(string(raw))
			}
			if stmt == "" {
				return fmt.Errorf("no SQL statement given")
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return runRawSQL(cmd.Context(), cc, stmt)
		},
	}
	return cmd
}

// runRawSQL executes stmt and renders its rows. Execution failures are
// returned as errors.
func runRawSQL(ctx context.Context, cc *CommandContext, stmt string) error {
	res := cc.Exec.Run(ctx, stmt)
	if msg, failed := res.Failure(); failed {
		return fmt.Errorf("%w: %s", errQueryFailed, msg)
	}
	return cc.Renderer.Result(res)
}
