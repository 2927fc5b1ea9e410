package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askdb/internal/cli/output"
	"github.com/leapstack-labs/askdb/internal/sampledata"
)

// ExamplesOutput is the JSON output for the examples command. It matches
// GET /chat/examples.
type ExamplesOutput struct {
	Examples []string `json:"examples"`
}

// NewExamplesCommand creates the examples command.
func NewExamplesCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "examples",
		Short: "List example questions",
		Example: `  askdb examples
  askdb examples --plain | askdb ask`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			questions := sampledata.Examples()
			if plain {
				for _, q := range questions {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), q)
				}
				return nil
			}

			cc := NewCommandContextWithoutDB(cmd)
			r := cc.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(ExamplesOutput{Examples: questions})
			case output.ModeMarkdown, output.ModeCSV:
				r.Println("# Example questions")
				r.Println("")
				for _, q := range questions {
					r.Println("- " + q)
				}
			default:
				r.Header("Example questions")
				for i, q := range questions {
					r.Printf("  %d. %s\n", i+1, q)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print one question per line")

	return cmd
}
