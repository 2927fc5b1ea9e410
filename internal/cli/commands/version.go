package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, buildDate, gitCommit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display askdb version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "askdb v%s\n", version)
			_, _ = fmt.Fprintf(out, "  commit: %s\n", gitCommit)
			_, _ = fmt.Fprintf(out, "  built:  %s\n", buildDate)
			_, _ = fmt.Fprintln(out, "Natural-language questions to SQL over the shop database")
		},
	}
}
