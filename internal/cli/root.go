// Package cli provides the command-line interface for askdb.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askdb/internal/cli/commands"
	"github.com/leapstack-labs/askdb/internal/cli/config"
	"github.com/leapstack-labs/askdb/internal/cli/output"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile    string
		targetFlag string
	)

	rootCmd := &cobra.Command{
		Use:   "askdb",
		Short: "askdb - ask your shop database questions in plain English",
		Long: `askdb translates plain-English questions about a shop database
(users, products, orders, order items) into SQL, runs them, and explains
the results.

It works against SQLite (default), DuckDB and PostgreSQL targets, and can
serve the same pipeline over an HTTP API.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, used, err := config.Load(cfgFile, targetFlag, cmd.Flags())
			if err != nil {
				return err
			}

			logger := NewLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
			if used != "" {
				logger.Debug("using config file", slog.String("path", used))
			}
			if targetFlag != "" {
				logger.Debug("using environment", slog.String("name", targetFlag))
			}

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./askdb.yaml)")
	pf.StringVarP(&targetFlag, "target", "t", "", "Environment to use (e.g., dev, staging, prod)")
	pf.String("type", "", "Database type (sqlite, duckdb, postgres)")
	pf.String("database", "", "Database file path or name")
	pf.StringP("output", "o", "", "Output format (auto|table|json|csv|markdown)")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.String("log-format", "", "Log format (text|json)")
	pf.Int("max-rows", 0, "Maximum rows returned per query (0 for no limit)")
	pf.String("generator", "", "Text-generation endpoint used before the rule-based compiler")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sqlite", "duckdb", "postgres"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("target", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"dev", "staging", "prod"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewAskCommand())
	rootCmd.AddCommand(commands.NewSQLCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewExamplesCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewLogger builds the process logger. Logs go to w so that stdout stays
// clean for query output.
func NewLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		r := output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
		r.Error(fmt.Sprintf("Error: %v", err))
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for askdb.

To load completions:

Bash:
  $ source <(askdb completion bash)

Zsh:
  $ askdb completion zsh > "${fpath[1]}/_askdb"

Fish:
  $ askdb completion fish | source

PowerShell:
  PS> askdb completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
