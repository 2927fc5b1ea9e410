package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askdb/internal/cli/config"
	"github.com/leapstack-labs/askdb/internal/cli/output"
	"github.com/leapstack-labs/askdb/internal/executor"
	"github.com/leapstack-labs/askdb/internal/generator"
	"github.com/leapstack-labs/askdb/pkg/adapter"
	"github.com/leapstack-labs/askdb/pkg/nlsql"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	DB       adapter.Adapter
	Exec     *executor.Executor
	Compiler *nlsql.Compiler
	Renderer *output.Renderer
}

// NewCommandContext connects to the configured target and builds the
// compiler and executor. The cleanup function must be called (typically via
// defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutDB(cmd)

	db, err := openTarget(cmd.Context(), cc.Cfg, cc.Logger)
	if err != nil {
		return nil, nil, err
	}

	cc.DB = db
	cc.Exec = executor.New(db,
		executor.WithLogger(cc.Logger),
		executor.WithMaxRows(cc.Cfg.MaxRows),
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			cc.Logger.Warn("failed to close database", slog.String("error", err.Error()))
		}
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutDB creates a CommandContext without a database
// connection. Useful for commands that only need the compiler.
func NewCommandContextWithoutDB(cmd *cobra.Command) *CommandContext {
	cfg := getConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Compiler: newCompiler(cfg, logger),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ParseMode(cfg.Output)),
	}
}

// getConfig returns the loaded configuration or the built-in defaults.
func getConfig(ctx context.Context) *config.Config {
	if cfg := config.FromContext(ctx); cfg != nil {
		return cfg
	}
	return &config.Config{
		Target:      &config.TargetConfig{Type: config.DefaultTargetType, Database: config.DefaultDatabase},
		Environment: config.DefaultEnv,
		Output:      config.DefaultOutput,
		LogFormat:   config.DefaultLogFormat,
		MaxRows:     config.DefaultMaxRows,
	}
}

// newCompiler builds the question compiler, preferring the configured
// generator when one is set.
func newCompiler(cfg *config.Config, logger *slog.Logger) *nlsql.Compiler {
	opts := []nlsql.Option{nlsql.WithLogger(logger)}
	if cfg.Generator.Enabled() {
		opts = append(opts, nlsql.WithGenerator(generator.New(cfg.Generator.Endpoint,
			generator.WithTimeout(cfg.Generator.Timeout),
			generator.WithMaxLength(cfg.Generator.MaxLength),
			generator.WithTemperature(cfg.Generator.Temperature),
			generator.WithLogger(logger),
		)))
	}
	return nlsql.New(opts...)
}

// openTarget creates and connects the configured adapter.
func openTarget(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, error) {
	acfg := cfg.Target.AdapterConfig()

	db, err := adapter.Open(ctx, acfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("connected to target",
		slog.String("type", acfg.Type),
		slog.String("database", acfg.Database))
	return db, nil
}
