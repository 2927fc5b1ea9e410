package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askdb/internal/sampledata"
	"github.com/leapstack-labs/askdb/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Addr   string
	NoSeed bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the askdb HTTP API.

Endpoints:
- POST /chat and /chat/query answer natural-language questions
- POST /query runs a raw SQL statement
- GET /schema describes the shop tables
- /users, /products and /orders expose the shop tables directly

The sample data is loaded on startup when the users table is empty.`,
		Example: `  # Serve on the configured address (default :8000)
  askdb serve

  # Serve on another port without touching the data
  askdb serve --addr :9000 --no-seed`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Address to listen on (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.NoSeed, "no-seed", false, "Don't load sample data on startup")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	cfg := cc.Cfg

	if !opts.NoSeed && !sampledata.IsSeeded(ctx, cc.DB.SQLDB()) {
		err := sampledata.Migrate(ctx, cc.DB.SQLDB(), cc.DB.DialectName(), cc.Logger)
		switch {
		case errors.Is(err, sampledata.ErrUnsupportedDialect):
			cc.Logger.Warn("skipping sample data", slog.String("dialect", cc.DB.DialectName()))
		case err != nil:
			return fmt.Errorf("failed to load sample data: %w", err)
		default:
			cc.Logger.Info("loaded sample data")
		}
	}

	addr := cfg.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	srv := server.New(server.Config{
		Addr:        addr,
		DB:          cc.DB,
		Compiler:    cc.Compiler,
		Examples:    sampledata.Examples(),
		MaxRows:     cfg.MaxRows,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit: server.RateLimit{
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		},
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		Logger:            cc.Logger,
	})

	cc.Renderer.Success(fmt.Sprintf("askdb API listening on %s", addr))
	return srv.Serve(ctx)
}
