package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askdb/internal/cli/output"
	"github.com/leapstack-labs/askdb/internal/sampledata"
)

// SeedOptions holds options for the seed command.
type SeedOptions struct {
	Force bool
}

// SeedOutput is the JSON output for the seed command.
type SeedOutput struct {
	Status   string `json:"status"` // "loaded", "reloaded", "skipped"
	Dialect  string `json:"dialect"`
	Version  int64  `json:"version"`
	Users    int    `json:"users"`
	Products int    `json:"products"`
	Orders   int    `json:"orders"`
	Items    int    `json:"order_items"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the shop tables and load sample data",
		Long: `Create the users, products, orders and order_items tables in the target
database and load the sample rows (5 users, 8 products, 6 orders).

Seeding is skipped when the database already has users; use --force to drop
and reload the sample tables.`,
		Example: `  # Seed the default SQLite database
  askdb seed

  # Rebuild the sample data from scratch
  askdb seed --force

  # Seed a Postgres target
  askdb seed --type postgres --database shop`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Drop and reload the sample tables")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	db := cc.DB.SQLDB()
	dialect := cc.DB.DialectName()

	out := SeedOutput{
		Status:   "loaded",
		Dialect:  dialect,
		Users:    sampledata.UserCount,
		Products: sampledata.ProductCount,
		Orders:   sampledata.OrderCount,
		Items:    sampledata.OrderItemCount,
	}

	switch {
	case sampledata.IsSeeded(ctx, db) && !opts.Force:
		out.Status = "skipped"
	case opts.Force:
		cc.Logger.Info("dropping sample tables", slog.String("dialect", dialect))
		if err := sampledata.Reset(ctx, db, dialect, cc.Logger); err != nil {
			return err
		}
		out.Status = "reloaded"
		fallthrough
	default:
		if err := sampledata.Migrate(ctx, db, dialect, cc.Logger); err != nil {
			return err
		}
	}

	if v, err := sampledata.Version(ctx, db, dialect); err == nil {
		out.Version = v
	}

	return renderSeed(cc.Renderer, out, cc.Cfg.Target.Database)
}

func renderSeed(r *output.Renderer, out SeedOutput, database string) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println("# Seed")
		r.Println("")
		r.Printf("- **Status**: %s\n", out.Status)
		r.Printf("- **Database**: %s (%s)\n", database, out.Dialect)
		r.Printf("- **Version**: %d\n", out.Version)
		if out.Status != "skipped" {
			r.Printf("- **Rows**: %d users, %d products, %d orders, %d order items\n",
				out.Users, out.Products, out.Orders, out.Items)
		}
		return nil
	}

	if out.Status == "skipped" {
		r.Warning(fmt.Sprintf("%s already has sample data (use --force to reload)", database))
		return nil
	}
	r.Success(fmt.Sprintf("Sample data %s into %s", out.Status, database))
	r.Muted(fmt.Sprintf("  %d users, %d products, %d orders, %d order items (schema version %d)",
		out.Users, out.Products, out.Orders, out.Items, out.Version))
	return nil
}
