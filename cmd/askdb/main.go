// Package main is the askdb command.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/askdb/internal/cli"

	// Register database adapters.
	_ "github.com/leapstack-labs/askdb/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/askdb/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/askdb/pkg/adapters/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
