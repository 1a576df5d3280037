package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"muabook/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "muabook",
	Short: "muabook - consistency checks and repairs for the studio bookkeeping data",
	Long: `muabook validates and repairs the client, project, invoice and payment
records of the makeup studio bookkeeping app.

The records live in a key-value store (sqlite, postgres, redis or memory)
as one JSON document per collection. Commands load a fresh snapshot, run
their pass and write back only the records they changed.

Findings never make a command fail; a non-zero exit status means the store,
backup target or Google Sheet could not be reached.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute() {
	log := logger.WithComponent("cmd")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("backend", "", "Store backend: memory, sqlite, postgres or redis (default: STORE_BACKEND)")
	flags.String("db", "", "SQLite database file (default: SQLITE_PATH)")
	flags.Bool("dry-run", false, "Run against an in-memory copy of the store and discard all changes")
	flags.Bool("no-backup", false, "Skip the backup taken before mutating passes")
	flags.Bool("json", false, "Print results as JSON")
	flags.StringP("output", "o", "", "Write JSON results to this file instead of stdout")
}
