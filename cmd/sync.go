package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"muabook/internal/consistency"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize clients, invoices and projects",
	Long: `Sync links every payment to an invoice, corrects payment statuses, and
links projects to their clients, reconciling budgets and recomputing paid
amounts from payroll.

Without flags every record is synchronized. --client or --project limits
the pass to one record.`,
	Example: `  muabook sync
  muabook sync --client 7
  muabook sync --project 12`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Int64("client", 0, "Only sync the payments of this client id")
	syncCmd.Flags().Int64("project", 0, "Only sync this project id with its client")
	syncCmd.MarkFlagsMutuallyExclusive("client", "project")
}

func runSync(cmd *cobra.Command, args []string) error {
	clientID, _ := cmd.Flags().GetInt64("client")
	projectID, _ := cmd.Flags().GetInt64("project")

	a, err := newApp(cmd, appOptions{backup: true})
	if err != nil {
		return err
	}
	defer a.Close()

	var res consistency.SyncResult
	switch {
	case clientID > 0:
		res, err = a.engine.SyncClient(cmd.Context(), clientID)
	case projectID > 0:
		res, err = a.engine.SyncProject(cmd.Context(), projectID)
	default:
		res, err = a.engine.SyncAllData(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	return writeResult(cmd, res, func(w io.Writer) { printSync(w, res) })
}
