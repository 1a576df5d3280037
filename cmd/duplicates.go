package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"muabook/internal/consistency"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List clients and invoices that share a name or number",
	Long: `Duplicates groups clients whose names match after trimming and ignoring
case, and invoices that share a number. Nothing is merged or deleted.`,
	RunE: runDuplicates,
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.engine.FindDuplicates(cmd.Context())
	if err != nil {
		return fmt.Errorf("duplicate scan failed: %w", err)
	}

	return writeResult(cmd, report, func(w io.Writer) { printDuplicates(w, report) })
}

func printDuplicates(w io.Writer, r consistency.DuplicateReport) {
	if !r.HasDuplicates {
		fmt.Fprintln(w, "No duplicates found")
		return
	}
	for _, g := range r.Duplicates.Clients {
		fmt.Fprintf(w, "client  %q: ids %v\n", g.Key, g.IDs)
	}
	for _, g := range r.Duplicates.Invoices {
		fmt.Fprintf(w, "invoice %q: ids %v\n", g.Key, g.IDs)
	}
}
