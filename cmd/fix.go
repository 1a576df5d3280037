package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"muabook/internal/consistency"
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Apply the auto-fix pass",
	Long: `Fix creates invoices for payments that have none, recomputes payment
statuses that disagree with the payment history, and links projects and
invoices to their clients by name.

The pass is idempotent: running it twice in a row reports zero fixes the
second time.`,
	Example: `  muabook fix
  muabook fix --dry-run --json`,
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{backup: true})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.AutoFixAllData(cmd.Context())
	if err != nil {
		return fmt.Errorf("auto-fix failed: %w", err)
	}

	return writeResult(cmd, res, func(w io.Writer) { printFix(w, res) })
}

func printFix(w io.Writer, res consistency.FixResult) {
	fmt.Fprintln(w, res.Message)
}
