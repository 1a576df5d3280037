package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"muabook/internal/consistency"
	"muabook/internal/logger"
)

var fullFixCmd = &cobra.Command{
	Use:   "full-fix",
	Short: "Validate, fix, sync and validate again",
	Long: `Full-fix validates the data and, when anything is reported, runs the
auto-fix and sync passes before validating again. It prints the error and
warning counts before and after.

The exit status is zero whatever the findings; it is non-zero only when the
store or backup target cannot be reached.`,
	Example: `  muabook full-fix
  muabook full-fix --backend redis --json -o result.json`,
	RunE: runFullFix,
}

func init() {
	rootCmd.AddCommand(fullFixCmd)
	fullFixCmd.Flags().Bool("details", false, "Print the remaining findings after the fix")
}

func runFullFix(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("full-fix")
	details, _ := cmd.Flags().GetBool("details")

	a, err := newApp(cmd, appOptions{backup: true})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.RunFullDataFix(cmd.Context())
	if err != nil {
		return fmt.Errorf("full data fix failed: %w", err)
	}

	log.Info().Bool("success", res.Success).Msg(res.Message)
	return writeResult(cmd, res, func(w io.Writer) { printFullFix(w, res, details) })
}

func printFullFix(w io.Writer, res consistency.FullFixResult, details bool) {
	printSummary(w, "Before", res.Before.Summary)
	if res.Fix != nil {
		fmt.Fprintf(w, "Fix:     %s\n", res.Fix.Message)
	}
	if res.Sync != nil {
		fmt.Fprintf(w, "Sync:    %s\n", res.Sync.Message)
	}
	printSummary(w, "After", res.After.Summary)
	fmt.Fprintln(w, res.Message)
	if details {
		fmt.Fprintln(w)
		printReport(w, res.After)
	}
}
