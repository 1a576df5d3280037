package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"muabook/internal/consistency"
)

var applyPlanCmd = &cobra.Command{
	Use:   "apply-plan <plan.json>",
	Short: "Create known missing invoices from a repair plan",
	Long: `Apply-plan reads a JSON repair plan listing, per client id, the invoices
that should exist and optionally a payment status override:

  {"clients": [{"clientId": 4,
                "invoices": [{"amount": 750000, "description": "Makeup trial",
                              "dueDate": "2026-01-05", "paidDate": "2026-01-05"}],
                "paymentStatus": "overdue"}]}

Invoices the client already has with the same amount and date are skipped,
so a plan can be applied more than once.`,
	Args: cobra.ExactArgs(1),
	RunE: runApplyPlan,
}

func init() {
	rootCmd.AddCommand(applyPlanCmd)
}

func runApplyPlan(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open plan: %w", err)
	}
	defer f.Close()

	plan, err := consistency.DecodePlan(f)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, appOptions{backup: true})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.ApplyPlan(cmd.Context(), plan)
	if err != nil {
		return fmt.Errorf("apply plan failed: %w", err)
	}

	return writeResult(cmd, res, func(w io.Writer) {
		fmt.Fprintln(w, res.Message)
		for _, msg := range res.Warnings {
			fmt.Fprintf(w, "  [warning] %s\n", msg)
		}
	})
}
