package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"muabook/internal/logger"
	"muabook/pkg/models"
)

var seedCmd = &cobra.Command{
	Use:   "seed <snapshot.json>",
	Short: "Load a JSON snapshot into the store",
	Long: `Seed replaces every collection with the contents of a JSON document of
the form {"clients": [...], "projects": [...], "invoices": [...],
"payments": [...], "team": [...]}. Use "-" to read from stdin.

A store that already holds clients is left untouched unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().Bool("force", false, "Replace existing data")
}

func runSeed(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("seed")
	force, _ := cmd.Flags().GetBool("force")

	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer f.Close()
		in = f
	}

	var snap models.Snapshot
	if err := json.NewDecoder(in).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	existing, err := a.repo.Clients(ctx)
	if err != nil {
		return fmt.Errorf("failed to read clients: %w", err)
	}
	if len(existing) > 0 && !force {
		return fmt.Errorf("store already holds %d clients, use --force to replace them", len(existing))
	}

	if err := a.repo.Replace(ctx, snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.Info().
		Int("clients", len(snap.Clients)).
		Int("projects", len(snap.Projects)).
		Int("invoices", len(snap.Invoices)).
		Msg("Store seeded")
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d clients, %d projects, %d invoices, %d payments, %d team members\n",
		len(snap.Clients), len(snap.Projects), len(snap.Invoices), len(snap.Payments), len(snap.Team))
	return nil
}
