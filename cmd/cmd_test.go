package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"muabook/internal/consistency"
	"muabook/internal/logger"
	"muabook/pkg/models"
)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// newStore writes a snapshot file and points the sqlite backend at a fresh database.
func newStore(t *testing.T, snap models.Snapshot) (dbPath, snapPath string) {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("BACKUP_DRIVER", "none")
	dbPath = filepath.Join(dir, "muabook.db")
	snapPath = filepath.Join(dir, "snapshot.json")

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(snapPath, data, 0o644))
	return dbPath, snapPath
}

func sariSnapshot() models.Snapshot {
	return models.Snapshot{
		Clients: []models.Client{{
			ID:             1,
			Name:           "Sari",
			Phone:          "0812000000",
			TotalAmount:    5_000_000,
			PaymentStatus:  models.StatusPaid,
			PaymentHistory: []models.PaymentEntry{{Date: "2026-02-01", Amount: 2_000_000, Method: "transfer"}},
		}},
	}
}

func TestSeedAndValidate(t *testing.T) {
	db, snap := newStore(t, sariSnapshot())

	out, err := execute(t, "seed", snap, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 1 clients")

	out, err = execute(t, "validate", "--db", db, "--json")
	require.NoError(t, err)

	var report consistency.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Summary.IsValid)
	assert.Equal(t, 1, report.Summary.TotalErrors)
	require.Len(t, report.Clients.Errors, 1)
	assert.Equal(t, "Sari", report.Clients.Errors[0].Name)
}

func TestSeedRefusesNonEmptyStore(t *testing.T) {
	db, snap := newStore(t, sariSnapshot())

	_, err := execute(t, "seed", snap, "--db", db)
	require.NoError(t, err)

	_, err = execute(t, "seed", snap, "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, err = execute(t, "seed", snap, "--db", db, "--force")
	assert.NoError(t, err)
}

func TestFullFix(t *testing.T) {
	db, snap := newStore(t, sariSnapshot())
	_, err := execute(t, "seed", snap, "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "full-fix", "--db", db, "--json")
	require.NoError(t, err)

	var res consistency.FullFixResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Before.Summary.TotalErrors)
	assert.Zero(t, res.After.Summary.TotalErrors)
	require.NotNil(t, res.Fix)
	assert.Equal(t, 1, res.Fix.InvoicesCreated)

	out, err = execute(t, "full-fix", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "All data is consistent, nothing to fix")
}

func TestFixDryRunDiscardsChanges(t *testing.T) {
	db, snap := newStore(t, sariSnapshot())
	_, err := execute(t, "seed", snap, "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "fix", "--db", db, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 invoices created)")

	out, err = execute(t, "validate", "--db", db, "--json")
	require.NoError(t, err)
	var report consistency.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Summary.TotalErrors)
}

func TestFixWritesOutputFile(t *testing.T) {
	db, snap := newStore(t, sariSnapshot())
	_, err := execute(t, "seed", snap, "--db", db)
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "fix.json")
	out, err := execute(t, "fix", "--db", db, "-o", outPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var res consistency.FixResult
	require.NoError(t, json.Unmarshal(data, &res))
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.InvoicesCreated)
}

func TestSyncUnknownClient(t *testing.T) {
	db, snap := newStore(t, sariSnapshot())
	_, err := execute(t, "seed", snap, "--db", db)
	require.NoError(t, err)

	_, err = execute(t, "sync", "--db", db, "--client", "42")
	require.Error(t, err)
	assert.ErrorIs(t, err, consistency.ErrUnknownClient)
}

func TestDuplicates(t *testing.T) {
	snapshot := sariSnapshot()
	snapshot.Clients = append(snapshot.Clients, models.Client{ID: 2, Name: " sari ", Phone: "0813000000"})
	db, snap := newStore(t, snapshot)
	_, err := execute(t, "seed", snap, "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "duplicates", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, `client  "sari": ids [1 2]`)
}

func TestApplyPlan(t *testing.T) {
	db, snap := newStore(t, sariSnapshot())
	_, err := execute(t, "seed", snap, "--db", db)
	require.NoError(t, err)

	planPath := filepath.Join(t.TempDir(), "plan.json")
	plan := `{"clients": [{"clientId": 1, "invoices": [{"amount": 2000000, "description": "Wedding deposit", "paidDate": "2026-02-01"}]},
	                      {"clientId": 9, "invoices": []}]}`
	require.NoError(t, os.WriteFile(planPath, []byte(plan), 0o644))

	out, err := execute(t, "apply-plan", planPath, "--db", db, "--json")
	require.NoError(t, err)

	var res consistency.PlanResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.InvoicesCreated)
	assert.Equal(t, 1, res.PaymentsLinked)
	assert.Contains(t, res.Warnings, "Client #9 not found, skipped")
}
