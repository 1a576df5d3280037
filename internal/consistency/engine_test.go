package consistency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"muabook/internal/events"
	"muabook/internal/kvstore"
	"muabook/internal/store"
	"muabook/pkg/models"
)

type fakeRecorder struct {
	mu       sync.Mutex
	passes   []string
	fixes    int
	created  int
	errors   int
	warnings int
}

func (r *fakeRecorder) ObservePass(pass string, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passes = append(r.passes, pass)
}

func (r *fakeRecorder) AddFixes(_ string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixes += n
}

func (r *fakeRecorder) AddInvoicesCreated(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created += n
}

func (r *fakeRecorder) SetIssues(errors, warnings int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors, r.warnings = errors, warnings
}

type failingBackup struct{}

func (failingBackup) Backup(context.Context, string, models.Snapshot) (string, error) {
	return "", errors.New("bucket unavailable")
}

type recordingBackup struct{ reasons []string }

func (b *recordingBackup) Backup(_ context.Context, reason string, _ models.Snapshot) (string, error) {
	b.reasons = append(b.reasons, reason)
	return "memory://" + reason, nil
}

func seededRepo(t *testing.T, snap models.Snapshot) *store.Repository {
	t.Helper()
	repo := store.New(kvstore.NewMemory())
	require.NoError(t, repo.Replace(context.Background(), snap))
	return repo
}

func sariSnapshot() models.Snapshot {
	return models.Snapshot{
		Clients: []models.Client{client(1, "Sari", 5_000_000, models.StatusPaid, entry("2026-02-01", 2_000_000))},
	}
}

func newTestEngine(repo Repository, opts ...Option) *Engine {
	return NewEngine(repo, append([]Option{WithClock(func() time.Time { return testNow })}, opts...)...)
}

func TestEngine_EndToEndScenario(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t, sariSnapshot())
	engine := newTestEngine(repo)

	before, err := engine.ValidateAllData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, before.Summary.TotalErrors)
	require.Len(t, before.Clients.Errors, 1)

	fix, err := engine.AutoFixAllData(ctx)
	require.NoError(t, err)
	assert.True(t, fix.Success)
	assert.Equal(t, 1, fix.InvoicesCreated)

	after, err := engine.ValidateAllData(ctx)
	require.NoError(t, err)
	assert.Zero(t, after.Summary.TotalErrors)

	clients, err := repo.Clients(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartial, clients[0].PaymentStatus)

	invoices, err := repo.Invoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, models.Money(2_000_000), invoices[0].GrandTotal)
	assert.Equal(t, invoices[0].ID, *clients[0].PaymentHistory[0].InvoiceID)
}

func TestEngine_AutoFixIdempotent(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(seededRepo(t, sariSnapshot()))

	first, err := engine.AutoFixAllData(ctx)
	require.NoError(t, err)
	assert.Positive(t, first.FixedCount)
	afterFirst, err := engine.ValidateAllData(ctx)
	require.NoError(t, err)

	second, err := engine.AutoFixAllData(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.FixedCount)
	afterSecond, err := engine.ValidateAllData(ctx)
	require.NoError(t, err)

	assert.Equal(t, afterFirst.Summary.TotalErrors, afterSecond.Summary.TotalErrors)
}

func TestEngine_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()

	var mu sync.Mutex
	seen := map[events.Name]int{}
	bus.Subscribe(events.All, func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen[e.Name]++
	})

	engine := newTestEngine(seededRepo(t, sariSnapshot()), WithEvents(bus))
	_, err := engine.AutoFixAllData(ctx)
	require.NoError(t, err)
	bus.Wait()

	assert.Equal(t, map[events.Name]int{
		events.InvoiceCreated: 1,
		events.ClientUpdated:  1,
		events.DataChanged:    1,
	}, seen)
}

func TestEngine_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	engine := newTestEngine(seededRepo(t, sariSnapshot()), WithMetrics(rec))

	_, err := engine.RunFullDataFix(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"validate", "autofix", "sync", "validate"}, rec.passes)
	assert.Equal(t, 2, rec.fixes)
	assert.Equal(t, 1, rec.created)
	assert.Zero(t, rec.errors)
}

func TestEngine_BackupFailureAbortsPass(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t, sariSnapshot())
	engine := newTestEngine(repo, WithBackup(failingBackup{}))

	res, err := engine.AutoFixAllData(ctx)
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "bucket unavailable")

	invoices, err := repo.Invoices(ctx)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestEngine_BackupBeforeEachMutatingPass(t *testing.T) {
	ctx := context.Background()
	backup := &recordingBackup{}
	engine := newTestEngine(seededRepo(t, sariSnapshot()), WithBackup(backup))

	_, err := engine.RunFullDataFix(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"autofix", "sync"}, backup.reasons)
}

func TestEngine_RunFullDataFix(t *testing.T) {
	ctx := context.Background()
	snap := sariSnapshot()
	snap.Projects = []models.Project{{ID: 1, Title: "Wedding", Client: "Sari", Date: "2026-06-01", Budget: 5_000_000}}
	engine := newTestEngine(seededRepo(t, snap))

	res, err := engine.RunFullDataFix(ctx)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.False(t, res.Before.Summary.IsValid)
	assert.True(t, res.After.Summary.IsValid)
	require.NotNil(t, res.Fix)
	require.NotNil(t, res.Sync)
	assert.Equal(t, 3, res.Fix.FixedCount)
	assert.Zero(t, res.Sync.Fixed)
	assert.Zero(t, res.After.Summary.TotalWarnings)
	assert.Equal(t, "Errors 1 -> 0, warnings 1 -> 0", res.Message)
}

func TestEngine_RunFullDataFixSkipsCleanData(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(seededRepo(t, models.Snapshot{
		Clients: []models.Client{client(1, "Ana", 1_000_000, models.StatusPending)},
	}))

	res, err := engine.RunFullDataFix(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Nil(t, res.Fix)
	assert.Nil(t, res.Sync)
	assert.Equal(t, "All data is consistent, nothing to fix", res.Message)
}

func TestEngine_SyncSingleRecords(t *testing.T) {
	ctx := context.Background()
	snap := sariSnapshot()
	snap.Projects = []models.Project{{ID: 2, Title: "Wedding", Client: "Sari"}}
	repo := seededRepo(t, snap)
	engine := newTestEngine(repo)

	res, err := engine.SyncClient(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Fixed)

	res, err = engine.SyncProject(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fixed)

	projects, err := repo.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *projects[0].ClientID)
	assert.Equal(t, models.Money(5_000_000), projects[0].Budget)

	res, err = engine.SyncClient(ctx, 9)
	assert.ErrorIs(t, err, ErrUnknownClient)
	assert.False(t, res.Success)
}

func TestEngine_ApplyPlanAndDuplicates(t *testing.T) {
	ctx := context.Background()
	snap := *rinaSnapshot()
	snap.Clients = append(snap.Clients, client(5, " rina", 0, models.StatusPending))
	repo := seededRepo(t, snap)
	engine := newTestEngine(repo)

	res, err := engine.ApplyPlan(ctx, rinaPlan())
	require.NoError(t, err)
	assert.Equal(t, 2, res.InvoicesCreated)

	invoices, err := repo.Invoices(ctx)
	require.NoError(t, err)
	assert.Len(t, invoices, 2)

	dups, err := engine.FindDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []DuplicateGroup{{Key: "rina", IDs: []int64{4, 5}}}, dups.Duplicates.Clients)

	_, err = engine.ApplyPlan(ctx, RepairPlan{Clients: []ClientRepair{{ClientID: 0}}})
	assert.Error(t, err)
}

type vanishingRepo struct {
	*store.Repository
}

func (r vanishingRepo) UpdateClient(ctx context.Context, id int64, fn func(*models.Client)) error {
	return store.ErrNotFound
}

func TestEngine_SkipsRecordsDeletedDuringPass(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t, sariSnapshot())
	engine := newTestEngine(vanishingRepo{repo})

	res, err := engine.AutoFixAllData(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)

	invoices, err := repo.Invoices(ctx)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}
