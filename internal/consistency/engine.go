package consistency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"muabook/internal/events"
	"muabook/internal/logger"
	"muabook/internal/store"
	"muabook/pkg/models"
)

// Repository is the part of the entity store the engine needs.
type Repository interface {
	Load(ctx context.Context) (models.Snapshot, error)
	AddInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error)
	UpdateClient(ctx context.Context, id int64, fn func(*models.Client)) error
	UpdateProject(ctx context.Context, id int64, fn func(*models.Project)) error
	UpdateInvoice(ctx context.Context, id int64, fn func(*models.Invoice)) error
}

// Publisher receives change notifications.
type Publisher interface {
	Publish(e events.Event)
}

// Recorder receives pass metrics.
type Recorder interface {
	ObservePass(pass string, d time.Duration, err error)
	AddFixes(pass string, n int)
	AddInvoicesCreated(n int)
	SetIssues(errors, warnings int)
}

// Backuper snapshots the store before a mutating pass.
type Backuper interface {
	Backup(ctx context.Context, reason string, snap models.Snapshot) (string, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithEvents publishes change notifications after each mutating pass.
func WithEvents(p Publisher) Option {
	return func(e *Engine) { e.events = p }
}

// WithMetrics records pass durations, fixes and issue counts.
func WithMetrics(r Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithBackup takes a backup before every mutating pass. A failed backup
// aborts the pass.
func WithBackup(b Backuper) Option {
	return func(e *Engine) { e.backup = b }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine runs validation, repair and synchronization passes against a
// repository. Every call loads a fresh snapshot; mutating passes are
// serialized and write back only the records they touched.
type Engine struct {
	repo    Repository
	events  Publisher
	metrics Recorder
	backup  Backuper
	now     func() time.Time

	mu  sync.Mutex
	log zerolog.Logger
}

// NewEngine creates an engine over repo.
func NewEngine(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo: repo,
		now:  time.Now,
		log:  logger.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateAllData validates every record. It never writes.
func (e *Engine) ValidateAllData(ctx context.Context) (Report, error) {
	const op = "ValidateAllData"

	start := time.Now()
	snap, err := e.repo.Load(ctx)
	if err != nil {
		e.observe("validate", start, err)
		return Report{}, fmt.Errorf("%s: failed to load data: %w", op, err)
	}

	report := e.validate(&snap)
	e.observe("validate", start, nil)
	return report, nil
}

func (e *Engine) validate(snap *models.Snapshot) Report {
	report := ValidateAll(snap, e.now())
	if e.metrics != nil {
		e.metrics.SetIssues(report.Summary.TotalErrors, report.Summary.TotalWarnings)
	}
	e.log.Info().
		Int("errors", report.Summary.TotalErrors).
		Int("warnings", report.Summary.TotalWarnings).
		Bool("valid", report.Summary.IsValid).
		Msg("Validation completed")
	return report
}

// AutoFixAllData runs the auto-fix pass and persists its repairs.
func (e *Engine) AutoFixAllData(ctx context.Context) (FixResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoFix(ctx, uuid.NewString())
}

func (e *Engine) autoFix(ctx context.Context, runID string) (FixResult, error) {
	const op = "AutoFixAllData"
	const pass = "autofix"

	start := time.Now()
	log := logger.WithRun(pass, runID)

	var outcome FixOutcome
	err := e.mutate(ctx, op, pass, runID, func(snap *models.Snapshot) ChangeSet {
		outcome = AutoFix(snap, PassOptions{Now: e.now(), Logger: &log})
		return outcome.Changes
	})
	e.observe(pass, start, err)
	if err != nil {
		return FixResult{Success: false, Message: fmt.Sprintf("Auto-fix failed: %v", err)}, err
	}

	if e.metrics != nil {
		e.metrics.AddFixes(pass, outcome.Result.FixedCount)
		e.metrics.AddInvoicesCreated(outcome.Result.InvoicesCreated)
	}
	return outcome.Result, nil
}

// SyncAllData runs the synchronization pass and persists its repairs.
func (e *Engine) SyncAllData(ctx context.Context) (SyncResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncAll(ctx, uuid.NewString())
}

func (e *Engine) syncAll(ctx context.Context, runID string) (SyncResult, error) {
	const op = "SyncAllData"
	const pass = "sync"

	start := time.Now()
	log := logger.WithRun(pass, runID)

	var outcome SyncOutcome
	err := e.mutate(ctx, op, pass, runID, func(snap *models.Snapshot) ChangeSet {
		outcome = SyncAll(snap, PassOptions{Now: e.now(), Logger: &log})
		return outcome.Changes
	})
	e.observe(pass, start, err)
	if err != nil {
		return failedSync(err), err
	}

	if e.metrics != nil {
		e.metrics.AddFixes(pass, outcome.Result.Fixed)
		e.metrics.AddInvoicesCreated(len(outcome.Changes.CreatedInvoices))
	}
	return outcome.Result, nil
}

// SyncClient links every payment of one client to an invoice.
func (e *Engine) SyncClient(ctx context.Context, clientID int64) (SyncResult, error) {
	return e.syncOne(ctx, "SyncClient", func(snap *models.Snapshot, opts PassOptions) (SyncOutcome, error) {
		return SyncClientPaymentsToInvoices(snap, clientID, opts)
	})
}

// SyncProject synchronizes one project with its client.
func (e *Engine) SyncProject(ctx context.Context, projectID int64) (SyncResult, error) {
	return e.syncOne(ctx, "SyncProject", func(snap *models.Snapshot, opts PassOptions) (SyncOutcome, error) {
		return SyncProjectWithClient(snap, projectID, opts)
	})
}

func (e *Engine) syncOne(ctx context.Context, op string, fn func(*models.Snapshot, PassOptions) (SyncOutcome, error)) (SyncResult, error) {
	const pass = "sync"

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	runID := uuid.NewString()
	log := logger.WithRun(pass, runID)

	var outcome SyncOutcome
	var passErr error
	err := e.mutate(ctx, op, pass, runID, func(snap *models.Snapshot) ChangeSet {
		outcome, passErr = fn(snap, PassOptions{Now: e.now(), Logger: &log})
		return outcome.Changes
	})
	if err == nil {
		err = passErr
	}
	e.observe(pass, start, err)
	if err != nil {
		return failedSync(err), err
	}
	return outcome.Result, nil
}

func failedSync(err error) SyncResult {
	return SyncResult{
		Success:  false,
		Errors:   []string{err.Error()},
		Warnings: []string{},
		Message:  fmt.Sprintf("Sync failed: %v", err),
	}
}

// RunFullDataFix validates, and when anything was reported runs the auto-fix
// and sync passes before validating again.
func (e *Engine) RunFullDataFix(ctx context.Context) (FullFixResult, error) {
	const op = "RunFullDataFix"

	e.mu.Lock()
	defer e.mu.Unlock()

	runID := uuid.NewString()
	log := logger.WithRun("full-fix", runID)
	log.Info().Msg("Starting full data fix")

	before, err := e.ValidateAllData(ctx)
	if err != nil {
		return FullFixResult{Success: false, Message: err.Error()}, fmt.Errorf("%s: %w", op, err)
	}
	result := FullFixResult{Before: before, After: before}

	if before.Summary.IsValid && before.Summary.TotalWarnings == 0 {
		result.Success = true
		result.Message = "All data is consistent, nothing to fix"
		log.Info().Msg(result.Message)
		return result, nil
	}

	fix, err := e.autoFix(ctx, runID)
	result.Fix = &fix
	if err != nil {
		result.Message = fix.Message
		return result, fmt.Errorf("%s: %w", op, err)
	}

	synced, err := e.syncAll(ctx, runID)
	result.Sync = &synced
	if err != nil {
		result.Message = synced.Message
		return result, fmt.Errorf("%s: %w", op, err)
	}

	after, err := e.ValidateAllData(ctx)
	if err != nil {
		result.Message = err.Error()
		return result, fmt.Errorf("%s: %w", op, err)
	}
	result.After = after
	result.Success = true
	result.Message = fmt.Sprintf("Errors %d -> %d, warnings %d -> %d",
		before.Summary.TotalErrors, after.Summary.TotalErrors,
		before.Summary.TotalWarnings, after.Summary.TotalWarnings)

	log.Info().
		Int("errors_before", before.Summary.TotalErrors).
		Int("errors_after", after.Summary.TotalErrors).
		Int("fixed", fix.FixedCount+synced.Fixed).
		Msg("Full data fix completed")
	return result, nil
}

// FindDuplicates reports clients and invoices that share a key.
func (e *Engine) FindDuplicates(ctx context.Context) (DuplicateReport, error) {
	const op = "FindDuplicates"

	snap, err := e.repo.Load(ctx)
	if err != nil {
		return DuplicateReport{}, fmt.Errorf("%s: failed to load data: %w", op, err)
	}
	return FindDuplicates(&snap), nil
}

// ApplyPlan applies a repair plan and persists what it created.
func (e *Engine) ApplyPlan(ctx context.Context, plan RepairPlan) (PlanResult, error) {
	const op = "ApplyPlan"
	const pass = "plan"

	if err := plan.Validate(); err != nil {
		return PlanResult{Success: false, Message: err.Error()}, fmt.Errorf("%s: %w", op, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	runID := uuid.NewString()
	log := logger.WithRun(pass, runID)

	var outcome PlanOutcome
	var passErr error
	err := e.mutate(ctx, op, pass, runID, func(snap *models.Snapshot) ChangeSet {
		outcome, passErr = ApplyPlan(snap, plan, PassOptions{Now: e.now(), Logger: &log})
		return outcome.Changes
	})
	if err == nil {
		err = passErr
	}
	e.observe(pass, start, err)
	if err != nil {
		return PlanResult{Success: false, Message: fmt.Sprintf("Plan failed: %v", err)}, err
	}
	if e.metrics != nil {
		e.metrics.AddInvoicesCreated(outcome.Result.InvoicesCreated)
	}
	return outcome.Result, nil
}

// mutate loads a snapshot, backs it up, runs fn and persists the changes.
// Callers hold e.mu.
func (e *Engine) mutate(ctx context.Context, op, pass, runID string, fn func(*models.Snapshot) ChangeSet) error {
	snap, err := e.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to load data: %w", op, err)
	}

	if e.backup != nil {
		location, err := e.backup.Backup(ctx, pass, snap)
		if err != nil {
			return fmt.Errorf("%s: backup failed: %w", op, err)
		}
		e.log.Info().Str("run_id", runID).Str("location", location).Msg("Backup written")
	}

	changes := fn(&snap)
	if err := e.persist(ctx, &snap, changes); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	e.publish(pass, runID, changes)
	return nil
}

// persist writes created invoices first, then the touched records. Records
// deleted since the snapshot was loaded are skipped.
func (e *Engine) persist(ctx context.Context, snap *models.Snapshot, cs ChangeSet) error {
	for _, id := range cs.CreatedInvoices {
		i := findInvoiceByID(snap, id)
		if i < 0 {
			continue
		}
		if _, err := e.repo.AddInvoice(ctx, snap.Invoices[i]); err != nil {
			return fmt.Errorf("failed to add invoice %d: %w", id, err)
		}
	}

	for _, id := range cs.Clients {
		i := findClientByID(snap, id)
		if i < 0 {
			continue
		}
		rec := snap.Clients[i]
		err := e.repo.UpdateClient(ctx, id, func(c *models.Client) { *c = rec })
		if err := e.skipMissing("client", id, err); err != nil {
			return err
		}
	}

	for _, id := range cs.Projects {
		i := findProjectByID(snap, id)
		if i < 0 {
			continue
		}
		rec := snap.Projects[i]
		err := e.repo.UpdateProject(ctx, id, func(p *models.Project) { *p = rec })
		if err := e.skipMissing("project", id, err); err != nil {
			return err
		}
	}

	for _, id := range cs.Invoices {
		i := findInvoiceByID(snap, id)
		if i < 0 {
			continue
		}
		rec := snap.Invoices[i]
		err := e.repo.UpdateInvoice(ctx, id, func(inv *models.Invoice) { *inv = rec })
		if err := e.skipMissing("invoice", id, err); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) skipMissing(kind string, id int64, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		e.log.Warn().Str("kind", kind).Int64("id", id).Msg("Record disappeared before write-back, skipped")
		return nil
	}
	return fmt.Errorf("failed to update %s %d: %w", kind, id, err)
}

func (e *Engine) publish(pass, runID string, cs ChangeSet) {
	if e.events == nil || cs.Empty() {
		return
	}
	emit := func(name events.Name, id int64) {
		e.events.Publish(events.Event{Name: name, EntityID: id, Pass: pass, RunID: runID})
	}
	for _, id := range cs.CreatedInvoices {
		emit(events.InvoiceCreated, id)
	}
	for _, id := range cs.Invoices {
		emit(events.InvoiceUpdated, id)
	}
	for _, id := range cs.Clients {
		emit(events.ClientUpdated, id)
	}
	for _, id := range cs.Projects {
		emit(events.ProjectUpdated, id)
	}
	emit(events.DataChanged, 0)
}

func (e *Engine) observe(pass string, start time.Time, err error) {
	if e.metrics != nil {
		e.metrics.ObservePass(pass, time.Since(start), err)
	}
}
