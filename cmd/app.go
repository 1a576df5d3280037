package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"muabook/internal/backup"
	"muabook/internal/config"
	"muabook/internal/consistency"
	"muabook/internal/events"
	"muabook/internal/kvstore"
	"muabook/internal/logger"
	"muabook/internal/metrics"
	"muabook/internal/store"
)

// app wires the store, engine and optional collaborators for one command.
type app struct {
	cfg     *config.Config
	kv      kvstore.Store
	repo    *store.Repository
	engine  *consistency.Engine
	bus     *events.Bus
	metrics *metrics.Metrics
	dryRun  bool
	log     zerolog.Logger
}

type appOptions struct {
	metrics bool
	backup  bool
}

func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	const op = "newApp"

	ctx := cmd.Context()
	log := logger.WithComponent("app")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.StoreBackend = backend
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.SQLitePath = db
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noBackup, _ := cmd.Flags().GetBool("no-backup")

	kv, err := kvstore.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open %s store: %w", op, cfg.StoreBackend, err)
	}
	if dryRun {
		mem, err := copyToMemory(ctx, kv)
		_ = kv.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		kv = mem
		log.Info().Msg("Dry run: changes are discarded on exit")
	}

	a := &app{
		cfg:    cfg,
		kv:     kv,
		repo:   store.New(kv),
		bus:    events.NewBus(),
		dryRun: dryRun,
		log:    log,
	}
	a.bus.Subscribe(events.All, func(e events.Event) {
		l := logger.WithComponent("events")
		l.Debug().
			Str("event", string(e.Name)).
			Int64("entity_id", e.EntityID).
			Str("pass", e.Pass).
			Str("run_id", e.RunID).
			Msg("Data changed")
	})

	engineOpts := []consistency.Option{consistency.WithEvents(a.bus)}
	if opts.backup && !dryRun && !noBackup {
		b, err := newBackuper(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if b != nil {
			engineOpts = append(engineOpts, consistency.WithBackup(b))
		}
	}
	if opts.metrics {
		a.metrics = metrics.New(metrics.Config{ServiceName: "muabook", Environment: cfg.Environment})
		engineOpts = append(engineOpts, consistency.WithMetrics(a.metrics))
	}
	a.engine = consistency.NewEngine(a.repo, engineOpts...)

	log.Debug().
		Str("backend", cfg.StoreBackend).
		Str("backup", cfg.BackupDriver).
		Bool("dry_run", dryRun).
		Msg("Application initialized")
	return a, nil
}

// Close waits for event handlers and releases the store.
func (a *app) Close() {
	a.bus.Wait()
	if err := a.kv.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close store")
	}
}

func newBackuper(ctx context.Context, cfg *config.Config) (*backup.Backuper, error) {
	switch cfg.BackupDriver {
	case "dir":
		sink, err := backup.NewDirSink(cfg.BackupDir)
		if err != nil {
			return nil, err
		}
		return backup.New(sink), nil
	case "s3":
		sink, err := backup.NewS3Sink(ctx, cfg.S3Config())
		if err != nil {
			return nil, err
		}
		return backup.New(sink), nil
	default:
		return nil, nil
	}
}

func copyToMemory(ctx context.Context, src kvstore.Store) (*kvstore.Memory, error) {
	keys, err := src.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	mem := kvstore.NewMemory()
	for _, key := range keys {
		value, err := src.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if err := mem.Set(ctx, key, value); err != nil {
			return nil, err
		}
	}
	return mem, nil
}
