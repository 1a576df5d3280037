package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"muabook/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the full fix periodically and serve metrics",
	Long: `Watch runs the validate, fix, sync and validate flow once at start and
then on every tick, until interrupted. Prometheus metrics are served on
/metrics and a liveness probe on /healthz.

A failed pass is logged and retried on the next tick.`,
	Example: `  muabook watch --interval 5m --addr :9090`,
	RunE:    runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("interval", 0, "Time between passes (default: WATCH_INTERVAL)")
	watchCmd.Flags().String("addr", "", "Metrics listen address (default: METRICS_ADDR)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("watch")
	ctx := cmd.Context()

	a, err := newApp(cmd, appOptions{metrics: true, backup: true})
	if err != nil {
		return err
	}
	defer a.Close()

	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = a.cfg.WatchInterval
	}
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.MetricsAddr
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	log.Info().
		Str("addr", addr).
		Dur("interval", interval).
		Msg("Watching data consistency")

	runPass := func() {
		res, err := a.engine.RunFullDataFix(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Full data fix failed")
			return
		}
		log.Info().
			Int("errors_before", res.Before.Summary.TotalErrors).
			Int("errors_after", res.After.Summary.TotalErrors).
			Msg(res.Message)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runPass()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err, ok := <-serveErr:
			if ok && err != nil {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			serveErr = nil
		case <-ticker.C:
			runPass()
		}
	}
}
