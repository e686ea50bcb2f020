package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	web "squadxp/internal/adapters/http"
	"squadxp/internal/application/orchestrators"
)

// HTTP server limits.
const (
	rateLimitPerSecond = 10
	rateLimitBurst     = 20
	shutdownTimeout    = 10 * time.Second
)

// newServeCommand creates the serve command.
func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the sweep and snapshot workers",
		Long: `Start the squadxp HTTP API.

The server archives idle practices on a periodic sweep, samples daily
snapshots for team challenges and mirrors every change to Redis when
mirror.redis_addr is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	cfg := opts.cfg
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openWiring(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	key, err := csrfKey(cfg)
	if err != nil {
		return err
	}

	go rt.queue.Run(context.Background())
	defer rt.queue.Close()

	// Catch up on anything that went stale while the server was down.
	if _, err := orchestrators.ExecuteSweep(ctx, rt.engine); err != nil {
		slog.Error("startup_sweep_failed", "error", err)
	}

	stopCh := make(chan struct{})
	defer close(stopCh)
	orchestrators.StartBackgroundWorker(orchestrators.SweepJob(rt.engine, cfg.Session.SweepInterval), stopCh)
	orchestrators.StartBackgroundWorker(orchestrators.SnapshotJob(rt.snapshots, cfg.Snapshot.Interval), stopCh)

	handler := web.NewMux(&web.App{
		Engine:        rt.engine,
		RecordStore:   rt.records,
		SnapshotStore: rt.snapStore,
		Mirror:        rt.queue,
		DB:            rt.timedDB,
	}, rt.collector, web.Options{
		CSRFKey:       key,
		SecureCookies: cfg.IsProduction(),
		RatePerSecond: rateLimitPerSecond,
		RateBurst:     rateLimitBurst,
		SlowRequestMs: cfg.SlowRequestMs,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server_stopped")
	return nil
}
