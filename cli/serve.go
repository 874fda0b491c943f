package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/stock-engine/api"
	"go.uber.org/zap"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr        string
	Scenario    string
	NoScheduler bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on the configured record store.

On SIGINT/SIGTERM the server stops accepting connections, waits up to 30s
for active requests, stops the scheduler and closes the store.

Example:
  stockd serve --driver sqlite
  stockd serve --driver memory --scenario busy-day --addr :3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides http.addr)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "reset the stores and load a demo scenario on start")
	cmd.Flags().BoolVar(&opts.NoScheduler, "no-scheduler", false, "disable scheduled exports and summaries")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	log := opts.Logger
	defer func() { _ = log.Sync() }()

	eng, closeStore, err := newEngine(ctx, opts.RootOptions)
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("failed to close store", zap.Error(err))
		}
	}()
	if err != nil {
		return err
	}

	metrics := api.NewMetrics()
	handler := api.NewHandler(eng, log.Named("api"), metrics)
	if opts.Scenario != "" {
		if err := handler.Seed(ctx, opts.Scenario); err != nil {
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}
		log.Info("scenario loaded", zap.String("scenario", opts.Scenario))
	}
	if total, err := eng.TotalSales(ctx); err == nil {
		metrics.SetTotal(total)
	}

	if !opts.NoScheduler {
		loc, _ := cfg.Location()
		sched := api.NewScheduler(eng, api.SchedulerConfig{
			ExportCron:  cfg.Scheduler.ExportCron,
			SummaryCron: cfg.Scheduler.SummaryCron,
			ExportDir:   cfg.Scheduler.ExportDir,
			Location:    loc,
		}, log.Named("scheduler"))
		if err := sched.Start(); err != nil {
			return WrapExitError(ExitCommandError, "failed to start scheduler", err)
		}
		defer sched.Stop()
	}

	addr := cfg.HTTP.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	server := &http.Server{
		Addr: addr,
		Handler: api.NewRouter(handler, api.RouterOptions{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			ExposeMetrics:  cfg.Metrics.Enabled,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", addr), zap.String("driver", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "server failed", err)
		}
		return nil
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "server forced to shutdown", err)
	}
	log.Info("server stopped")
	return nil
}
