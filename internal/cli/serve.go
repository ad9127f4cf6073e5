package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"budgetbuddy/internal/app"
	apphttp "budgetbuddy/internal/http"
	"budgetbuddy/internal/log"
)

func newServeCommand(rt *runtime) *cobra.Command {
	var (
		reconcile     bool
		secureCookies bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := notifyShutdown(cmd.Context(), rt.logger)
			defer stop()
			return serve(ctx, rt, reconcile, secureCookies)
		},
	}
	cmd.Flags().BoolVar(&reconcile, "reconcile", true, "Run the periodic ledger reconciliation in-process")
	cmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "Mark the session cookie Secure (enable behind TLS)")
	return cmd
}

func serve(ctx context.Context, rt *runtime, reconcile, secureCookies bool) error {
	a, err := app.New(ctx, rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			rt.logger.Error("Failed to release resources", log.FieldError, err)
		}
	}()
	a.StartCacheSweeper(ctx)

	if reconcile {
		proc := a.ReconcileProcessor()
		if err := proc.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownTimeout)
			defer cancel()
			if err := proc.Stop(stopCtx); err != nil {
				rt.logger.Warn("Reconcile processor did not stop cleanly", log.FieldError, err)
			}
		}()
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               rt.cfg.Addr(),
		ReadTimeout:        rt.cfg.ReadTimeout,
		WriteTimeout:       rt.cfg.WriteTimeout,
		RateLimitPerMinute: rt.cfg.RateLimitPerMinute,
		EnableH2C:          rt.cfg.EnableH2C,
		SecureCookies:      secureCookies,
		Logger:             rt.logger,
		Metrics:            a.Metrics,
	}, a.Services)

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("Starting budgetbuddy server",
			"addr", rt.cfg.Addr(),
			"backend", rt.cfg.Backend,
			"ledger_mode", string(a.Ledger.Mode()),
			"h2c", rt.cfg.EnableH2C)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			rt.logger.Error("Server error", log.FieldError, err, "addr", rt.cfg.Addr())
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.logger.Error("Server shutdown error", log.FieldError, err)
		return err
	}
	rt.logger.Info("Server stopped gracefully")
	return nil
}
