package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/app"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/services"
)

func newWorkerCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume ledger events and reconcile the affected balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfg.AMQPURL == "" {
				return errors.New("worker requires AMQP_URL")
			}
			ctx, stop := notifyShutdown(cmd.Context(), rt.logger)
			defer stop()
			return runWorker(ctx, rt)
		},
	}
}

func runWorker(ctx context.Context, rt *runtime) error {
	a, err := app.New(ctx, rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := rt.logger.WithComponent(log.ComponentWorker)
	a.StartCacheSweeper(ctx)

	proc := a.ReconcileProcessor()
	if err := proc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownTimeout)
		defer cancel()
		_ = proc.Stop(stopCtx)
	}()

	logger.Info("Starting budgetbuddy worker", "queue", rt.cfg.AMQPQueue, "fix", rt.cfg.ReconcileFix)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Events.ConsumeLedgerEvents(gctx, ledgerEventHandler(a.Services.Reconcile, rt.cfg.ReconcileFix, logger))
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		return err
	}
	logger.Info("Worker shutdown complete")
	return nil
}

// ledgerEventHandler re-checks the balance of the user an event names.
// An error requeues the event.
func ledgerEventHandler(reconciler *services.ReconcileService, fix bool, logger *log.Logger) func(context.Context, *amqp.LedgerEvent) error {
	return func(ctx context.Context, ev *amqp.LedgerEvent) error {
		report, err := reconciler.User(ctx, ev.UserID, fix)
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", ev.UserID, err)
		}
		if !report.InSync() {
			logger.WarnContext(ctx, "Balance drift after ledger event",
				log.FieldUserID, ev.UserID,
				"entry_id", ev.EntryID,
				log.FieldDrift, report.Drift.String(),
				"fixed", report.Fixed)
			return nil
		}
		logger.DebugContext(ctx, "Balance in sync after ledger event",
			log.FieldUserID, ev.UserID, "entry_id", ev.EntryID)
		return nil
	}
}
