package services

import (
	"context"
	"errors"
	"fmt"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/ledger"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/ports"
)

// ReconcileService compares cached balances with entry totals.
type ReconcileService struct {
	store  ports.Store
	ledger *ledger.Maintainer
	options
}

// NewReconcileService reconciles against store. Pass the backend without
// the repository cache when other processes write to it.
func NewReconcileService(store ports.Store, l *ledger.Maintainer, opts ...Option) *ReconcileService {
	return &ReconcileService{store: store, ledger: l, options: buildOptions(log.ComponentLedger, opts)}
}

// User reconciles one user inside a unit of work, so the entries, the
// cached total and the fix never straddle an entry mutation.
func (s *ReconcileService) User(ctx context.Context, userID string, fix bool) (ledger.Report, error) {
	if userID == "" {
		return ledger.Report{}, core.ErrMissingUser
	}
	var rep ledger.Report
	err := s.store.InTx(ctx, func(ctx context.Context, tx ports.Store) error {
		var err error
		rep, err = s.ledger.Bind(tx).Reconcile(ctx, userID, tx, fix)
		return err
	})
	return rep, err
}

// All reconciles every user. Failures for one user do not stop the others;
// they are joined into the returned error.
func (s *ReconcileService) All(ctx context.Context, fix bool) ([]ledger.Report, error) {
	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var (
		reports []ledger.Report
		errs    []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep, err := s.User(ctx, id, fix)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", id, err))
			continue
		}
		reports = append(reports, rep)
	}
	s.logger.InfoContext(ctx, "Reconciliation finished", "users", len(ids), "failed", len(errs))
	return reports, errors.Join(errs...)
}
