package ledger

import (
	"context"
	"fmt"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
)

// EntrySource lists the entries a balance is derived from.
type EntrySource interface {
	ListIncomes(ctx context.Context, userID string) ([]core.Income, error)
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
}

// Report compares the cached balance with the total derived from entries.
type Report struct {
	UserID   string     `json:"user_id"`
	Cached   core.Money `json:"cached"`
	Computed core.Money `json:"computed"`
	Drift    core.Money `json:"drift"`
	Fixed    bool       `json:"fixed"`
}

// InSync reports whether cached and computed totals agree.
func (r Report) InSync() bool { return r.Drift.IsZero() }

// Reconcile recomputes sum(incomes) - sum(expenses) and compares it with
// the cached total. Drift is cached - computed. With fix set, a drifting
// cache is overwritten with the computed total.
func (m *Maintainer) Reconcile(ctx context.Context, userID string, entries EntrySource, fix bool) (Report, error) {
	incomes, err := entries.ListIncomes(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := entries.ListExpenses(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("list expenses: %w", err)
	}
	cached, err := m.Balance(ctx, userID)
	if err != nil {
		return Report{}, err
	}

	computed := core.NetTotal(incomes, expenses)
	rep := Report{
		UserID:   userID,
		Cached:   cached,
		Computed: computed,
		Drift:    cached.Sub(computed),
	}
	if rep.InSync() {
		m.metrics.Reconciled("in_sync")
		return rep, nil
	}

	m.logger.WarnContext(ctx, "Ledger drift detected",
		log.FieldUserID, userID,
		log.FieldBalance, cached.String(),
		log.FieldComputed, computed.String(),
		log.FieldDrift, rep.Drift.String())

	if !fix {
		m.metrics.Reconciled("drift")
		return rep, nil
	}
	if err := m.store.UpsertBalance(ctx, userID, computed); err != nil {
		m.metrics.Reconciled("drift")
		return rep, fmt.Errorf("fix balance: %w", err)
	}
	rep.Fixed = true
	m.metrics.Reconciled("fixed")
	m.logger.InfoContext(ctx, "Ledger drift fixed", log.FieldUserID, userID, log.FieldBalance, computed.String())
	return rep, nil
}
