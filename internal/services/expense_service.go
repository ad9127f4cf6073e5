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

// ExpenseService writes expenses and keeps the cached balance in step.
type ExpenseService struct {
	repo ports.ExpenseRepository
	sync ledgerSync
}

func NewExpenseService(store ports.Store, l *ledger.Maintainer, opts ...Option) *ExpenseService {
	return &ExpenseService{
		repo: store,
		sync: ledgerSync{ledger: l, store: store, options: buildOptions(log.ComponentExpense, opts)},
	}
}

func (s *ExpenseService) List(ctx context.Context, userID string) ([]core.Expense, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	return s.repo.ListExpenses(ctx, userID)
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (core.Expense, error) {
	return s.repo.GetExpense(ctx, userID, id)
}

func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.UserID == "" {
		return core.Expense{}, core.ErrMissingUser
	}
	e.ID = s.sync.newID()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	err := s.sync.mutate(ctx, e.UserID, e.ID, core.KindExpense, core.OpCreate,
		func(ctx context.Context, tx ports.Store) (core.Money, core.Money, error) {
			if err := tx.CreateExpense(ctx, e); err != nil {
				return core.Zero, core.Zero, fmt.Errorf("save expense: %w", err)
			}
			return core.Zero, e.Amount, nil
		})
	if err != nil && !errors.Is(err, ledger.ErrLedgerDrift) {
		return core.Expense{}, err
	}
	s.sync.logger.InfoContext(ctx, "Expense created",
		log.FieldUserID, e.UserID, log.FieldEntryID, e.ID, log.FieldAmount, e.Amount.String())
	return e, err
}

// Update replaces an expense; the balance moves by old minus new amount.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	err := s.sync.mutate(ctx, e.UserID, e.ID, core.KindExpense, core.OpUpdate,
		func(ctx context.Context, tx ports.Store) (core.Money, core.Money, error) {
			old, err := tx.GetExpense(ctx, e.UserID, e.ID)
			if err != nil {
				return core.Zero, core.Zero, err
			}
			if err := tx.UpdateExpense(ctx, e); err != nil {
				return core.Zero, core.Zero, fmt.Errorf("update expense: %w", err)
			}
			return old.Amount, e.Amount, nil
		})
	if err != nil && !errors.Is(err, ledger.ErrLedgerDrift) {
		return core.Expense{}, err
	}
	return e, err
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	return s.sync.mutate(ctx, userID, id, core.KindExpense, core.OpDelete,
		func(ctx context.Context, tx ports.Store) (core.Money, core.Money, error) {
			old, err := tx.GetExpense(ctx, userID, id)
			if err != nil {
				return core.Zero, core.Zero, err
			}
			if err := tx.DeleteExpense(ctx, userID, id); err != nil {
				return core.Zero, core.Zero, fmt.Errorf("delete expense: %w", err)
			}
			return old.Amount, core.Zero, nil
		})
}
