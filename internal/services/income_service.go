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

// IncomeService writes incomes and keeps the cached balance in step.
type IncomeService struct {
	repo ports.IncomeRepository
	sync ledgerSync
}

func NewIncomeService(store ports.Store, l *ledger.Maintainer, opts ...Option) *IncomeService {
	return &IncomeService{
		repo: store,
		sync: ledgerSync{ledger: l, store: store, options: buildOptions(log.ComponentIncome, opts)},
	}
}

func (s *IncomeService) List(ctx context.Context, userID string) ([]core.Income, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	return s.repo.ListIncomes(ctx, userID)
}

func (s *IncomeService) Get(ctx context.Context, userID, id string) (core.Income, error) {
	return s.repo.GetIncome(ctx, userID, id)
}

// Create stores a new income and adds its amount to the balance.
func (s *IncomeService) Create(ctx context.Context, in core.Income) (core.Income, error) {
	if in.UserID == "" {
		return core.Income{}, core.ErrMissingUser
	}
	in.ID = s.sync.newID()
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	err := s.sync.mutate(ctx, in.UserID, in.ID, core.KindIncome, core.OpCreate,
		func(ctx context.Context, tx ports.Store) (core.Money, core.Money, error) {
			if err := tx.CreateIncome(ctx, in); err != nil {
				return core.Zero, core.Zero, fmt.Errorf("save income: %w", err)
			}
			return core.Zero, in.Amount, nil
		})
	if err != nil && !errors.Is(err, ledger.ErrLedgerDrift) {
		return core.Income{}, err
	}
	s.sync.logger.InfoContext(ctx, "Income created",
		log.FieldUserID, in.UserID, log.FieldEntryID, in.ID, log.FieldAmount, in.Amount.String())
	return in, err
}

// Update replaces an income and adjusts the balance by new minus old amount.
func (s *IncomeService) Update(ctx context.Context, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	err := s.sync.mutate(ctx, in.UserID, in.ID, core.KindIncome, core.OpUpdate,
		func(ctx context.Context, tx ports.Store) (core.Money, core.Money, error) {
			old, err := tx.GetIncome(ctx, in.UserID, in.ID)
			if err != nil {
				return core.Zero, core.Zero, err
			}
			if err := tx.UpdateIncome(ctx, in); err != nil {
				return core.Zero, core.Zero, fmt.Errorf("update income: %w", err)
			}
			return old.Amount, in.Amount, nil
		})
	if err != nil && !errors.Is(err, ledger.ErrLedgerDrift) {
		return core.Income{}, err
	}
	return in, err
}

// Delete removes an income and subtracts its amount from the balance.
func (s *IncomeService) Delete(ctx context.Context, userID, id string) error {
	return s.sync.mutate(ctx, userID, id, core.KindIncome, core.OpDelete,
		func(ctx context.Context, tx ports.Store) (core.Money, core.Money, error) {
			old, err := tx.GetIncome(ctx, userID, id)
			if err != nil {
				return core.Zero, core.Zero, err
			}
			if err := tx.DeleteIncome(ctx, userID, id); err != nil {
				return core.Zero, core.Zero, fmt.Errorf("delete income: %w", err)
			}
			return old.Amount, core.Zero, nil
		})
}
