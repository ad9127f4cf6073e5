// Package ports declares the persistence interfaces implemented by the
// storage backends and consumed by the services.
//
// Every entity operation is scoped by the owning user id. Update and delete
// of a row owned by someone else report core.ErrNotFound.
package ports

import (
	"context"

	"budgetbuddy/internal/core"
)

type (
	UserRepository interface {
		// CreateUser fails with core.ErrEmailInUse when the email is taken.
		CreateUser(ctx context.Context, u core.User) error
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		GetUserByID(ctx context.Context, id string) (core.User, error)
		// ListUserIDs returns every user id, ordered.
		ListUserIDs(ctx context.Context) ([]string, error)
	}

	IncomeRepository interface {
		// ListIncomes returns the user's incomes, newest date first.
		ListIncomes(ctx context.Context, userID string) ([]core.Income, error)
		GetIncome(ctx context.Context, userID, id string) (core.Income, error)
		CreateIncome(ctx context.Context, in core.Income) error
		UpdateIncome(ctx context.Context, in core.Income) error
		DeleteIncome(ctx context.Context, userID, id string) error
	}

	ExpenseRepository interface {
		// ListExpenses returns the user's expenses, newest date first.
		ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
		GetExpense(ctx context.Context, userID, id string) (core.Expense, error)
		CreateExpense(ctx context.Context, e core.Expense) error
		UpdateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, userID, id string) error
	}

	GoalRepository interface {
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
		GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) error
		UpdateGoal(ctx context.Context, g core.Goal) error
		DeleteGoal(ctx context.Context, userID, id string) error
	}

	DueItemRepository interface {
		ListDueItems(ctx context.Context, userID string) ([]core.DueItem, error)
		GetDueItem(ctx context.Context, userID, id string) (core.DueItem, error)
		CreateDueItem(ctx context.Context, d core.DueItem) error
		UpdateDueItem(ctx context.Context, d core.DueItem) error
		DeleteDueItem(ctx context.Context, userID, id string) error
	}

	// BalanceStore persists the cached per-user balance.
	BalanceStore interface {
		// GetBalance returns core.ErrNotFound when the user has no balance row.
		GetBalance(ctx context.Context, userID string) (core.Balance, error)
		// UpsertBalance writes total, inserting the row when absent.
		UpsertBalance(ctx context.Context, userID string, total core.Money) error
	}

	// BalanceIncrementer adds delta to the stored total in one operation,
	// creating the row with total = delta when absent.
	BalanceIncrementer interface {
		IncrementBalance(ctx context.Context, userID string, delta core.Money) (core.Money, error)
	}

	// Transactor runs fn as one unit of work. Backends serialize units that
	// touch the same data: a concurrent unit observes either all of fn's
	// writes or none of them. fn must use the tx store and ctx it is handed,
	// and may be invoked more than once when the backend retries a conflict.
	Transactor interface {
		InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	}

	// Store is everything a storage backend provides.
	Store interface {
		UserRepository
		IncomeRepository
		ExpenseRepository
		GoalRepository
		DueItemRepository
		BalanceStore
		BalanceIncrementer
		Transactor
		Ping(ctx context.Context) error
		Close() error
	}
)
