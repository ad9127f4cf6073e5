package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"budgetbuddy/internal/core"
)

const (
	incomeColumns  = "id, user_id, label, amount_cents, date"
	expenseColumns = "id, user_id, label, amount_cents, date, category_id"
)

func scanIncome(s rowScanner) (core.Income, error) {
	var row incomeRow
	if err := s.Scan(&row.ID, &row.UserID, &row.Label, &row.AmountCents, &row.Date); err != nil {
		return core.Income{}, err
	}
	return row.toCore()
}

func scanExpense(s rowScanner) (core.Expense, error) {
	var row expenseRow
	if err := s.Scan(&row.ID, &row.UserID, &row.Label, &row.AmountCents, &row.Date, &row.CategoryID); err != nil {
		return core.Expense{}, err
	}
	return row.toCore()
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, userID string) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE user_id = ? ORDER BY date DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, userID, id string) (core.Income, error) {
	in, err := scanIncome(r.db.QueryRowContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, core.ErrNotFound
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	return in, nil
}

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) error {
	row := incomeRowFrom(in)
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?)`,
		row.ID, row.UserID, row.Label, row.AmountCents, row.Date); err != nil {
		return fmt.Errorf("create income: %w", err)
	}
	slog.InfoContext(ctx, "Income saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"amount_cents", row.AmountCents,
		"date", row.Date)
	return nil
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, in core.Income) error {
	row := incomeRowFrom(in)
	err := r.execAffectingOne(ctx, core.ErrNotFound,
		`UPDATE incomes SET label = ?, amount_cents = ?, date = ? WHERE id = ? AND user_id = ?`,
		row.Label, row.AmountCents, row.Date, row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, userID, id string) error {
	if err := r.execAffectingOne(ctx, core.ErrNotFound,
		`DELETE FROM incomes WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	slog.InfoContext(ctx, "Income deleted from SQLite", "id", id, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? ORDER BY date DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	row := expenseRowFrom(e)
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		row.ID, row.UserID, row.Label, row.AmountCents, row.Date, row.CategoryID); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"amount_cents", row.AmountCents,
		"category_id", row.CategoryID,
		"date", row.Date)
	return nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	row := expenseRowFrom(e)
	err := r.execAffectingOne(ctx, core.ErrNotFound,
		`UPDATE expenses SET label = ?, amount_cents = ?, date = ?, category_id = ? WHERE id = ? AND user_id = ?`,
		row.Label, row.AmountCents, row.Date, row.CategoryID, row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := r.execAffectingOne(ctx, core.ErrNotFound,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id, "user_id", userID)
	return nil
}
