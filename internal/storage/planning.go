package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budgetbuddy/internal/core"
)

const (
	goalColumns    = "id, user_id, label, target_cents, current_cents, target_date, is_completed"
	dueItemColumns = "id, user_id, label, due_date, amount_cents, paid"
)

func scanGoal(s rowScanner) (core.Goal, error) {
	var row goalRow
	if err := s.Scan(&row.ID, &row.UserID, &row.Label, &row.TargetCents, &row.CurrentCents, &row.TargetDate, &row.IsCompleted); err != nil {
		return core.Goal{}, err
	}
	return row.toCore()
}

func scanDueItem(s rowScanner) (core.DueItem, error) {
	var row dueItemRow
	if err := s.Scan(&row.ID, &row.UserID, &row.Label, &row.DueDate, &row.AmountCents, &row.Paid); err != nil {
		return core.DueItem{}, err
	}
	return row.toCore()
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY target_date, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) error {
	row := goalRowFrom(g)
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.UserID, row.Label, row.TargetCents, row.CurrentCents, row.TargetDate, row.IsCompleted); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	row := goalRowFrom(g)
	err := r.execAffectingOne(ctx, core.ErrNotFound,
		`UPDATE goals SET label = ?, target_cents = ?, current_cents = ?, target_date = ?, is_completed = ?
		 WHERE id = ? AND user_id = ?`,
		row.Label, row.TargetCents, row.CurrentCents, row.TargetDate, row.IsCompleted, row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := r.execAffectingOne(ctx, core.ErrNotFound,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListDueItems(ctx context.Context, userID string) ([]core.DueItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dueItemColumns+` FROM due_items WHERE user_id = ? ORDER BY due_date, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list due items: %w", err)
	}
	defer rows.Close()

	var out []core.DueItem
	for rows.Next() {
		d, err := scanDueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due item: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetDueItem(ctx context.Context, userID, id string) (core.DueItem, error) {
	d, err := scanDueItem(r.db.QueryRowContext(ctx,
		`SELECT `+dueItemColumns+` FROM due_items WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.DueItem{}, core.ErrNotFound
	}
	if err != nil {
		return core.DueItem{}, fmt.Errorf("get due item: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) CreateDueItem(ctx context.Context, d core.DueItem) error {
	row := dueItemRowFrom(d)
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO due_items (`+dueItemColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		row.ID, row.UserID, row.Label, row.DueDate, row.AmountCents, row.Paid); err != nil {
		return fmt.Errorf("create due item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateDueItem(ctx context.Context, d core.DueItem) error {
	row := dueItemRowFrom(d)
	err := r.execAffectingOne(ctx, core.ErrNotFound,
		`UPDATE due_items SET label = ?, due_date = ?, amount_cents = ?, paid = ? WHERE id = ? AND user_id = ?`,
		row.Label, row.DueDate, row.AmountCents, row.Paid, row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("update due item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteDueItem(ctx context.Context, userID, id string) error {
	if err := r.execAffectingOne(ctx, core.ErrNotFound,
		`DELETE FROM due_items WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete due item: %w", err)
	}
	return nil
}
