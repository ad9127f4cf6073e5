package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"budgetbuddy/internal/core"
)

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func (r *SQLiteRepository) GetBalance(ctx context.Context, userID string) (core.Balance, error) {
	var row balanceRow
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, total_cents, updated_at FROM balances WHERE user_id = ?`, userID).
		Scan(&row.UserID, &row.TotalCents, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Balance{}, core.ErrNotFound
	}
	if err != nil {
		return core.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return row.toCore()
}

// UpsertBalance overwrites the stored total.
func (r *SQLiteRepository) UpsertBalance(ctx context.Context, userID string, total core.Money) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO balances (user_id, total_cents, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET total_cents = excluded.total_cents, updated_at = excluded.updated_at`,
		userID, total.Cents(), now())
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

// IncrementBalance adds delta inside a single statement, so concurrent
// increments for the same user serialize in SQLite.
func (r *SQLiteRepository) IncrementBalance(ctx context.Context, userID string, delta core.Money) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO balances (user_id, total_cents, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET total_cents = balances.total_cents + excluded.total_cents,
		                                    updated_at = excluded.updated_at
		 RETURNING total_cents`,
		userID, delta.Cents(), now()).Scan(&total)
	if err != nil {
		return core.Zero, fmt.Errorf("increment balance: %w", err)
	}
	return core.NewMoneyFromCents(total), nil
}
