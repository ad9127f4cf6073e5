package storage

import (
	"fmt"
	"time"

	"budgetbuddy/internal/core"
)

// Row types mirror the table columns. The mapping functions below are the
// only place where column values become domain values.
type (
	userRow struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    string
	}

	incomeRow struct {
		ID          string
		UserID      string
		Label       string
		AmountCents int64
		Date        string
	}

	expenseRow struct {
		ID          string
		UserID      string
		Label       string
		AmountCents int64
		Date        string
		CategoryID  int64
	}

	goalRow struct {
		ID           string
		UserID       string
		Label        string
		TargetCents  int64
		CurrentCents int64
		TargetDate   string
		IsCompleted  int64
	}

	dueItemRow struct {
		ID          string
		UserID      string
		Label       string
		DueDate     string
		AmountCents int64
		Paid        int64
	}

	balanceRow struct {
		UserID     string
		TotalCents int64
		UpdatedAt  string
	}
)

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func parseStoredDate(column, s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("column %s: %w", column, err)
	}
	return d, nil
}

func parseStoredTime(column, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", column, err)
	}
	return t, nil
}

func userRowFrom(u core.User) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (r userRow) toCore() (core.User, error) {
	created, err := parseStoredTime("created_at", r.CreatedAt)
	if err != nil {
		return core.User{}, err
	}
	return core.User{ID: r.ID, Name: r.Name, Email: r.Email, PasswordHash: r.PasswordHash, CreatedAt: created}, nil
}

func incomeRowFrom(in core.Income) incomeRow {
	return incomeRow{
		ID:          in.ID,
		UserID:      in.UserID,
		Label:       in.Label,
		AmountCents: in.Amount.Cents(),
		Date:        in.Date.String(),
	}
}

func (r incomeRow) toCore() (core.Income, error) {
	d, err := parseStoredDate("date", r.Date)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{
		ID:     r.ID,
		UserID: r.UserID,
		Label:  r.Label,
		Amount: core.NewMoneyFromCents(r.AmountCents),
		Date:   d,
	}, nil
}

func expenseRowFrom(e core.Expense) expenseRow {
	return expenseRow{
		ID:          e.ID,
		UserID:      e.UserID,
		Label:       e.Label,
		AmountCents: e.Amount.Cents(),
		Date:        e.Date.String(),
		CategoryID:  int64(e.CategoryID),
	}
}

func (r expenseRow) toCore() (core.Expense, error) {
	d, err := parseStoredDate("date", r.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:         r.ID,
		UserID:     r.UserID,
		Label:      r.Label,
		Amount:     core.NewMoneyFromCents(r.AmountCents),
		Date:       d,
		CategoryID: int(r.CategoryID),
	}, nil
}

func goalRowFrom(g core.Goal) goalRow {
	return goalRow{
		ID:           g.ID,
		UserID:       g.UserID,
		Label:        g.Label,
		TargetCents:  g.Target.Cents(),
		CurrentCents: g.Current.Cents(),
		TargetDate:   g.TargetDate.String(),
		IsCompleted:  boolToInt(g.IsCompleted),
	}
}

func (r goalRow) toCore() (core.Goal, error) {
	d, err := parseStoredDate("target_date", r.TargetDate)
	if err != nil {
		return core.Goal{}, err
	}
	return core.Goal{
		ID:          r.ID,
		UserID:      r.UserID,
		Label:       r.Label,
		Target:      core.NewMoneyFromCents(r.TargetCents),
		Current:     core.NewMoneyFromCents(r.CurrentCents),
		TargetDate:  d,
		IsCompleted: r.IsCompleted != 0,
	}, nil
}

func dueItemRowFrom(d core.DueItem) dueItemRow {
	return dueItemRow{
		ID:          d.ID,
		UserID:      d.UserID,
		Label:       d.Label,
		DueDate:     d.DueDate.String(),
		AmountCents: d.Amount.Cents(),
		Paid:        boolToInt(d.Paid),
	}
}

func (r dueItemRow) toCore() (core.DueItem, error) {
	d, err := parseStoredDate("due_date", r.DueDate)
	if err != nil {
		return core.DueItem{}, err
	}
	return core.DueItem{
		ID:      r.ID,
		UserID:  r.UserID,
		Label:   r.Label,
		DueDate: d,
		Amount:  core.NewMoneyFromCents(r.AmountCents),
		Paid:    r.Paid != 0,
	}, nil
}

func (r balanceRow) toCore() (core.Balance, error) {
	updated, err := parseStoredTime("updated_at", r.UpdatedAt)
	if err != nil {
		return core.Balance{}, err
	}
	return core.Balance{UserID: r.UserID, Total: core.NewMoneyFromCents(r.TotalCents), UpdatedAt: updated}, nil
}
