// Package export builds a user's statement and hands it to a writer,
// either a Google Sheets range or a local PDF file.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/ledger"
)

// Header is the column order of every tabular export.
var Header = []string{"Data", "Tipo", "Descrição", "Categoria", "Valor"}

// Source is the read side a statement is built from.
type Source interface {
	ledger.EntrySource
	GetUserByID(ctx context.Context, id string) (core.User, error)
}

// Exporter writes a statement somewhere and returns a reference to it
// (a sheet range or a file path).
type Exporter interface {
	Export(ctx context.Context, st Statement) (string, error)
}

// Statement is every transaction of a user, newest first, with totals.
type Statement struct {
	UserID       string
	UserName     string
	GeneratedAt  time.Time
	Transactions []core.Transaction
	TotalIncome  core.Money
	TotalExpense core.Money
	Balance      core.Money
}

// BuildStatement loads the user's entries and derives the totals from them.
func BuildStatement(ctx context.Context, src Source, userID string, now time.Time) (Statement, error) {
	if userID == "" {
		return Statement{}, core.ErrMissingUser
	}

	var (
		user     core.User
		incomes  []core.Income
		expenses []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { user, err = src.GetUserByID(gctx, userID); return })
	g.Go(func() (err error) { incomes, err = src.ListIncomes(gctx, userID); return })
	g.Go(func() (err error) { expenses, err = src.ListExpenses(gctx, userID); return })
	if err := g.Wait(); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Statement{}, fmt.Errorf("user %s: %w", userID, err)
		}
		return Statement{}, fmt.Errorf("load statement: %w", err)
	}

	st := Statement{
		UserID:       userID,
		UserName:     user.Name,
		GeneratedAt:  now,
		Transactions: core.Statement(incomes, expenses),
		TotalIncome:  core.Zero,
		TotalExpense: core.Zero,
	}
	for _, in := range incomes {
		st.TotalIncome = st.TotalIncome.Add(in.Amount)
	}
	for _, ex := range expenses {
		st.TotalExpense = st.TotalExpense.Add(ex.Amount)
	}
	st.Balance = st.TotalIncome.Sub(st.TotalExpense)
	return st, nil
}

// KindLabel is the display name of an entry kind.
func KindLabel(k core.EntryKind) string {
	switch k {
	case core.KindIncome:
		return "Receita"
	case core.KindExpense:
		return "Despesa"
	}
	return string(k)
}

// Rows returns one row per transaction in Header order. Amounts are plain
// decimals so spreadsheets can sum them; expenses are negative.
func (s Statement) Rows() [][]string {
	rows := make([][]string, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		amount := tx.Amount
		if tx.Kind == core.KindExpense {
			amount = amount.Neg()
		}
		rows = append(rows, []string{
			tx.Date.String(),
			KindLabel(tx.Kind),
			tx.Label,
			tx.Category,
			amount.String(),
		})
	}
	return rows
}
