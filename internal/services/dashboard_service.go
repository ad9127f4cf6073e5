package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/ledger"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/ports"
)

const (
	dashboardDueLimit   = 4
	dashboardGoalLimit  = 6
	dashboardFlowMonths = 12
)

// DashboardSource is the read side the dashboard aggregates.
type DashboardSource interface {
	ledger.EntrySource
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	ListDueItems(ctx context.Context, userID string) ([]core.DueItem, error)
}

var _ DashboardSource = (ports.Store)(nil)

// orEmpty makes an empty list encode as [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// GoalProgress is a goal with its completion percentage.
type GoalProgress struct {
	core.Goal
	Progress float64 `json:"progress"`
}

type Dashboard struct {
	// Balance is derived from the entries and is authoritative.
	Balance       core.Money `json:"balance"`
	CachedBalance core.Money `json:"cached_balance"`
	// Drift is CachedBalance minus Balance.
	Drift              core.Money            `json:"drift"`
	TotalIncome        core.Money            `json:"total_income"`
	TotalExpense       core.Money            `json:"total_expense"`
	Year               int                   `json:"year"`
	Month              int                   `json:"month"`
	ExpensesByCategory []core.CategoryAmount `json:"expenses_by_category"`
	MonthlyFlow        []core.MonthFlow      `json:"monthly_flow"`
	Statement          []core.Transaction    `json:"statement"`
	UpcomingDue        []core.DueItem        `json:"upcoming_due"`
	Goals              []GoalProgress        `json:"goals"`
}

type DashboardService struct {
	source DashboardSource
	ledger *ledger.Maintainer
	options
}

func NewDashboardService(source DashboardSource, l *ledger.Maintainer, opts ...Option) *DashboardService {
	return &DashboardService{source: source, ledger: l, options: buildOptions(log.ComponentDashboard, opts)}
}

// Build aggregates the user's data. A zero year selects the current month.
func (s *DashboardService) Build(ctx context.Context, userID string, year int, month time.Month) (Dashboard, error) {
	if userID == "" {
		return Dashboard{}, core.ErrMissingUser
	}
	today := s.today()
	if year == 0 {
		year, month = today.Year(), today.Month()
	}

	var (
		incomes  []core.Income
		expenses []core.Expense
		goals    []core.Goal
		dues     []core.DueItem
		cached   core.Money
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { incomes, err = s.source.ListIncomes(gctx, userID); return })
	g.Go(func() (err error) { expenses, err = s.source.ListExpenses(gctx, userID); return })
	g.Go(func() (err error) { goals, err = s.source.ListGoals(gctx, userID); return })
	g.Go(func() (err error) { dues, err = s.source.ListDueItems(gctx, userID); return })
	g.Go(func() (err error) { cached, err = s.ledger.Balance(gctx, userID); return })
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	income := core.Zero
	for _, in := range incomes {
		income = income.Add(in.Amount)
	}
	expense := core.Zero
	for _, ex := range expenses {
		expense = expense.Add(ex.Amount)
	}
	balance := income.Sub(expense)

	d := Dashboard{
		Balance:            balance,
		CachedBalance:      cached,
		Drift:              cached.Sub(balance),
		TotalIncome:        income,
		TotalExpense:       expense,
		Year:               year,
		Month:              int(month),
		ExpensesByCategory: orEmpty(core.ExpensesByCategory(expenses, year, month)),
		MonthlyFlow:        orEmpty(core.MonthlyFlow(incomes, expenses, today, dashboardFlowMonths)),
		Statement:          orEmpty(core.Statement(incomes, expenses)),
		UpcomingDue:        orEmpty(core.UpcomingDue(dues, today, dashboardDueLimit)),
		Goals:              []GoalProgress{},
	}
	for _, goal := range core.GoalsInProgress(goals, dashboardGoalLimit) {
		d.Goals = append(d.Goals, GoalProgress{Goal: goal, Progress: goal.Progress()})
	}
	if !d.Drift.IsZero() {
		s.logger.WarnContext(ctx, "Cached balance differs from entries",
			log.FieldUserID, userID,
			log.FieldBalance, cached.String(),
			log.FieldComputed, balance.String(),
			log.FieldDrift, d.Drift.String())
	}
	return d, nil
}
