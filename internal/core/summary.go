package core

import (
	"cmp"
	"slices"
	"time"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	CategoryID int    `json:"category_id"`
	Name       string `json:"name"`
	Amount     Money  `json:"amount"`
}

// MonthFlow is the income and expense total of one calendar month.
type MonthFlow struct {
	Year    int   `json:"year"`
	Month   int   `json:"month"`
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
}

// Transaction is one line of the combined statement.
type Transaction struct {
	ID       string    `json:"id"`
	Kind     EntryKind `json:"kind"`
	Label    string    `json:"label"`
	Amount   Money     `json:"amount"`
	Date     Date      `json:"date"`
	Category string    `json:"category,omitempty"`
}

// CalendarDay groups the due items falling on one day of a month.
type CalendarDay struct {
	Day   int       `json:"day"`
	Items []DueItem `json:"items"`
}

// Statement merges incomes and expenses, newest first. Entries on the same
// date keep incomes before expenses.
func Statement(incomes []Income, expenses []Expense) []Transaction {
	out := make([]Transaction, 0, len(incomes)+len(expenses))
	for _, in := range incomes {
		out = append(out, Transaction{ID: in.ID, Kind: KindIncome, Label: in.Label, Amount: in.Amount, Date: in.Date})
	}
	for _, ex := range expenses {
		out = append(out, Transaction{
			ID: ex.ID, Kind: KindExpense, Label: ex.Label, Amount: ex.Amount, Date: ex.Date,
			Category: CategoryName(ex.CategoryID),
		})
	}
	slices.SortStableFunc(out, func(a, b Transaction) int {
		return b.Date.Compare(a.Date.Time)
	})
	return out
}

// ExpensesByCategory totals the expenses of one month per category, largest first.
func ExpensesByCategory(expenses []Expense, year int, month time.Month) []CategoryAmount {
	totals := map[int]Money{}
	for _, ex := range expenses {
		if !ex.Date.InMonth(year, month) {
			continue
		}
		totals[ex.CategoryID] = totals[ex.CategoryID].Add(ex.Amount)
	}
	out := make([]CategoryAmount, 0, len(totals))
	for id, amt := range totals {
		out = append(out, CategoryAmount{CategoryID: id, Name: CategoryName(id), Amount: amt})
	}
	slices.SortFunc(out, func(a, b CategoryAmount) int {
		if c := b.Amount.Amount.Cmp(a.Amount.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.CategoryID, b.CategoryID)
	})
	return out
}

// MonthlyFlow returns income and expense totals for the n months ending
// with the month of today, oldest first.
func MonthlyFlow(incomes []Income, expenses []Expense, today Date, n int) []MonthFlow {
	if n <= 0 {
		return nil
	}
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
	out := make([]MonthFlow, n)
	for i := range out {
		m := first.AddDate(0, i, 0)
		out[i] = MonthFlow{Year: m.Year(), Month: int(m.Month()), Income: Zero, Expense: Zero}
	}
	index := func(d Date) int {
		return (d.Year()-first.Year())*12 + int(d.Month()) - int(first.Month())
	}
	for _, in := range incomes {
		if i := index(in.Date); i >= 0 && i < n {
			out[i].Income = out[i].Income.Add(in.Amount)
		}
	}
	for _, ex := range expenses {
		if i := index(ex.Date); i >= 0 && i < n {
			out[i].Expense = out[i].Expense.Add(ex.Amount)
		}
	}
	return out
}

// FilterDueItems applies filter. Upcoming and all are sorted by due date
// ascending, paid by due date descending.
func FilterDueItems(items []DueItem, filter DueFilter, today Date) []DueItem {
	out := make([]DueItem, 0, len(items))
	for _, it := range items {
		switch filter {
		case DueUpcoming:
			if !it.IsUpcoming(today) {
				continue
			}
		case DuePaid:
			if !it.Paid {
				continue
			}
		}
		out = append(out, it)
	}
	byDate := func(a, b DueItem) int { return a.DueDate.Compare(b.DueDate.Time) }
	if filter == DuePaid {
		slices.SortStableFunc(out, func(a, b DueItem) int { return byDate(b, a) })
	} else {
		slices.SortStableFunc(out, byDate)
	}
	return out
}

// UpcomingDue returns at most limit upcoming unpaid items, soonest first.
func UpcomingDue(items []DueItem, today Date, limit int) []DueItem {
	out := FilterDueItems(items, DueUpcoming, today)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GoalsInProgress returns at most limit goals that are not completed, in input order.
func GoalsInProgress(goals []Goal, limit int) []Goal {
	var out []Goal
	for _, g := range goals {
		if g.IsCompleted {
			continue
		}
		if limit >= 0 && len(out) == limit {
			break
		}
		out = append(out, g)
	}
	return out
}

// Calendar groups the due items of a month by day, days ascending.
func Calendar(items []DueItem, year int, month time.Month) []CalendarDay {
	byDay := map[int][]DueItem{}
	for _, it := range items {
		if it.DueDate.InMonth(year, month) {
			byDay[it.DueDate.Day()] = append(byDay[it.DueDate.Day()], it)
		}
	}
	days := make([]CalendarDay, 0, len(byDay))
	for day, its := range byDay {
		days = append(days, CalendarDay{Day: day, Items: its})
	}
	slices.SortFunc(days, func(a, b CalendarDay) int { return cmp.Compare(a.Day, b.Day) })
	return days
}
