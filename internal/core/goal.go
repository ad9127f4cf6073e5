package core

import "time"

// Accumulate adds amount to the goal's current value. Negative amounts
// withdraw; the current value never drops below zero. The completed flag
// is recomputed from the new value.
func (g Goal) Accumulate(amount Money) Goal {
	g.Current = g.Current.Add(amount).Max(Zero)
	g.IsCompleted = g.Current.GreaterThanOrEqual(g.Target)
	return g
}

// ToggleCompleted flips the completed flag without touching the current value.
func (g Goal) ToggleCompleted() Goal {
	g.IsCompleted = !g.IsCompleted
	return g
}

// RecomputeCompleted sets the flag from current and target.
func (g Goal) RecomputeCompleted() Goal {
	g.IsCompleted = g.Current.GreaterThanOrEqual(g.Target)
	return g
}

// Progress is current/target as a percentage capped at 100.
func (g Goal) Progress() float64 {
	if !g.Target.IsPositive() {
		return 0
	}
	p, _ := g.Current.Amount.Div(g.Target.Amount).Shift(2).Round(1).Float64()
	if p > 100 {
		return 100
	}
	return p
}

// DueFilter selects a subset of due items.
type DueFilter string

const (
	DueAll      DueFilter = "all"
	DueUpcoming DueFilter = "upcoming"
	DuePaid     DueFilter = "paid"
)

// ParseDueFilter maps a query value to a filter; empty means DueAll.
func ParseDueFilter(s string) (DueFilter, error) {
	switch DueFilter(s) {
	case "", DueAll:
		return DueAll, nil
	case DueUpcoming, DuePaid:
		return DueFilter(s), nil
	}
	return "", ErrInvalidDueFilter
}

// IsUpcoming reports whether the item is unpaid and due today or later.
func (d DueItem) IsUpcoming(today Date) bool {
	return !d.Paid && !d.DueDate.Before(today)
}

// IsOverdue reports whether the item is unpaid and its due date has passed.
func (d DueItem) IsOverdue(today Date) bool {
	return !d.Paid && d.DueDate.Before(today)
}

// Today returns the current calendar date in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc != nil {
		now = now.In(loc)
	}
	return DateOf(now)
}
