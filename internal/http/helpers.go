package http

import (
	"strconv"
	"strings"

	"budgetbuddy/internal/core"
)

// sanitizeInput removes control characters (except tab and newlines) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// Request mapping. Each function turns a parsed body into a core value for
// the given owner; parse failures surface as core validation errors.

func incomeFromRequest(p *RequestBodyParser, userID, id string) (core.Income, error) {
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Income{}, err
	}
	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{ID: id, UserID: userID, Label: p.Get("label"), Amount: amount, Date: date}, nil
}

func expenseFromRequest(p *RequestBodyParser, userID, id string) (core.Expense, error) {
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return core.Expense{}, err
	}
	categoryID, err := categoryFromRequest(p)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID: id, UserID: userID, Label: p.Get("label"),
		Amount: amount, Date: date, CategoryID: categoryID,
	}, nil
}

// categoryFromRequest accepts either "category_id" or a category "category" name.
func categoryFromRequest(p *RequestBodyParser) (int, error) {
	if v := p.Get("category_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, core.ErrInvalidCategory
		}
		if _, ok := core.CategoryByID(id); !ok {
			return 0, core.ErrInvalidCategory
		}
		return id, nil
	}
	if c, ok := core.CategoryByName(p.Get("category")); ok {
		return c.ID, nil
	}
	return 0, core.ErrInvalidCategory
}

func goalFromRequest(p *RequestBodyParser, userID, id string) (core.Goal, error) {
	target, err := core.ParseAmount(p.Get("target"))
	if err != nil {
		return core.Goal{}, err
	}
	date, err := core.ParseDate(p.Get("target_date"))
	if err != nil {
		return core.Goal{}, err
	}
	return core.Goal{ID: id, UserID: userID, Label: p.Get("label"), Target: target, TargetDate: date}, nil
}

func dueItemFromRequest(p *RequestBodyParser, userID, id string) (core.DueItem, error) {
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.DueItem{}, err
	}
	date, err := core.ParseDate(p.Get("due_date"))
	if err != nil {
		return core.DueItem{}, err
	}
	return core.DueItem{
		ID: id, UserID: userID, Label: p.Get("label"),
		DueDate: date, Amount: amount, Paid: p.Bool("paid", false),
	}, nil
}
