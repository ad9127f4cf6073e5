package mongo

import (
	"time"

	"budgetbuddy/internal/core"
)

// Documents stored in MongoDB. Amounts are integer cents, dates are
// YYYY-MM-DD strings so that they sort lexicographically.
type (
	userDoc struct {
		ID           string    `bson:"_id"`
		Name         string    `bson:"name"`
		Email        string    `bson:"email"`
		PasswordHash string    `bson:"password_hash"`
		CreatedAt    time.Time `bson:"created_at"`
	}

	incomeDoc struct {
		ID          string `bson:"_id"`
		UserID      string `bson:"user_id"`
		Label       string `bson:"label"`
		AmountCents int64  `bson:"amount_cents"`
		Date        string `bson:"date"`
	}

	expenseDoc struct {
		ID          string `bson:"_id"`
		UserID      string `bson:"user_id"`
		Label       string `bson:"label"`
		AmountCents int64  `bson:"amount_cents"`
		Date        string `bson:"date"`
		CategoryID  int    `bson:"category_id"`
	}

	goalDoc struct {
		ID           string `bson:"_id"`
		UserID       string `bson:"user_id"`
		Label        string `bson:"label"`
		TargetCents  int64  `bson:"target_cents"`
		CurrentCents int64  `bson:"current_cents"`
		TargetDate   string `bson:"target_date"`
		IsCompleted  bool   `bson:"is_completed"`
	}

	dueItemDoc struct {
		ID          string `bson:"_id"`
		UserID      string `bson:"user_id"`
		Label       string `bson:"label"`
		DueDate     string `bson:"due_date"`
		AmountCents int64  `bson:"amount_cents"`
		Paid        bool   `bson:"paid"`
	}

	balanceDoc struct {
		UserID     string    `bson:"_id"`
		TotalCents int64     `bson:"total_cents"`
		UpdatedAt  time.Time `bson:"updated_at"`
	}
)

func userDocFrom(u core.User) userDoc {
	return userDoc{ID: u.ID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt.UTC()}
}

func (d userDoc) toCore() (core.User, error) {
	return core.User{ID: d.ID, Name: d.Name, Email: d.Email, PasswordHash: d.PasswordHash, CreatedAt: d.CreatedAt}, nil
}

func incomeDocFrom(in core.Income) incomeDoc {
	return incomeDoc{ID: in.ID, UserID: in.UserID, Label: in.Label, AmountCents: in.Amount.Cents(), Date: in.Date.String()}
}

func (d incomeDoc) toCore() (core.Income, error) {
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{ID: d.ID, UserID: d.UserID, Label: d.Label, Amount: core.NewMoneyFromCents(d.AmountCents), Date: date}, nil
}

func expenseDocFrom(e core.Expense) expenseDoc {
	return expenseDoc{
		ID: e.ID, UserID: e.UserID, Label: e.Label, AmountCents: e.Amount.Cents(),
		Date: e.Date.String(), CategoryID: e.CategoryID,
	}
}

func (d expenseDoc) toCore() (core.Expense, error) {
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID: d.ID, UserID: d.UserID, Label: d.Label, Amount: core.NewMoneyFromCents(d.AmountCents),
		Date: date, CategoryID: d.CategoryID,
	}, nil
}

func goalDocFrom(g core.Goal) goalDoc {
	return goalDoc{
		ID: g.ID, UserID: g.UserID, Label: g.Label,
		TargetCents: g.Target.Cents(), CurrentCents: g.Current.Cents(),
		TargetDate: g.TargetDate.String(), IsCompleted: g.IsCompleted,
	}
}

func (d goalDoc) toCore() (core.Goal, error) {
	date, err := core.ParseDate(d.TargetDate)
	if err != nil {
		return core.Goal{}, err
	}
	return core.Goal{
		ID: d.ID, UserID: d.UserID, Label: d.Label,
		Target: core.NewMoneyFromCents(d.TargetCents), Current: core.NewMoneyFromCents(d.CurrentCents),
		TargetDate: date, IsCompleted: d.IsCompleted,
	}, nil
}

func dueItemDocFrom(it core.DueItem) dueItemDoc {
	return dueItemDoc{
		ID: it.ID, UserID: it.UserID, Label: it.Label, DueDate: it.DueDate.String(),
		AmountCents: it.Amount.Cents(), Paid: it.Paid,
	}
}

func (d dueItemDoc) toCore() (core.DueItem, error) {
	date, err := core.ParseDate(d.DueDate)
	if err != nil {
		return core.DueItem{}, err
	}
	return core.DueItem{
		ID: d.ID, UserID: d.UserID, Label: d.Label, DueDate: date,
		Amount: core.NewMoneyFromCents(d.AmountCents), Paid: d.Paid,
	}, nil
}

func (d balanceDoc) toCore() (core.Balance, error) {
	return core.Balance{UserID: d.UserID, Total: core.NewMoneyFromCents(d.TotalCents), UpdatedAt: d.UpdatedAt}, nil
}
