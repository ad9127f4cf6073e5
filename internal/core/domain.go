package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// EntryKind distinguishes the two ledger-affecting entry types.
type EntryKind string

const (
	KindIncome  EntryKind = "income"
	KindExpense EntryKind = "expense"
)

type (
	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
	}

	Income struct {
		ID     string `json:"id"`
		UserID string `json:"user_id"`
		Label  string `json:"label"`
		Amount Money  `json:"amount"`
		Date   Date   `json:"date"`
	}

	Expense struct {
		ID         string `json:"id"`
		UserID     string `json:"user_id"`
		Label      string `json:"label"`
		Amount     Money  `json:"amount"`
		Date       Date   `json:"date"`
		CategoryID int    `json:"category_id"`
	}

	// Balance is the cached net total of a user's entries.
	Balance struct {
		UserID    string    `json:"user_id"`
		Total     Money     `json:"total"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	Goal struct {
		ID          string `json:"id"`
		UserID      string `json:"user_id"`
		Label       string `json:"label"`
		Target      Money  `json:"target"`
		Current     Money  `json:"current"`
		TargetDate  Date   `json:"target_date"`
		IsCompleted bool   `json:"is_completed"`
	}

	// DueItem is a bill with a due date.
	DueItem struct {
		ID      string `json:"id"`
		UserID  string `json:"user_id"`
		Label   string `json:"label"`
		DueDate Date   `json:"due_date"`
		Amount  Money  `json:"amount"`
		Paid    bool   `json:"paid"`
	}
)

const maxLabelLen = 200

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyLabel       = errors.New("empty label")
	ErrLabelTooLong     = errors.New("label too long (max 200 characters)")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrMissingUser      = errors.New("missing user id")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrWeakPassword     = errors.New("password must be at least 8 characters")
	ErrNotFound         = errors.New("not found")
	ErrEmailInUse       = errors.New("email already in use")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidDueFilter = errors.New("invalid due item filter")
	ErrMissingFields    = errors.New("missing required fields")
)

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrEmptyLabel, ErrLabelTooLong, ErrInvalidCategory,
		ErrInvalidDate, ErrEmptyName, ErrInvalidEmail, ErrWeakPassword, ErrInvalidDueFilter,
		ErrMissingFields,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validateLabel(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyLabel
	}
	if len(s) > maxLabelLen {
		return ErrLabelTooLong
	}
	return nil
}

func (i Income) Validate() error {
	if err := validateLabel(i.Label); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	return i.Date.Validate()
}

func (e Expense) Validate() error {
	if err := validateLabel(e.Label); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if _, ok := CategoryByID(e.CategoryID); !ok {
		return ErrInvalidCategory
	}
	return nil
}

func (g Goal) Validate() error {
	if err := validateLabel(g.Label); err != nil {
		return err
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.IsNegative() {
		return ErrInvalidAmount
	}
	return g.TargetDate.Validate()
}

func (d DueItem) Validate() error {
	if err := validateLabel(d.Label); err != nil {
		return err
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	return d.DueDate.Validate()
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateRegistration checks the fields needed to create a user.
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}
