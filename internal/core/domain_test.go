package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-01", true},
		{"2024-02-29", true},
		{" 2025-12-31 ", true},
		{"2025-02-30", false},
		{"31/12/2025", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%q expected error, got %s", tc.in, d)
			}
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
			}
		}
	}
}

func TestDateDisplay(t *testing.T) {
	d := NewDate(2025, 3, 7)
	if d.String() != "2025-03-07" || d.Display() != "07/03/2025" {
		t.Fatalf("unexpected formatting %s %s", d.String(), d.Display())
	}
	if (Date{}).Display() != "" {
		t.Fatal("zero date should display empty")
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); err == nil {
		t.Fatal("expected error for zero date")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		UserID:     "u1",
		Label:      "Rent",
		Amount:     MustMoney("400"),
		Date:       NewDate(2025, 1, 1),
		CategoryID: 5,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"blank label", func(e *Expense) { e.Label = "  " }, ErrEmptyLabel},
		{"long label", func(e *Expense) { e.Label = strings.Repeat("x", 201) }, ErrLabelTooLong},
		{"zero amount", func(e *Expense) { e.Amount = Zero }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount = MustMoney("-1") }, ErrInvalidAmount},
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
		{"unknown category", func(e *Expense) { e.CategoryID = 11 }, ErrInvalidCategory},
		{"missing category", func(e *Expense) { e.CategoryID = 0 }, ErrInvalidCategory},
	}
	for _, tc := range cases {
		e := good
		tc.mutate(&e)
		if err := e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !IsValidation(e.Validate()) {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestIncomeValidate(t *testing.T) {
	in := Income{Label: "Salary", Amount: MustMoney("1000"), Date: NewDate(2025, 1, 5)}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	in.Amount = Zero
	if !errors.Is(in.Validate(), ErrInvalidAmount) {
		t.Fatal("expected ErrInvalidAmount")
	}
}

func TestValidateRegistration(t *testing.T) {
	cases := []struct {
		name, email, password string
		want                  error
	}{
		{"Ana", "ana@example.com", "segredo123", nil},
		{"", "ana@example.com", "segredo123", ErrEmptyName},
		{"Ana", "not-an-email", "segredo123", ErrInvalidEmail},
		{"Ana", "ana@example.com", "short", ErrWeakPassword},
	}
	for _, tc := range cases {
		err := ValidateRegistration(tc.name, tc.email, tc.password)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%q/%q: expected %v, got %v", tc.name, tc.email, tc.want, err)
		}
	}
}

func TestCategories(t *testing.T) {
	all := Categories()
	if len(all) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(all))
	}
	for i, c := range all {
		if c.ID != i+1 {
			t.Fatalf("category %q has id %d at position %d", c.Name, c.ID, i)
		}
	}
	c, ok := CategoryByName("moradia")
	if !ok || c.ID != 5 {
		t.Fatalf("expected Moradia id 5, got %+v %v", c, ok)
	}
	if CategoryName(99) != "Sem categoria" {
		t.Fatal("unknown id should map to Sem categoria")
	}
	all[0].Name = "changed"
	if CategoryName(1) != "Alimentação" {
		t.Fatal("Categories must return a copy")
	}
}
