// Package core provides money parsing and handling utilities.
//
// Amounts are decimal values with two fractional digits. Storage backends
// persist them as integer cents; the JSON boundary exchanges decimal strings.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount bounds parsed input so that cents always fit in an int64.
var maxAmount = decimal.New(1, 13)

// Money is a signed monetary amount in BRL.
type Money struct {
	Amount decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{Amount: decimal.Zero}

// NewMoneyFromCents builds a Money from an integer number of cents.
func NewMoneyFromCents(cents int64) Money {
	return Money{Amount: decimal.New(cents, -2)}
}

// MustMoney parses s and panics on error. Intended for tests and constants.
func MustMoney(s string) Money {
	m, err := ParseSignedMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseAmount converts user input to a positive Money rounded half-up to cents.
//
// It accepts dot (12.34) and comma (12,34) decimal separators, thousands
// separators when both are present (1.234,56 or 1,234.56) and an optional
// "R$" prefix. Zero, negative and non-numeric input yield ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34
//	ParseAmount("1.234,56")  -> 1234.56
//	ParseAmount("12.345")    -> 12.35
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Zero, ErrInvalidAmount
	}
	m, err := ParseSignedMoney(s)
	if err != nil {
		return Zero, err
	}
	if !m.IsPositive() {
		return Zero, ErrInvalidAmount
	}
	return m, nil
}

// ParseSignedMoney is like ParseAmount but allows zero and a leading sign.
// Goal accumulation uses it so that withdrawals can be expressed.
func ParseSignedMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	s = normalizeSeparators(strings.TrimSpace(s))
	if s == "" || strings.ContainsAny(s, "eE") {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if neg {
		d = d.Neg()
	}
	return Money{Amount: d}, nil
}

// normalizeSeparators rewrites s so that "." is the only decimal separator.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return ""
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return ""
	}
	return s
}

// Cents returns the amount as integer cents.
func (m Money) Cents() int64 {
	return m.Amount.Shift(2).Round(0).IntPart()
}

func (m Money) Add(o Money) Money { return Money{Amount: m.Amount.Add(o.Amount)} }
func (m Money) Sub(o Money) Money { return Money{Amount: m.Amount.Sub(o.Amount)} }
func (m Money) Neg() Money        { return Money{Amount: m.Amount.Neg()} }

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Equal compares amounts numerically (1.5 equals 1.50).
func (m Money) Equal(o Money) bool { return m.Amount.Equal(o.Amount) }

func (m Money) GreaterThanOrEqual(o Money) bool { return m.Amount.GreaterThanOrEqual(o.Amount) }

// Max returns the larger of m and o.
func (m Money) Max(o Money) Money {
	if m.Amount.LessThan(o.Amount) {
		return o
	}
	return m
}

// Validate reports whether m is a valid entry amount.
func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// String returns a plain decimal representation with two digits, e.g. "-450.00".
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

// BRL formats the amount the way pt-BR displays currency: "R$ 1.234,56", "-R$ 450,00".
func (m Money) BRL() string {
	s := m.Amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if m.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString("R$ ")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// Float returns the amount as float64 for chart-style output only.
func (m Money) Float() float64 {
	f, _ := m.Amount.Float64()
	return f
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a decimal string ("12,50", "12.50") or a JSON number.
func (m *Money) UnmarshalJSON(b []byte) error {
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	if s == "null" {
		*m = Zero
		return nil
	}
	v, err := ParseSignedMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Sum adds up all amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
