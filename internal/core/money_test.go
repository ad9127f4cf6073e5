package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"1.234,56", 123456, true},
		{"1,234.56", 123456, true},
		{"R$ 1.000,00", 100000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1,2,3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
		{"99999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents() != tc.cents {
				t.Fatalf("%q expected %d cents, got %d (err=%v)", tc.in, tc.cents, got.Cents(), err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestParseSignedMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"-50", "-50.00"},
		{"+12,5", "12.50"},
		{"0", "0.00"},
	}
	for _, tc := range cases {
		got, err := ParseSignedMoney(tc.in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestMoneyBRL(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{NewMoneyFromCents(0), "R$ 0,00"},
		{NewMoneyFromCents(5), "R$ 0,05"},
		{NewMoneyFromCents(123456), "R$ 1.234,56"},
		{NewMoneyFromCents(-45000), "-R$ 450,00"},
		{NewMoneyFromCents(100000000), "R$ 1.000.000,00"},
	}
	for _, tc := range cases {
		if got := tc.m.BRL(); got != tc.want {
			t.Fatalf("BRL(%s) = %q, want %q", tc.m, got, tc.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustMoney("10.10")
	b := MustMoney("0.20")
	if got := a.Add(b).String(); got != "10.30" {
		t.Fatalf("add: got %s", got)
	}
	if got := b.Sub(a).String(); got != "-9.90" {
		t.Fatalf("sub: got %s", got)
	}
	if !a.Sub(a).IsZero() {
		t.Fatal("expected zero")
	}
	if got := Sum(a, b, b.Neg()); !got.Equal(a) {
		t.Fatalf("sum: got %s", got)
	}
	if got := b.Neg().Max(Zero); !got.IsZero() {
		t.Fatalf("max: got %s", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"12,50","b":3.1}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.Cents() != 1250 || v.B.Cents() != 310 {
		t.Fatalf("unexpected values %s %s", v.A, v.B)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":"12.50","b":"3.10"}` {
		t.Fatalf("unexpected json %s", out)
	}
	if err := json.Unmarshal([]byte(`{"a":"x"}`), &v); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
}
