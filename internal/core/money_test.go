package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.50", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"1e3", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustMoney("0.1")
	b := MustMoney("0.2")
	if got := a.Add(b); got.Cmp(MustMoney("0.3")) != 0 {
		t.Fatalf("0.1+0.2 = %s", got)
	}
	if got := a.Sub(b); got.String() != "-0.10" {
		t.Fatalf("0.1-0.2 = %s", got)
	}
	if !Zero.IsZero() || Zero.IsPositive() {
		t.Fatalf("zero misreported")
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(MustMoney("12.5"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "12.50" {
		t.Fatalf("marshal: %s", b)
	}

	for _, in := range []string{`12.5`, `"12.5"`, `"12,5"`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if m.String() != "12.50" {
			t.Fatalf("unmarshal %s: got %s", in, m)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"abc"`), &m); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
