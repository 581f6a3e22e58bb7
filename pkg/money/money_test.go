package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseBudget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"₹1,000", "1000"},
		{"500", "500"},
		{"abc", "0"},
		{"", "0"},
		{".", "0"},
		{"$ 2,500.75", "2500.75"},
		{"1.2.3", "1.2"},
		{".5", "0.5"},
		{"12.", "12"},
		{"R 1 000 000", "1000000"},
	}

	for _, tt := range tests {
		got := ParseBudget(tt.in)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseBudget(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSumOfParsedBudgets(t *testing.T) {
	total := Sum(ParseBudget("₹1,000"), ParseBudget("500"), ParseBudget("abc"))
	if !total.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected 1500, got %s", total)
	}
}

func TestFits(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"0.1234", true},
		{"99999999999999.9999", true},
		{"2500.7500", true},
		{"100000000000000", false},
		{"0.12345", false},
		{"123456789012345678.123456", false},
	}
	for _, tt := range tests {
		if got := Fits(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("Fits(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
