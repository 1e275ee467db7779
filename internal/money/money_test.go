package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseEmptyIsZero(t *testing.T) {
	d, err := Parse("  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !IsZero(d) {
		t.Fatalf("expected zero, got %s", d)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("12.3.4"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFromFloatIsExact(t *testing.T) {
	d := FromFloat(0.1)
	want := decimal.RequireFromString("0.1")
	if !Equal(d, want) {
		t.Fatalf("expected 0.1 exactly, got %s", d)
	}
}

func TestRound2(t *testing.T) {
	d := decimal.RequireFromString("6.005")
	if got := Round2(d); got.String() != "6.01" {
		t.Fatalf("expected 6.01, got %s", got)
	}
}

func TestEqualIgnoresExponent(t *testing.T) {
	a := decimal.RequireFromString("6.00")
	b := decimal.RequireFromString("6")
	if !Equal(a, b) {
		t.Fatalf("expected 6.00 == 6")
	}
}
