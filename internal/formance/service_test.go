package formance

import (
	"testing"

	"github.com/shopspring/decimal"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func TestFormanceAsset(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"USD", "USD/2"},
		{"EUR", "EUR/2"},
		{"GBP", "GBP/2"},
		{"XXX", "XXX/2"}, // default precision
	}
	for _, tt := range tests {
		if got := formanceAsset(tt.symbol); got != tt.want {
			t.Errorf("formanceAsset(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}

func TestAssetSymbol(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"USD/2", "USD"},
		{"EUR/2", "EUR"},
		{"PLAIN", "PLAIN"},
	}
	for _, tt := range tests {
		if got := assetSymbol(tt.input); got != tt.want {
			t.Errorf("assetSymbol(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFiatAccount(t *testing.T) {
	if got := fiatAccount("USD"); got != "wallet:fiat:usd" {
		t.Errorf("fiatAccount(USD) = %q", got)
	}
	if got := pendingAccount("EUR"); got != "payments:outgoing:eur" {
		t.Errorf("pendingAccount(EUR) = %q", got)
	}
}

func TestBigIntToDecimal(t *testing.T) {
	// 12_345 smallest units of USD (precision 2) = 123.45
	d := decimal.NewFromInt(12_345)
	result := bigIntToDecimal(d.BigInt(), "USD")
	if !result.Equal(decimal.NewFromFloat(123.45)) {
		t.Errorf("expected 123.45, got %s", result.String())
	}

	// nil should return zero
	result = bigIntToDecimal(nil, "USD")
	if !result.IsZero() {
		t.Errorf("expected 0, got %s", result.String())
	}
}
