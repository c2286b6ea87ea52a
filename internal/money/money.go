package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared by all money operations.
var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// Money is an amount tagged with the currency it is denominated in. The
// currency of a value never changes; arithmetic across currencies fails.
type Money struct {
	currency string
	amount   decimal.Decimal
}

func New(currency string, amount decimal.Decimal) Money {
	return Money{currency: currency, amount: amount}
}

func Zero(currency string) Money {
	return Money{currency: currency, amount: decimal.Zero}
}

// FromString parses a decimal string into a Money value.
func FromString(currency, amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q (%v)", ErrInvalidAmount, amount, err)
	}
	return Money{currency: currency, amount: d}, nil
}

func (m Money) Currency() string         { return m.currency }
func (m Money) Amount() decimal.Decimal  { return m.amount }
func (m Money) IsZero() bool             { return m.amount.IsZero() }
func (m Money) IsPositive() bool         { return m.amount.IsPositive() }
func (m Money) String() string           { return m.amount.String() + " " + m.currency }

// Add returns m + other. Both operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{currency: m.currency, amount: m.amount.Add(other.amount)}, nil
}

// Sub returns m - other. Both operands must share a currency.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{currency: m.currency, amount: m.amount.Sub(other.amount)}, nil
}

func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Cmp compares two same-currency amounts: -1 if m < other, 0 if equal, 1 if greater.
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return m.amount.Cmp(other.amount), nil
}

// Rate converts an amount of a source currency into a quote currency.
type Rate struct {
	From  string
	To    string
	Price decimal.Decimal
}

// Convert applies the rate to a source-currency amount.
func (r Rate) Convert(m Money) (Money, error) {
	if m.currency != r.From {
		return Money{}, fmt.Errorf("%w: rate is %s/%s, amount is %s", ErrCurrencyMismatch, r.From, r.To, m.currency)
	}
	return Money{currency: r.To, amount: m.amount.Mul(r.Price)}, nil
}
