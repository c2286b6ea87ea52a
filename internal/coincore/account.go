package coincore

import (
	"context"

	"coincore-go/internal/catalogue"
	"coincore-go/internal/money"
)

// Kind tags the account variants. The engine dispatcher switches over kinds,
// so every new variant must be added to its table explicitly.
type Kind int

const (
	KindNonCustodial Kind = iota
	KindTrading
	KindInterest
	KindFiat
	KindExchange
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindNonCustodial:
		return "non-custodial"
	case KindTrading:
		return "trading"
	case KindInterest:
		return "interest"
	case KindFiat:
		return "fiat"
	case KindExchange:
		return "exchange"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// AccountBalance is one balance snapshot with an optional exchange rate.
type AccountBalance struct {
	Total      money.Money
	Actionable money.Money
	Pending    money.Money
	Rate       *money.Rate
}

// ZeroAccountBalance returns an all-zero balance with no rate.
func ZeroAccountBalance(currency string) AccountBalance {
	return AccountBalance{
		Total:      money.Zero(currency),
		Actionable: money.Zero(currency),
		Pending:    money.Zero(currency),
	}
}

// TxSourceState reports whether an account can currently act as a transfer
// source.
type TxSourceState int

const (
	SourceCanTransact TxSourceState = iota
	SourceNoFunds
	SourceFundsLocked
	SourceNotSupported
)

// ReceiveAddress is a resolved deposit address for one account.
type ReceiveAddress struct {
	Asset   string
	Label   string
	Address string
}

// TransactionTarget is anything a transfer can be pointed at: an account, a
// raw crypto address, or a payment-protocol invoice.
type TransactionTarget interface {
	TargetLabel() string
}

// CryptoAddress is a raw destination address target.
type CryptoAddress struct {
	Asset   catalogue.Asset
	Address string
	Label   string
}

func (a CryptoAddress) TargetLabel() string { return a.Label }

// BitPayInvoice is a BitPay payment-protocol target. Only BTC and BCH
// sources may pay one.
type BitPayInvoice struct {
	Asset     catalogue.Asset
	Address   string
	InvoiceID string
	Amount    money.Money
}

func (b BitPayInvoice) TargetLabel() string { return "BitPay " + b.InvoiceID }

// Account is the capability surface every balance-bearing endpoint exposes.
type Account interface {
	TransactionTarget

	Kind() Kind
	Label() string
	// Currency is the asset ticker for crypto accounts or the currency code
	// for fiat accounts. Never changes after construction.
	Currency() string

	Balance(ctx context.Context) (AccountBalance, error)
	Actions(ctx context.Context) (ActionSet, error)
	Activity(ctx context.Context) ([]ActivityItem, error)

	// IsFunded reflects the most recent balance observation.
	IsFunded() bool
	HasTransactions() bool

	ReceiveAddress(ctx context.Context) (ReceiveAddress, error)
	RequireSecondPassword(ctx context.Context) (bool, error)
}

// CryptoAccount is an Account bound to a crypto asset.
type CryptoAccount interface {
	Account

	Asset() catalogue.Asset
	IsArchived() bool
	IsDefault() bool
	// Matches reports whether other is the same logical account. Used by the
	// account cache to preserve object identity across refreshes.
	Matches(other CryptoAccount) bool
	SourceState(ctx context.Context) (TxSourceState, error)
}
