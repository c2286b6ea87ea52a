package coincore

import (
	"time"

	"coincore-go/internal/backend"
	"coincore-go/internal/money"
)

// ActivitySummary is the header every activity record carries.
type ActivitySummary struct {
	TxID      string
	Timestamp time.Time
	Value     money.Money
	Account   Account
}

// ActivityItem is the discriminated union of transaction records. Variants
// are the concrete structs below; consumers switch on the concrete type.
type ActivityItem interface {
	Summary() ActivitySummary
}

// OnChainActivity is one on-chain transfer.
type OnChainActivity struct {
	ActivitySummary
	Type          backend.OnChainTxType
	Fee           money.Money
	Confirmations int
	Address       string
}

func (a OnChainActivity) Summary() ActivitySummary { return a.ActivitySummary }

// TradeActivity is one custodial trade (swap or sell leg). NetworkFee holds
// the on-chain fee carried over when the trade was reconciled against an
// on-chain record.
type TradeActivity struct {
	ActivitySummary
	State            backend.TradeState
	Direction        backend.TransferDirection
	ReceivingValue   money.Money
	SendingAddress   string
	ReceivingAddress string
	NetworkFee       money.Money
	WithdrawalFee    money.Money
	FiatValue        money.Money
}

func (a TradeActivity) Summary() ActivitySummary { return a.ActivitySummary }

// OrderActivity is one custodial buy/sell or recurring-buy order.
type OrderActivity struct {
	ActivitySummary
	Type            backend.OrderType
	State           backend.OrderState
	Fiat            money.Money
	Fee             money.Money
	PaymentMethodID string
	RecurringBuyID  string
}

func (a OrderActivity) Summary() ActivitySummary { return a.ActivitySummary }

// TransferActivity is one custodial internal transfer.
type TransferActivity struct {
	ActivitySummary
	Type             backend.OnChainTxType
	State            backend.TransferState
	Fee              money.Money
	RecipientAddress string
	TxHash           string
}

func (a TransferActivity) Summary() ActivitySummary { return a.ActivitySummary }

// InterestActivity is one interest-ledger deposit, withdrawal or payment.
type InterestActivity struct {
	ActivitySummary
	Type          backend.InterestTxType
	State         backend.InterestState
	Confirmations int
	AccountRef    string
	Address       string
}

func (a InterestActivity) Summary() ActivitySummary { return a.ActivitySummary }

// FiatActivity is one fiat-ledger record.
type FiatActivity struct {
	ActivitySummary
	Type  backend.OnChainTxType
	State backend.TransferState
}

func (a FiatActivity) Summary() ActivitySummary { return a.ActivitySummary }
