package backend

import (
	"context"
	"errors"
	"time"

	"coincore-go/internal/money"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrNotFound           = errors.New("not found")
)

// Balance is one ledger snapshot. Total includes uncleared and locked funds;
// Actionable is what a transaction may spend right now; Pending is incoming
// value that has not cleared.
type Balance struct {
	Total      money.Money
	Actionable money.Money
	Pending    money.Money
}

// ZeroBalance returns an all-zero balance for a currency.
func ZeroBalance(currency string) Balance {
	return Balance{
		Total:      money.Zero(currency),
		Actionable: money.Zero(currency),
		Pending:    money.Zero(currency),
	}
}

// AccountRef identifies one on-chain wallet account within a non-custodial
// backend. DerivationPath is the stable identity of the account: two refs
// with the same asset and path are the same logical account.
type AccountRef struct {
	Asset                  string
	DerivationPath         string
	Address                string
	Label                  string
	IsDefault              bool
	Archived               bool
	RequiresSecondPassword bool
}

// OnChainTxType classifies an on-chain history record.
type OnChainTxType string

const (
	TxSent        OnChainTxType = "SENT"
	TxReceived    OnChainTxType = "RECEIVED"
	TxTransferred OnChainTxType = "TRANSFERRED"
)

// OnChainTxRecord is one entry of an account's on-chain history.
type OnChainTxRecord struct {
	TxID          string
	Type          OnChainTxType
	Timestamp     time.Time
	Value         money.Money
	Fee           money.Money
	Confirmations int
	Address       string
}

// OrderType classifies a custodial buy/sell order.
type OrderType string

const (
	OrderBuy          OrderType = "BUY"
	OrderSell         OrderType = "SELL"
	OrderRecurringBuy OrderType = "RECURRING_BUY"
)

// OrderState is the lifecycle state of a custodial order.
type OrderState string

const (
	OrderFinished            OrderState = "FINISHED"
	OrderAwaitingFunds       OrderState = "AWAITING_FUNDS"
	OrderPendingExecution    OrderState = "PENDING_EXECUTION"
	OrderPendingConfirmation OrderState = "PENDING_CONFIRMATION"
	OrderCanceled            OrderState = "CANCELED"
	OrderFailed              OrderState = "FAILED"
	OrderUnknown             OrderState = "UNKNOWN"
)

// Order is one custodial buy/sell order record.
type Order struct {
	ID              string
	Type            OrderType
	State           OrderState
	Created         time.Time
	Crypto          money.Money
	Fiat            money.Money
	Fee             money.Money
	PaymentMethodID string
	RecurringBuyID  string
}

// TradeState is the lifecycle state of a custodial trade (swap/sell leg).
type TradeState string

const (
	TradeFinished            TradeState = "FINISHED"
	TradePendingDeposit      TradeState = "PENDING_DEPOSIT"
	TradePendingExecution    TradeState = "PENDING_EXECUTION"
	TradePendingConfirmation TradeState = "PENDING_CONFIRMATION"
	TradeCanceled            TradeState = "CANCELED"
	TradeFailed              TradeState = "FAILED"
	TradeExpired             TradeState = "EXPIRED"
	TradeUnknown             TradeState = "UNKNOWN"
)

// TransferDirection describes which legs of a trade touch user keys.
type TransferDirection string

const (
	DirectionOnChain     TransferDirection = "ON_CHAIN"
	DirectionFromUserKey TransferDirection = "FROM_USERKEY"
	DirectionToUserKey   TransferDirection = "TO_USERKEY"
	DirectionInternal    TransferDirection = "INTERNAL"
)

// Trade is one custodial trade record (a swap or sell execution).
type Trade struct {
	ID               string
	State            TradeState
	Direction        TransferDirection
	Timestamp        time.Time
	SendingValue     money.Money
	ReceivingValue   money.Money
	SendingAddress   string
	ReceivingAddress string
	WithdrawalFee    money.Money
	FiatValue        money.Money
}

// TransferState is the lifecycle state of a custodial internal transfer.
type TransferState string

const (
	TransferCompleted TransferState = "COMPLETED"
	TransferPending   TransferState = "PENDING"
	TransferFailed    TransferState = "FAILED"
)

// Transfer is one custodial internal-transfer record.
type Transfer struct {
	ID               string
	State            TransferState
	Timestamp        time.Time
	Value            money.Money
	Fee              money.Money
	RecipientAddress string
	TxHash           string
	Type             OnChainTxType
}

// InterestTxType classifies an interest ledger record.
type InterestTxType string

const (
	InterestDeposit    InterestTxType = "DEPOSIT"
	InterestWithdrawal InterestTxType = "WITHDRAWAL"
	InterestPayment    InterestTxType = "INTEREST"
)

// InterestState is the lifecycle state of an interest ledger record.
type InterestState string

const (
	InterestComplete     InterestState = "COMPLETE"
	InterestProcessing   InterestState = "PROCESSING"
	InterestPending      InterestState = "PENDING"
	InterestManualReview InterestState = "MANUAL_REVIEW"
	InterestFailed       InterestState = "FAILED"
	InterestRejected     InterestState = "REJECTED"
	InterestCleared      InterestState = "CLEARED"
	InterestUnknown      InterestState = "UNKNOWN"
)

// InterestRecord is one entry of the interest sub-ledger.
type InterestRecord struct {
	ID            string
	Type          InterestTxType
	State         InterestState
	Timestamp     time.Time
	Value         money.Money
	Confirmations int
	AccountRef    string
	Address       string
}

// Eligibility is the result of an interest-eligibility probe.
type Eligibility struct {
	Eligible bool
	Reason   string
}

// FiatRecord is one entry of a fiat account's history.
type FiatRecord struct {
	ID        string
	Type      OnChainTxType
	State     TransferState
	Timestamp time.Time
	Value     money.Money
}

// SubmitParams carries a built on-chain transaction to the chain backend.
type SubmitParams struct {
	Source         AccountRef
	TargetAddress  string
	Amount         money.Money
	Fee            money.Money
	SecondPassword string
	IdempotencyKey string
}

// WithdrawalParams carries a custodial withdrawal request.
type WithdrawalParams struct {
	Asset              string
	Amount             money.Money
	DestinationAddress string
	IdempotencyKey     string
}

// SwapParams carries a custodial swap request. DepositTxID links the swap to
// the on-chain deposit that funds it, empty for internal swaps.
type SwapParams struct {
	SourceAsset      string
	DestinationAsset string
	Amount           money.Money
	Direction        TransferDirection
	DepositTxID      string
	IdempotencyKey   string
}

// SellParams carries a custodial sell request.
type SellParams struct {
	Asset          string
	FiatCurrency   string
	Amount         money.Money
	DepositTxID    string
	IdempotencyKey string
}

// NonCustodialBackend is the contract a blockchain SDK wrapper must satisfy.
type NonCustodialBackend interface {
	ListAccounts(ctx context.Context, asset string) ([]AccountRef, error)
	Balance(ctx context.Context, ref AccountRef) (Balance, error)
	History(ctx context.Context, ref AccountRef) ([]OnChainTxRecord, error)
	EstimateFee(ctx context.Context, asset string) (money.Money, error)
	Submit(ctx context.Context, params SubmitParams) (string, error)
}

// CustodialBackend is the contract the custodial trading/interest API client
// must satisfy.
type CustodialBackend interface {
	TradingAccountAddress(ctx context.Context, asset string) (string, error)
	TradingBalance(ctx context.Context, asset string) (Balance, error)
	OrderHistory(ctx context.Context, asset string) ([]Order, error)
	TradeHistory(ctx context.Context, asset string, directions []TransferDirection) ([]Trade, error)
	TransferHistory(ctx context.Context, asset string) ([]Transfer, error)

	IsInterestAvailable(ctx context.Context, asset string) (bool, error)
	InterestEligibility(ctx context.Context, asset string) (Eligibility, error)
	InterestAccountAddress(ctx context.Context, asset string) (string, error)
	InterestBalance(ctx context.Context, asset string) (Balance, error)
	InterestActivity(ctx context.Context, asset string) ([]InterestRecord, error)

	SupportedFundingFiats(ctx context.Context) ([]string, error)
	IsSimpleBuyEligible(ctx context.Context) (bool, error)

	// ExchangeAddress returns the linked external-exchange deposit address
	// for the asset, or ok=false when no exchange account is linked.
	ExchangeAddress(ctx context.Context, asset string) (address string, ok bool, err error)

	CreateWithdrawal(ctx context.Context, params WithdrawalParams) (string, error)
	CreateSwap(ctx context.Context, params SwapParams) (string, error)
	CreateSell(ctx context.Context, params SellParams) (string, error)
}

// FiatBackend is the contract the fiat-rail API client must satisfy.
type FiatBackend interface {
	Balance(ctx context.Context, currency string) (Balance, error)
	CanWithdraw(ctx context.Context, currency string) (bool, error)
	History(ctx context.Context, currency string) ([]FiatRecord, error)
	CreateDeposit(ctx context.Context, currency string, amount money.Money, reference string) (string, error)
	CreateWithdrawal(ctx context.Context, currency string, amount money.Money, reference string) (string, error)
}

// RateBackend is the contract the exchange-price service must satisfy.
type RateBackend interface {
	Rate(ctx context.Context, asset, currency string) (money.Rate, error)
	RateAt(ctx context.Context, asset, currency string, at time.Time) (money.Rate, error)
	Delta24h(ctx context.Context, asset string) (decimal.Decimal, error)
}
