package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coincore-go/internal/backend"
	"coincore-go/internal/coincore"
	"coincore-go/internal/money"
)

// InterestDepositOnChain moves user-key funds into the interest account via
// an on-chain send to the interest deposit address.
type InterestDepositOnChain struct {
	inner  *OnChainSend
	target *coincore.InterestAccount
}

var _ coincore.ExecutionEngine = (*InterestDepositOnChain)(nil)

func NewInterestDepositOnChain(chain backend.NonCustodialBackend, source *coincore.NonCustodialAccount, target *coincore.InterestAccount) *InterestDepositOnChain {
	return &InterestDepositOnChain{
		inner:  NewOnChainSend(chain, source, target),
		target: target,
	}
}

func (e *InterestDepositOnChain) Start(ctx context.Context) (coincore.PendingTransaction, error) {
	return e.inner.Start(ctx)
}

func (e *InterestDepositOnChain) UpdateAmount(ctx context.Context, tx coincore.PendingTransaction, amount money.Money) (coincore.PendingTransaction, error) {
	return e.inner.UpdateAmount(ctx, tx, amount)
}

func (e *InterestDepositOnChain) Validate(ctx context.Context, tx coincore.PendingTransaction) error {
	return e.inner.Validate(ctx, tx)
}

func (e *InterestDepositOnChain) Execute(ctx context.Context, tx coincore.PendingTransaction) (coincore.TxResult, error) {
	return e.inner.Execute(ctx, tx)
}

// custodialMove is the shared shape of the three custodial interest flows:
// an internal withdrawal to a resolved custodial address.
type custodialMove struct {
	custodial backend.CustodialBackend
	source    coincore.Account
	target    coincore.Account
	asset     string
	flow      string
}

func (e *custodialMove) Start(ctx context.Context) (coincore.PendingTransaction, error) {
	return zeroDraft(e.source, e.target, uuid.New().String()), nil
}

func (e *custodialMove) UpdateAmount(ctx context.Context, tx coincore.PendingTransaction, amount money.Money) (coincore.PendingTransaction, error) {
	if amount.Currency() != e.source.Currency() {
		return coincore.PendingTransaction{}, money.ErrCurrencyMismatch
	}
	tx.Amount = amount
	return tx, nil
}

func (e *custodialMove) Validate(ctx context.Context, tx coincore.PendingTransaction) error {
	return validateSpendable(ctx, tx, false)
}

func (e *custodialMove) Execute(ctx context.Context, tx coincore.PendingTransaction) (coincore.TxResult, error) {
	recv, err := e.target.ReceiveAddress(ctx)
	if err != nil {
		return coincore.TxResult{}, err
	}
	txID, err := e.custodial.CreateWithdrawal(ctx, backend.WithdrawalParams{
		Asset:              e.asset,
		Amount:             tx.Amount,
		DestinationAddress: recv.Address,
		IdempotencyKey:     tx.IdempotencyKey,
	})
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("%s for %s: %w", e.flow, e.asset, err)
	}
	zap.L().Info("custodial move executed",
		zap.String("flow", e.flow),
		zap.String("asset", e.asset),
		zap.String("txId", txID))
	return coincore.TxResult{TxID: txID}, nil
}

// InterestDepositTrading moves trading funds into the interest account.
type InterestDepositTrading struct{ custodialMove }

var _ coincore.ExecutionEngine = (*InterestDepositTrading)(nil)

func NewInterestDepositTrading(custodial backend.CustodialBackend, source *coincore.TradingAccount, target *coincore.InterestAccount) *InterestDepositTrading {
	return &InterestDepositTrading{custodialMove{
		custodial: custodial,
		source:    source,
		target:    target,
		asset:     source.Asset().Ticker,
		flow:      "interest deposit",
	}}
}

// InterestWithdrawTrading moves interest funds back to the trading account.
type InterestWithdrawTrading struct{ custodialMove }

var _ coincore.ExecutionEngine = (*InterestWithdrawTrading)(nil)

func NewInterestWithdrawTrading(custodial backend.CustodialBackend, source *coincore.InterestAccount, target *coincore.TradingAccount) *InterestWithdrawTrading {
	return &InterestWithdrawTrading{custodialMove{
		custodial: custodial,
		source:    source,
		target:    target,
		asset:     source.Asset().Ticker,
		flow:      "interest withdrawal",
	}}
}

// InterestWithdrawOnChain moves interest funds out to a user-key account.
type InterestWithdrawOnChain struct{ custodialMove }

var _ coincore.ExecutionEngine = (*InterestWithdrawOnChain)(nil)

func NewInterestWithdrawOnChain(custodial backend.CustodialBackend, source *coincore.InterestAccount, target *coincore.NonCustodialAccount) *InterestWithdrawOnChain {
	return &InterestWithdrawOnChain{custodialMove{
		custodial: custodial,
		source:    source,
		target:    target,
		asset:     source.Asset().Ticker,
		flow:      "interest withdrawal",
	}}
}
