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

// TradingSell sells custodial crypto into a fiat wallet.
type TradingSell struct {
	custodial backend.CustodialBackend
	source    *coincore.TradingAccount
	target    *coincore.FiatAccount
}

var _ coincore.ExecutionEngine = (*TradingSell)(nil)

func NewTradingSell(custodial backend.CustodialBackend, source *coincore.TradingAccount, target *coincore.FiatAccount) *TradingSell {
	return &TradingSell{custodial: custodial, source: source, target: target}
}

func (e *TradingSell) Start(ctx context.Context) (coincore.PendingTransaction, error) {
	return zeroDraft(e.source, e.target, uuid.New().String()), nil
}

func (e *TradingSell) UpdateAmount(ctx context.Context, tx coincore.PendingTransaction, amount money.Money) (coincore.PendingTransaction, error) {
	if amount.Currency() != e.source.Currency() {
		return coincore.PendingTransaction{}, money.ErrCurrencyMismatch
	}
	tx.Amount = amount
	return tx, nil
}

func (e *TradingSell) Validate(ctx context.Context, tx coincore.PendingTransaction) error {
	return validateSpendable(ctx, tx, false)
}

func (e *TradingSell) Execute(ctx context.Context, tx coincore.PendingTransaction) (coincore.TxResult, error) {
	txID, err := e.custodial.CreateSell(ctx, backend.SellParams{
		Asset:          e.source.Asset().Ticker,
		FiatCurrency:   e.target.Currency(),
		Amount:         tx.Amount,
		IdempotencyKey: tx.IdempotencyKey,
	})
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("creating %s sell: %w", e.source.Asset().Ticker, err)
	}
	zap.L().Info("sell created",
		zap.String("asset", e.source.Asset().Ticker),
		zap.String("fiat", e.target.Currency()),
		zap.String("txId", txID))
	return coincore.TxResult{TxID: txID}, nil
}

// OnChainSell funds a sell from a user-key account: the crypto is deposited
// on-chain to the custodial address, then the sell is registered against
// that deposit.
type OnChainSell struct {
	chain     backend.NonCustodialBackend
	custodial backend.CustodialBackend
	source    *coincore.NonCustodialAccount
	target    *coincore.FiatAccount
}

var _ coincore.ExecutionEngine = (*OnChainSell)(nil)

func NewOnChainSell(chain backend.NonCustodialBackend, custodial backend.CustodialBackend, source *coincore.NonCustodialAccount, target *coincore.FiatAccount) *OnChainSell {
	return &OnChainSell{chain: chain, custodial: custodial, source: source, target: target}
}

func (e *OnChainSell) Start(ctx context.Context) (coincore.PendingTransaction, error) {
	tx := zeroDraft(e.source, e.target, uuid.New().String())
	fee, err := e.chain.EstimateFee(ctx, e.source.Asset().Ticker)
	if err != nil {
		return coincore.PendingTransaction{}, fmt.Errorf("estimating fee: %w", err)
	}
	tx.Fee = fee
	tx.FeeCurrency = fee.Currency()
	return tx, nil
}

func (e *OnChainSell) UpdateAmount(ctx context.Context, tx coincore.PendingTransaction, amount money.Money) (coincore.PendingTransaction, error) {
	if amount.Currency() != e.source.Currency() {
		return coincore.PendingTransaction{}, money.ErrCurrencyMismatch
	}
	tx.Amount = amount
	return tx, nil
}

func (e *OnChainSell) Validate(ctx context.Context, tx coincore.PendingTransaction) error {
	return validateSpendable(ctx, tx, true)
}

func (e *OnChainSell) Execute(ctx context.Context, tx coincore.PendingTransaction) (coincore.TxResult, error) {
	deposit, err := e.custodial.TradingAccountAddress(ctx, e.source.Asset().Ticker)
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("deposit address for %s: %w", e.source.Asset().Ticker, err)
	}
	onChainID, err := e.chain.Submit(ctx, backend.SubmitParams{
		Source:         e.source.Ref(),
		TargetAddress:  deposit,
		Amount:         tx.Amount,
		Fee:            tx.Fee,
		SecondPassword: tx.SecondPassword,
		IdempotencyKey: tx.IdempotencyKey,
	})
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("funding %s sell: %w", e.source.Asset().Ticker, err)
	}
	txID, err := e.custodial.CreateSell(ctx, backend.SellParams{
		Asset:          e.source.Asset().Ticker,
		FiatCurrency:   e.target.Currency(),
		Amount:         tx.Amount,
		DepositTxID:    onChainID,
		IdempotencyKey: tx.IdempotencyKey,
	})
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("registering %s sell: %w", e.source.Asset().Ticker, err)
	}
	zap.L().Info("on-chain sell created",
		zap.String("asset", e.source.Asset().Ticker),
		zap.String("fiat", e.target.Currency()),
		zap.String("depositTxId", onChainID),
		zap.String("txId", txID))
	return coincore.TxResult{TxID: txID}, nil
}
