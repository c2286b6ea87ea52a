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

// FiatDeposit pulls funds from a linked bank into a fiat wallet.
type FiatDeposit struct {
	fiat    backend.FiatBackend
	account *coincore.FiatAccount
}

var _ coincore.ExecutionEngine = (*FiatDeposit)(nil)

func NewFiatDeposit(fiat backend.FiatBackend, account *coincore.FiatAccount) *FiatDeposit {
	return &FiatDeposit{fiat: fiat, account: account}
}

func (e *FiatDeposit) Start(ctx context.Context) (coincore.PendingTransaction, error) {
	return zeroDraft(e.account, e.account, uuid.New().String()), nil
}

func (e *FiatDeposit) UpdateAmount(ctx context.Context, tx coincore.PendingTransaction, amount money.Money) (coincore.PendingTransaction, error) {
	if amount.Currency() != e.account.Currency() {
		return coincore.PendingTransaction{}, money.ErrCurrencyMismatch
	}
	tx.Amount = amount
	return tx, nil
}

// Validate only checks the amount; deposits are not limited by the wallet
// balance.
func (e *FiatDeposit) Validate(ctx context.Context, tx coincore.PendingTransaction) error {
	if !tx.Amount.IsPositive() {
		return ErrZeroAmount
	}
	return nil
}

func (e *FiatDeposit) Execute(ctx context.Context, tx coincore.PendingTransaction) (coincore.TxResult, error) {
	txID, err := e.fiat.CreateDeposit(ctx, e.account.Currency(), tx.Amount, tx.IdempotencyKey)
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("creating %s deposit: %w", e.account.Currency(), err)
	}
	zap.L().Info("fiat deposit created",
		zap.String("currency", e.account.Currency()),
		zap.String("txId", txID))
	return coincore.TxResult{TxID: txID}, nil
}

// FiatWithdrawal pushes fiat wallet funds out to a linked bank.
type FiatWithdrawal struct {
	fiat    backend.FiatBackend
	account *coincore.FiatAccount
}

var _ coincore.ExecutionEngine = (*FiatWithdrawal)(nil)

func NewFiatWithdrawal(fiat backend.FiatBackend, account *coincore.FiatAccount) *FiatWithdrawal {
	return &FiatWithdrawal{fiat: fiat, account: account}
}

func (e *FiatWithdrawal) Start(ctx context.Context) (coincore.PendingTransaction, error) {
	return zeroDraft(e.account, e.account, uuid.New().String()), nil
}

func (e *FiatWithdrawal) UpdateAmount(ctx context.Context, tx coincore.PendingTransaction, amount money.Money) (coincore.PendingTransaction, error) {
	if amount.Currency() != e.account.Currency() {
		return coincore.PendingTransaction{}, money.ErrCurrencyMismatch
	}
	tx.Amount = amount
	return tx, nil
}

func (e *FiatWithdrawal) Validate(ctx context.Context, tx coincore.PendingTransaction) error {
	if err := validateSpendable(ctx, tx, false); err != nil {
		return err
	}
	ok, err := e.fiat.CanWithdraw(ctx, e.account.Currency())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("withdrawals disabled for %s: %w", e.account.Currency(), coincore.ErrUnsupportedTransfer)
	}
	return nil
}

func (e *FiatWithdrawal) Execute(ctx context.Context, tx coincore.PendingTransaction) (coincore.TxResult, error) {
	txID, err := e.fiat.CreateWithdrawal(ctx, e.account.Currency(), tx.Amount, tx.IdempotencyKey)
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("creating %s withdrawal: %w", e.account.Currency(), err)
	}
	zap.L().Info("fiat withdrawal created",
		zap.String("currency", e.account.Currency()),
		zap.String("txId", txID))
	return coincore.TxResult{TxID: txID}, nil
}
