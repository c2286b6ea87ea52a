package engine

import (
	"context"
	"fmt"

	"coincore-go/internal/backend"
	"coincore-go/internal/coincore"
	"coincore-go/internal/money"
)

// bitPayAssets are the only chains the BitPay payment protocol supports.
var bitPayAssets = map[string]struct{}{
	"BTC": {},
	"BCH": {},
}

// BitPaySend pays a BitPay invoice from a user-key account. The amount is
// dictated by the invoice and cannot be edited.
type BitPaySend struct {
	inner   *OnChainSend
	invoice coincore.BitPayInvoice
}

var _ coincore.ExecutionEngine = (*BitPaySend)(nil)

func NewBitPaySend(chain backend.NonCustodialBackend, source *coincore.NonCustodialAccount, invoice coincore.BitPayInvoice) *BitPaySend {
	return &BitPaySend{
		inner:   NewOnChainSend(chain, source, invoice),
		invoice: invoice,
	}
}

func (e *BitPaySend) Start(ctx context.Context) (coincore.PendingTransaction, error) {
	if _, ok := bitPayAssets[e.inner.source.Asset().Ticker]; !ok {
		return coincore.PendingTransaction{}, fmt.Errorf("bitpay on %s: %w",
			e.inner.source.Asset().Ticker, coincore.ErrUnsupportedTransfer)
	}
	tx, err := e.inner.Start(ctx)
	if err != nil {
		return coincore.PendingTransaction{}, err
	}
	tx.Amount = e.invoice.Amount
	tx.Memo = "BitPay invoice " + e.invoice.InvoiceID
	return tx, nil
}

func (e *BitPaySend) UpdateAmount(ctx context.Context, tx coincore.PendingTransaction, amount money.Money) (coincore.PendingTransaction, error) {
	if !amount.Equal(e.invoice.Amount) {
		return coincore.PendingTransaction{}, ErrAmountFixed
	}
	return tx, nil
}

func (e *BitPaySend) Validate(ctx context.Context, tx coincore.PendingTransaction) error {
	if !tx.Amount.Equal(e.invoice.Amount) {
		return ErrAmountFixed
	}
	return e.inner.Validate(ctx, tx)
}

func (e *BitPaySend) Execute(ctx context.Context, tx coincore.PendingTransaction) (coincore.TxResult, error) {
	return e.inner.Execute(ctx, tx)
}
