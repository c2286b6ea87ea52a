/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

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

// TradingToTradingSwap swaps custodial funds between two assets entirely
// inside the custodial ledger.
type TradingToTradingSwap struct {
	custodial backend.CustodialBackend
	source    *coincore.TradingAccount
	target    coincore.CryptoAccount
}

var _ coincore.ExecutionEngine = (*TradingToTradingSwap)(nil)

func NewTradingToTradingSwap(custodial backend.CustodialBackend, source *coincore.TradingAccount, target coincore.CryptoAccount) *TradingToTradingSwap {
	return &TradingToTradingSwap{custodial: custodial, source: source, target: target}
}

func (e *TradingToTradingSwap) Start(ctx context.Context) (coincore.PendingTransaction, error) {
	return zeroDraft(e.source, e.target, uuid.New().String()), nil
}

func (e *TradingToTradingSwap) UpdateAmount(ctx context.Context, tx coincore.PendingTransaction, amount money.Money) (coincore.PendingTransaction, error) {
	if amount.Currency() != e.source.Currency() {
		return coincore.PendingTransaction{}, money.ErrCurrencyMismatch
	}
	tx.Amount = amount
	return tx, nil
}

func (e *TradingToTradingSwap) Validate(ctx context.Context, tx coincore.PendingTransaction) error {
	if e.target.Asset().Ticker == e.source.Asset().Ticker {
		return fmt.Errorf("swap %s to itself: %w", e.source.Asset().Ticker, coincore.ErrUnsupportedTransfer)
	}
	return validateSpendable(ctx, tx, false)
}

func (e *TradingToTradingSwap) Execute(ctx context.Context, tx coincore.PendingTransaction) (coincore.TxResult, error) {
	txID, err := e.custodial.CreateSwap(ctx, backend.SwapParams{
		SourceAsset:      e.source.Asset().Ticker,
		DestinationAsset: e.target.Asset().Ticker,
		Amount:           tx.Amount,
		Direction:        backend.DirectionInternal,
		IdempotencyKey:   tx.IdempotencyKey,
	})
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("creating %s/%s swap: %w",
			e.source.Asset().Ticker, e.target.Asset().Ticker, err)
	}
	zap.L().Info("internal swap created",
		zap.String("from", e.source.Asset().Ticker),
		zap.String("to", e.target.Asset().Ticker),
		zap.String("txId", txID))
	return coincore.TxResult{TxID: txID}, nil
}

// OnChainSwap funds a swap from a user-key account: the source asset is
// first sent on-chain to its custodial deposit address, then the swap is
// registered against that deposit.
type OnChainSwap struct {
	chain     backend.NonCustodialBackend
	custodial backend.CustodialBackend
	source    *coincore.NonCustodialAccount
	target    coincore.CryptoAccount
}

var _ coincore.ExecutionEngine = (*OnChainSwap)(nil)

func NewOnChainSwap(chain backend.NonCustodialBackend, custodial backend.CustodialBackend, source *coincore.NonCustodialAccount, target coincore.CryptoAccount) *OnChainSwap {
	return &OnChainSwap{chain: chain, custodial: custodial, source: source, target: target}
}

func (e *OnChainSwap) Start(ctx context.Context) (coincore.PendingTransaction, error) {
	tx := zeroDraft(e.source, e.target, uuid.New().String())
	fee, err := e.chain.EstimateFee(ctx, e.source.Asset().Ticker)
	if err != nil {
		return coincore.PendingTransaction{}, fmt.Errorf("estimating fee: %w", err)
	}
	tx.Fee = fee
	tx.FeeCurrency = fee.Currency()
	return tx, nil
}

func (e *OnChainSwap) UpdateAmount(ctx context.Context, tx coincore.PendingTransaction, amount money.Money) (coincore.PendingTransaction, error) {
	if amount.Currency() != e.source.Currency() {
		return coincore.PendingTransaction{}, money.ErrCurrencyMismatch
	}
	tx.Amount = amount
	return tx, nil
}

func (e *OnChainSwap) Validate(ctx context.Context, tx coincore.PendingTransaction) error {
	if e.target.Asset().Ticker == e.source.Asset().Ticker {
		return fmt.Errorf("swap %s to itself: %w", e.source.Asset().Ticker, coincore.ErrUnsupportedTransfer)
	}
	return validateSpendable(ctx, tx, true)
}

func (e *OnChainSwap) Execute(ctx context.Context, tx coincore.PendingTransaction) (coincore.TxResult, error) {
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
		return coincore.TxResult{}, fmt.Errorf("funding %s swap: %w", e.source.Asset().Ticker, err)
	}
	txID, err := e.custodial.CreateSwap(ctx, backend.SwapParams{
		SourceAsset:      e.source.Asset().Ticker,
		DestinationAsset: e.target.Asset().Ticker,
		Amount:           tx.Amount,
		Direction:        backend.DirectionFromUserKey,
		DepositTxID:      onChainID,
		IdempotencyKey:   tx.IdempotencyKey,
	})
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("registering %s/%s swap: %w",
			e.source.Asset().Ticker, e.target.Asset().Ticker, err)
	}
	zap.L().Info("on-chain swap created",
		zap.String("from", e.source.Asset().Ticker),
		zap.String("to", e.target.Asset().Ticker),
		zap.String("depositTxId", onChainID),
		zap.String("txId", txID))
	return coincore.TxResult{TxID: txID}, nil
}
