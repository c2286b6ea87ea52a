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

// OnChainSend moves funds from a user-key account to any on-chain address:
// a raw address, a sibling wallet, a custodial deposit address or a linked
// exchange.
type OnChainSend struct {
	chain  backend.NonCustodialBackend
	source *coincore.NonCustodialAccount
	target coincore.TransactionTarget
}

var _ coincore.ExecutionEngine = (*OnChainSend)(nil)

func NewOnChainSend(chain backend.NonCustodialBackend, source *coincore.NonCustodialAccount, target coincore.TransactionTarget) *OnChainSend {
	return &OnChainSend{chain: chain, source: source, target: target}
}

func (e *OnChainSend) Start(ctx context.Context) (coincore.PendingTransaction, error) {
	tx := zeroDraft(e.source, e.target, uuid.New().String())
	fee, err := e.chain.EstimateFee(ctx, e.source.Asset().Ticker)
	if err != nil {
		return coincore.PendingTransaction{}, fmt.Errorf("estimating fee: %w", err)
	}
	tx.Fee = fee
	tx.FeeCurrency = fee.Currency()
	return tx, nil
}

func (e *OnChainSend) UpdateAmount(ctx context.Context, tx coincore.PendingTransaction, amount money.Money) (coincore.PendingTransaction, error) {
	if amount.Currency() != e.source.Currency() {
		return coincore.PendingTransaction{}, money.ErrCurrencyMismatch
	}
	tx.Amount = amount
	fee, err := e.chain.EstimateFee(ctx, e.source.Asset().Ticker)
	if err != nil {
		return coincore.PendingTransaction{}, fmt.Errorf("estimating fee: %w", err)
	}
	tx.Fee = fee
	return tx, nil
}

func (e *OnChainSend) Validate(ctx context.Context, tx coincore.PendingTransaction) error {
	return validateSpendable(ctx, tx, true)
}

func (e *OnChainSend) Execute(ctx context.Context, tx coincore.PendingTransaction) (coincore.TxResult, error) {
	address, err := receiveAddressOf(ctx, e.target)
	if err != nil {
		return coincore.TxResult{}, err
	}
	txID, err := e.chain.Submit(ctx, backend.SubmitParams{
		Source:         e.source.Ref(),
		TargetAddress:  address,
		Amount:         tx.Amount,
		Fee:            tx.Fee,
		SecondPassword: tx.SecondPassword,
		IdempotencyKey: tx.IdempotencyKey,
	})
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("submitting %s send: %w", e.source.Asset().Ticker, err)
	}
	zap.L().Info("on-chain send submitted",
		zap.String("asset", e.source.Asset().Ticker),
		zap.String("txId", txID))
	return coincore.TxResult{TxID: txID}, nil
}

// TradingToOnChainSend withdraws custodial funds to an on-chain address.
type TradingToOnChainSend struct {
	custodial backend.CustodialBackend
	source    *coincore.TradingAccount
	target    coincore.TransactionTarget
}

var _ coincore.ExecutionEngine = (*TradingToOnChainSend)(nil)

func NewTradingToOnChainSend(custodial backend.CustodialBackend, source *coincore.TradingAccount, target coincore.TransactionTarget) *TradingToOnChainSend {
	return &TradingToOnChainSend{custodial: custodial, source: source, target: target}
}

func (e *TradingToOnChainSend) Start(ctx context.Context) (coincore.PendingTransaction, error) {
	return zeroDraft(e.source, e.target, uuid.New().String()), nil
}

func (e *TradingToOnChainSend) UpdateAmount(ctx context.Context, tx coincore.PendingTransaction, amount money.Money) (coincore.PendingTransaction, error) {
	if amount.Currency() != e.source.Currency() {
		return coincore.PendingTransaction{}, money.ErrCurrencyMismatch
	}
	tx.Amount = amount
	return tx, nil
}

func (e *TradingToOnChainSend) Validate(ctx context.Context, tx coincore.PendingTransaction) error {
	return validateSpendable(ctx, tx, false)
}

func (e *TradingToOnChainSend) Execute(ctx context.Context, tx coincore.PendingTransaction) (coincore.TxResult, error) {
	address, err := receiveAddressOf(ctx, e.target)
	if err != nil {
		return coincore.TxResult{}, err
	}
	txID, err := e.custodial.CreateWithdrawal(ctx, backend.WithdrawalParams{
		Asset:              e.source.Asset().Ticker,
		Amount:             tx.Amount,
		DestinationAddress: address,
		IdempotencyKey:     tx.IdempotencyKey,
	})
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("creating %s withdrawal: %w", e.source.Asset().Ticker, err)
	}
	zap.L().Info("custodial withdrawal created",
		zap.String("asset", e.source.Asset().Ticker),
		zap.String("txId", txID))
	return coincore.TxResult{TxID: txID}, nil
}
