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

package listener

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"coincore-go/internal/database"
	"coincore-go/internal/models"

	"go.uber.org/zap"
)

// processDeposit handles a deposit transaction in two phases:
// Phase 1: TRANSACTION_IMPORT_PENDING -- record a pending ledger entry
// Phase 2: TRANSACTION_IMPORTED / TRANSACTION_DONE -- settle it
func (d *DepositListener) processDeposit(ctx context.Context, tx models.PrimeTransaction, wallet models.Wallet) error {
	switch tx.Status {
	case "TRANSACTION_IMPORT_PENDING":
		return d.processDepositPending(ctx, tx, wallet)
	case "TRANSACTION_IMPORTED", "TRANSACTION_DONE":
		return d.processDepositConfirmed(ctx, tx, wallet)
	default:
		zap.L().Debug("Skipping deposit with unhandled status",
			zap.String("transaction_id", tx.Id),
			zap.String("status", tx.Status),
			zap.String("symbol", tx.Symbol),
			zap.String("amount", tx.Amount))
		return nil
	}
}

// processDepositPending records the incoming amount as a pending entry.
// Pending entries surface in the account's pending balance without moving
// the settled balance.
func (d *DepositListener) processDepositPending(ctx context.Context, tx models.PrimeTransaction, wallet models.Wallet) error {
	amount, err := decimal.NewFromString(tx.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	_, err = d.ledger.ApplyEntry(ctx, database.ApplyEntryParams{
		AccountType:  database.AccountTrading,
		Asset:        wallet.Symbol,
		EntryType:    "deposit",
		Amount:       amount,
		ExternalTxId: tx.Id,
		Reference:    "prime deposit",
		Status:       "pending",
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEntry) {
			d.markTransactionProcessed(tx.Id)
			return nil
		}
		return fmt.Errorf("failed to record pending deposit: %w", err)
	}

	zap.L().Info("Deposit pending",
		zap.String("transaction_id", tx.Id),
		zap.String("asset", wallet.Symbol),
		zap.String("amount", amount.String()))
	return nil
}

// processDepositConfirmed settles the pending entry if one exists, or
// applies the deposit directly when the pending phase was never observed.
func (d *DepositListener) processDepositConfirmed(ctx context.Context, tx models.PrimeTransaction, wallet models.Wallet) error {
	settled, err := d.ledger.SettleEntry(ctx, tx.Id)
	if err != nil {
		return fmt.Errorf("failed to settle deposit: %w", err)
	}

	if !settled {
		amount, err := decimal.NewFromString(tx.Amount)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		if amount.LessThanOrEqual(decimal.Zero) {
			d.markTransactionProcessed(tx.Id)
			return nil
		}

		_, err = d.ledger.ApplyEntry(ctx, database.ApplyEntryParams{
			AccountType:  database.AccountTrading,
			Asset:        wallet.Symbol,
			EntryType:    "deposit",
			Amount:       amount,
			ExternalTxId: tx.Id,
			Reference:    "prime deposit",
		})
		if err != nil && !errors.Is(err, database.ErrDuplicateEntry) {
			return fmt.Errorf("failed to record confirmed deposit: %w", err)
		}
	}

	d.markTransactionProcessed(tx.Id)
	zap.L().Info("Deposit confirmed",
		zap.String("transaction_id", tx.Id),
		zap.String("asset", wallet.Symbol),
		zap.String("amount", tx.Amount))
	return nil
}
