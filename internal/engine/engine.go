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

// Package engine holds the execution engines behind every transfer flow and
// the factory that picks one for a source/target/action triple.
package engine

import (
	"context"
	"errors"
	"fmt"

	"coincore-go/internal/coincore"
	"coincore-go/internal/money"
)

// Validation sentinels shared by every engine.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrZeroAmount        = errors.New("amount must be positive")
	ErrAmountFixed       = errors.New("amount is fixed by the invoice")
)

// validateSpendable checks the draft amount plus fee fits within the
// source's actionable balance and that a required second password is
// present.
func validateSpendable(ctx context.Context, tx coincore.PendingTransaction, includeFee bool) error {
	if !tx.Amount.IsPositive() {
		return ErrZeroAmount
	}

	required, err := tx.Source.RequireSecondPassword(ctx)
	if err != nil {
		return err
	}
	if required && tx.SecondPassword == "" {
		return coincore.ErrSecondPasswordRequired
	}

	bal, err := tx.Source.Balance(ctx)
	if err != nil {
		return err
	}

	needed := tx.Amount
	if includeFee && tx.Fee.Currency() == tx.Amount.Currency() {
		if needed, err = needed.Add(tx.Fee); err != nil {
			return err
		}
	}
	cmp, err := needed.Cmp(bal.Actionable)
	if err != nil {
		return err
	}
	if cmp > 0 {
		return fmt.Errorf("%s needs %s, spendable %s: %w",
			tx.Source.Label(), needed, bal.Actionable, ErrInsufficientFunds)
	}
	return nil
}

// receiveAddressOf resolves a transaction target to a raw address.
func receiveAddressOf(ctx context.Context, target coincore.TransactionTarget) (string, error) {
	switch t := target.(type) {
	case coincore.CryptoAddress:
		return t.Address, nil
	case coincore.BitPayInvoice:
		return t.Address, nil
	case coincore.Account:
		recv, err := t.ReceiveAddress(ctx)
		if err != nil {
			return "", err
		}
		return recv.Address, nil
	}
	return "", fmt.Errorf("target %s: %w", target.TargetLabel(), coincore.ErrUnsupportedTransfer)
}

func zeroDraft(source coincore.Account, target coincore.TransactionTarget, key string) coincore.PendingTransaction {
	return coincore.PendingTransaction{
		Source:         source,
		Target:         target,
		Amount:         money.Zero(source.Currency()),
		Fee:            money.Zero(source.Currency()),
		FeeCurrency:    source.Currency(),
		IdempotencyKey: key,
	}
}
