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

package coincore

import (
	"context"
	"fmt"
	"sync"

	"coincore-go/internal/backend"
)

var fiatBaseActions = NewActionSet(
	ActionViewActivity,
	ActionViewStatement,
	ActionFiatDeposit,
	ActionFiatWithdraw,
)

// FiatAccount is the custodial fiat wallet for one currency.
type FiatAccount struct {
	currency string
	label    string
	fiat     backend.FiatBackend

	mu     sync.Mutex
	funded bool
	hasTxs bool
}

var _ Account = (*FiatAccount)(nil)

func NewFiatAccount(currency, label string, fiat backend.FiatBackend) *FiatAccount {
	return &FiatAccount{currency: currency, label: label, fiat: fiat}
}

func (a *FiatAccount) Kind() Kind          { return KindFiat }
func (a *FiatAccount) Label() string       { return a.label }
func (a *FiatAccount) TargetLabel() string { return a.label }
func (a *FiatAccount) Currency() string    { return a.currency }

func (a *FiatAccount) Balance(ctx context.Context) (AccountBalance, error) {
	bal, err := a.fiat.Balance(ctx, a.currency)
	if err != nil {
		return AccountBalance{}, fmt.Errorf("fiat balance for %s: %w", a.currency, err)
	}

	a.mu.Lock()
	a.funded = bal.Total.IsPositive()
	a.mu.Unlock()

	return AccountBalance{
		Total:      bal.Total,
		Actionable: bal.Actionable,
		Pending:    bal.Pending,
	}, nil
}

func (a *FiatAccount) Actions(ctx context.Context) (ActionSet, error) {
	bal, err := a.Balance(ctx)
	if err != nil {
		return nil, err
	}

	canWithdraw := false
	if bal.Actionable.IsPositive() {
		if ok, err := a.fiat.CanWithdraw(ctx, a.currency); err == nil {
			canWithdraw = ok
		}
	}

	set := NewActionSet()
	set.takeIf(fiatBaseActions, ActionViewActivity, true)
	set.takeIf(fiatBaseActions, ActionViewStatement, true)
	set.takeIf(fiatBaseActions, ActionFiatDeposit, true)
	set.takeIf(fiatBaseActions, ActionFiatWithdraw, canWithdraw)
	return set, nil
}

func (a *FiatAccount) Activity(ctx context.Context) ([]ActivityItem, error) {
	records, err := a.fiat.History(ctx, a.currency)
	if err != nil {
		return nil, fmt.Errorf("fiat history for %s: %w", a.currency, err)
	}

	items := make([]ActivityItem, 0, len(records))
	for _, rec := range records {
		items = append(items, FiatActivity{
			ActivitySummary: ActivitySummary{
				TxID:      rec.ID,
				Timestamp: rec.Timestamp,
				Value:     rec.Value,
				Account:   a,
			},
			Type:  rec.Type,
			State: rec.State,
		})
	}

	items = filterDisplayStates(items)
	sortActivity(items)

	a.mu.Lock()
	a.hasTxs = len(items) > 0
	a.mu.Unlock()
	return items, nil
}

func (a *FiatAccount) IsFunded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.funded
}

func (a *FiatAccount) HasTransactions() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasTxs
}

// ReceiveAddress does not apply to fiat rails; deposits run through the
// fiat-deposit engine instead.
func (a *FiatAccount) ReceiveAddress(ctx context.Context) (ReceiveAddress, error) {
	return ReceiveAddress{}, fmt.Errorf("fiat %s: %w", a.currency, ErrNoReceiveAddress)
}

func (a *FiatAccount) RequireSecondPassword(ctx context.Context) (bool, error) {
	return false, nil
}
