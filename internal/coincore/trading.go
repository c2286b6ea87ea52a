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
	"coincore-go/internal/catalogue"
)

// TradingAccount is the custodial trading wallet of one asset.
type TradingAccount struct {
	asset     catalogue.Asset
	label     string
	custodial backend.CustodialBackend
	rates     backend.RateBackend
	fiat      string

	mu     sync.Mutex
	funded bool
	hasTxs bool
}

var _ CryptoAccount = (*TradingAccount)(nil)

func NewTradingAccount(asset catalogue.Asset, label string, custodial backend.CustodialBackend, rates backend.RateBackend, fiat string) *TradingAccount {
	return &TradingAccount{
		asset:     asset,
		label:     label,
		custodial: custodial,
		rates:     rates,
		fiat:      fiat,
	}
}

func (a *TradingAccount) Kind() Kind             { return KindTrading }
func (a *TradingAccount) Label() string          { return a.label }
func (a *TradingAccount) TargetLabel() string    { return a.label }
func (a *TradingAccount) Currency() string       { return a.asset.Ticker }
func (a *TradingAccount) Asset() catalogue.Asset { return a.asset }
func (a *TradingAccount) IsArchived() bool       { return false }
func (a *TradingAccount) IsDefault() bool        { return false }

// Matches: at most one trading account exists per asset.
func (a *TradingAccount) Matches(other CryptoAccount) bool {
	o, ok := other.(*TradingAccount)
	return ok && o.asset.Ticker == a.asset.Ticker
}

func (a *TradingAccount) Balance(ctx context.Context) (AccountBalance, error) {
	bal, err := a.custodial.TradingBalance(ctx, a.asset.Ticker)
	if err != nil {
		return AccountBalance{}, fmt.Errorf("trading balance for %s: %w", a.asset.Ticker, err)
	}

	a.mu.Lock()
	a.funded = bal.Total.IsPositive()
	a.mu.Unlock()

	out := AccountBalance{
		Total:      bal.Total,
		Actionable: bal.Actionable,
		Pending:    bal.Pending,
	}
	if a.rates != nil {
		if rate, err := a.rates.Rate(ctx, a.asset.Ticker, a.fiat); err == nil {
			out.Rate = &rate
		}
	}
	return out, nil
}

func (a *TradingAccount) Actions(ctx context.Context) (ActionSet, error) {
	bal, err := a.Balance(ctx)
	if err != nil {
		return nil, err
	}
	spendable := bal.Actionable.IsPositive()

	buyEligible := false
	if ok, err := a.custodial.IsSimpleBuyEligible(ctx); err == nil {
		buyEligible = ok
	}

	// A locked balance can make Total positive while nothing is spendable;
	// only the spendable part may move to an interest account, so the gate
	// is on Actionable.
	interestOK := false
	if spendable {
		if elig, err := a.custodial.InterestEligibility(ctx, a.asset.Ticker); err == nil {
			interestOK = elig.Eligible
		}
	}

	set := NewActionSet()
	set.takeIf(defaultBaseActions, ActionViewActivity, true)
	set.takeIf(defaultBaseActions, ActionReceive, true)
	set.takeIf(defaultBaseActions, ActionBuy, buyEligible)
	set.takeIf(defaultBaseActions, ActionSend, spendable)
	set.takeIf(defaultBaseActions, ActionSwap, spendable)
	set.takeIf(defaultBaseActions, ActionSell, spendable && buyEligible)
	set.takeIf(defaultBaseActions, ActionInterestDeposit, spendable && interestOK)
	return set, nil
}

// Activity concatenates the order, trade and transfer ledgers. Custodial
// ledgers never overlap on-chain history, so no reconciliation is needed.
func (a *TradingAccount) Activity(ctx context.Context) ([]ActivityItem, error) {
	orders, err := a.custodial.OrderHistory(ctx, a.asset.Ticker)
	if err != nil {
		return nil, fmt.Errorf("order history for %s: %w", a.asset.Ticker, err)
	}
	trades, err := a.custodial.TradeHistory(ctx, a.asset.Ticker, []backend.TransferDirection{
		backend.DirectionInternal,
	})
	if err != nil {
		return nil, fmt.Errorf("trade history for %s: %w", a.asset.Ticker, err)
	}
	transfers, err := a.custodial.TransferHistory(ctx, a.asset.Ticker)
	if err != nil {
		return nil, fmt.Errorf("transfer history for %s: %w", a.asset.Ticker, err)
	}

	items := make([]ActivityItem, 0, len(orders)+len(transfers))
	for _, o := range orders {
		items = append(items, OrderActivity{
			ActivitySummary: ActivitySummary{
				TxID:      o.ID,
				Timestamp: o.Created,
				Value:     o.Crypto,
				Account:   a,
			},
			Type:            o.Type,
			State:           o.State,
			Fiat:            o.Fiat,
			Fee:             o.Fee,
			PaymentMethodID: o.PaymentMethodID,
			RecurringBuyID:  o.RecurringBuyID,
		})
	}
	for _, t := range transfers {
		items = append(items, TransferActivity{
			ActivitySummary: ActivitySummary{
				TxID:      t.ID,
				Timestamp: t.Timestamp,
				Value:     t.Value,
				Account:   a,
			},
			Type:             t.Type,
			State:            t.State,
			Fee:              t.Fee,
			RecipientAddress: t.RecipientAddress,
			TxHash:           t.TxHash,
		})
	}

	items = appendTrades(a.tradeActivity(trades), items)
	items = filterDisplayStates(items)
	sortActivity(items)

	a.mu.Lock()
	a.hasTxs = len(items) > 0
	a.mu.Unlock()
	return items, nil
}

func (a *TradingAccount) tradeActivity(trades []backend.Trade) []TradeActivity {
	out := make([]TradeActivity, 0, len(trades))
	for _, t := range trades {
		out = append(out, TradeActivity{
			ActivitySummary: ActivitySummary{
				TxID:      t.ID,
				Timestamp: t.Timestamp,
				Value:     t.SendingValue,
				Account:   a,
			},
			State:            t.State,
			Direction:        t.Direction,
			ReceivingValue:   t.ReceivingValue,
			SendingAddress:   t.SendingAddress,
			ReceivingAddress: t.ReceivingAddress,
			WithdrawalFee:    t.WithdrawalFee,
			FiatValue:        t.FiatValue,
		})
	}
	return out
}

func (a *TradingAccount) IsFunded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.funded
}

func (a *TradingAccount) HasTransactions() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasTxs
}

func (a *TradingAccount) ReceiveAddress(ctx context.Context) (ReceiveAddress, error) {
	addr, err := a.custodial.TradingAccountAddress(ctx, a.asset.Ticker)
	if err != nil {
		return ReceiveAddress{}, fmt.Errorf("trading address for %s: %w", a.asset.Ticker, err)
	}
	return ReceiveAddress{
		Asset:   a.asset.Ticker,
		Label:   a.label,
		Address: addr,
	}, nil
}

func (a *TradingAccount) RequireSecondPassword(ctx context.Context) (bool, error) {
	return false, nil
}

func (a *TradingAccount) SourceState(ctx context.Context) (TxSourceState, error) {
	bal, err := a.Balance(ctx)
	if err != nil {
		return SourceNotSupported, err
	}
	if !bal.Actionable.IsPositive() {
		return SourceNoFunds, nil
	}
	return SourceCanTransact, nil
}
