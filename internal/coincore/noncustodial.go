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

// NonCustodialAccount is one on-chain wallet account. Balances and history
// come from the chain backend; swap/sell records for reconciliation come
// from the custodial backend.
type NonCustodialAccount struct {
	asset     catalogue.Asset
	ref       backend.AccountRef
	chain     backend.NonCustodialBackend
	custodial backend.CustodialBackend
	rates     backend.RateBackend
	fiat      string

	mu       sync.Mutex
	funded   bool
	hasTxs   bool
	eligible *backend.Eligibility
}

var _ CryptoAccount = (*NonCustodialAccount)(nil)

// NonCustodialAccountParams collects the collaborators of one on-chain
// account.
type NonCustodialAccountParams struct {
	Asset        catalogue.Asset
	Ref          backend.AccountRef
	Chain        backend.NonCustodialBackend
	Custodial    backend.CustodialBackend
	Rates        backend.RateBackend
	FiatCurrency string
}

func NewNonCustodialAccount(params NonCustodialAccountParams) *NonCustodialAccount {
	return &NonCustodialAccount{
		asset:     params.Asset,
		ref:       params.Ref,
		chain:     params.Chain,
		custodial: params.Custodial,
		rates:     params.Rates,
		fiat:      params.FiatCurrency,
	}
}

func (a *NonCustodialAccount) Kind() Kind              { return KindNonCustodial }
func (a *NonCustodialAccount) Label() string           { return a.ref.Label }
func (a *NonCustodialAccount) TargetLabel() string     { return a.ref.Label }
func (a *NonCustodialAccount) Currency() string        { return a.asset.Ticker }
func (a *NonCustodialAccount) Asset() catalogue.Asset  { return a.asset }
func (a *NonCustodialAccount) IsArchived() bool        { return a.ref.Archived }
func (a *NonCustodialAccount) IsDefault() bool         { return a.ref.IsDefault }
func (a *NonCustodialAccount) Ref() backend.AccountRef { return a.ref }

// Matches identifies the account by asset and derivation path; labels and
// the default flag may change between refreshes without breaking identity.
func (a *NonCustodialAccount) Matches(other CryptoAccount) bool {
	o, ok := other.(*NonCustodialAccount)
	return ok &&
		o.asset.Ticker == a.asset.Ticker &&
		o.ref.DerivationPath == a.ref.DerivationPath
}

func (a *NonCustodialAccount) Balance(ctx context.Context) (AccountBalance, error) {
	bal, err := a.chain.Balance(ctx, a.ref)
	if err != nil {
		return AccountBalance{}, fmt.Errorf("balance for %s/%s: %w", a.asset.Ticker, a.ref.Label, err)
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

func (a *NonCustodialAccount) Actions(ctx context.Context) (ActionSet, error) {
	bal, err := a.Balance(ctx)
	if err != nil {
		return nil, err
	}
	// Archived accounts stay visible but cannot move funds.
	active := !a.ref.Archived
	spendable := active && bal.Actionable.IsPositive()

	set := NewActionSet()
	set.takeIf(defaultBaseActions, ActionViewActivity, a.HasTransactions())
	set.takeIf(defaultBaseActions, ActionReceive, active)
	set.takeIf(defaultBaseActions, ActionSend, spendable)
	set.takeIf(defaultBaseActions, ActionSwap, spendable && a.asset.IsCustodial())
	set.takeIf(defaultBaseActions, ActionSell, spendable && a.fundingFiatsAvailable(ctx))
	set.takeIf(defaultBaseActions, ActionBuy, a.asset.IsCustodial() && a.simpleBuyEligible(ctx))
	set.takeIf(defaultBaseActions, ActionInterestDeposit, spendable && a.interestEligible(ctx))
	return set, nil
}

// Selling lands in a fiat wallet, so the action only exists when at least
// one funding fiat is available.
func (a *NonCustodialAccount) fundingFiatsAvailable(ctx context.Context) bool {
	if a.custodial == nil {
		return false
	}
	fiats, err := a.custodial.SupportedFundingFiats(ctx)
	return err == nil && len(fiats) > 0
}

func (a *NonCustodialAccount) simpleBuyEligible(ctx context.Context) bool {
	if a.custodial == nil {
		return false
	}
	ok, err := a.custodial.IsSimpleBuyEligible(ctx)
	return err == nil && ok
}

func (a *NonCustodialAccount) interestEligible(ctx context.Context) bool {
	if a.custodial == nil {
		return false
	}
	a.mu.Lock()
	cached := a.eligible
	a.mu.Unlock()
	if cached != nil {
		return cached.Eligible
	}
	elig, err := a.custodial.InterestEligibility(ctx, a.asset.Ticker)
	if err != nil {
		return false
	}
	a.mu.Lock()
	a.eligible = &elig
	a.mu.Unlock()
	return elig.Eligible
}

// Activity returns on-chain history merged with the account's swap records.
// A swap's custodial record and its on-chain send are the same transfer, so
// the pair collapses into one entry carrying the on-chain fee.
func (a *NonCustodialAccount) Activity(ctx context.Context) ([]ActivityItem, error) {
	records, err := a.chain.History(ctx, a.ref)
	if err != nil {
		return nil, fmt.Errorf("history for %s/%s: %w", a.asset.Ticker, a.ref.Label, err)
	}

	items := make([]ActivityItem, 0, len(records))
	for _, rec := range records {
		items = append(items, OnChainActivity{
			ActivitySummary: ActivitySummary{
				TxID:      rec.TxID,
				Timestamp: rec.Timestamp,
				Value:     rec.Value,
				Account:   a,
			},
			Type:          rec.Type,
			Fee:           rec.Fee,
			Confirmations: rec.Confirmations,
			Address:       rec.Address,
		})
	}

	if a.custodial != nil {
		trades, err := a.custodial.TradeHistory(ctx, a.asset.Ticker, []backend.TransferDirection{
			backend.DirectionOnChain,
			backend.DirectionFromUserKey,
			backend.DirectionToUserKey,
		})
		if err != nil {
			return nil, fmt.Errorf("trade history for %s: %w", a.asset.Ticker, err)
		}
		items = reconcileTrades(a.tradeActivity(trades), items)
	}

	items = filterDisplayStates(items)
	sortActivity(items)

	a.mu.Lock()
	a.hasTxs = len(items) > 0
	a.mu.Unlock()
	return items, nil
}

func (a *NonCustodialAccount) tradeActivity(trades []backend.Trade) []TradeActivity {
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

func (a *NonCustodialAccount) IsFunded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.funded
}

func (a *NonCustodialAccount) HasTransactions() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasTxs
}

func (a *NonCustodialAccount) ReceiveAddress(ctx context.Context) (ReceiveAddress, error) {
	if a.ref.Address == "" {
		return ReceiveAddress{}, fmt.Errorf("%s/%s: %w", a.asset.Ticker, a.ref.Label, ErrNoReceiveAddress)
	}
	return ReceiveAddress{
		Asset:   a.asset.Ticker,
		Label:   a.ref.Label,
		Address: a.ref.Address,
	}, nil
}

func (a *NonCustodialAccount) RequireSecondPassword(ctx context.Context) (bool, error) {
	return a.ref.RequiresSecondPassword, nil
}

func (a *NonCustodialAccount) SourceState(ctx context.Context) (TxSourceState, error) {
	if a.ref.Archived {
		return SourceNotSupported, nil
	}
	bal, err := a.Balance(ctx)
	if err != nil {
		return SourceNotSupported, err
	}
	if !bal.Actionable.IsPositive() {
		return SourceNoFunds, nil
	}
	return SourceCanTransact, nil
}
