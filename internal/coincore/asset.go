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
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"coincore-go/internal/backend"
	"coincore-go/internal/catalogue"
	"coincore-go/internal/money"
)

// CryptoAsset owns every account of one asset: discovery, caching and the
// aggregate views. Instances are built once by the Coincore facade and are
// safe for concurrent use.
type CryptoAsset struct {
	asset     catalogue.Asset
	chain     backend.NonCustodialBackend
	custodial backend.CustodialBackend
	rates     backend.RateBackend
	fiat      string

	cacheOnce sync.Once
	cache     *ActiveAccounts
}

// CryptoAssetParams collects the collaborators of one asset. Chain may be
// nil for custodial-only assets.
type CryptoAssetParams struct {
	Asset        catalogue.Asset
	Chain        backend.NonCustodialBackend
	Custodial    backend.CustodialBackend
	Rates        backend.RateBackend
	FiatCurrency string
}

func NewCryptoAsset(params CryptoAssetParams) *CryptoAsset {
	return &CryptoAsset{
		asset:     params.Asset,
		chain:     params.Chain,
		custodial: params.Custodial,
		rates:     params.Rates,
		fiat:      params.FiatCurrency,
	}
}

func (c *CryptoAsset) Asset() catalogue.Asset { return c.asset }
func (c *CryptoAsset) Ticker() string         { return c.asset.Ticker }

func (c *CryptoAsset) accountCache() *ActiveAccounts {
	c.cacheOnce.Do(func() {
		var probe InterestProbe
		if c.custodial != nil {
			probe = func(ctx context.Context) (bool, error) {
				return c.custodial.IsInterestAvailable(ctx, c.asset.Ticker)
			}
		}
		c.cache = NewActiveAccounts(c.asset.Ticker, c.loadAccounts, probe)
	})
	return c.cache
}

// ForceRefresh marks the account list stale, eg after an account was added
// or relabeled.
func (c *CryptoAsset) ForceRefresh() {
	c.accountCache().SetForceRefresh()
}

// Accounts returns every active account of the asset, cached between
// refresh triggers.
func (c *CryptoAsset) Accounts(ctx context.Context) ([]CryptoAccount, error) {
	return c.accountCache().Fetch(ctx)
}

// loadAccounts discovers the asset's accounts from all backends at once.
// Non-custodial, custodial and exchange legs load concurrently; a missing
// leg (nil backend, no linked exchange) contributes nothing.
func (c *CryptoAsset) loadAccounts(ctx context.Context) ([]CryptoAccount, error) {
	var (
		nonCustodial []CryptoAccount
		custodial    []CryptoAccount
		exchange     []CryptoAccount
	)

	eg, ctx := errgroup.WithContext(ctx)

	if c.chain != nil {
		eg.Go(func() error {
			refs, err := c.chain.ListAccounts(ctx, c.asset.Ticker)
			if err != nil {
				return fmt.Errorf("listing %s accounts: %w", c.asset.Ticker, err)
			}
			for _, ref := range refs {
				nonCustodial = append(nonCustodial, NewNonCustodialAccount(NonCustodialAccountParams{
					Asset:        c.asset,
					Ref:          ref,
					Chain:        c.chain,
					Custodial:    c.custodial,
					Rates:        c.rates,
					FiatCurrency: c.fiat,
				}))
			}
			return nil
		})
	}

	if c.custodial != nil && c.asset.IsCustodial() {
		eg.Go(func() error {
			custodial = append(custodial, NewTradingAccount(c.asset, TradingAccountLabel, c.custodial, c.rates, c.fiat))
			available, err := c.custodial.IsInterestAvailable(ctx, c.asset.Ticker)
			if err != nil {
				return fmt.Errorf("interest availability for %s: %w", c.asset.Ticker, err)
			}
			if available {
				custodial = append(custodial, NewInterestAccount(c.asset, InterestAccountLabel, c.custodial, c.rates, c.fiat))
			}
			return nil
		})
		eg.Go(func() error {
			addr, ok, err := c.custodial.ExchangeAddress(ctx, c.asset.Ticker)
			if err != nil {
				return fmt.Errorf("exchange address for %s: %w", c.asset.Ticker, err)
			}
			if ok {
				exchange = append(exchange, NewExchangeAccount(c.asset, ExchangeAccountLabel, addr))
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]CryptoAccount, 0, len(nonCustodial)+len(custodial)+len(exchange))
	out = append(out, nonCustodial...)
	out = append(out, custodial...)
	out = append(out, exchange...)
	return out, nil
}

// AccountGroup builds the aggregate view of the asset's accounts selected
// by filter.
func (c *CryptoAsset) AccountGroup(ctx context.Context, filter AccountFilter) (*Group, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	members := filterAccounts(asAccounts(accounts), filter, false)
	return NewGroup(groupLabel(c.asset.Ticker), c.asset.Ticker, members), nil
}

// DefaultAccount is the non-custodial account flagged as default, falling
// back to the first active account.
func (c *CryptoAsset) DefaultAccount(ctx context.Context) (CryptoAccount, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	var fallback CryptoAccount
	for _, a := range accounts {
		if a.IsArchived() {
			continue
		}
		if a.IsDefault() {
			return a, nil
		}
		if fallback == nil {
			fallback = a
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("%s: no active account", c.asset.Ticker)
	}
	return fallback, nil
}

// TransactionTargets lists the same-asset accounts a transfer from source
// may land on. The shape depends on the source kind: on-chain sources may
// hit any custodial or sibling wallet, custodial sources only move outward
// to user keys or the linked exchange, interest sources only withdraw back.
func (c *CryptoAsset) TransactionTargets(ctx context.Context, source CryptoAccount) ([]Account, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	var out []Account
	switch source.Kind() {
	case KindNonCustodial:
		for _, a := range accounts {
			if a == source || a.IsArchived() {
				continue
			}
			switch a.Kind() {
			case KindNonCustodial, KindTrading, KindExchange:
				out = append(out, a)
			}
		}
	case KindTrading:
		for _, a := range accounts {
			if a.IsArchived() {
				continue
			}
			switch a.Kind() {
			case KindNonCustodial, KindExchange:
				out = append(out, a)
			}
		}
	case KindInterest:
		for _, a := range accounts {
			if a.IsArchived() {
				continue
			}
			switch a.Kind() {
			case KindNonCustodial, KindTrading:
				out = append(out, a)
			}
		}
	}
	return out, nil
}

// FindAccountByAddress resolves an address to the account that owns it, or
// ok=false when no active account does.
func (c *CryptoAsset) FindAccountByAddress(ctx context.Context, address string) (CryptoAccount, bool, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, a := range accounts {
		recv, err := a.ReceiveAddress(ctx)
		if err != nil {
			continue
		}
		if strings.EqualFold(recv.Address, address) {
			return a, true, nil
		}
	}
	return nil, false, nil
}

// ExchangeRate is the asset's current price in the configured fiat.
func (c *CryptoAsset) ExchangeRate(ctx context.Context) (money.Rate, error) {
	if c.rates == nil {
		return money.Rate{}, fmt.Errorf("%s: no rate source", c.asset.Ticker)
	}
	return c.rates.Rate(ctx, c.asset.Ticker, c.fiat)
}

// HistoricRate is the asset's price in the configured fiat at a past
// instant, used to fiat-annotate old activity records.
func (c *CryptoAsset) HistoricRate(ctx context.Context, at time.Time) (money.Rate, error) {
	if c.rates == nil {
		return money.Rate{}, fmt.Errorf("%s: no rate source", c.asset.Ticker)
	}
	return c.rates.RateAt(ctx, c.asset.Ticker, c.fiat, at)
}

func asAccounts(accounts []CryptoAccount) []Account {
	out := make([]Account, len(accounts))
	for i, a := range accounts {
		out[i] = a
	}
	return out
}
