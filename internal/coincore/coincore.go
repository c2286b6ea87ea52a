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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"coincore-go/internal/backend"
	"coincore-go/internal/catalogue"
	"coincore-go/internal/money"
)

// Coincore is the wallet's account core: one entry point over every asset,
// account and transfer flow. Build it with New, call Init once, then treat
// it as read-only; all methods are safe for concurrent use.
type Coincore struct {
	catalogue *catalogue.Catalogue
	chain     backend.NonCustodialBackend
	custodial backend.CustodialBackend
	fiatRails backend.FiatBackend
	rates     backend.RateBackend
	resolver  EngineResolver
	fiat      string

	assets       map[string]*CryptoAsset
	orderedAsset []*CryptoAsset
	fiatAccounts []Account
}

// Params collects the Coincore collaborators.
type Params struct {
	Catalogue    *catalogue.Catalogue
	Chain        backend.NonCustodialBackend
	Custodial    backend.CustodialBackend
	Fiat         backend.FiatBackend
	Rates        backend.RateBackend
	Resolver     EngineResolver
	FiatCurrency string
}

func New(params Params) (*Coincore, error) {
	if params.Catalogue == nil {
		return nil, fmt.Errorf("coincore: catalogue is required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("coincore: engine resolver is required")
	}
	if params.FiatCurrency == "" {
		params.FiatCurrency = "USD"
	}
	return &Coincore{
		catalogue: params.Catalogue,
		chain:     params.Chain,
		custodial: params.Custodial,
		fiatRails: params.Fiat,
		rates:     params.Rates,
		resolver:  params.Resolver,
		fiat:      params.FiatCurrency,
		assets:    make(map[string]*CryptoAsset),
	}, nil
}

// Init builds the per-asset facades and warms their account caches. Base
// chains load first, tokens after, so a token's parent chain accounts exist
// before the token's do. Init must complete before any other method is
// called.
func (c *Coincore) Init(ctx context.Context) error {
	var base, tokens []catalogue.Asset
	for _, asset := range c.catalogue.SupportedCryptoAssets() {
		if asset.IsToken() {
			tokens = append(tokens, asset)
		} else {
			base = append(base, asset)
		}
	}

	if err := c.initPhase(ctx, base); err != nil {
		return fmt.Errorf("initializing base assets: %w", err)
	}
	if err := c.initPhase(ctx, tokens); err != nil {
		return fmt.Errorf("initializing tokens: %w", err)
	}

	if err := c.initFiatAccounts(ctx); err != nil {
		return fmt.Errorf("initializing fiat accounts: %w", err)
	}

	zap.L().Info("coincore initialized",
		zap.Int("assets", len(c.assets)),
		zap.Int("fiatAccounts", len(c.fiatAccounts)))
	return nil
}

func (c *Coincore) initPhase(ctx context.Context, assets []catalogue.Asset) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, asset := range assets {
		ca := NewCryptoAsset(CryptoAssetParams{
			Asset:        asset,
			Chain:        c.chainFor(asset),
			Custodial:    c.custodial,
			Rates:        c.rates,
			FiatCurrency: c.fiat,
		})
		c.assets[asset.Ticker] = ca
		c.orderedAsset = append(c.orderedAsset, ca)

		eg.Go(func() error {
			if _, err := ca.Accounts(ctx); err != nil {
				return fmt.Errorf("warming %s: %w", ca.Ticker(), err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// chainFor returns the on-chain backend for the asset, nil for
// custodial-only listings.
func (c *Coincore) chainFor(asset catalogue.Asset) backend.NonCustodialBackend {
	if !asset.IsNonCustodial() {
		return nil
	}
	return c.chain
}

func (c *Coincore) initFiatAccounts(ctx context.Context) error {
	if c.custodial == nil || c.fiatRails == nil {
		return nil
	}
	currencies, err := c.custodial.SupportedFundingFiats(ctx)
	if err != nil {
		return err
	}
	for _, cur := range currencies {
		c.fiatAccounts = append(c.fiatAccounts, NewFiatAccount(cur, cur+" Account", c.fiatRails))
	}
	return nil
}

// AssetFor returns the facade for a ticker.
func (c *Coincore) AssetFor(ticker string) (*CryptoAsset, error) {
	asset, ok := c.assets[strings.ToUpper(ticker)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ticker, ErrUnknownAsset)
	}
	return asset, nil
}

// Assets returns every initialized asset facade in catalogue order.
func (c *Coincore) Assets() []*CryptoAsset {
	out := make([]*CryptoAsset, len(c.orderedAsset))
	copy(out, c.orderedAsset)
	return out
}

// AccountsFor returns one asset's accounts selected by filter, as a group.
func (c *Coincore) AccountsFor(ctx context.Context, ticker string, filter AccountFilter) (*Group, error) {
	asset, err := c.AssetFor(ticker)
	if err != nil {
		return nil, err
	}
	return asset.AccountGroup(ctx, filter)
}

// FiatAccounts returns the funding fiat wallets.
func (c *Coincore) FiatAccounts() []Account {
	out := make([]Account, len(c.fiatAccounts))
	copy(out, c.fiatAccounts)
	return out
}

// AllWallets aggregates every account of every asset plus the fiat wallets
// into one portfolio-wide group, denominated in the configured fiat.
// Archived accounts join the group only when includeArchived is set.
func (c *Coincore) AllWallets(ctx context.Context, includeArchived bool) (*Group, error) {
	var members []Account
	for _, asset := range c.orderedAsset {
		accounts, err := asset.Accounts(ctx)
		if err != nil {
			return nil, err
		}
		members = append(members, filterAccounts(asAccounts(accounts), FilterAll, includeArchived)...)
	}
	members = append(members, c.fiatAccounts...)
	return NewGroup(AllWalletsLabel, c.fiat, members), nil
}

// LegalTargets lists every target a given action may legally point at from
// source. The dispatcher is the final authority; this is the menu shown to
// the user.
func (c *Coincore) LegalTargets(ctx context.Context, source Account, action Action) ([]TransactionTarget, error) {
	switch action {
	case ActionSell:
		out := make([]TransactionTarget, 0, len(c.fiatAccounts))
		for _, fa := range c.fiatAccounts {
			out = append(out, fa)
		}
		return out, nil

	case ActionSwap:
		return c.swapTargets(ctx, source)

	case ActionSend, ActionInterestWithdraw:
		src, ok := source.(CryptoAccount)
		if !ok {
			return nil, fmt.Errorf("%s from %s: %w", action, source.Label(), ErrUnsupportedTransfer)
		}
		asset, err := c.AssetFor(src.Asset().Ticker)
		if err != nil {
			return nil, err
		}
		accounts, err := asset.TransactionTargets(ctx, src)
		if err != nil {
			return nil, err
		}
		out := make([]TransactionTarget, 0, len(accounts))
		for _, a := range accounts {
			out = append(out, a)
		}
		return out, nil

	case ActionFiatDeposit, ActionFiatWithdraw:
		// Fiat flows target the account itself.
		return []TransactionTarget{source}, nil
	}
	return nil, nil
}

// swapTargets is every crypto account of a different asset the source may
// swap into. Interest and exchange accounts never receive swaps, and a
// custodial source stays custodial.
func (c *Coincore) swapTargets(ctx context.Context, source Account) ([]TransactionTarget, error) {
	src, ok := source.(CryptoAccount)
	if !ok {
		return nil, fmt.Errorf("swap from %s: %w", source.Label(), ErrUnsupportedTransfer)
	}

	var out []TransactionTarget
	for _, asset := range c.orderedAsset {
		if asset.Ticker() == src.Asset().Ticker {
			continue
		}
		accounts, err := asset.Accounts(ctx)
		if err != nil {
			return nil, err
		}
		for _, a := range accounts {
			if a.IsArchived() {
				continue
			}
			switch a.Kind() {
			case KindTrading:
				out = append(out, a)
			case KindNonCustodial:
				if src.Kind() != KindTrading {
					out = append(out, a)
				}
			}
		}
	}
	return out, nil
}

// Dispatch resolves the execution engine for a transfer.
func (c *Coincore) Dispatch(ctx context.Context, source Account, target TransactionTarget, action Action) (ExecutionEngine, error) {
	return c.resolver.Resolve(ctx, source, target, action)
}

// IsLabelUnique reports whether no account, archived ones included, already
// carries the label. Comparison is case-insensitive.
func (c *Coincore) IsLabelUnique(ctx context.Context, label string) (bool, error) {
	for _, asset := range c.orderedAsset {
		accounts, err := asset.Accounts(ctx)
		if err != nil {
			return false, err
		}
		for _, a := range accounts {
			if strings.EqualFold(a.Label(), label) {
				return false, nil
			}
		}
	}
	for _, fa := range c.fiatAccounts {
		if strings.EqualFold(fa.Label(), label) {
			return false, nil
		}
	}
	return true, nil
}

// FindAccountByAddress scans every asset for the account owning address.
func (c *Coincore) FindAccountByAddress(ctx context.Context, address string) (CryptoAccount, bool, error) {
	for _, asset := range c.orderedAsset {
		account, ok, err := asset.FindAccountByAddress(ctx, address)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return account, true, nil
		}
	}
	return nil, false, nil
}

// AssetPrice is a current price annotated with its 24h move.
type AssetPrice struct {
	Rate     money.Rate
	Delta24h decimal.Decimal
}

// ExchangePriceWithDelta returns the asset's fiat price and its 24-hour
// percentage change.
func (c *Coincore) ExchangePriceWithDelta(ctx context.Context, ticker string) (AssetPrice, error) {
	asset, err := c.AssetFor(ticker)
	if err != nil {
		return AssetPrice{}, err
	}
	if c.rates == nil {
		return AssetPrice{}, fmt.Errorf("%s: no rate source", ticker)
	}
	rate, err := c.rates.Rate(ctx, asset.Ticker(), c.fiat)
	if err != nil {
		return AssetPrice{}, fmt.Errorf("price for %s: %w", ticker, err)
	}
	delta, err := c.rates.Delta24h(ctx, asset.Ticker())
	if err != nil {
		return AssetPrice{}, fmt.Errorf("24h delta for %s: %w", ticker, err)
	}
	return AssetPrice{Rate: rate, Delta24h: delta}, nil
}
