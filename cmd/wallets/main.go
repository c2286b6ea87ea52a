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

package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"coincore-go/internal/coincore"
	"coincore-go/internal/common"
	"coincore-go/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type walletStats struct {
	totalAssets    int
	totalAccounts  int
	fundedAccounts int
}

func formatActions(set coincore.ActionSet) string {
	actions := set.Sorted()
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, string(a))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func printAccount(ctx context.Context, account coincore.Account, isLast bool) (funded bool) {
	symbol := common.BoxPrefix(isLast)

	balance, err := account.Balance(ctx)
	if err != nil {
		fmt.Printf("%s %-24s: balance unavailable (%v)\n", symbol, account.Label(), err)
		return false
	}

	actions, err := account.Actions(ctx)
	if err != nil {
		fmt.Printf("%s %-24s: actions unavailable (%v)\n", symbol, account.Label(), err)
		return false
	}

	fmt.Printf("%s %-24s: %20s (actionable: %s)\n",
		symbol, account.Label(), balance.Total.String(), balance.Actionable.String())
	fmt.Printf("%s   %s [%s]\n", strings.TrimRight(symbol, " "), account.Kind(), formatActions(actions))

	return account.IsFunded()
}

func printAsset(ctx context.Context, asset *coincore.CryptoAsset) (accounts, funded int, err error) {
	group, err := asset.AccountGroup(ctx, coincore.FilterAll)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load accounts: %w", err)
	}
	members := group.Accounts()
	if len(members) == 0 {
		return 0, 0, nil
	}

	fmt.Printf("\n┌─ %s (%s)\n", asset.Asset().Name, asset.Ticker())
	common.PrintBoxSeparator(common.DefaultWidth - 2)
	for i, account := range members {
		if printAccount(ctx, account, i == len(members)-1) {
			funded++
		}
	}
	return len(members), funded, nil
}

func printPrices(ctx context.Context, services *common.Services) {
	fmt.Printf("\n┌─ Prices\n")
	common.PrintBoxSeparator(common.DefaultWidth - 2)

	assets := services.Core.Assets()
	for i, asset := range assets {
		symbol := common.BoxPrefix(i == len(assets)-1)
		price, err := services.Core.ExchangePriceWithDelta(ctx, asset.Ticker())
		if err != nil {
			fmt.Printf("%s %-6s: price unavailable (%v)\n", symbol, asset.Ticker(), err)
			continue
		}
		fmt.Printf("%s %-6s: %s %s (%s%% 24h)\n",
			symbol, asset.Ticker(), price.Rate.Price.StringFixed(2), price.Rate.To,
			price.Delta24h.StringFixed(2))
	}
}

func printTrending(ctx context.Context, services *common.Services) {
	pairs, err := services.Core.TrendingPairs(ctx)
	if err != nil || len(pairs) == 0 {
		return
	}

	fmt.Printf("\n┌─ Trending swaps\n")
	common.PrintBoxSeparator(common.DefaultWidth - 2)
	for i, pair := range pairs {
		symbol := common.BoxPrefix(i == len(pairs)-1)
		fmt.Printf("%s %s -> %s\n", symbol, pair.Source.Currency(), pair.Target.Currency())
	}
}

func printPortfolioTotal(ctx context.Context, services *common.Services, fiatCurrency string) {
	portfolio, err := services.Core.AllWallets(ctx, false)
	if err != nil {
		zap.L().Warn("Failed to build portfolio group", zap.Error(err))
		return
	}

	// Members span currencies, so the group sum is not meaningful here;
	// convert each crypto member through its fiat rate instead.
	total := decimal.Zero
	for _, account := range portfolio.Accounts() {
		balance, err := account.Balance(ctx)
		if err != nil {
			continue
		}
		if account.Currency() == fiatCurrency {
			total = total.Add(balance.Total.Amount())
			continue
		}
		if balance.Rate != nil {
			if converted, err := balance.Rate.Convert(balance.Total); err == nil {
				total = total.Add(converted.Amount())
			}
		}
	}

	fmt.Printf("\n┌─ Portfolio (%s, %d accounts)\n", portfolio.Label(), portfolio.Size())
	common.PrintBoxSeparator(common.DefaultWidth - 2)
	fmt.Printf("%s %s %s\n", common.BoxPrefix(true), total.StringFixed(2), fiatCurrency)
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	assetFlag := flag.String("asset", "", "Filter by asset ticker (optional)")
	flag.Parse()

	logger.Info("Starting wallet report")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	common.PrintHeader("WALLET REPORT", common.DefaultWidth)

	stats := walletStats{}
	for _, asset := range services.Core.Assets() {
		if *assetFlag != "" && !strings.EqualFold(asset.Ticker(), *assetFlag) {
			continue
		}
		stats.totalAssets++

		accounts, funded, err := printAsset(ctx, asset)
		if err != nil {
			logger.Error("Failed to report asset",
				zap.String("ticker", asset.Ticker()),
				zap.Error(err))
			continue
		}
		stats.totalAccounts += accounts
		stats.fundedAccounts += funded
	}

	if *assetFlag == "" {
		fiatAccounts := services.Core.FiatAccounts()
		if len(fiatAccounts) > 0 {
			fmt.Printf("\n┌─ Fiat\n")
			common.PrintBoxSeparator(common.DefaultWidth - 2)
			for i, account := range fiatAccounts {
				if printAccount(ctx, account, i == len(fiatAccounts)-1) {
					stats.fundedAccounts++
				}
				stats.totalAccounts++
			}
		}

		printPrices(ctx, services)
		printTrending(ctx, services)
		printPortfolioTotal(ctx, services, cfg.Wallet.FiatCurrency)
	}

	summary := fmt.Sprintf("SUMMARY: %d accounts across %d assets (%d funded)",
		stats.totalAccounts, stats.totalAssets, stats.fundedAccounts)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Wallet report completed",
		zap.Int("assets", stats.totalAssets),
		zap.Int("accounts", stats.totalAccounts),
		zap.Int("funded", stats.fundedAccounts))
}
