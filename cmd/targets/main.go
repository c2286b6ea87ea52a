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

	"go.uber.org/zap"
)

func findSource(ctx context.Context, core *coincore.Coincore, ticker, label string) (coincore.CryptoAccount, error) {
	asset, err := core.AssetFor(ticker)
	if err != nil {
		return nil, err
	}

	if label == "" {
		return asset.DefaultAccount(ctx)
	}

	accounts, err := asset.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		if strings.EqualFold(account.Label(), label) {
			return account, nil
		}
	}
	return nil, fmt.Errorf("no account labelled %q for %s", label, ticker)
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	assetFlag := flag.String("asset", "", "Source asset ticker (required)")
	accountFlag := flag.String("account", "", "Source account label (default: asset's default account)")
	flag.Parse()

	if *assetFlag == "" {
		logger.Fatal("Missing required flag: --asset")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	source, err := findSource(ctx, services.Core, *assetFlag, *accountFlag)
	if err != nil {
		logger.Fatal("Failed to resolve source account", zap.Error(err))
	}

	actions, err := source.Actions(ctx)
	if err != nil {
		logger.Fatal("Failed to load source actions", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("TRANSACTION TARGETS: %s (%s)", source.Label(), source.Currency()), common.DefaultWidth)

	for _, action := range actions.Sorted() {
		targets, err := services.Core.LegalTargets(ctx, source, action)
		if err != nil {
			logger.Error("Failed to list targets",
				zap.String("action", string(action)),
				zap.Error(err))
			continue
		}
		if len(targets) == 0 {
			continue
		}

		fmt.Printf("\n┌─ %s\n", action)
		common.PrintBoxSeparator(common.DefaultWidth - 2)
		for i, target := range targets {
			fmt.Printf("%s %s\n", common.BoxPrefix(i == len(targets)-1), target.TargetLabel())
		}
	}

	common.PrintFooter("Done", common.DefaultWidth)
}
