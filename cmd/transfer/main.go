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
	"coincore-go/internal/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type transferRequest struct {
	asset       string
	fromLabel   string
	destination string
	amount      decimal.Decimal
	action      coincore.Action
}

func parseAndValidateFlags() (*transferRequest, error) {
	assetFlag := flag.String("asset", "", "Asset ticker (e.g., BTC, ETH) (required)")
	fromFlag := flag.String("from", "", "Source account label (default: asset's default account)")
	destinationFlag := flag.String("destination", "", "Destination address or account label (required)")
	amountFlag := flag.String("amount", "", "Amount to transfer (required)")
	actionFlag := flag.String("action", string(coincore.ActionSend), "Transfer action (SEND, SWAP, SELL, INTEREST_DEPOSIT, INTEREST_WITHDRAW)")
	flag.Parse()

	if *assetFlag == "" || *amountFlag == "" || *destinationFlag == "" {
		return nil, fmt.Errorf("required flags: --asset, --amount, --destination")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return &transferRequest{
		asset:       strings.ToUpper(*assetFlag),
		fromLabel:   *fromFlag,
		destination: *destinationFlag,
		amount:      amount,
		action:      coincore.Action(strings.ToUpper(*actionFlag)),
	}, nil
}

func resolveSource(ctx context.Context, core *coincore.Coincore, req *transferRequest) (coincore.CryptoAccount, error) {
	asset, err := core.AssetFor(req.asset)
	if err != nil {
		return nil, err
	}
	if req.fromLabel == "" {
		return asset.DefaultAccount(ctx)
	}

	accounts, err := asset.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		if strings.EqualFold(account.Label(), req.fromLabel) {
			return account, nil
		}
	}
	return nil, fmt.Errorf("no account labelled %q for %s", req.fromLabel, req.asset)
}

// resolveTarget prefers a known account over a raw address: the dispatcher
// picks richer engines (internal moves, swaps) when the destination is an
// account the wallet owns.
func resolveTarget(ctx context.Context, core *coincore.Coincore, source coincore.CryptoAccount, req *transferRequest) (coincore.TransactionTarget, error) {
	targets, err := core.LegalTargets(ctx, source, req.action)
	if err != nil {
		return nil, err
	}
	for _, target := range targets {
		if strings.EqualFold(target.TargetLabel(), req.destination) {
			return target, nil
		}
	}

	if account, found, err := core.FindAccountByAddress(ctx, req.destination); err == nil && found {
		return account, nil
	}

	return coincore.CryptoAddress{
		Asset:   source.Asset(),
		Address: req.destination,
		Label:   req.destination,
	}, nil
}

func runTransfer(ctx context.Context, core *coincore.Coincore, req *transferRequest) (coincore.TxResult, error) {
	source, err := resolveSource(ctx, core, req)
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("failed to resolve source: %w", err)
	}

	target, err := resolveTarget(ctx, core, source, req)
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("failed to resolve target: %w", err)
	}

	eng, err := core.Dispatch(ctx, source, target, req.action)
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("no engine for transfer: %w", err)
	}

	tx, err := eng.Start(ctx)
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("failed to start transfer: %w", err)
	}

	tx, err = eng.UpdateAmount(ctx, tx, money.New(source.Currency(), req.amount))
	if err != nil {
		return coincore.TxResult{}, fmt.Errorf("failed to set amount: %w", err)
	}

	if err := eng.Validate(ctx, tx); err != nil {
		return coincore.TxResult{}, fmt.Errorf("transfer rejected: %w", err)
	}

	zap.L().Info("Executing transfer",
		zap.String("source", source.Label()),
		zap.String("target", target.TargetLabel()),
		zap.String("amount", tx.Amount.String()),
		zap.String("fee", tx.Fee.String()),
		zap.String("action", string(req.action)))

	return eng.Execute(ctx, tx)
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		logger.Fatal("Invalid flags", zap.Error(err))
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

	result, err := runTransfer(ctx, services.Core, req)
	if err != nil {
		logger.Fatal("Transfer failed", zap.Error(err))
	}

	fmt.Printf("\nTransfer submitted: %s\n", result.TxID)
	logger.Info("Transfer completed", zap.String("tx_id", result.TxID))
}
