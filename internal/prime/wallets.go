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

package prime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coinbase-samples/prime-sdk-go/model"
	"github.com/coinbase-samples/prime-sdk-go/transactions"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"coincore-go/internal/backend"
	"coincore-go/internal/database"
	"coincore-go/internal/money"
)

// WalletService is the user-key wallet backend over Prime vault wallets.
// Wallet discovery, addresses and sends go through the Prime API; balances
// settle in the local ledger as transactions are observed.
type WalletService struct {
	*Service
}

var _ backend.NonCustodialBackend = (*WalletService)(nil)

// historyLookback bounds how far back wallet history is fetched.
const historyLookback = 90 * 24 * time.Hour

// defaultNetworkFees is a flat per-asset fee schedule used for estimates.
var defaultNetworkFees = map[string]string{
	"BTC": "0.00005",
	"BCH": "0.00002",
	"ETH": "0.0005",
	"XLM": "0.00001",
}

func vaultAccountType(walletId string) string {
	return "vault:" + walletId
}

func (s *WalletService) ListAccounts(ctx context.Context, asset string) ([]backend.AccountRef, error) {
	walletList, err := s.listWallets(ctx, "VAULT", []string{asset})
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, backend.ErrBackendUnavailable)
	}

	refs := make([]backend.AccountRef, 0, len(walletList))
	for i, wallet := range walletList {
		address, err := s.walletAddress(ctx, wallet.Id, asset)
		if err != nil {
			return nil, err
		}
		refs = append(refs, backend.AccountRef{
			Asset:          asset,
			DerivationPath: wallet.Id,
			Address:        address,
			Label:          wallet.Name,
			IsDefault:      i == 0,
		})
	}
	return refs, nil
}

// walletAddress returns the wallet's deposit address, creating one through
// Prime on first use.
func (s *WalletService) walletAddress(ctx context.Context, walletId, asset string) (string, error) {
	address, _, err := s.ledger.GetAddress(ctx, vaultAccountType(walletId), asset)
	if err == nil {
		return address, nil
	}
	if !errors.Is(err, database.ErrAddressNotFound) {
		return "", err
	}

	deposit, err := s.createDepositAddress(ctx, walletId, asset, "")
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, backend.ErrBackendUnavailable)
	}
	if err := s.ledger.UpsertAddress(ctx, vaultAccountType(walletId), asset, deposit.Address, walletId, deposit.Network); err != nil {
		return "", err
	}
	return deposit.Address, nil
}

func (s *WalletService) Balance(ctx context.Context, ref backend.AccountRef) (backend.Balance, error) {
	snapshot, err := s.ledger.GetBalance(ctx, vaultAccountType(ref.DerivationPath), ref.Asset)
	if err != nil {
		return backend.Balance{}, err
	}
	return backend.Balance{
		Total:      money.New(ref.Asset, snapshot.Total),
		Actionable: money.New(ref.Asset, snapshot.Actionable()),
		Pending:    money.New(ref.Asset, snapshot.Pending),
	}, nil
}

func (s *WalletService) History(ctx context.Context, ref backend.AccountRef) ([]backend.OnChainTxRecord, error) {
	request := &transactions.ListWalletTransactionsRequest{
		PortfolioId: s.portfolioId,
		WalletId:    ref.DerivationPath,
		Start:       time.Now().Add(-historyLookback),
		Types:       []string{"DEPOSIT", "WITHDRAWAL"},
		Pagination: &model.PaginationParams{
			Limit: 500,
		},
	}

	response, err := s.transactionsSvc.ListWalletTransactions(ctx, request)
	if err != nil {
		zap.L().Error("Failed to list wallet transactions",
			zap.String("wallet_id", ref.DerivationPath),
			zap.Error(err))
		return nil, fmt.Errorf("unable to list wallet transactions: %w", err)
	}

	records := make([]backend.OnChainTxRecord, 0, len(response.Transactions))
	for _, tx := range response.Transactions {
		amount, err := decimal.NewFromString(tx.Amount)
		if err != nil {
			zap.L().Warn("Skipping transaction with unparseable amount",
				zap.String("id", tx.Id),
				zap.String("amount", tx.Amount))
			continue
		}

		txType := backend.TxReceived
		if tx.Type == "WITHDRAWAL" {
			txType = backend.TxSent
			amount = amount.Abs()
		}

		confirmations := 0
		if tx.Status == "TRANSACTION_DONE" {
			confirmations = 1
		}

		records = append(records, backend.OnChainTxRecord{
			TxID:          tx.Id,
			Type:          txType,
			Timestamp:     tx.Created,
			Value:         money.New(ref.Asset, amount),
			Fee:           money.Zero(ref.Asset),
			Confirmations: confirmations,
			Address:       ref.Address,
		})
	}
	return records, nil
}

func (s *WalletService) EstimateFee(ctx context.Context, asset string) (money.Money, error) {
	feeStr, ok := defaultNetworkFees[asset]
	if !ok {
		return money.Zero(asset), nil
	}
	return money.FromString(asset, feeStr)
}

// Submit sends funds out of a vault wallet via the Prime withdrawal API and
// debits the wallet's ledger balance.
func (s *WalletService) Submit(ctx context.Context, params backend.SubmitParams) (string, error) {
	request := &transactions.CreateWalletWithdrawalRequest{
		PortfolioId:     s.portfolioId,
		SourceWalletId:  params.Source.DerivationPath,
		Amount:          params.Amount.Amount().String(),
		IdempotencyKey:  params.IdempotencyKey,
		Symbol:          params.Source.Asset,
		DestinationType: "DESTINATION_BLOCKCHAIN",
		BlockchainAddress: &model.BlockchainAddress{
			Address: params.TargetAddress,
		},
	}

	response, err := s.transactionsSvc.CreateWalletWithdrawal(ctx, request)
	if err != nil {
		zap.L().Error("Failed to submit transaction",
			zap.String("wallet_id", params.Source.DerivationPath),
			zap.String("asset", params.Source.Asset),
			zap.Error(err))
		return "", fmt.Errorf("unable to submit transaction: %w", err)
	}

	_, err = s.ledger.ApplyEntry(ctx, database.ApplyEntryParams{
		AccountType:  vaultAccountType(params.Source.DerivationPath),
		Asset:        params.Source.Asset,
		EntryType:    "withdrawal",
		Amount:       params.Amount.Amount().Neg(),
		ExternalTxId: response.ActivityId,
		Address:      params.TargetAddress,
		Reference:    "on-chain send",
	})
	if err != nil && !errors.Is(err, database.ErrDuplicateEntry) {
		return "", err
	}

	zap.L().Info("Transaction submitted",
		zap.String("activity_id", response.ActivityId),
		zap.String("wallet_id", params.Source.DerivationPath),
		zap.String("asset", params.Source.Asset),
		zap.String("amount", params.Amount.Amount().String()))
	return response.ActivityId, nil
}
