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
	"go.uber.org/zap"

	"coincore-go/internal/backend"
	"coincore-go/internal/database"
	"coincore-go/internal/money"
)

// CustodialService is the custodial trading/interest backend over Prime.
// Addresses and on-chain withdrawals go through the Prime API; balances and
// histories live in the local ledger.
type CustodialService struct {
	*Service
}

var _ backend.CustodialBackend = (*CustodialService)(nil)

func (s *CustodialService) TradingAccountAddress(ctx context.Context, asset string) (string, error) {
	return s.accountAddress(ctx, database.AccountTrading, asset)
}

func (s *CustodialService) InterestAccountAddress(ctx context.Context, asset string) (string, error) {
	return s.accountAddress(ctx, database.AccountInterest, asset)
}

// accountAddress returns the custodial deposit address for an account,
// creating one through Prime on first use.
func (s *CustodialService) accountAddress(ctx context.Context, accountType, asset string) (string, error) {
	address, _, err := s.ledger.GetAddress(ctx, accountType, asset)
	if err == nil {
		return address, nil
	}
	if !errors.Is(err, database.ErrAddressNotFound) {
		return "", err
	}

	walletList, err := s.listWallets(ctx, "TRADING", []string{asset})
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, backend.ErrBackendUnavailable)
	}
	if len(walletList) == 0 {
		return "", fmt.Errorf("no %s trading wallet: %w", asset, backend.ErrNotFound)
	}
	wallet := walletList[0]

	deposit, err := s.createDepositAddress(ctx, wallet.Id, asset, "")
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, backend.ErrBackendUnavailable)
	}

	if err := s.ledger.UpsertAddress(ctx, accountType, asset, deposit.Address, wallet.Id, deposit.Network); err != nil {
		return "", err
	}

	zap.L().Info("Custodial deposit address created",
		zap.String("account_type", accountType),
		zap.String("asset", asset),
		zap.String("wallet_id", wallet.Id))
	return deposit.Address, nil
}

func (s *CustodialService) TradingBalance(ctx context.Context, asset string) (backend.Balance, error) {
	return s.ledgerBalance(ctx, database.AccountTrading, asset)
}

func (s *CustodialService) InterestBalance(ctx context.Context, asset string) (backend.Balance, error) {
	return s.ledgerBalance(ctx, database.AccountInterest, asset)
}

func (s *CustodialService) ledgerBalance(ctx context.Context, accountType, asset string) (backend.Balance, error) {
	snapshot, err := s.ledger.GetBalance(ctx, accountType, asset)
	if err != nil {
		return backend.Balance{}, err
	}
	return backend.Balance{
		Total:      money.New(asset, snapshot.Total),
		Actionable: money.New(asset, snapshot.Actionable()),
		Pending:    money.New(asset, snapshot.Pending),
	}, nil
}

func (s *CustodialService) OrderHistory(ctx context.Context, asset string) ([]backend.Order, error) {
	return s.ledger.GetOrders(ctx, asset)
}

func (s *CustodialService) TradeHistory(ctx context.Context, asset string, directions []backend.TransferDirection) ([]backend.Trade, error) {
	return s.ledger.GetTrades(ctx, asset, directions)
}

func (s *CustodialService) TransferHistory(ctx context.Context, asset string) ([]backend.Transfer, error) {
	return s.ledger.GetTransfers(ctx, asset)
}

func (s *CustodialService) IsInterestAvailable(ctx context.Context, asset string) (bool, error) {
	available, _, _, err := s.ledger.GetInterestConfig(ctx, asset)
	return available, err
}

func (s *CustodialService) InterestEligibility(ctx context.Context, asset string) (backend.Eligibility, error) {
	_, eligible, reason, err := s.ledger.GetInterestConfig(ctx, asset)
	if err != nil {
		return backend.Eligibility{}, err
	}
	return backend.Eligibility{Eligible: eligible, Reason: reason}, nil
}

func (s *CustodialService) InterestActivity(ctx context.Context, asset string) ([]backend.InterestRecord, error) {
	return s.ledger.GetInterestEntries(ctx, asset)
}

func (s *CustodialService) SupportedFundingFiats(ctx context.Context) ([]string, error) {
	out := make([]string, len(s.fundingFiats))
	copy(out, s.fundingFiats)
	return out, nil
}

func (s *CustodialService) IsSimpleBuyEligible(ctx context.Context) (bool, error) {
	return len(s.fundingFiats) > 0, nil
}

func (s *CustodialService) ExchangeAddress(ctx context.Context, asset string) (string, bool, error) {
	address, ok := s.exchangeAddresses[asset]
	return address, ok, nil
}

// CreateWithdrawal moves custodial funds. A destination matching another
// custodial account's address is an internal move settled entirely in the
// ledger; anything else goes out through the Prime withdrawal API.
func (s *CustodialService) CreateWithdrawal(ctx context.Context, params backend.WithdrawalParams) (string, error) {
	rec, internal, err := s.ledger.FindByAddress(ctx, params.DestinationAddress)
	if err != nil {
		return "", err
	}
	if internal && rec.Asset == params.Asset {
		return s.internalMove(ctx, params, rec.AccountType)
	}
	return s.primeWithdrawal(ctx, params)
}

// internalMove debits the opposite custodial account and credits the
// destination one, recording transfer and interest history as it goes.
func (s *CustodialService) internalMove(ctx context.Context, params backend.WithdrawalParams, destinationType string) (string, error) {
	sourceType := database.AccountTrading
	if destinationType == database.AccountTrading {
		sourceType = database.AccountInterest
	}

	entry, err := s.ledger.ApplyEntry(ctx, database.ApplyEntryParams{
		AccountType:  sourceType,
		Asset:        params.Asset,
		EntryType:    "withdrawal",
		Amount:       params.Amount.Amount().Neg(),
		ExternalTxId: params.IdempotencyKey,
		Address:      params.DestinationAddress,
		Reference:    fmt.Sprintf("internal move to %s", destinationType),
	})
	if err != nil {
		return "", err
	}

	_, err = s.ledger.ApplyEntry(ctx, database.ApplyEntryParams{
		AccountType:  destinationType,
		Asset:        params.Asset,
		EntryType:    "deposit",
		Amount:       params.Amount.Amount(),
		ExternalTxId: params.IdempotencyKey + "-credit",
		Address:      params.DestinationAddress,
		Reference:    fmt.Sprintf("internal move from %s", sourceType),
	})
	if err != nil {
		return "", err
	}

	now := time.Now()
	if err := s.ledger.RecordTransfer(ctx, backend.Transfer{
		ID:               entry.Id,
		State:            backend.TransferCompleted,
		Timestamp:        now,
		Value:            params.Amount,
		Fee:              money.Zero(params.Asset),
		RecipientAddress: params.DestinationAddress,
		Type:             backend.TxTransferred,
	}); err != nil {
		return "", err
	}

	interestType := backend.InterestDeposit
	if sourceType == database.AccountInterest {
		interestType = backend.InterestWithdrawal
	}
	if destinationType == database.AccountInterest || sourceType == database.AccountInterest {
		if err := s.ledger.RecordInterestEntry(ctx, backend.InterestRecord{
			ID:        entry.Id + "-interest",
			Type:      interestType,
			State:     backend.InterestComplete,
			Timestamp: now,
			Value:     params.Amount,
			Address:   params.DestinationAddress,
		}); err != nil {
			return "", err
		}
	}

	zap.L().Info("Internal custodial move completed",
		zap.String("asset", params.Asset),
		zap.String("from", sourceType),
		zap.String("to", destinationType),
		zap.String("amount", params.Amount.Amount().String()))
	return entry.Id, nil
}

// primeWithdrawal sends custodial funds out on chain via the Prime API and
// debits the trading ledger.
func (s *CustodialService) primeWithdrawal(ctx context.Context, params backend.WithdrawalParams) (string, error) {
	_, walletId, err := s.ledger.GetAddress(ctx, database.AccountTrading, params.Asset)
	if err != nil {
		return "", err
	}

	request := &transactions.CreateWalletWithdrawalRequest{
		PortfolioId:     s.portfolioId,
		SourceWalletId:  walletId,
		Amount:          params.Amount.Amount().String(),
		IdempotencyKey:  params.IdempotencyKey,
		Symbol:          params.Asset,
		DestinationType: "DESTINATION_BLOCKCHAIN",
		BlockchainAddress: &model.BlockchainAddress{
			Address: params.DestinationAddress,
		},
	}

	response, err := s.transactionsSvc.CreateWalletWithdrawal(ctx, request)
	if err != nil {
		zap.L().Error("Failed to create withdrawal",
			zap.String("wallet_id", walletId),
			zap.String("asset", params.Asset),
			zap.Error(err))
		return "", fmt.Errorf("unable to create withdrawal: %w", err)
	}

	_, err = s.ledger.ApplyEntry(ctx, database.ApplyEntryParams{
		AccountType:  database.AccountTrading,
		Asset:        params.Asset,
		EntryType:    "withdrawal",
		Amount:       params.Amount.Amount().Neg(),
		ExternalTxId: response.ActivityId,
		Address:      params.DestinationAddress,
		Reference:    "on-chain withdrawal",
	})
	if err != nil && !errors.Is(err, database.ErrDuplicateEntry) {
		return "", err
	}

	if err := s.ledger.RecordTransfer(ctx, backend.Transfer{
		ID:               response.ActivityId,
		State:            backend.TransferPending,
		Timestamp:        time.Now(),
		Value:            params.Amount,
		Fee:              money.Zero(params.Asset),
		RecipientAddress: params.DestinationAddress,
		Type:             backend.TxSent,
	}); err != nil {
		return "", err
	}

	zap.L().Info("Withdrawal created successfully",
		zap.String("activity_id", response.ActivityId),
		zap.String("wallet_id", walletId),
		zap.String("asset", params.Asset),
		zap.String("amount", params.Amount.Amount().String()))
	return response.ActivityId, nil
}

// CreateSwap registers a swap. Internal swaps debit the source trading
// balance immediately; user-key funded swaps wait for the deposit to land.
func (s *CustodialService) CreateSwap(ctx context.Context, params backend.SwapParams) (string, error) {
	state := backend.TradePendingDeposit
	if params.Direction == backend.DirectionInternal {
		state = backend.TradePendingExecution
		_, err := s.ledger.ApplyEntry(ctx, database.ApplyEntryParams{
			AccountType:  database.AccountTrading,
			Asset:        params.SourceAsset,
			EntryType:    "swap-out",
			Amount:       params.Amount.Amount().Neg(),
			ExternalTxId: params.IdempotencyKey,
			Reference:    fmt.Sprintf("swap to %s", params.DestinationAsset),
		})
		if err != nil {
			return "", err
		}
	}

	tradeId := params.IdempotencyKey
	trade := backend.Trade{
		ID:             tradeId,
		State:          state,
		Direction:      params.Direction,
		Timestamp:      time.Now(),
		SendingValue:   params.Amount,
		ReceivingValue: money.Zero(params.DestinationAsset),
		WithdrawalFee:  money.Zero(params.SourceAsset),
		FiatValue:      money.Zero(""),
	}
	if err := s.ledger.RecordTrade(ctx, trade, params.DestinationAsset, "", params.DepositTxID); err != nil {
		return "", err
	}

	zap.L().Info("Swap registered",
		zap.String("trade_id", tradeId),
		zap.String("from", params.SourceAsset),
		zap.String("to", params.DestinationAsset),
		zap.String("state", string(state)))
	return tradeId, nil
}

// CreateSell registers a sell order. Trading-funded sells debit the balance
// immediately; user-key funded sells await their deposit.
func (s *CustodialService) CreateSell(ctx context.Context, params backend.SellParams) (string, error) {
	state := backend.OrderAwaitingFunds
	if params.DepositTxID == "" {
		state = backend.OrderPendingExecution
		_, err := s.ledger.ApplyEntry(ctx, database.ApplyEntryParams{
			AccountType:  database.AccountTrading,
			Asset:        params.Asset,
			EntryType:    "sell",
			Amount:       params.Amount.Amount().Neg(),
			ExternalTxId: params.IdempotencyKey,
			Reference:    fmt.Sprintf("sell to %s", params.FiatCurrency),
		})
		if err != nil {
			return "", err
		}
	}

	orderId := params.IdempotencyKey
	order := backend.Order{
		ID:      orderId,
		Type:    backend.OrderSell,
		State:   state,
		Created: time.Now(),
		Crypto:  params.Amount,
		Fiat:    money.Zero(params.FiatCurrency),
		Fee:     money.Zero(params.FiatCurrency),
	}
	if err := s.ledger.RecordOrder(ctx, order, params.FiatCurrency); err != nil {
		return "", err
	}

	zap.L().Info("Sell registered",
		zap.String("order_id", orderId),
		zap.String("asset", params.Asset),
		zap.String("fiat", params.FiatCurrency),
		zap.String("state", string(state)))
	return orderId, nil
}
