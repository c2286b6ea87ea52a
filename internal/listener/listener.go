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

// Package listener keeps the custodial ledger in sync with Prime: it polls
// the portfolio's trading wallets for deposit transactions and applies them
// as ledger entries. Withdrawals are not watched here; they enter the
// ledger when they are created.
package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coincore-go/internal/database"
	"coincore-go/internal/models"
	"coincore-go/internal/prime"

	"go.uber.org/zap"
)

// Config contains configuration for DepositListener
type Config struct {
	PrimeService    *prime.Service
	Ledger          *database.Service
	Assets          []string
	LookbackWindow  time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
}

// DepositListener polls Prime for new custodial deposits and settles them
// into the local ledger.
type DepositListener struct {
	primeService *prime.Service
	ledger       *database.Service

	// State management for processed transactions
	processedTxIds  map[string]time.Time
	mutex           sync.RWMutex
	lookbackWindow  time.Duration
	pollingInterval time.Duration
	cleanupInterval time.Duration

	// Monitoring configuration
	assets           []string
	monitoredWallets []models.Wallet

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewDepositListener creates a new deposit listener
func NewDepositListener(cfg Config) *DepositListener {
	return &DepositListener{
		primeService:    cfg.PrimeService,
		ledger:          cfg.Ledger,
		assets:          cfg.Assets,
		processedTxIds:  make(map[string]time.Time),
		lookbackWindow:  cfg.LookbackWindow,
		pollingInterval: cfg.PollingInterval,
		cleanupInterval: cfg.CleanupInterval,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start begins the deposit monitoring process
func (d *DepositListener) Start(ctx context.Context) error {
	zap.L().Info("Starting deposit listener")

	wallets, err := d.primeService.TradingWallets(ctx, d.assets)
	if err != nil {
		return fmt.Errorf("failed to load monitored wallets: %w", err)
	}
	d.monitoredWallets = wallets

	if len(d.monitoredWallets) == 0 {
		zap.L().Warn("No wallets to monitor - make sure trading wallets exist for the configured assets")
		return fmt.Errorf("no wallets to monitor")
	}

	go d.pollLoop(ctx)
	go d.cleanupLoop(ctx)

	zap.L().Info("Deposit listener started successfully",
		zap.Int("wallets", len(d.monitoredWallets)),
		zap.Duration("polling_interval", d.pollingInterval),
		zap.Duration("lookback_window", d.lookbackWindow))

	return nil
}

// Stop gracefully stops the deposit listener
func (d *DepositListener) Stop() {
	zap.L().Info("Stopping deposit listener")
	close(d.stopChan)
	<-d.doneChan
	zap.L().Info("Deposit listener stopped")
}

// pollLoop runs the main polling loop
func (d *DepositListener) pollLoop(ctx context.Context) {
	defer close(d.doneChan)

	ticker := time.NewTicker(d.pollingInterval)
	defer ticker.Stop()

	d.pollWallets(ctx)

	for {
		select {
		case <-ticker.C:
			d.pollWallets(ctx)
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// pollWallets polls all monitored wallets for new transactions
func (d *DepositListener) pollWallets(ctx context.Context) {
	since := time.Now().UTC().Add(-d.lookbackWindow)

	var wg sync.WaitGroup
	for _, wallet := range d.monitoredWallets {
		wg.Add(1)

		go func(w models.Wallet) {
			defer wg.Done()

			if err := d.pollWallet(ctx, w, since); err != nil {
				zap.L().Error("Failed to poll wallet",
					zap.String("wallet_id", w.Id),
					zap.String("asset_symbol", w.Symbol),
					zap.Error(err))
			}
		}(wallet)
	}
	wg.Wait()
}

// pollWallet polls a specific wallet for new deposit transactions
func (d *DepositListener) pollWallet(ctx context.Context, wallet models.Wallet, since time.Time) error {
	transactions, err := d.primeService.WalletTransactions(ctx, wallet.Id, since)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}

	for _, tx := range transactions {
		if tx.Type != "DEPOSIT" {
			continue
		}
		if d.isTransactionProcessed(tx.Id) {
			continue
		}

		if err := d.processDeposit(ctx, tx, wallet); err != nil {
			zap.L().Error("Failed to process deposit",
				zap.String("transaction_id", tx.Id),
				zap.String("wallet_id", wallet.Id),
				zap.String("asset", wallet.Symbol),
				zap.Error(err))
		}
	}
	return nil
}

// cleanupLoop periodically evicts processed-transaction ids older than the
// lookback window; anything older can no longer reappear in a poll.
func (d *DepositListener) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.cleanupProcessedTxIds()
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *DepositListener) cleanupProcessedTxIds() {
	cutoff := time.Now().Add(-d.lookbackWindow)

	d.mutex.Lock()
	defer d.mutex.Unlock()

	removed := 0
	for id, seen := range d.processedTxIds {
		if seen.Before(cutoff) {
			delete(d.processedTxIds, id)
			removed++
		}
	}
	if removed > 0 {
		zap.L().Debug("Evicted processed transaction ids", zap.Int("removed", removed))
	}
}

func (d *DepositListener) isTransactionProcessed(txId string) bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	_, ok := d.processedTxIds[txId]
	return ok
}

func (d *DepositListener) markTransactionProcessed(txId string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.processedTxIds[txId] = time.Now()
}
