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

package listener

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"coincore-go/internal/database"
	"coincore-go/internal/models"
)

func newTestListener(t *testing.T) (*DepositListener, *database.Service) {
	t.Helper()
	ledger, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		PingTimeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(ledger.Close)

	l := NewDepositListener(Config{
		Ledger:          ledger,
		LookbackWindow:  time.Hour,
		PollingInterval: time.Second,
		CleanupInterval: time.Second,
	})
	return l, ledger
}

func TestProcessDepositTwoPhase(t *testing.T) {
	l, ledger := newTestListener(t)
	ctx := context.Background()
	wallet := models.Wallet{Id: "wallet-1", Symbol: "BTC", Type: "TRADING"}

	pending := models.PrimeTransaction{
		Id:     "tx-1",
		Type:   "DEPOSIT",
		Status: "TRANSACTION_IMPORT_PENDING",
		Symbol: "BTC",
		Amount: "0.5",
	}
	if err := l.processDeposit(ctx, pending, wallet); err != nil {
		t.Fatalf("Pending phase failed: %v", err)
	}

	snapshot, err := ledger.GetBalance(ctx, database.AccountTrading, "BTC")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !snapshot.Total.IsZero() {
		t.Errorf("Pending deposit settled early: total = %s", snapshot.Total)
	}
	if !snapshot.Pending.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("Pending = %s, want 0.5", snapshot.Pending)
	}

	confirmed := pending
	confirmed.Status = "TRANSACTION_IMPORTED"
	if err := l.processDeposit(ctx, confirmed, wallet); err != nil {
		t.Fatalf("Confirmed phase failed: %v", err)
	}

	snapshot, err = ledger.GetBalance(ctx, database.AccountTrading, "BTC")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !snapshot.Total.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("Total = %s after confirmation, want 0.5", snapshot.Total)
	}
	if !l.isTransactionProcessed("tx-1") {
		t.Error("Confirmed deposit not marked processed")
	}
}

func TestProcessDepositConfirmedWithoutPendingPhase(t *testing.T) {
	// A deposit may first appear already imported when the pending state
	// fell outside a poll.
	l, ledger := newTestListener(t)
	ctx := context.Background()
	wallet := models.Wallet{Id: "wallet-1", Symbol: "ETH", Type: "TRADING"}

	tx := models.PrimeTransaction{
		Id:     "tx-direct",
		Type:   "DEPOSIT",
		Status: "TRANSACTION_DONE",
		Symbol: "ETH",
		Amount: "2",
	}
	if err := l.processDeposit(ctx, tx, wallet); err != nil {
		t.Fatalf("processDeposit failed: %v", err)
	}

	snapshot, err := ledger.GetBalance(ctx, database.AccountTrading, "ETH")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !snapshot.Total.Equal(decimal.RequireFromString("2")) {
		t.Errorf("Total = %s, want 2", snapshot.Total)
	}

	// Replay is harmless.
	if err := l.processDeposit(ctx, tx, wallet); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	snapshot, err = ledger.GetBalance(ctx, database.AccountTrading, "ETH")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !snapshot.Total.Equal(decimal.RequireFromString("2")) {
		t.Errorf("Total = %s after replay, want 2", snapshot.Total)
	}
}

func TestProcessDepositSkipsUnhandledStatus(t *testing.T) {
	l, ledger := newTestListener(t)
	ctx := context.Background()
	wallet := models.Wallet{Id: "wallet-1", Symbol: "BTC", Type: "TRADING"}

	tx := models.PrimeTransaction{
		Id:     "tx-failed",
		Type:   "DEPOSIT",
		Status: "TRANSACTION_FAILED",
		Symbol: "BTC",
		Amount: "1",
	}
	if err := l.processDeposit(ctx, tx, wallet); err != nil {
		t.Fatalf("processDeposit failed: %v", err)
	}

	snapshot, err := ledger.GetBalance(ctx, database.AccountTrading, "BTC")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !snapshot.Total.IsZero() || !snapshot.Pending.IsZero() {
		t.Errorf("Failed transaction touched the ledger: %+v", snapshot)
	}
}

func TestCleanupEvictsOldTransactionIds(t *testing.T) {
	l, _ := newTestListener(t)

	l.markTransactionProcessed("fresh")
	l.mutex.Lock()
	l.processedTxIds["stale"] = time.Now().Add(-2 * time.Hour)
	l.mutex.Unlock()

	l.cleanupProcessedTxIds()

	if !l.isTransactionProcessed("fresh") {
		t.Error("Fresh id evicted")
	}
	if l.isTransactionProcessed("stale") {
		t.Error("Stale id survived cleanup")
	}
}
