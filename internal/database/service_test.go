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

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"coincore-go/internal/backend"
	"coincore-go/internal/models"
	"coincore-go/internal/money"
)

func newTestLedger(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), models.DatabaseConfig{
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
	t.Cleanup(svc.Close)
	return svc
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestApplyEntryUpdatesBalance(t *testing.T) {
	svc := newTestLedger(t)
	ctx := context.Background()

	entry, err := svc.ApplyEntry(ctx, ApplyEntryParams{
		AccountType:  AccountTrading,
		Asset:        "BTC",
		EntryType:    "deposit",
		Amount:       dec(t, "1.5"),
		ExternalTxId: "ext-1",
	})
	if err != nil {
		t.Fatalf("ApplyEntry failed: %v", err)
	}
	if !entry.BalanceAfter.Equal(dec(t, "1.5")) {
		t.Errorf("BalanceAfter = %s, want 1.5", entry.BalanceAfter)
	}

	snapshot, err := svc.GetBalance(ctx, AccountTrading, "BTC")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !snapshot.Total.Equal(dec(t, "1.5")) {
		t.Errorf("Total = %s, want 1.5", snapshot.Total)
	}

	// Withdrawals are negative entries.
	entry, err = svc.ApplyEntry(ctx, ApplyEntryParams{
		AccountType:  AccountTrading,
		Asset:        "BTC",
		EntryType:    "withdrawal",
		Amount:       dec(t, "-0.5"),
		ExternalTxId: "ext-2",
	})
	if err != nil {
		t.Fatalf("ApplyEntry failed: %v", err)
	}
	if !entry.BalanceAfter.Equal(dec(t, "1")) {
		t.Errorf("BalanceAfter = %s, want 1", entry.BalanceAfter)
	}

	if err := svc.ReconcileBalance(ctx, AccountTrading, "BTC"); err != nil {
		t.Errorf("ReconcileBalance failed: %v", err)
	}
}

func TestApplyEntryDedupesExternalTxId(t *testing.T) {
	svc := newTestLedger(t)
	ctx := context.Background()

	params := ApplyEntryParams{
		AccountType:  AccountTrading,
		Asset:        "BTC",
		EntryType:    "deposit",
		Amount:       dec(t, "1"),
		ExternalTxId: "ext-dup",
	}
	if _, err := svc.ApplyEntry(ctx, params); err != nil {
		t.Fatalf("First ApplyEntry failed: %v", err)
	}
	if _, err := svc.ApplyEntry(ctx, params); !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("Replay error = %v, want ErrDuplicateEntry", err)
	}

	snapshot, err := svc.GetBalance(ctx, AccountTrading, "BTC")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !snapshot.Total.Equal(dec(t, "1")) {
		t.Errorf("Total = %s after replay, want 1", snapshot.Total)
	}
}

func TestPendingEntrySettlement(t *testing.T) {
	svc := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.ApplyEntry(ctx, ApplyEntryParams{
		AccountType:  AccountTrading,
		Asset:        "ETH",
		EntryType:    "deposit",
		Amount:       dec(t, "2"),
		ExternalTxId: "ext-pending",
		Status:       "pending",
	})
	if err != nil {
		t.Fatalf("ApplyEntry failed: %v", err)
	}

	snapshot, err := svc.GetBalance(ctx, AccountTrading, "ETH")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !snapshot.Total.IsZero() {
		t.Errorf("Pending deposit moved the settled balance to %s", snapshot.Total)
	}
	if !snapshot.Pending.Equal(dec(t, "2")) {
		t.Errorf("Pending = %s, want 2", snapshot.Pending)
	}

	settled, err := svc.SettleEntry(ctx, "ext-pending")
	if err != nil {
		t.Fatalf("SettleEntry failed: %v", err)
	}
	if !settled {
		t.Fatal("SettleEntry found no pending entry")
	}

	snapshot, err = svc.GetBalance(ctx, AccountTrading, "ETH")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !snapshot.Total.Equal(dec(t, "2")) {
		t.Errorf("Total = %s after settlement, want 2", snapshot.Total)
	}
	if !snapshot.Pending.IsZero() {
		t.Errorf("Pending = %s after settlement, want 0", snapshot.Pending)
	}

	// Settling twice is a no-op, not an error.
	settled, err = svc.SettleEntry(ctx, "ext-pending")
	if err != nil {
		t.Fatalf("Second SettleEntry failed: %v", err)
	}
	if settled {
		t.Error("Second SettleEntry reported a pending entry")
	}
}

func TestBalanceSnapshotActionable(t *testing.T) {
	snapshot := BalanceSnapshot{
		Total:  decimal.NewFromInt(10),
		Locked: decimal.NewFromInt(3),
	}
	if got := snapshot.Actionable(); !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Actionable = %s, want 7", got)
	}
}

func TestGetBalanceMissingRowIsZero(t *testing.T) {
	svc := newTestLedger(t)

	snapshot, err := svc.GetBalance(context.Background(), AccountInterest, "XLM")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !snapshot.Total.IsZero() || !snapshot.Locked.IsZero() || !snapshot.Pending.IsZero() {
		t.Errorf("Missing row returned non-zero snapshot: %+v", snapshot)
	}
}

func TestAddressBook(t *testing.T) {
	svc := newTestLedger(t)
	ctx := context.Background()

	if err := svc.UpsertAddress(ctx, AccountTrading, "BTC", "bc1qfirst", "wallet-1", "bitcoin"); err != nil {
		t.Fatalf("UpsertAddress failed: %v", err)
	}
	if err := svc.UpsertAddress(ctx, AccountTrading, "BTC", "bc1qsecond", "wallet-1", "bitcoin"); err != nil {
		t.Fatalf("Second UpsertAddress failed: %v", err)
	}

	address, walletId, err := svc.GetAddress(ctx, AccountTrading, "BTC")
	if err != nil {
		t.Fatalf("GetAddress failed: %v", err)
	}
	if address != "bc1qsecond" {
		t.Errorf("GetAddress = %s, want the replaced address bc1qsecond", address)
	}
	if walletId != "wallet-1" {
		t.Errorf("walletId = %s, want wallet-1", walletId)
	}

	found, ok, err := svc.FindByAddress(ctx, "bc1qsecond")
	if err != nil {
		t.Fatalf("FindByAddress failed: %v", err)
	}
	if !ok {
		t.Fatal("Known address not found")
	}
	if found.Asset != "BTC" || found.AccountType != AccountTrading {
		t.Errorf("FindByAddress returned %+v", found)
	}

	if _, _, err := svc.GetAddress(ctx, AccountInterest, "BTC"); !errors.Is(err, ErrAddressNotFound) {
		t.Errorf("GetAddress error = %v, want ErrAddressNotFound", err)
	}
	if _, ok, err := svc.FindByAddress(ctx, "bc1qnobody"); err != nil || ok {
		t.Errorf("FindByAddress(unknown) = (%v, %v), want miss", ok, err)
	}
}

func TestOrderHistoryRoundTrip(t *testing.T) {
	svc := newTestLedger(t)
	ctx := context.Background()

	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	order := backend.Order{
		ID:      "order-1",
		Type:    backend.OrderBuy,
		State:   backend.OrderFinished,
		Created: created,
		Crypto:  money.New("BTC", dec(t, "0.01")),
		Fiat:    money.New("USD", dec(t, "500")),
		Fee:     money.New("USD", dec(t, "2.5")),
	}
	if err := svc.RecordOrder(ctx, order, "USD"); err != nil {
		t.Fatalf("RecordOrder failed: %v", err)
	}

	orders, err := svc.GetOrders(ctx, "BTC")
	if err != nil {
		t.Fatalf("GetOrders failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("Got %d orders, want 1", len(orders))
	}
	got := orders[0]
	if got.ID != "order-1" || got.Type != backend.OrderBuy || got.State != backend.OrderFinished {
		t.Errorf("Order came back as %+v", got)
	}
	if !got.Crypto.Amount().Equal(dec(t, "0.01")) || got.Fiat.Currency() != "USD" {
		t.Errorf("Order values came back as crypto=%s fiat=%s", got.Crypto, got.Fiat)
	}
}

func TestTradeHistoryDirectionFilter(t *testing.T) {
	svc := newTestLedger(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	record := func(id string, direction backend.TransferDirection) {
		t.Helper()
		err := svc.RecordTrade(ctx, backend.Trade{
			ID:             id,
			State:          backend.TradeFinished,
			Direction:      direction,
			Timestamp:      base,
			SendingValue:   money.New("BTC", dec(t, "0.1")),
			ReceivingValue: money.New("ETH", dec(t, "1.2")),
			WithdrawalFee:  money.Zero("ETH"),
			FiatValue:      money.New("USD", dec(t, "5000")),
		}, "ETH", "USD", "")
		if err != nil {
			t.Fatalf("RecordTrade failed: %v", err)
		}
	}
	record("trade-internal", backend.DirectionInternal)
	record("trade-onchain", backend.DirectionOnChain)

	trades, err := svc.GetTrades(ctx, "BTC", []backend.TransferDirection{backend.DirectionInternal})
	if err != nil {
		t.Fatalf("GetTrades failed: %v", err)
	}
	if len(trades) != 1 || trades[0].ID != "trade-internal" {
		t.Fatalf("Direction filter returned %+v", trades)
	}

	trades, err = svc.GetTrades(ctx, "BTC", []backend.TransferDirection{
		backend.DirectionInternal, backend.DirectionOnChain,
	})
	if err != nil {
		t.Fatalf("GetTrades failed: %v", err)
	}
	if len(trades) != 2 {
		t.Errorf("Got %d trades for both directions, want 2", len(trades))
	}

	trades, err = svc.GetTrades(ctx, "BTC", nil)
	if err != nil {
		t.Fatalf("GetTrades with no directions failed: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("Empty direction list returned %d trades, want 0", len(trades))
	}
}

func TestInterestConfigRoundTrip(t *testing.T) {
	svc := newTestLedger(t)
	ctx := context.Background()

	// Unconfigured assets report not available.
	available, eligible, _, err := svc.GetInterestConfig(ctx, "XLM")
	if err != nil {
		t.Fatalf("GetInterestConfig failed: %v", err)
	}
	if available || eligible {
		t.Errorf("Unconfigured asset reported available=%v eligible=%v", available, eligible)
	}

	if err := svc.SetInterestConfig(ctx, "BTC", true, false, "KYC required"); err != nil {
		t.Fatalf("SetInterestConfig failed: %v", err)
	}
	available, eligible, reason, err := svc.GetInterestConfig(ctx, "BTC")
	if err != nil {
		t.Fatalf("GetInterestConfig failed: %v", err)
	}
	if !available || eligible || reason != "KYC required" {
		t.Errorf("Config came back as available=%v eligible=%v reason=%q", available, eligible, reason)
	}

	// Upsert replaces.
	if err := svc.SetInterestConfig(ctx, "BTC", true, true, ""); err != nil {
		t.Fatalf("SetInterestConfig update failed: %v", err)
	}
	_, eligible, _, err = svc.GetInterestConfig(ctx, "BTC")
	if err != nil {
		t.Fatalf("GetInterestConfig failed: %v", err)
	}
	if !eligible {
		t.Error("Updated config still reports ineligible")
	}
}
