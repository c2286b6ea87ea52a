package coincore

import (
	"testing"
	"time"

	"coincore-go/internal/backend"
	"coincore-go/internal/money"
)

func onChain(txID string, txType backend.OnChainTxType, ts time.Time, fee money.Money) OnChainActivity {
	return OnChainActivity{
		ActivitySummary: ActivitySummary{TxID: txID, Timestamp: ts},
		Type:            txType,
		Fee:             fee,
	}
}

func TestReconcileTradesCollapsesMatchingSend(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fee := mustMoney(t, "BTC", "0.0001")

	// Custodial ids are dashed UUIDs; the on-chain record embeds the
	// normalized id in mixed case.
	trade := TradeActivity{
		ActivitySummary: ActivitySummary{TxID: "abc-123", Timestamp: ts},
		State:           backend.TradeFinished,
	}
	activity := []ActivityItem{
		onChain("prefix-ABC123-suffix", backend.TxSent, ts, fee),
		onChain("unrelated", backend.TxReceived, ts.Add(-time.Hour), money.Zero("BTC")),
	}

	out := reconcileTrades([]TradeActivity{trade}, activity)
	if len(out) != 2 {
		t.Fatalf("Got %d items, want 2 (on-chain send collapsed into trade)", len(out))
	}

	var merged *TradeActivity
	for _, item := range out {
		switch v := item.(type) {
		case TradeActivity:
			merged = &v
		case OnChainActivity:
			if v.Type == backend.TxSent {
				t.Error("Matched on-chain send survived reconciliation")
			}
		}
	}
	if merged == nil {
		t.Fatal("Trade missing after reconciliation")
	}
	if !merged.NetworkFee.Amount().Equal(fee.Amount()) {
		t.Errorf("Trade network fee = %s, want %s", merged.NetworkFee, fee)
	}
}

func TestReconcileTradesKeepsUnmatched(t *testing.T) {
	ts := time.Now()
	trade := TradeActivity{
		ActivitySummary: ActivitySummary{TxID: "def-456", Timestamp: ts},
		State:           backend.TradeFinished,
	}
	activity := []ActivityItem{
		onChain("completely-different", backend.TxSent, ts, money.Zero("BTC")),
		// Receives never match, even with the id embedded.
		onChain("has-DEF456-inside", backend.TxReceived, ts, money.Zero("BTC")),
	}

	out := reconcileTrades([]TradeActivity{trade}, activity)
	if len(out) != 3 {
		t.Fatalf("Got %d items, want 3 (nothing collapsed)", len(out))
	}
}

func TestFilterDisplayStates(t *testing.T) {
	items := []ActivityItem{
		OrderActivity{State: backend.OrderFinished},
		OrderActivity{State: backend.OrderCanceled},
		OrderActivity{Type: backend.OrderRecurringBuy, State: backend.OrderCanceled},
		TradeActivity{State: backend.TradeExpired},
		TradeActivity{State: backend.TradePendingDeposit},
		TransferActivity{State: backend.TransferFailed},
		TransferActivity{State: backend.TransferPending},
		InterestActivity{State: backend.InterestRejected},
		InterestActivity{State: backend.InterestManualReview},
		onChain("x", backend.TxSent, time.Now(), money.Zero("BTC")),
	}

	out := filterDisplayStates(items)
	if len(out) != 6 {
		t.Fatalf("Got %d items, want 6", len(out))
	}
	for _, item := range out {
		switch v := item.(type) {
		case OrderActivity:
			if v.State == backend.OrderCanceled && v.Type != backend.OrderRecurringBuy {
				t.Error("Canceled one-off order passed the display filter")
			}
		case TradeActivity:
			if v.State == backend.TradeExpired {
				t.Error("Expired trade passed the display filter")
			}
		case TransferActivity:
			if v.State == backend.TransferFailed {
				t.Error("Failed transfer passed the display filter")
			}
		case InterestActivity:
			if v.State == backend.InterestRejected {
				t.Error("Rejected interest record passed the display filter")
			}
		}
	}
}

func TestSortActivityNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []ActivityItem{
		onChain("old", backend.TxReceived, base, money.Zero("BTC")),
		onChain("new", backend.TxReceived, base.Add(48*time.Hour), money.Zero("BTC")),
		onChain("mid", backend.TxReceived, base.Add(24*time.Hour), money.Zero("BTC")),
	}

	sortActivity(items)

	want := []string{"new", "mid", "old"}
	for i, item := range items {
		if item.Summary().TxID != want[i] {
			t.Errorf("Position %d holds %s, want %s", i, item.Summary().TxID, want[i])
		}
	}
}

func TestNormalizeTxID(t *testing.T) {
	if got := normalizeTxID("ab-cd-ef"); got != "abcdef" {
		t.Errorf("normalizeTxID = %q, want abcdef", got)
	}
	if got := normalizeTxID("nodash"); got != "nodash" {
		t.Errorf("normalizeTxID = %q, want nodash", got)
	}
}
